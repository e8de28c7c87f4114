package devicelink

import (
	"encoding/binary"
	"math"
	"time"

	"hydrosync/internal/domain/hydration"
)

const frameLen = 9

// Reading результат разбора одного кадра.
// Sip равен nil, если кадр не несет события.
type Reading struct {
	Remaining  int
	Total      uint16
	SecondsAgo uint32
	Sip        *hydration.BottleSip
}

// Decode разбирает кадр данных:
//
//	[0]    число глотков, оставшихся в памяти бутылки
//	[1]    объем в процентах от емкости
//	[2:4]  накопленный итог, big-endian
//	[5:9]  сколько секунд назад сделан глоток, big-endian
//
// Кадр с нулевым счетчиком означает, что бутылка пуста.
func Decode(frame []byte, capacityMl int, now time.Time) (Reading, error) {
	if len(frame) == 0 {
		return Reading{}, &DecodeAnomaly{Frame: frame, Reason: "empty frame"}
	}
	if frame[0] == 0 {
		return Reading{}, nil
	}
	if len(frame) < frameLen {
		return Reading{}, &DecodeAnomaly{Frame: frame, Reason: "short frame"}
	}

	r := Reading{
		Remaining:  int(frame[0]),
		Total:      binary.BigEndian.Uint16(frame[2:4]),
		SecondsAgo: binary.BigEndian.Uint32(frame[5:9]),
	}

	volume := int(math.Round(float64(capacityMl) * float64(frame[1]) / 100))
	if volume <= 0 {
		return r, nil
	}

	r.Sip = &hydration.BottleSip{
		Timestamp: now.UnixMilli() - int64(r.SecondsAgo)*1000,
		VolumeMl:  volume,
	}
	return r, nil
}
