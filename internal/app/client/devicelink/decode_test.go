package devicelink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydrosync/internal/domain/hydration"
)

func TestDecode(t *testing.T) {
	now := time.UnixMilli(1_700_000_100_000)

	tests := []struct {
		name        string
		frame       []byte
		wantSip     *hydration.BottleSip
		wantRemain  int
		wantTotal   uint16
		wantAnomaly bool
	}{
		{
			name:       "half of capacity thirty seconds ago",
			frame:      []byte{3, 50, 0, 10, 0, 0, 0, 0, 30},
			wantSip:    &hydration.BottleSip{Timestamp: now.UnixMilli() - 30_000, VolumeMl: 296},
			wantRemain: 3,
			wantTotal:  10,
		},
		{
			name:       "big endian running total",
			frame:      []byte{1, 10, 0x01, 0x02, 0, 0, 0, 0x01, 0x00},
			wantSip:    &hydration.BottleSip{Timestamp: now.UnixMilli() - 256_000, VolumeMl: 59},
			wantRemain: 1,
			wantTotal:  258,
		},
		{
			name:       "zero volume emits nothing",
			frame:      []byte{2, 0, 0, 0, 0, 0, 0, 0, 5},
			wantRemain: 2,
		},
		{
			name:  "empty bottle memory",
			frame: []byte{0, 0, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			name:  "empty counter short frame",
			frame: []byte{0},
		},
		{
			name:        "short frame",
			frame:       []byte{3, 50, 0, 10},
			wantAnomaly: true,
		},
		{
			name:        "no bytes",
			frame:       []byte{},
			wantAnomaly: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Decode(tt.frame, DefaultCapacityMl, now)

			if tt.wantAnomaly {
				var anomaly *DecodeAnomaly
				assert.ErrorAs(t, err, &anomaly)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRemain, r.Remaining)
			assert.Equal(t, tt.wantTotal, r.Total)
			assert.Equal(t, tt.wantSip, r.Sip)
		})
	}
}

func TestDecode_SecondsAgoOffset(t *testing.T) {
	now := time.UnixMilli(10_000_000_000)

	// байт 6 лежит во втором по старшинству разряде 32-битного смещения
	r, err := Decode([]byte{3, 50, 0, 10, 0, 0, 30, 0, 0}, DefaultCapacityMl, now)

	require.NoError(t, err)
	require.NotNil(t, r.Sip)
	assert.Equal(t, 296, r.Sip.VolumeMl)
	assert.Equal(t, uint32(30<<16), r.SecondsAgo)
	assert.Equal(t, now.UnixMilli()-int64(30<<16)*1000, r.Sip.Timestamp)
}
