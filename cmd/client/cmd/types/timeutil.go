package types

import (
	"fmt"
	"strconv"
	"time"
)

const (
	DayLayout   = "2006-01-02"
	clockLayout = "2006-01-02 15:04"
)

// ParseTimestamp принимает RFC3339, "YYYY-MM-DD HH:MM" в локальном времени
// или миллисекунды Unix. Пустая строка дает ноль.
func ParseTimestamp(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UnixMilli(), nil
	}
	if t, err := time.ParseInLocation(clockLayout, s, time.Local); err == nil {
		return t.UnixMilli(), nil
	}
	return 0, fmt.Errorf("неверный формат времени %q: ожидается RFC3339, \"YYYY-MM-DD HH:MM\" или мс", s)
}

// DayRange границы локального дня [from, to) в мс. Пустая строка означает сегодня.
func DayRange(day string, now time.Time) (int64, int64, error) {
	var start time.Time
	if day == "" {
		y, m, d := now.Date()
		start = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	} else {
		t, err := time.ParseInLocation(DayLayout, day, now.Location())
		if err != nil {
			return 0, 0, fmt.Errorf("неверная дата %q: ожидается YYYY-MM-DD", day)
		}
		start = t
	}
	return start.UnixMilli(), start.AddDate(0, 0, 1).UnixMilli(), nil
}

// FormatTimestamp выводит мс в локальном времени
func FormatTimestamp(ms int64) string {
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04:05")
}
