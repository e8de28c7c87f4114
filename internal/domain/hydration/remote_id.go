package hydration

import (
	"strconv"
	"strings"
)

const bottleIDSuffix = "-bottle"

// BottleRemoteID строит идентификатор строки в удаленном хранилище для глотка:
// {accountID}-{timestamp}-bottle
func BottleRemoteID(accountID string, timestamp int64) string {
	return accountID + "-" + strconv.FormatInt(timestamp, 10) + bottleIDSuffix
}

// IsBottleRemoteID проверяет, что идентификатор принадлежит глотку из бутылки
func IsBottleRemoteID(id string) bool {
	return strings.HasSuffix(id, bottleIDSuffix)
}

// ParseBottleRemoteID извлекает timestamp из идентификатора глотка.
// Аккаунт может содержать дефисы (uuid), поэтому берется предпоследний сегмент.
func ParseBottleRemoteID(id string) (int64, bool) {
	if !IsBottleRemoteID(id) {
		return 0, false
	}

	rest := strings.TrimSuffix(id, bottleIDSuffix)
	idx := strings.LastIndex(rest, "-")
	if idx < 0 || idx == len(rest)-1 {
		return 0, false
	}

	ts, err := strconv.ParseInt(rest[idx+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}
