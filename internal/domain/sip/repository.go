package sip

import (
	"context"

	"hydrosync/internal/domain/hydration"
)

// Repository хранилище строк глотков. Каждая запись порождает уведомление об изменении.
type Repository interface {
	Upsert(ctx context.Context, rows []hydration.SipRow) (int, error)
	Delete(ctx context.Context, userID string, ids []string) (int, error)
	List(ctx context.Context, userID string) ([]hydration.SipRow, error)
	Range(ctx context.Context, userID string, fromMs, toMs int64) ([]hydration.SipRow, error)
	MarkGarminSynced(ctx context.Context, id string) (hydration.SipRow, error)
}
