package preset

import (
	"context"

	"hydrosync/internal/domain/hydration"
)

type Repository interface {
	Upsert(ctx context.Context, rows []hydration.PresetRow) (int, error)
	Delete(ctx context.Context, userID string, ids []string) (int, error)
	List(ctx context.Context, userID string) ([]hydration.PresetRow, error)
}
