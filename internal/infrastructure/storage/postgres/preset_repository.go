package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"hydrosync/internal/domain/hydration"
)

type PresetRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewPresetRepository(pool *pgxpool.Pool, log *slog.Logger) *PresetRepository {
	return &PresetRepository{
		pool: pool,
		log:  log.With(slog.String("component", "preset_repository")),
	}
}

func (r *PresetRepository) Upsert(ctx context.Context, rows []hydration.PresetRow) (int, error) {
	batch := &pgx.Batch{}
	for _, p := range rows {
		batch.Queue(`
			INSERT INTO presets (id, user_id, name, volume_ml, hydration_factor, icon)
			VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				volume_ml = EXCLUDED.volume_ml,
				hydration_factor = EXCLUDED.hydration_factor,
				icon = EXCLUDED.icon,
				updated_at = NOW()
			WHERE presets.user_id = EXCLUDED.user_id`,
			p.ID, p.UserID, p.Name, p.VolumeMl, p.HydrationFactor, p.Icon)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	n := 0
	for range rows {
		tag, err := br.Exec()
		if err != nil {
			return n, fmt.Errorf("upsert preset: %w", err)
		}
		n += int(tag.RowsAffected())
	}
	return n, nil
}

func (r *PresetRepository) Delete(ctx context.Context, userID string, ids []string) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM presets WHERE user_id = $1 AND id = ANY($2)`, userID, ids)
	if err != nil {
		return 0, fmt.Errorf("delete presets: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *PresetRepository) List(ctx context.Context, userID string) ([]hydration.PresetRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id::text, name, volume_ml, hydration_factor, COALESCE(icon, '')
		 FROM presets WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []hydration.PresetRow{}
	for rows.Next() {
		var p hydration.PresetRow
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.VolumeMl, &p.HydrationFactor, &p.Icon); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
