package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"hydrosync/internal/domain/hydration"
	"hydrosync/internal/domain/realtime"
	"hydrosync/internal/domain/sip"
)

const sipColumns = `id, user_id::text, timestamp, volume_ml, source, hydration_factor,
	COALESCE(name, ''), COALESCE(icon, ''), is_synced_garmin`

// Строка обновляется только если что-то действительно изменилось,
// поэтому повторная выгрузка того же пакета не порождает записей и уведомлений.
// Флаг внешней синхронизации не сбрасывается.
const upsertSipSQL = `
INSERT INTO sips (id, user_id, timestamp, volume_ml, source, hydration_factor, name, icon, is_synced_garmin)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9)
ON CONFLICT (id) DO UPDATE SET
	timestamp        = EXCLUDED.timestamp,
	volume_ml        = EXCLUDED.volume_ml,
	source           = EXCLUDED.source,
	hydration_factor = EXCLUDED.hydration_factor,
	name             = EXCLUDED.name,
	icon             = EXCLUDED.icon,
	is_synced_garmin = sips.is_synced_garmin OR EXCLUDED.is_synced_garmin,
	updated_at       = NOW()
WHERE sips.user_id = EXCLUDED.user_id
  AND (sips.timestamp, sips.volume_ml, sips.source, sips.hydration_factor, sips.name, sips.icon, sips.is_synced_garmin)
      IS DISTINCT FROM
      (EXCLUDED.timestamp, EXCLUDED.volume_ml, EXCLUDED.source, EXCLUDED.hydration_factor, EXCLUDED.name, EXCLUDED.icon,
       sips.is_synced_garmin OR EXCLUDED.is_synced_garmin)
RETURNING ` + sipColumns + `, (xmax = 0) AS inserted`

type SipRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewSipRepository(pool *pgxpool.Pool, log *slog.Logger) *SipRepository {
	return &SipRepository{
		pool: pool,
		log:  log.With(slog.String("component", "sip_repository")),
	}
}

func scanSip(row pgx.Row, extra ...any) (hydration.SipRow, error) {
	var (
		r      hydration.SipRow
		source string
	)
	dest := append([]any{&r.ID, &r.UserID, &r.Timestamp, &r.VolumeMl, &source, &r.HydrationFactor, &r.Name, &r.Icon, &r.IsSyncedGarmin}, extra...)
	if err := row.Scan(dest...); err != nil {
		return r, err
	}
	r.Source = hydration.Source(source)
	return r, nil
}

// Upsert сохраняет пакет в одной транзакции и уведомляет подписчиков о фактически измененных строках
func (r *SipRepository) Upsert(ctx context.Context, rows []hydration.SipRow) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(upsertSipSQL,
			row.ID, row.UserID, row.Timestamp, row.VolumeMl, string(row.Source),
			row.HydrationFactor, row.Name, row.Icon, row.IsSyncedGarmin)
	}

	var changes []realtime.Notification
	br := tx.SendBatch(ctx, batch)
	for range rows {
		var inserted bool
		saved, err := scanSip(br.QueryRow(), &inserted)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			br.Close()
			return 0, fmt.Errorf("upsert sip: %w", err)
		}

		typ := hydration.ChangeUpdate
		if inserted {
			typ = hydration.ChangeInsert
		}
		changes = append(changes, realtime.Notification{
			UserID: saved.UserID,
			Change: hydration.Change{Type: typ, ID: saved.ID, Row: &saved},
		})
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("upsert batch: %w", err)
	}

	if err := notify(ctx, tx, changes...); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(changes), nil
}

func (r *SipRepository) Delete(ctx context.Context, userID string, ids []string) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	rows, err := tx.Query(ctx, `DELETE FROM sips WHERE user_id = $1 AND id = ANY($2) RETURNING id`, userID, ids)
	if err != nil {
		return 0, fmt.Errorf("delete sips: %w", err)
	}
	deleted, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return 0, fmt.Errorf("delete sips: %w", err)
	}

	changes := make([]realtime.Notification, 0, len(deleted))
	for _, id := range deleted {
		changes = append(changes, realtime.Notification{
			UserID: userID,
			Change: hydration.Change{Type: hydration.ChangeDelete, ID: id},
		})
	}
	if err := notify(ctx, tx, changes...); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(deleted), nil
}

func (r *SipRepository) List(ctx context.Context, userID string) ([]hydration.SipRow, error) {
	return r.query(ctx, `SELECT `+sipColumns+` FROM sips WHERE user_id = $1 ORDER BY timestamp, id`, userID)
}

func (r *SipRepository) Range(ctx context.Context, userID string, fromMs, toMs int64) ([]hydration.SipRow, error) {
	return r.query(ctx,
		`SELECT `+sipColumns+` FROM sips
		 WHERE user_id = $1 AND timestamp >= $2 AND timestamp <= $3
		 ORDER BY timestamp, id`,
		userID, fromMs, toMs)
}

func (r *SipRepository) query(ctx context.Context, sql string, args ...any) ([]hydration.SipRow, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []hydration.SipRow{}
	for rows.Next() {
		row, err := scanSip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SipRepository) MarkGarminSynced(ctx context.Context, id string) (hydration.SipRow, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return hydration.SipRow{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	row, err := scanSip(tx.QueryRow(ctx,
		`UPDATE sips SET is_synced_garmin = TRUE, updated_at = NOW() WHERE id = $1 RETURNING `+sipColumns, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return hydration.SipRow{}, sip.ErrNotFound
	}
	if err != nil {
		return hydration.SipRow{}, err
	}

	err = notify(ctx, tx, realtime.Notification{
		UserID: row.UserID,
		Change: hydration.Change{Type: hydration.ChangeUpdate, ID: row.ID, Row: &row},
	})
	if err != nil {
		return hydration.SipRow{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return hydration.SipRow{}, fmt.Errorf("commit: %w", err)
	}
	return row, nil
}

// notify ставит уведомления в транзакцию; они доставляются слушателям после commit
func notify(ctx context.Context, tx pgx.Tx, changes ...realtime.Notification) error {
	if len(changes) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range changes {
		payload, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal change: %w", err)
		}
		batch.Queue(`SELECT pg_notify($1, $2)`, ChangesChannel, string(payload))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}
