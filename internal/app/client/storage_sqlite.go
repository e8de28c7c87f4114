package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofrs/flock"
	_ "github.com/mattn/go-sqlite3"

	"hydrosync/internal/app/client/eventstore"
	"hydrosync/internal/domain/hydration"
)

const (
	kindSip    = "sip"
	kindPreset = "preset"
)

// ErrDataLocked файл данных занят другим процессом hydrosync
var ErrDataLocked = errors.New("локальные данные заняты другим процессом hydrosync (watch или device connect). Остановите его и повторите")

// SQLiteStorage хранит снимок хранилища событий на диске.
// Писать может только владелец блокировки файла данных.
type SQLiteStorage struct {
	db   *sql.DB
	lock *flock.Flock
}

func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы данных: %w", err)
	}
	// один писатель: снимки сохраняются строго последовательно
	db.SetMaxOpenConns(1)

	storage := &SQLiteStorage{db: db, lock: flock.New(path + ".lock")}

	// Создаем таблицы
	if err := storage.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка инициализации таблиц: %w", err)
	}

	return storage, nil
}

// Lock захватывает файл данных без ожидания. Если его держит другой процесс,
// возвращается ErrDataLocked.
func (s *SQLiteStorage) Lock() error {
	if s.lock.Locked() {
		return nil
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("ошибка блокировки %s: %w", s.lock.Path(), err)
	}
	if !ok {
		return ErrDataLocked
	}
	return nil
}

func (s *SQLiteStorage) initTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS bottle_sips (
			timestamp INTEGER NOT NULL,
			volume_ml INTEGER NOT NULL,
			is_synced_cloud BOOLEAN NOT NULL DEFAULT 0,
			is_synced_garmin BOOLEAN NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS manual_entries (
			id TEXT PRIMARY KEY,
			timestamp INTEGER NOT NULL,
			name TEXT NOT NULL,
			icon TEXT NOT NULL DEFAULT '',
			volume_ml INTEGER NOT NULL,
			hydration_factor INTEGER NOT NULL,
			calculated_volume_ml INTEGER NOT NULL,
			is_synced_cloud BOOLEAN NOT NULL DEFAULT 0,
			is_synced_garmin BOOLEAN NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS presets (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			icon TEXT NOT NULL DEFAULT '',
			volume_ml INTEGER NOT NULL,
			hydration_factor INTEGER NOT NULL,
			is_synced_cloud BOOLEAN NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS pending_deletions (
			kind TEXT NOT NULL,
			remote_id TEXT NOT NULL,
			seq INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_bottle_sips_ts ON bottle_sips(timestamp);
	`)
	return err
}

// SaveSnapshot переписывает все таблицы в одной транзакции.
// Снимок старше уже сохраненного пропускается. Без блокировки запись
// запрещена: снимок другого процесса затер бы чужие изменения.
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, snap eventstore.Snapshot) error {
	if !s.lock.Locked() {
		return ErrDataLocked
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	saved, err := metaUint(ctx, tx, "revision")
	if err != nil {
		return err
	}
	if saved > snap.Revision {
		return nil
	}

	for _, table := range []string{"bottle_sips", "manual_entries", "presets", "pending_deletions"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("ошибка очистки %s: %w", table, err)
		}
	}

	for _, sip := range snap.BottleSips {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO bottle_sips (timestamp, volume_ml, is_synced_cloud, is_synced_garmin) VALUES (?, ?, ?, ?)`,
			sip.Timestamp, sip.VolumeMl, sip.IsSyncedCloud, sip.IsSyncedGarmin); err != nil {
			return fmt.Errorf("ошибка сохранения глотка: %w", err)
		}
	}

	for _, e := range snap.ManualEntries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO manual_entries (id, timestamp, name, icon, volume_ml, hydration_factor,
			                            calculated_volume_ml, is_synced_cloud, is_synced_garmin)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.Timestamp, e.Name, e.Icon, e.VolumeMl, e.HydrationFactor,
			e.CalculatedVolumeMl, e.IsSyncedCloud, e.IsSyncedGarmin); err != nil {
			return fmt.Errorf("ошибка сохранения записи: %w", err)
		}
	}

	for _, p := range snap.Presets {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO presets (id, name, icon, volume_ml, hydration_factor, is_synced_cloud)
			VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Icon, p.VolumeMl, p.HydrationFactor, p.IsSyncedCloud); err != nil {
			return fmt.Errorf("ошибка сохранения пресета: %w", err)
		}
	}

	queues := map[string][]string{kindSip: snap.PendingDeletions, kindPreset: snap.PendingPresetDeletions}
	for kind, ids := range queues {
		for seq, id := range ids {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO pending_deletions (kind, remote_id, seq) VALUES (?, ?, ?)`, kind, id, seq); err != nil {
				return fmt.Errorf("ошибка сохранения очереди удаления: %w", err)
			}
		}
	}

	if err := setMeta(ctx, tx, "revision", strconv.FormatUint(snap.Revision, 10)); err != nil {
		return err
	}
	if err := setMeta(ctx, tx, "account_id", snap.AccountID); err != nil {
		return err
	}

	return tx.Commit()
}

// LoadSnapshot читает сохраненный снимок; пустая база дает пустой снимок
func (s *SQLiteStorage) LoadSnapshot(ctx context.Context) (eventstore.Snapshot, error) {
	var snap eventstore.Snapshot

	revision, err := metaUint(ctx, s.db, "revision")
	if err != nil {
		return snap, err
	}
	snap.Revision = revision

	err = s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'account_id'`).Scan(&snap.AccountID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return snap, fmt.Errorf("ошибка чтения аккаунта: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, volume_ml, is_synced_cloud, is_synced_garmin FROM bottle_sips ORDER BY timestamp, rowid`)
	if err != nil {
		return snap, fmt.Errorf("ошибка чтения глотков: %w", err)
	}
	for rows.Next() {
		var sip hydration.BottleSip
		if err := rows.Scan(&sip.Timestamp, &sip.VolumeMl, &sip.IsSyncedCloud, &sip.IsSyncedGarmin); err != nil {
			rows.Close()
			return snap, fmt.Errorf("ошибка сканирования глотка: %w", err)
		}
		snap.BottleSips = append(snap.BottleSips, sip)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT id, timestamp, name, icon, volume_ml, hydration_factor, calculated_volume_ml,
		       is_synced_cloud, is_synced_garmin
		FROM manual_entries ORDER BY timestamp, id`)
	if err != nil {
		return snap, fmt.Errorf("ошибка чтения записей: %w", err)
	}
	for rows.Next() {
		var e hydration.ManualEntry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Name, &e.Icon, &e.VolumeMl, &e.HydrationFactor,
			&e.CalculatedVolumeMl, &e.IsSyncedCloud, &e.IsSyncedGarmin); err != nil {
			rows.Close()
			return snap, fmt.Errorf("ошибка сканирования записи: %w", err)
		}
		snap.ManualEntries = append(snap.ManualEntries, e)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx,
		`SELECT id, name, icon, volume_ml, hydration_factor, is_synced_cloud FROM presets ORDER BY id`)
	if err != nil {
		return snap, fmt.Errorf("ошибка чтения пресетов: %w", err)
	}
	for rows.Next() {
		var p hydration.Preset
		if err := rows.Scan(&p.ID, &p.Name, &p.Icon, &p.VolumeMl, &p.HydrationFactor, &p.IsSyncedCloud); err != nil {
			rows.Close()
			return snap, fmt.Errorf("ошибка сканирования пресета: %w", err)
		}
		snap.Presets = append(snap.Presets, p)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `SELECT kind, remote_id FROM pending_deletions ORDER BY kind, seq`)
	if err != nil {
		return snap, fmt.Errorf("ошибка чтения очереди удаления: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind, id string
		if err := rows.Scan(&kind, &id); err != nil {
			return snap, fmt.Errorf("ошибка сканирования очереди удаления: %w", err)
		}
		if kind == kindPreset {
			snap.PendingPresetDeletions = append(snap.PendingPresetDeletions, id)
		} else {
			snap.PendingDeletions = append(snap.PendingDeletions, id)
		}
	}
	return snap, rows.Err()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func metaUint(ctx context.Context, q querier, key string) (uint64, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка чтения %s: %w", key, err)
	}
	return strconv.ParseUint(value, 10, 64)
}

func setMeta(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("ошибка сохранения %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	err := s.db.Close()
	if uErr := s.lock.Unlock(); uErr != nil && err == nil {
		err = uErr
	}
	return err
}
