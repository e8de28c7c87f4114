// Package syncengine сверяет локальное хранилище событий с удаленным:
// выгружает удаления и несинхронизированные строки, по запросу выполняет
// полную выборку со слиянием и применяет уведомления об изменениях.
package syncengine

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/semaphore"

	"hydrosync/internal/app/client/eventstore"
	"hydrosync/internal/domain/hydration"
)

const (
	DefaultDebounce = 2 * time.Second
	// MaxBatch размер пакета выгрузки; совпадает с ограничением сервера
	MaxBatch = 500
)

// Store операции хранилища событий, нужные синхронизации
type Store interface {
	Snapshot() eventstore.Snapshot
	Identity() string
	DrainDeletions(ids []string)
	DrainPresetDeletions(ids []string)
	MarkSyncedCloud(timestamps []int64, ids []string)
	MarkSyncedGarmin(timestamps []int64, ids []string)
	MarkPresetsSyncedCloud(ids []string)
	MergeRemote(sips []hydration.BottleSip, manual []hydration.ManualEntry)
	MergeRemotePresets(presets []hydration.Preset)
	RemoveRemoteDeleted(remoteID string) bool
}

// Remote удаленное хранилище
type Remote interface {
	DeleteSips(ctx context.Context, ids []string) (int, error)
	UpsertSips(ctx context.Context, rows []hydration.SipRow) (int, error)
	FetchSips(ctx context.Context) ([]hydration.SipRow, error)
	DeletePresets(ctx context.Context, ids []string) (int, error)
	UpsertPresets(ctx context.Context, rows []hydration.PresetRow) (int, error)
	FetchPresets(ctx context.Context) ([]hydration.PresetRow, error)
}

// Reason причина запуска прохода
type Reason string

const (
	ReasonSignIn   Reason = "sign_in"
	ReasonRestore  Reason = "session_restore"
	ReasonMutation Reason = "local_mutation"
	ReasonNetwork  Reason = "network_regained"
	ReasonInterval Reason = "interval"
	ReasonRealtime Reason = "realtime_reconnect"
	ReasonManual   Reason = "manual"
	ReasonRefresh  Reason = "manual_refresh"
)

// Pulls причины, после которых нужна полная выборка
func (r Reason) Pulls() bool {
	switch r {
	case ReasonSignIn, ReasonRestore, ReasonRealtime, ReasonRefresh:
		return true
	}
	return false
}

type Options struct {
	Pull bool
}

// Result итог одного прохода
type Result struct {
	Deleted         int           `json:"deleted" yaml:"deleted"`
	Uploaded        int           `json:"uploaded" yaml:"uploaded"`
	PresetsDeleted  int           `json:"presets_deleted" yaml:"presets_deleted"`
	PresetsUploaded int           `json:"presets_uploaded" yaml:"presets_uploaded"`
	Downloaded      int           `json:"downloaded" yaml:"downloaded"`
	Duration        time.Duration `json:"duration" yaml:"duration"`
}

// Stats статистика синхронизации
type Stats struct {
	TotalSyncs      int       `json:"total_syncs" yaml:"total_syncs"`
	TotalSkipped    int       `json:"total_skipped" yaml:"total_skipped"`
	LastSuccessful  time.Time `json:"last_successful" yaml:"last_successful"`
	LastFailed      time.Time `json:"last_failed" yaml:"last_failed"`
	LastError       string    `json:"last_error,omitempty" yaml:"last_error,omitempty"`
	TotalUploaded   int       `json:"total_uploaded" yaml:"total_uploaded"`
	TotalDownloaded int       `json:"total_downloaded" yaml:"total_downloaded"`
	TotalDeleted    int       `json:"total_deleted" yaml:"total_deleted"`
	TotalErrors     int       `json:"total_errors" yaml:"total_errors"`
}

type Engine struct {
	store    Store
	remote   Remote
	log      *slog.Logger
	guard    *semaphore.Weighted
	debounce time.Duration
	now      func() time.Time

	mu      sync.Mutex
	timer   *time.Timer
	stats   Stats
	stopped bool

	wg sync.WaitGroup
}

func New(store Store, remote Remote, debounce time.Duration, log *slog.Logger) *Engine {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Engine{
		store:    store,
		remote:   remote,
		log:      log.With(slog.String("component", "sync_engine")),
		guard:    semaphore.NewWeighted(1),
		debounce: debounce,
		now:      time.Now,
	}
}

// Run выполняет один проход. Если проход уже идет, сразу возвращает ErrSyncInProgress:
// триггеры не ставятся в очередь, следующий триггер догонит изменения.
func (e *Engine) Run(ctx context.Context, opts Options) (Result, error) {
	if !e.guard.TryAcquire(1) {
		e.mu.Lock()
		e.stats.TotalSkipped++
		e.mu.Unlock()
		return Result{}, ErrSyncInProgress
	}
	defer e.guard.Release(1)

	start := e.now()
	res, err := e.pass(ctx, opts)
	res.Duration = e.now().Sub(start)

	e.updateStats(res, err)
	if err != nil {
		e.log.Warn("проход синхронизации прерван", "error", err)
		return res, err
	}

	e.log.Debug("проход синхронизации завершен",
		"deleted", res.Deleted,
		"uploaded", res.Uploaded,
		"presets_uploaded", res.PresetsUploaded,
		"downloaded", res.Downloaded,
		"duration", res.Duration,
	)
	return res, nil
}

// pass шаги строго по порядку: удаления, выгрузка строк, пресеты, выборка
func (e *Engine) pass(ctx context.Context, opts Options) (Result, error) {
	var res Result

	account := e.store.Identity()
	if account == "" {
		return res, ErrNoIdentity
	}

	n, err := e.flushDeletions(ctx)
	res.Deleted = n
	if err != nil {
		return res, &SyncError{Step: StepDelete, Err: err}
	}

	n, err = e.upload(ctx, account)
	res.Uploaded = n
	if err != nil {
		return res, &SyncError{Step: StepUpload, Err: err}
	}

	res.PresetsDeleted, res.PresetsUploaded, err = e.syncPresets(ctx, account)
	if err != nil {
		return res, &SyncError{Step: StepPresets, Err: err}
	}

	if opts.Pull {
		n, err = e.pull(ctx)
		res.Downloaded = n
		if err != nil {
			return res, &SyncError{Step: StepPull, Err: err}
		}
	}
	return res, nil
}

// flushDeletions отправляет очередь одним пакетом и убирает из нее только отправленные id
func (e *Engine) flushDeletions(ctx context.Context) (int, error) {
	ids := e.store.Snapshot().PendingDeletions
	if len(ids) == 0 {
		return 0, nil
	}

	if _, err := e.remote.DeleteSips(ctx, ids); err != nil {
		return 0, err
	}
	e.store.DrainDeletions(ids)
	return len(ids), nil
}

// upload выгружает несинхронизированные строки и отмечает ровно те ключи,
// что были захвачены до запроса
func (e *Engine) upload(ctx context.Context, account string) (int, error) {
	snap := e.store.Snapshot()

	type keyed struct {
		row hydration.SipRow
		ts  int64
		id  string
	}
	var pending []keyed
	for _, s := range snap.UnsyncedSips() {
		pending = append(pending, keyed{row: hydration.SipToRow(account, s), ts: s.Timestamp})
	}
	for _, m := range snap.UnsyncedManualEntries() {
		pending = append(pending, keyed{row: hydration.ManualToRow(account, m), id: m.ID})
	}

	uploaded := 0
	for start := 0; start < len(pending); start += MaxBatch {
		chunk := pending[start:min(start+MaxBatch, len(pending))]

		rows := make([]hydration.SipRow, 0, len(chunk))
		var (
			timestamps []int64
			ids        []string
		)
		for _, k := range chunk {
			rows = append(rows, k.row)
			if k.id != "" {
				ids = append(ids, k.id)
			} else {
				timestamps = append(timestamps, k.ts)
			}
		}

		if _, err := e.remote.UpsertSips(ctx, rows); err != nil {
			return uploaded, err
		}
		e.store.MarkSyncedCloud(timestamps, ids)
		uploaded += len(chunk)
	}
	return uploaded, nil
}

func (e *Engine) syncPresets(ctx context.Context, account string) (int, int, error) {
	snap := e.store.Snapshot()

	deleted := 0
	if ids := snap.PendingPresetDeletions; len(ids) > 0 {
		if _, err := e.remote.DeletePresets(ctx, ids); err != nil {
			return 0, 0, err
		}
		e.store.DrainPresetDeletions(ids)
		deleted = len(ids)
	}

	unsynced := snap.UnsyncedPresets()
	if len(unsynced) == 0 {
		return deleted, 0, nil
	}

	rows := make([]hydration.PresetRow, 0, len(unsynced))
	ids := make([]string, 0, len(unsynced))
	for _, p := range unsynced {
		rows = append(rows, hydration.PresetToRow(account, p))
		ids = append(ids, p.ID)
	}
	if _, err := e.remote.UpsertPresets(ctx, rows); err != nil {
		return deleted, 0, err
	}
	e.store.MarkPresetsSyncedCloud(ids)
	return deleted, len(rows), nil
}

func (e *Engine) pull(ctx context.Context) (int, error) {
	rows, err := e.remote.FetchSips(ctx)
	if err != nil {
		return 0, err
	}
	presetRows, err := e.remote.FetchPresets(ctx)
	if err != nil {
		return 0, err
	}

	sips, manual := hydration.PartitionRows(rows)
	e.store.MergeRemote(sips, manual)

	presets := make([]hydration.Preset, 0, len(presetRows))
	for _, r := range presetRows {
		presets = append(presets, hydration.RowToPreset(r))
	}
	e.store.MergeRemotePresets(presets)

	return len(rows) + len(presetRows), nil
}

func (e *Engine) updateStats(res Result, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.TotalSyncs++
	e.stats.TotalUploaded += res.Uploaded + res.PresetsUploaded
	e.stats.TotalDeleted += res.Deleted + res.PresetsDeleted
	e.stats.TotalDownloaded += res.Downloaded

	if err != nil {
		e.stats.TotalErrors++
		e.stats.LastFailed = e.now()
		e.stats.LastError = err.Error()
		return
	}
	e.stats.LastSuccessful = e.now()
	e.stats.LastError = ""
}

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Trigger запускает проход в фоне. Локальные мутации откладываются на время
// debounce, чтобы серия правок ушла одним проходом.
func (e *Engine) Trigger(ctx context.Context, reason Reason) {
	if reason == ReasonMutation {
		e.mu.Lock()
		if e.stopped {
			e.mu.Unlock()
			return
		}
		if e.timer != nil {
			e.timer.Stop()
		}
		e.timer = time.AfterFunc(e.debounce, func() {
			e.runAsync(ctx, reason)
		})
		e.mu.Unlock()
		return
	}
	e.runAsync(ctx, reason)
}

func (e *Engine) runAsync(ctx context.Context, reason Reason) {
	if ctx.Err() != nil {
		return
	}

	// Add под мьютексом: после Wait новые проходы не стартуют
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()

		_, err := e.Run(ctx, Options{Pull: reason.Pulls()})
		switch {
		case errors.Is(err, ErrSyncInProgress):
			e.log.Debug("триггер пропущен: проход уже идет", "reason", reason)
		case errors.Is(err, ErrNoIdentity):
			e.log.Debug("триггер пропущен: нет пользователя", "reason", reason)
		case err != nil:
			e.log.Warn("синхронизация не удалась", "reason", reason, "error", err)
		}
	}()
}

// OnSnapshot слушатель хранилища: запускает отложенный проход, если есть что выгружать
func (e *Engine) OnSnapshot(ctx context.Context) eventstore.Listener {
	return func(snap eventstore.Snapshot) {
		if snap.AccountID == "" || !hasWork(snap) {
			return
		}
		e.Trigger(ctx, ReasonMutation)
	}
}

func hasWork(snap eventstore.Snapshot) bool {
	return len(snap.PendingDeletions) > 0 ||
		len(snap.PendingPresetDeletions) > 0 ||
		len(snap.UnsyncedSips()) > 0 ||
		len(snap.UnsyncedManualEntries()) > 0 ||
		len(snap.UnsyncedPresets()) > 0
}

// Wait останавливает отложенный триггер и ждет завершения фоновых проходов.
// После Wait триггеры игнорируются.
func (e *Engine) Wait() {
	e.mu.Lock()
	e.stopped = true
	if e.timer != nil {
		e.timer.Stop()
	}
	e.mu.Unlock()
	e.wg.Wait()
}

// ApplyChange применяет уведомление об изменении удаленной строки
func (e *Engine) ApplyChange(change hydration.Change) {
	switch change.Type {
	case hydration.ChangeDelete:
		if e.store.RemoveRemoteDeleted(change.ID) {
			e.log.Info("строка удалена на другом устройстве", "id", change.ID)
		}

	case hydration.ChangeUpdate:
		row := change.Row
		if row == nil || !row.IsSyncedGarmin {
			return
		}
		if account := e.store.Identity(); account == "" || row.UserID != account {
			return
		}

		if row.Source == hydration.SourceBottle {
			ts := row.Timestamp
			if parsed, ok := hydration.ParseBottleRemoteID(row.ID); ok {
				ts = parsed
			}
			e.store.MarkSyncedGarmin([]int64{ts}, nil)
		} else {
			e.store.MarkSyncedGarmin(nil, []string{row.ID})
		}
	}
}
