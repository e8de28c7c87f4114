// Package eventstore хранит локальную копию событий гидратации.
//
// Store - единственный владелец состояния. Каждая мутация выполняется целиком
// под одной блокировкой над копией коллекций и публикуется атомарно, поэтому
// частично примененных изменений не бывает. Подписчики получают Snapshot уже
// после снятия блокировки.
package eventstore

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"hydrosync/internal/domain/hydration"
)

// Listener вызывается после каждой примененной мутации
type Listener func(Snapshot)

// ManualInput данные для новой ручной записи
type ManualInput struct {
	Name            string
	Icon            string
	VolumeMl        int
	HydrationFactor int
	// Timestamp в мс; ноль означает "сейчас"
	Timestamp int64
}

// ManualPatch частичное изменение ручной записи
type ManualPatch struct {
	Name            *string
	Icon            *string
	VolumeMl        *int
	HydrationFactor *int
	Timestamp       *int64
}

// PresetInput данные для нового пресета
type PresetInput struct {
	Name            string
	Icon            string
	VolumeMl        int
	HydrationFactor int
}

// PresetPatch частичное изменение пресета
type PresetPatch struct {
	Name            *string
	Icon            *string
	VolumeMl        *int
	HydrationFactor *int
}

type Store struct {
	mu        sync.Mutex
	state     Snapshot
	listeners []Listener
	log       *slog.Logger
	now       func() time.Time
	newID     func() string
}

// New создает пустое хранилище
func New(log *slog.Logger) *Store {
	return &Store{
		log:   log.With(slog.String("component", "event_store")),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Subscribe регистрирует слушателя изменений
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Restore заменяет состояние загруженным с диска снимком. Слушатели не вызываются.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = snap.clone()
}

// Snapshot возвращает копию текущего состояния
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Store) BottleSips() []hydration.BottleSip { return s.Snapshot().BottleSips }
func (s *Store) ManualEntries() []hydration.ManualEntry { return s.Snapshot().ManualEntries }
func (s *Store) Presets() []hydration.Preset { return s.Snapshot().Presets }
func (s *Store) PendingDeletions() []string { return s.Snapshot().PendingDeletions }
func (s *Store) PendingPresetDeletions() []string { return s.Snapshot().PendingPresetDeletions }

// Identity возвращает идентификатор активного аккаунта ("" - вход не выполнен)
func (s *Store) Identity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.AccountID
}

// SetIdentity устанавливает или сбрасывает активный аккаунт
func (s *Store) SetIdentity(accountID string) {
	s.apply(func(st *Snapshot) bool {
		if st.AccountID == accountID {
			return false
		}
		st.AccountID = accountID
		return true
	})
}

// apply выполняет мутацию над копией состояния. fn возвращает false, если
// изменений нет: тогда копия отбрасывается и слушатели не вызываются.
func (s *Store) apply(fn func(st *Snapshot) bool) {
	s.mu.Lock()
	next := s.state.clone()
	if !fn(&next) {
		s.mu.Unlock()
		return
	}
	next.Revision = s.state.Revision + 1
	s.state = next
	snap := next.clone()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

// RecordBottleSip добавляет глоток, полученный с бутылки
func (s *Store) RecordBottleSip(sip hydration.BottleSip) hydration.BottleSip {
	sip.IsSyncedCloud = false
	sip.IsSyncedGarmin = false

	s.apply(func(st *Snapshot) bool {
		st.BottleSips = append(st.BottleSips, sip)
		return true
	})

	s.log.Debug("глоток записан", "timestamp", sip.Timestamp, "volume_ml", sip.VolumeMl)
	return sip
}

// RecordManualEntry добавляет ручную запись: назначает id, время и засчитанный объем
func (s *Store) RecordManualEntry(in ManualInput) (hydration.ManualEntry, error) {
	if in.VolumeMl <= 0 {
		return hydration.ManualEntry{}, ErrInvalidVolume
	}
	if in.HydrationFactor < 0 {
		return hydration.ManualEntry{}, ErrInvalidFactor
	}

	ts := in.Timestamp
	if ts == 0 {
		ts = s.now().UnixMilli()
	}

	entry := hydration.ManualEntry{
		ID:              s.newID(),
		Timestamp:       ts,
		Name:            in.Name,
		Icon:            in.Icon,
		VolumeMl:        in.VolumeMl,
		HydrationFactor: in.HydrationFactor,
	}.WithCalculatedVolume()

	s.apply(func(st *Snapshot) bool {
		st.ManualEntries = append(st.ManualEntries, entry)
		return true
	})

	return entry, nil
}

// UpdateManualEntry изменяет ручную запись и пересчитывает засчитанный объем.
// Флаги синхронизации не сбрасываются.
func (s *Store) UpdateManualEntry(id string, patch ManualPatch) (hydration.ManualEntry, error) {
	if patch.VolumeMl != nil && *patch.VolumeMl <= 0 {
		return hydration.ManualEntry{}, ErrInvalidVolume
	}
	if patch.HydrationFactor != nil && *patch.HydrationFactor < 0 {
		return hydration.ManualEntry{}, ErrInvalidFactor
	}

	var (
		updated hydration.ManualEntry
		found   bool
	)

	s.apply(func(st *Snapshot) bool {
		idx := slices.IndexFunc(st.ManualEntries, func(e hydration.ManualEntry) bool { return e.ID == id })
		if idx < 0 {
			return false
		}
		found = true

		e := st.ManualEntries[idx]
		if patch.Name != nil {
			e.Name = *patch.Name
		}
		if patch.Icon != nil {
			e.Icon = *patch.Icon
		}
		if patch.VolumeMl != nil {
			e.VolumeMl = *patch.VolumeMl
		}
		if patch.HydrationFactor != nil {
			e.HydrationFactor = *patch.HydrationFactor
		}
		if patch.Timestamp != nil {
			e.Timestamp = *patch.Timestamp
		}
		e = e.WithCalculatedVolume()

		st.ManualEntries[idx] = e
		updated = e
		return true
	})

	if !found {
		return hydration.ManualEntry{}, ErrEntryNotFound
	}
	return updated, nil
}

// DeleteBottleSip удаляет не более одного глотка с данным timestamp.
// При активном аккаунте удаленный id ставится в очередь на удаление.
func (s *Store) DeleteBottleSip(timestamp int64) bool {
	removed := false
	s.apply(func(st *Snapshot) bool {
		idx := slices.IndexFunc(st.BottleSips, func(sip hydration.BottleSip) bool { return sip.Timestamp == timestamp })
		if idx < 0 {
			return false
		}
		st.BottleSips = slices.Delete(st.BottleSips, idx, idx+1)
		if st.AccountID != "" {
			st.PendingDeletions = append(st.PendingDeletions, hydration.BottleRemoteID(st.AccountID, timestamp))
		}
		removed = true
		return true
	})
	return removed
}

// DeleteManualEntry удаляет ручную запись; id записи совпадает с удаленным id
func (s *Store) DeleteManualEntry(id string) bool {
	removed := false
	s.apply(func(st *Snapshot) bool {
		idx := slices.IndexFunc(st.ManualEntries, func(e hydration.ManualEntry) bool { return e.ID == id })
		if idx < 0 {
			return false
		}
		st.ManualEntries = slices.Delete(st.ManualEntries, idx, idx+1)
		if st.AccountID != "" {
			st.PendingDeletions = append(st.PendingDeletions, id)
		}
		removed = true
		return true
	})
	return removed
}

// RemoveRemoteDeleted удаляет локальную строку по уведомлению об удалении в облаке.
// Повторно в очередь удаления id не ставится.
func (s *Store) RemoveRemoteDeleted(remoteID string) bool {
	removed := false
	s.apply(func(st *Snapshot) bool {
		if ts, ok := hydration.ParseBottleRemoteID(remoteID); ok {
			idx := slices.IndexFunc(st.BottleSips, func(sip hydration.BottleSip) bool { return sip.Timestamp == ts })
			if idx >= 0 {
				st.BottleSips = slices.Delete(st.BottleSips, idx, idx+1)
				removed = true
			}
		} else {
			idx := slices.IndexFunc(st.ManualEntries, func(e hydration.ManualEntry) bool { return e.ID == remoteID })
			if idx >= 0 {
				st.ManualEntries = slices.Delete(st.ManualEntries, idx, idx+1)
				removed = true
			}
		}

		before := len(st.PendingDeletions)
		st.PendingDeletions = slices.DeleteFunc(st.PendingDeletions, func(id string) bool { return id == remoteID })

		return removed || len(st.PendingDeletions) != before
	})
	return removed
}

// SavePreset добавляет пресет
func (s *Store) SavePreset(in PresetInput) (hydration.Preset, error) {
	if in.VolumeMl <= 0 {
		return hydration.Preset{}, ErrInvalidVolume
	}
	if in.HydrationFactor < 0 {
		return hydration.Preset{}, ErrInvalidFactor
	}

	p := hydration.Preset{
		ID:              s.newID(),
		Name:            in.Name,
		Icon:            in.Icon,
		VolumeMl:        in.VolumeMl,
		HydrationFactor: in.HydrationFactor,
	}

	s.apply(func(st *Snapshot) bool {
		st.Presets = append(st.Presets, p)
		return true
	})
	return p, nil
}

// UpdatePreset изменяет пресет. Флаг синхронизации не сбрасывается.
func (s *Store) UpdatePreset(id string, patch PresetPatch) (hydration.Preset, error) {
	if patch.VolumeMl != nil && *patch.VolumeMl <= 0 {
		return hydration.Preset{}, ErrInvalidVolume
	}
	if patch.HydrationFactor != nil && *patch.HydrationFactor < 0 {
		return hydration.Preset{}, ErrInvalidFactor
	}

	var (
		updated hydration.Preset
		found   bool
	)
	s.apply(func(st *Snapshot) bool {
		idx := slices.IndexFunc(st.Presets, func(p hydration.Preset) bool { return p.ID == id })
		if idx < 0 {
			return false
		}
		found = true

		p := st.Presets[idx]
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Icon != nil {
			p.Icon = *patch.Icon
		}
		if patch.VolumeMl != nil {
			p.VolumeMl = *patch.VolumeMl
		}
		if patch.HydrationFactor != nil {
			p.HydrationFactor = *patch.HydrationFactor
		}
		st.Presets[idx] = p
		updated = p
		return true
	})

	if !found {
		return hydration.Preset{}, ErrPresetNotFound
	}
	return updated, nil
}

// DeletePreset удаляет пресет и при активном аккаунте ставит его в очередь удаления пресетов
func (s *Store) DeletePreset(id string) bool {
	removed := false
	s.apply(func(st *Snapshot) bool {
		idx := slices.IndexFunc(st.Presets, func(p hydration.Preset) bool { return p.ID == id })
		if idx < 0 {
			return false
		}
		st.Presets = slices.Delete(st.Presets, idx, idx+1)
		if st.AccountID != "" {
			st.PendingPresetDeletions = append(st.PendingPresetDeletions, id)
		}
		removed = true
		return true
	})
	return removed
}

// MarkSyncedCloud отмечает глотки (по timestamp) и ручные записи (по id) выгруженными
func (s *Store) MarkSyncedCloud(timestamps []int64, ids []string) {
	s.apply(func(st *Snapshot) bool {
		changed := false
		for i, sip := range st.BottleSips {
			if !sip.IsSyncedCloud && slices.Contains(timestamps, sip.Timestamp) {
				st.BottleSips[i].IsSyncedCloud = true
				changed = true
			}
		}
		for i, e := range st.ManualEntries {
			if !e.IsSyncedCloud && slices.Contains(ids, e.ID) {
				st.ManualEntries[i].IsSyncedCloud = true
				changed = true
			}
		}
		return changed
	})
}

// MarkSyncedGarmin отмечает строки, переданные во внешнюю систему
func (s *Store) MarkSyncedGarmin(timestamps []int64, ids []string) {
	s.apply(func(st *Snapshot) bool {
		changed := false
		for i, sip := range st.BottleSips {
			if !sip.IsSyncedGarmin && slices.Contains(timestamps, sip.Timestamp) {
				st.BottleSips[i].IsSyncedGarmin = true
				changed = true
			}
		}
		for i, e := range st.ManualEntries {
			if !e.IsSyncedGarmin && slices.Contains(ids, e.ID) {
				st.ManualEntries[i].IsSyncedGarmin = true
				changed = true
			}
		}
		return changed
	})
}

// MarkPresetsSyncedCloud отмечает пресеты выгруженными
func (s *Store) MarkPresetsSyncedCloud(ids []string) {
	s.apply(func(st *Snapshot) bool {
		changed := false
		for i, p := range st.Presets {
			if !p.IsSyncedCloud && slices.Contains(ids, p.ID) {
				st.Presets[i].IsSyncedCloud = true
				changed = true
			}
		}
		return changed
	})
}

// DrainDeletions убирает из очереди только переданные id.
// Id, добавленные после формирования пакета, остаются в очереди.
func (s *Store) DrainDeletions(ids []string) {
	s.apply(func(st *Snapshot) bool {
		before := len(st.PendingDeletions)
		st.PendingDeletions = slices.DeleteFunc(st.PendingDeletions, func(id string) bool {
			return slices.Contains(ids, id)
		})
		return len(st.PendingDeletions) != before
	})
}

// DrainPresetDeletions аналог DrainDeletions для очереди пресетов
func (s *Store) DrainPresetDeletions(ids []string) {
	s.apply(func(st *Snapshot) bool {
		before := len(st.PendingPresetDeletions)
		st.PendingPresetDeletions = slices.DeleteFunc(st.PendingPresetDeletions, func(id string) bool {
			return slices.Contains(ids, id)
		})
		return len(st.PendingPresetDeletions) != before
	})
}

// MergeRemote сливает полный удаленный набор с локальными коллекциями
func (s *Store) MergeRemote(sips []hydration.BottleSip, manual []hydration.ManualEntry) {
	s.apply(func(st *Snapshot) bool {
		st.BottleSips = MergeSips(st.BottleSips, sips)
		st.ManualEntries = MergeManualEntries(st.ManualEntries, manual)
		return true
	})
}

// MergeRemotePresets сливает удаленные пресеты с локальными
func (s *Store) MergeRemotePresets(presets []hydration.Preset) {
	s.apply(func(st *Snapshot) bool {
		st.Presets = MergePresets(st.Presets, presets)
		return true
	})
}
