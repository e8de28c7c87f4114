package eventstore

import (
	"cmp"
	"slices"

	"hydrosync/internal/domain/hydration"
)

// Правило доверия при слиянии:
//   - карта заполняется удаленными строками, все они считаются синхронизированными;
//   - локальная несинхронизированная строка всегда перезаписывает удаленную;
//   - локальная синхронизированная строка, которой нет в удаленном наборе, остается как есть;
//   - флаг внешней синхронизации только накапливается (OR), если побеждает удаленная строка.
// Результат упорядочен по timestamp и не зависит от порядка входных данных.

// MergeSips сливает глотки по ключу timestamp
func MergeSips(local, remote []hydration.BottleSip) []hydration.BottleSip {
	byKey := make(map[int64]hydration.BottleSip, len(remote)+len(local))
	for _, r := range remote {
		r.IsSyncedCloud = true
		if prev, ok := byKey[r.Timestamp]; ok {
			r.IsSyncedGarmin = r.IsSyncedGarmin || prev.IsSyncedGarmin
		}
		byKey[r.Timestamp] = r
	}

	for _, l := range local {
		r, inRemote := byKey[l.Timestamp]
		switch {
		case !l.IsSyncedCloud, !inRemote:
			byKey[l.Timestamp] = l
		default:
			r.IsSyncedGarmin = r.IsSyncedGarmin || l.IsSyncedGarmin
			byKey[l.Timestamp] = r
		}
	}

	out := make([]hydration.BottleSip, 0, len(byKey))
	for _, sip := range byKey {
		out = append(out, sip)
	}
	slices.SortFunc(out, func(a, b hydration.BottleSip) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})
	return out
}

// MergeManualEntries сливает ручные записи по ключу id
func MergeManualEntries(local, remote []hydration.ManualEntry) []hydration.ManualEntry {
	byKey := make(map[string]hydration.ManualEntry, len(remote)+len(local))
	for _, r := range remote {
		r.IsSyncedCloud = true
		byKey[r.ID] = r
	}

	for _, l := range local {
		r, inRemote := byKey[l.ID]
		switch {
		case !l.IsSyncedCloud, !inRemote:
			byKey[l.ID] = l
		default:
			r.IsSyncedGarmin = r.IsSyncedGarmin || l.IsSyncedGarmin
			byKey[l.ID] = r
		}
	}

	out := make([]hydration.ManualEntry, 0, len(byKey))
	for _, e := range byKey {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b hydration.ManualEntry) int {
		if c := cmp.Compare(a.Timestamp, b.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// MergePresets сливает пресеты по id по тому же правилу. Времени у пресетов нет,
// поэтому результат упорядочен по id.
func MergePresets(local, remote []hydration.Preset) []hydration.Preset {
	byKey := make(map[string]hydration.Preset, len(remote)+len(local))
	for _, r := range remote {
		r.IsSyncedCloud = true
		byKey[r.ID] = r
	}

	for _, l := range local {
		if _, inRemote := byKey[l.ID]; !l.IsSyncedCloud || !inRemote {
			byKey[l.ID] = l
		}
	}

	out := make([]hydration.Preset, 0, len(byKey))
	for _, p := range byKey {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b hydration.Preset) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
