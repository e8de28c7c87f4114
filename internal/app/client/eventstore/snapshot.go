package eventstore

import (
	"slices"

	"hydrosync/internal/domain/hydration"
)

// Snapshot неизменяемый срез состояния хранилища.
// Revision растет на единицу с каждой примененной мутацией.
type Snapshot struct {
	Revision               uint64                  `json:"revision"`
	AccountID              string                  `json:"account_id,omitempty"`
	BottleSips             []hydration.BottleSip   `json:"bottle_sips"`
	ManualEntries          []hydration.ManualEntry `json:"manual_entries"`
	Presets                []hydration.Preset      `json:"presets"`
	PendingDeletions       []string                `json:"pending_deletions"`
	PendingPresetDeletions []string                `json:"pending_preset_deletions"`
}

func (s Snapshot) clone() Snapshot {
	return Snapshot{
		Revision:               s.Revision,
		AccountID:              s.AccountID,
		BottleSips:             slices.Clone(s.BottleSips),
		ManualEntries:          slices.Clone(s.ManualEntries),
		Presets:                slices.Clone(s.Presets),
		PendingDeletions:       slices.Clone(s.PendingDeletions),
		PendingPresetDeletions: slices.Clone(s.PendingPresetDeletions),
	}
}

// UnsyncedSips глотки, еще не выгруженные в облако
func (s Snapshot) UnsyncedSips() []hydration.BottleSip {
	var out []hydration.BottleSip
	for _, sip := range s.BottleSips {
		if !sip.IsSyncedCloud {
			out = append(out, sip)
		}
	}
	return out
}

// UnsyncedManualEntries ручные записи, еще не выгруженные в облако
func (s Snapshot) UnsyncedManualEntries() []hydration.ManualEntry {
	var out []hydration.ManualEntry
	for _, e := range s.ManualEntries {
		if !e.IsSyncedCloud {
			out = append(out, e)
		}
	}
	return out
}

// UnsyncedPresets пресеты, еще не выгруженные в облако
func (s Snapshot) UnsyncedPresets() []hydration.Preset {
	var out []hydration.Preset
	for _, p := range s.Presets {
		if !p.IsSyncedCloud {
			out = append(out, p)
		}
	}
	return out
}

// TotalMl суммарный засчитанный объем за полуинтервал [fromMs, toMs)
func (s Snapshot) TotalMl(fromMs, toMs int64) int {
	total := 0
	for _, sip := range s.BottleSips {
		if sip.Timestamp >= fromMs && sip.Timestamp < toMs {
			total += sip.VolumeMl
		}
	}
	for _, e := range s.ManualEntries {
		if e.Timestamp >= fromMs && e.Timestamp < toMs {
			total += e.CalculatedVolumeMl
		}
	}
	return total
}
