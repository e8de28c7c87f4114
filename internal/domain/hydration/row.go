package hydration

// SipRow строка таблицы sips в удаленном хранилище
type SipRow struct {
	ID              string `json:"id" yaml:"id"`
	UserID          string `json:"user_id" yaml:"user_id"`
	Timestamp       int64  `json:"timestamp" yaml:"timestamp"`
	VolumeMl        int    `json:"volume_ml" yaml:"volume_ml"`
	Source          Source `json:"source" yaml:"source"`
	HydrationFactor *int   `json:"hydration_factor,omitempty" yaml:"hydration_factor,omitempty"`
	Name            string `json:"name,omitempty" yaml:"name,omitempty"`
	Icon            string `json:"icon,omitempty" yaml:"icon,omitempty"`
	IsSyncedGarmin  bool   `json:"is_synced_garmin" yaml:"is_synced_garmin"`
}

// PresetRow строка таблицы presets в удаленном хранилище
type PresetRow struct {
	ID              string `json:"id" yaml:"id"`
	UserID          string `json:"user_id" yaml:"user_id"`
	Name            string `json:"name" yaml:"name"`
	VolumeMl        int    `json:"volume_ml" yaml:"volume_ml"`
	HydrationFactor int    `json:"hydration_factor" yaml:"hydration_factor"`
	Icon            string `json:"icon,omitempty" yaml:"icon,omitempty"`
}

// SipToRow переводит глоток в строку удаленного хранилища
func SipToRow(accountID string, s BottleSip) SipRow {
	return SipRow{
		ID:             BottleRemoteID(accountID, s.Timestamp),
		UserID:         accountID,
		Timestamp:      s.Timestamp,
		VolumeMl:       s.VolumeMl,
		Source:         SourceBottle,
		IsSyncedGarmin: s.IsSyncedGarmin,
	}
}

// ManualToRow переводит ручную запись в строку. В volume_ml уходит засчитанный объем.
func ManualToRow(accountID string, e ManualEntry) SipRow {
	factor := e.HydrationFactor
	return SipRow{
		ID:              e.ID,
		UserID:          accountID,
		Timestamp:       e.Timestamp,
		VolumeMl:        e.CalculatedVolumeMl,
		Source:          SourceManual,
		HydrationFactor: &factor,
		Name:            e.Name,
		Icon:            e.Icon,
		IsSyncedGarmin:  e.IsSyncedGarmin,
	}
}

// RowToSip восстанавливает глоток из удаленной строки (всегда синхронизирован)
func RowToSip(r SipRow) BottleSip {
	return BottleSip{
		Timestamp:      r.Timestamp,
		VolumeMl:       r.VolumeMl,
		IsSyncedCloud:  true,
		IsSyncedGarmin: r.IsSyncedGarmin,
	}
}

// RowToManual восстанавливает ручную запись из удаленной строки.
// Засчитанный объем пересчитывается по восстановленному исходному.
func RowToManual(r SipRow) ManualEntry {
	factor := DefaultHydrationFactor
	if r.HydrationFactor != nil {
		factor = *r.HydrationFactor
	}

	name := r.Name
	if name == "" {
		name = "Manual Entry"
	}

	return ManualEntry{
		ID:              r.ID,
		Timestamp:       r.Timestamp,
		Name:            name,
		Icon:            r.Icon,
		VolumeMl:        RawVolume(r.VolumeMl, factor),
		HydrationFactor: factor,
		IsSyncedCloud:   true,
		IsSyncedGarmin:  r.IsSyncedGarmin,
	}.WithCalculatedVolume()
}

// PartitionRows разбивает полный набор строк по источнику
func PartitionRows(rows []SipRow) ([]BottleSip, []ManualEntry) {
	sips := make([]BottleSip, 0, len(rows))
	manual := make([]ManualEntry, 0)
	for _, r := range rows {
		switch r.Source {
		case SourceBottle:
			sips = append(sips, RowToSip(r))
		default:
			manual = append(manual, RowToManual(r))
		}
	}
	return sips, manual
}

// PresetToRow переводит пресет в строку удаленного хранилища
func PresetToRow(accountID string, p Preset) PresetRow {
	return PresetRow{
		ID:              p.ID,
		UserID:          accountID,
		Name:            p.Name,
		VolumeMl:        p.VolumeMl,
		HydrationFactor: p.HydrationFactor,
		Icon:            p.Icon,
	}
}

// RowToPreset восстанавливает пресет из удаленной строки
func RowToPreset(r PresetRow) Preset {
	return Preset{
		ID:              r.ID,
		Name:            r.Name,
		Icon:            r.Icon,
		VolumeMl:        r.VolumeMl,
		HydrationFactor: r.HydrationFactor,
		IsSyncedCloud:   true,
	}
}
