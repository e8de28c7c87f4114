package hydration

import "math"

// Source источник записи о выпитой воде
type Source string

const (
	SourceBottle Source = "bottle"
	SourceManual Source = "manual"
)

// DefaultHydrationFactor коэффициент для воды и глотков из бутылки
const DefaultHydrationFactor = 100

// BottleSip глоток, зафиксированный бутылкой. Timestamp (мс) - ключ записи.
type BottleSip struct {
	Timestamp      int64 `json:"timestamp" yaml:"timestamp"`
	VolumeMl       int   `json:"volume_ml" yaml:"volume_ml"`
	IsSyncedCloud  bool  `json:"is_synced_cloud" yaml:"is_synced_cloud"`
	IsSyncedGarmin bool  `json:"is_synced_garmin" yaml:"is_synced_garmin"`
}

// ManualEntry запись, добавленная пользователем вручную
type ManualEntry struct {
	ID                 string `json:"id" yaml:"id"`
	Timestamp          int64  `json:"timestamp" yaml:"timestamp"`
	Name               string `json:"name" yaml:"name"`
	Icon               string `json:"icon,omitempty" yaml:"icon,omitempty"`
	VolumeMl           int    `json:"volume_ml" yaml:"volume_ml"`
	HydrationFactor    int    `json:"hydration_factor" yaml:"hydration_factor"`
	CalculatedVolumeMl int    `json:"calculated_volume_ml" yaml:"calculated_volume_ml"`
	IsSyncedCloud      bool   `json:"is_synced_cloud" yaml:"is_synced_cloud"`
	IsSyncedGarmin     bool   `json:"is_synced_garmin" yaml:"is_synced_garmin"`
}

// Preset шаблон для быстрого добавления ручной записи
type Preset struct {
	ID              string `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	Icon            string `json:"icon,omitempty" yaml:"icon,omitempty"`
	VolumeMl        int    `json:"volume_ml" yaml:"volume_ml"`
	HydrationFactor int    `json:"hydration_factor" yaml:"hydration_factor"`
	IsSyncedCloud   bool   `json:"is_synced_cloud" yaml:"is_synced_cloud"`
}

// CalculateVolume возвращает объем, засчитываемый в норму: round(volume * factor / 100).
// Отрицательные значения приводятся к нулю.
func CalculateVolume(volumeMl, hydrationFactor int) int {
	if volumeMl <= 0 || hydrationFactor <= 0 {
		return 0
	}
	return int(math.Round(float64(volumeMl) * float64(hydrationFactor) / 100))
}

// RawVolume восстанавливает исходный объем по засчитанному.
// В удаленном хранилище для ручных записей лежит уже пересчитанный объем.
func RawVolume(calculatedMl, hydrationFactor int) int {
	if hydrationFactor <= 0 {
		return calculatedMl
	}
	return int(math.Round(float64(calculatedMl) / (float64(hydrationFactor) / 100)))
}

// WithCalculatedVolume пересчитывает CalculatedVolumeMl по объему и коэффициенту
func (e ManualEntry) WithCalculatedVolume() ManualEntry {
	e.CalculatedVolumeMl = CalculateVolume(e.VolumeMl, e.HydrationFactor)
	return e
}
