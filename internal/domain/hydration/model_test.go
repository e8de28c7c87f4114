package hydration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateVolume(t *testing.T) {
	tests := []struct {
		name     string
		volume   int
		factor   int
		expected int
	}{
		{name: "coffee 90%", volume: 300, factor: 90, expected: 270},
		{name: "water 100%", volume: 250, factor: 100, expected: 250},
		{name: "rounding half up", volume: 5, factor: 50, expected: 3},
		{name: "factor above 100", volume: 200, factor: 110, expected: 220},
		{name: "zero factor", volume: 200, factor: 0, expected: 0},
		{name: "negative volume", volume: -10, factor: 100, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CalculateVolume(tt.volume, tt.factor))
		})
	}
}

func TestRawVolume(t *testing.T) {
	assert.Equal(t, 300, RawVolume(270, 90))
	assert.Equal(t, 120, RawVolume(120, 0))
	assert.Equal(t, 500, RawVolume(500, 100))
}

func TestManualEntry_WithCalculatedVolume(t *testing.T) {
	e := ManualEntry{VolumeMl: 300, HydrationFactor: 90}.WithCalculatedVolume()
	assert.Equal(t, 270, e.CalculatedVolumeMl)
}

func TestBottleRemoteID(t *testing.T) {
	account := "6f1c2a9e-3b4d-4e5f-8a9b-0c1d2e3f4a5b"

	id := BottleRemoteID(account, 1700000000123)
	assert.Equal(t, account+"-1700000000123-bottle", id)
	assert.True(t, IsBottleRemoteID(id))

	ts, ok := ParseBottleRemoteID(id)
	assert.True(t, ok)
	assert.Equal(t, int64(1700000000123), ts)
}

func TestParseBottleRemoteID_Invalid(t *testing.T) {
	tests := []string{
		"manual-id",
		"-bottle",
		"acc--bottle",
		"acc-notanumber-bottle",
		"acc-123",
	}

	for _, id := range tests {
		t.Run(id, func(t *testing.T) {
			_, ok := ParseBottleRemoteID(id)
			assert.False(t, ok)
		})
	}
}

func TestPartitionRows(t *testing.T) {
	factor := 90
	rows := []SipRow{
		{ID: "u-1000-bottle", UserID: "u", Timestamp: 1000, VolumeMl: 296, Source: SourceBottle, IsSyncedGarmin: true},
		{ID: "m1", UserID: "u", Timestamp: 2000, VolumeMl: 270, Source: SourceManual, HydrationFactor: &factor, Name: "Coffee"},
		{ID: "m2", UserID: "u", Timestamp: 3000, VolumeMl: 100, Source: SourceManual},
	}

	sips, manual := PartitionRows(rows)

	assert.Equal(t, []BottleSip{{Timestamp: 1000, VolumeMl: 296, IsSyncedCloud: true, IsSyncedGarmin: true}}, sips)
	assert.Len(t, manual, 2)
	assert.Equal(t, 300, manual[0].VolumeMl)
	assert.Equal(t, 270, manual[0].CalculatedVolumeMl)
	assert.True(t, manual[0].IsSyncedCloud)
	assert.Equal(t, "Manual Entry", manual[1].Name)
	assert.Equal(t, DefaultHydrationFactor, manual[1].HydrationFactor)
}

func TestManualToRow(t *testing.T) {
	e := ManualEntry{ID: "x", Timestamp: 10, Name: "Tea", VolumeMl: 300, HydrationFactor: 90, CalculatedVolumeMl: 270}

	row := ManualToRow("acc", e)

	assert.Equal(t, "x", row.ID)
	assert.Equal(t, 270, row.VolumeMl)
	assert.Equal(t, SourceManual, row.Source)
	if assert.NotNil(t, row.HydrationFactor) {
		assert.Equal(t, 90, *row.HydrationFactor)
	}
}

func TestRowToManual(t *testing.T) {
	intPtr := func(v int) *int { return &v }

	tests := []struct {
		name     string
		row      SipRow
		wantRaw  int
		wantCalc int
	}{
		{name: "own upload round trip", row: SipRow{ID: "m1", VolumeMl: 270, HydrationFactor: intPtr(90)}, wantRaw: 300, wantCalc: 270},
		{name: "default factor", row: SipRow{ID: "m2", VolumeMl: 250}, wantRaw: 250, wantCalc: 250},
		{name: "foreign row recomputed from raw volume", row: SipRow{ID: "m3", VolumeMl: 4, HydrationFactor: intPtr(150)}, wantRaw: 3, wantCalc: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := RowToManual(tt.row)

			assert.Equal(t, tt.wantRaw, e.VolumeMl)
			assert.Equal(t, tt.wantCalc, e.CalculatedVolumeMl)
			assert.Equal(t, CalculateVolume(e.VolumeMl, e.HydrationFactor), e.CalculatedVolumeMl)
			assert.True(t, e.IsSyncedCloud)
			assert.Equal(t, "Manual Entry", e.Name)
		})
	}
}
