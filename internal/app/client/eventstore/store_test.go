package eventstore

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"hydrosync/internal/domain/hydration"
)

func newTestStore() *Store {
	s := New(slog.Default())
	s.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return s
}

func TestStore_RecordBottleSip_ForcesFlagsFalse(t *testing.T) {
	s := newTestStore()

	sip := s.RecordBottleSip(hydration.BottleSip{Timestamp: 1000, VolumeMl: 50, IsSyncedCloud: true, IsSyncedGarmin: true})

	assert.False(t, sip.IsSyncedCloud)
	assert.False(t, sip.IsSyncedGarmin)
	require.Len(t, s.BottleSips(), 1)
	assert.Equal(t, uint64(1), s.Snapshot().Revision)
}

func TestStore_RecordManualEntry(t *testing.T) {
	tests := []struct {
		name    string
		in      ManualInput
		want    hydration.ManualEntry
		wantErr error
	}{
		{
			name: "coffee with factor",
			in:   ManualInput{Name: "Coffee", Icon: "coffee", VolumeMl: 250, HydrationFactor: 80, Timestamp: 5000},
			want: hydration.ManualEntry{ID: "id-1", Timestamp: 5000, Name: "Coffee", Icon: "coffee", VolumeMl: 250, HydrationFactor: 80, CalculatedVolumeMl: 200},
		},
		{
			name: "timestamp defaults to now",
			in:   ManualInput{Name: "Water", VolumeMl: 300, HydrationFactor: 100},
			want: hydration.ManualEntry{ID: "id-1", Timestamp: 1_700_000_000_000, Name: "Water", VolumeMl: 300, HydrationFactor: 100, CalculatedVolumeMl: 300},
		},
		{
			name:    "zero volume",
			in:      ManualInput{Name: "Empty", VolumeMl: 0, HydrationFactor: 100},
			wantErr: ErrInvalidVolume,
		},
		{
			name:    "negative factor",
			in:      ManualInput{Name: "Bad", VolumeMl: 100, HydrationFactor: -1},
			wantErr: ErrInvalidFactor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()

			got, err := s.RecordManualEntry(tt.in)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, s.ManualEntries())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []hydration.ManualEntry{tt.want}, s.ManualEntries())
		})
	}
}

func TestStore_UpdateManualEntry_RecomputesAndKeepsFlags(t *testing.T) {
	s := newTestStore()
	e, err := s.RecordManualEntry(ManualInput{Name: "Tea", VolumeMl: 200, HydrationFactor: 100, Timestamp: 10})
	require.NoError(t, err)
	s.MarkSyncedCloud(nil, []string{e.ID})

	factor := 50
	updated, err := s.UpdateManualEntry(e.ID, ManualPatch{HydrationFactor: &factor})

	require.NoError(t, err)
	assert.Equal(t, 100, updated.CalculatedVolumeMl)
	assert.True(t, updated.IsSyncedCloud)

	_, err = s.UpdateManualEntry("missing", ManualPatch{})
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestStore_DeleteBottleSip(t *testing.T) {
	t.Run("signed in enqueues remote id once", func(t *testing.T) {
		s := newTestStore()
		s.SetIdentity("u1")
		s.RecordBottleSip(hydration.BottleSip{Timestamp: 1000, VolumeMl: 10})
		s.RecordBottleSip(hydration.BottleSip{Timestamp: 1000, VolumeMl: 20})

		assert.True(t, s.DeleteBottleSip(1000))

		sips := s.BottleSips()
		require.Len(t, sips, 1)
		assert.Equal(t, 20, sips[0].VolumeMl)
		assert.Equal(t, []string{"u1-1000-bottle"}, s.PendingDeletions())
	})

	t.Run("signed out does not enqueue", func(t *testing.T) {
		s := newTestStore()
		s.RecordBottleSip(hydration.BottleSip{Timestamp: 1000, VolumeMl: 10})

		assert.True(t, s.DeleteBottleSip(1000))
		assert.Empty(t, s.PendingDeletions())
	})

	t.Run("unknown timestamp is a no-op", func(t *testing.T) {
		s := newTestStore()
		s.SetIdentity("u1")
		rev := s.Snapshot().Revision

		assert.False(t, s.DeleteBottleSip(42))
		assert.Equal(t, rev, s.Snapshot().Revision)
		assert.Empty(t, s.PendingDeletions())
	})
}

func TestStore_DeleteManualEntryAndPreset(t *testing.T) {
	s := newTestStore()
	s.SetIdentity("u1")
	e, err := s.RecordManualEntry(ManualInput{Name: "Juice", VolumeMl: 100, HydrationFactor: 90})
	require.NoError(t, err)
	p, err := s.SavePreset(PresetInput{Name: "Mug", VolumeMl: 350, HydrationFactor: 100})
	require.NoError(t, err)

	assert.True(t, s.DeleteManualEntry(e.ID))
	assert.True(t, s.DeletePreset(p.ID))
	assert.False(t, s.DeletePreset(p.ID))

	assert.Equal(t, []string{e.ID}, s.PendingDeletions())
	assert.Equal(t, []string{p.ID}, s.PendingPresetDeletions())
}

func TestStore_RemoveRemoteDeleted(t *testing.T) {
	s := newTestStore()
	s.SetIdentity("u1")
	s.RecordBottleSip(hydration.BottleSip{Timestamp: 1000, VolumeMl: 10})
	e, err := s.RecordManualEntry(ManualInput{Name: "Soda", VolumeMl: 330, HydrationFactor: 90})
	require.NoError(t, err)

	assert.True(t, s.RemoveRemoteDeleted("u1-1000-bottle"))
	assert.True(t, s.RemoveRemoteDeleted(e.ID))
	assert.False(t, s.RemoveRemoteDeleted("unknown"))

	assert.Empty(t, s.BottleSips())
	assert.Empty(t, s.ManualEntries())
	assert.Empty(t, s.PendingDeletions())
}

func TestStore_DrainDeletions_KeepsLateArrivals(t *testing.T) {
	s := newTestStore()
	s.SetIdentity("u1")
	s.RecordBottleSip(hydration.BottleSip{Timestamp: 1, VolumeMl: 1})
	s.RecordBottleSip(hydration.BottleSip{Timestamp: 2, VolumeMl: 1})
	s.DeleteBottleSip(1)

	batch := s.PendingDeletions()
	s.DeleteBottleSip(2)
	s.DrainDeletions(batch)

	assert.Equal(t, []string{"u1-2-bottle"}, s.PendingDeletions())
}

func TestStore_MarkSynced_IsMonotonic(t *testing.T) {
	s := newTestStore()
	s.RecordBottleSip(hydration.BottleSip{Timestamp: 1000, VolumeMl: 10})

	s.MarkSyncedCloud([]int64{1000}, nil)
	s.MarkSyncedGarmin([]int64{1000}, nil)
	rev := s.Snapshot().Revision

	s.MarkSyncedCloud([]int64{1000}, nil)
	s.MarkSyncedGarmin([]int64{1000}, nil)

	sip := s.BottleSips()[0]
	assert.True(t, sip.IsSyncedCloud)
	assert.True(t, sip.IsSyncedGarmin)
	assert.Equal(t, rev, s.Snapshot().Revision, "повторная отметка не должна менять ревизию")
}

func TestStore_Subscribe_ReceivesSnapshots(t *testing.T) {
	s := newTestStore()
	var got []Snapshot
	s.Subscribe(func(snap Snapshot) { got = append(got, snap) })

	s.RecordBottleSip(hydration.BottleSip{Timestamp: 1, VolumeMl: 5})
	s.SetIdentity("u1")
	s.SetIdentity("u1")

	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].Revision)
	assert.Equal(t, uint64(2), got[1].Revision)
	assert.Equal(t, "u1", got[1].AccountID)

	got[1].BottleSips[0].VolumeMl = 999
	assert.Equal(t, 5, s.BottleSips()[0].VolumeMl)
}

func TestStore_Restore_DoesNotNotify(t *testing.T) {
	s := newTestStore()
	called := false
	s.Subscribe(func(Snapshot) { called = true })

	s.Restore(Snapshot{Revision: 7, AccountID: "u1", BottleSips: []hydration.BottleSip{{Timestamp: 1, VolumeMl: 3}}})

	assert.False(t, called)
	assert.Equal(t, "u1", s.Identity())
	assert.Equal(t, uint64(7), s.Snapshot().Revision)
}

func TestStore_MergeRemote_UnsyncedSurvives(t *testing.T) {
	s := newTestStore()
	e, err := s.RecordManualEntry(ManualInput{Name: "x", VolumeMl: 100, HydrationFactor: 100, Timestamp: 500})
	require.NoError(t, err)

	s.MergeRemote([]hydration.BottleSip{{Timestamp: 1000, VolumeMl: 40}}, nil)

	manual := s.ManualEntries()
	require.Len(t, manual, 1)
	assert.Equal(t, e.ID, manual[0].ID)
	assert.False(t, manual[0].IsSyncedCloud)

	sips := s.BottleSips()
	require.Len(t, sips, 1)
	assert.Equal(t, hydration.BottleSip{Timestamp: 1000, VolumeMl: 40, IsSyncedCloud: true}, sips[0])
}

func TestSnapshot_TotalMl(t *testing.T) {
	snap := Snapshot{
		BottleSips:    []hydration.BottleSip{{Timestamp: 10, VolumeMl: 100}, {Timestamp: 30, VolumeMl: 50}},
		ManualEntries: []hydration.ManualEntry{{ID: "a", Timestamp: 20, VolumeMl: 250, CalculatedVolumeMl: 200}},
	}

	assert.Equal(t, 300, snap.TotalMl(0, 30))
	assert.Equal(t, 350, snap.TotalMl(0, 31))
}
