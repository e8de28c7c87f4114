package sip

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"hydrosync/internal/domain/hydration"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Upsert(ctx context.Context, rows []hydration.SipRow) (int, error) {
	args := m.Called(ctx, rows)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, userID string, ids []string) (int, error) {
	args := m.Called(ctx, userID, ids)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, userID string) ([]hydration.SipRow, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]hydration.SipRow), args.Error(1)
}

func (m *MockRepository) Range(ctx context.Context, userID string, fromMs, toMs int64) ([]hydration.SipRow, error) {
	args := m.Called(ctx, userID, fromMs, toMs)
	return args.Get(0).([]hydration.SipRow), args.Error(1)
}

func (m *MockRepository) MarkGarminSynced(ctx context.Context, id string) (hydration.SipRow, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(hydration.SipRow), args.Error(1)
}

func intPtr(v int) *int { return &v }

func TestService_Upsert(t *testing.T) {
	tests := []struct {
		name    string
		rows    []hydration.SipRow
		wantErr error
	}{
		{
			name: "bottle and manual rows",
			rows: []hydration.SipRow{
				{ID: "u1-1000-bottle", Timestamp: 1000, VolumeMl: 296, Source: hydration.SourceBottle},
				{ID: "m-1", Timestamp: 2000, VolumeMl: 270, Source: hydration.SourceManual, HydrationFactor: intPtr(90), Name: "Coffee"},
			},
		},
		{
			name:    "foreign owner",
			rows:    []hydration.SipRow{{ID: "u2-1000-bottle", UserID: "u2", Timestamp: 1000, VolumeMl: 1, Source: hydration.SourceBottle}},
			wantErr: ErrForeignRow,
		},
		{
			name:    "bottle id mismatch",
			rows:    []hydration.SipRow{{ID: "u1-999-bottle", Timestamp: 1000, VolumeMl: 1, Source: hydration.SourceBottle}},
			wantErr: ErrInvalidRow,
		},
		{
			name:    "unknown source",
			rows:    []hydration.SipRow{{ID: "x", Timestamp: 1000, VolumeMl: 1, Source: "tap"}},
			wantErr: ErrInvalidRow,
		},
		{
			name:    "zero timestamp",
			rows:    []hydration.SipRow{{ID: "x", VolumeMl: 1, Source: hydration.SourceManual}},
			wantErr: ErrInvalidRow,
		},
		{
			name:    "negative factor",
			rows:    []hydration.SipRow{{ID: "x", Timestamp: 5, VolumeMl: 1, Source: hydration.SourceManual, HydrationFactor: intPtr(-5)}},
			wantErr: ErrInvalidRow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			mockRepo := new(MockRepository)
			service := NewService(mockRepo, slog.Default())
			if tt.wantErr == nil {
				mockRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(rows []hydration.SipRow) bool {
					for _, r := range rows {
						if r.UserID != "u1" {
							return false
						}
					}
					return len(rows) == len(tt.rows)
				})).Return(len(tt.rows), nil)
			}

			// Act
			n, err := service.Upsert(context.Background(), "u1", tt.rows)

			// Assert
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, len(tt.rows), n)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestService_Upsert_EmptyAndOversized(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())

	n, err := service.Upsert(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = service.Upsert(context.Background(), "u1", make([]hydration.SipRow, MaxBatch+1))
	assert.ErrorIs(t, err, ErrBatchTooBig)

	mockRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestService_Delete(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())
	ids := []string{"u1-1000-bottle", "m-1"}
	mockRepo.On("Delete", mock.Anything, "u1", ids).Return(1, nil)

	n, err := service.Delete(context.Background(), "u1", ids)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	mockRepo.AssertExpectations(t)
}

func TestService_Delete_RepositoryError(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())
	mockRepo.On("Delete", mock.Anything, "u1", []string{"a"}).Return(0, errors.New("database error"))

	_, err := service.Delete(context.Background(), "u1", []string{"a"})

	assert.ErrorContains(t, err, "database error")
}

func TestService_History(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())
	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	to := time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC).UnixMilli() - 1
	rows := []hydration.SipRow{{ID: "u1-1-bottle"}}
	mockRepo.On("Range", mock.Anything, "u1", from, to).Return(rows, nil)

	got, err := service.History(context.Background(), "u1", "2026-05-01", "2026-05-02")

	require.NoError(t, err)
	assert.Equal(t, rows, got)
	mockRepo.AssertExpectations(t)
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		wantErr bool
	}{
		{name: "single day", start: "2026-05-01"},
		{name: "missing start", start: "", wantErr: true},
		{name: "bad format", start: "01.05.2026", wantErr: true},
		{name: "reversed", start: "2026-05-02", end: "2026-05-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := ParseRange(tt.start, tt.end)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(24*60*60*1000-1), to-from)
		})
	}
}

func TestService_MarkGarminSynced(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())
	row := hydration.SipRow{ID: "m-1", UserID: "u1", IsSyncedGarmin: true}
	mockRepo.On("MarkGarminSynced", mock.Anything, "m-1").Return(row, nil)

	got, err := service.MarkGarminSynced(context.Background(), "m-1")

	require.NoError(t, err)
	assert.True(t, got.IsSyncedGarmin)
}
