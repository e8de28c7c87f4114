package preset

import (
	"context"
	"testing"

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

func (m *MockRepository) Upsert(ctx context.Context, rows []hydration.PresetRow) (int, error) {
	args := m.Called(ctx, rows)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, userID string, ids []string) (int, error) {
	args := m.Called(ctx, userID, ids)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, userID string) ([]hydration.PresetRow, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]hydration.PresetRow), args.Error(1)
}

func TestService_Upsert(t *testing.T) {
	tests := []struct {
		name    string
		row     hydration.PresetRow
		wantErr error
	}{
		{name: "valid", row: hydration.PresetRow{ID: "p1", Name: "Mug", VolumeMl: 350, HydrationFactor: 100}},
		{name: "zero factor allowed", row: hydration.PresetRow{ID: "p2", Name: "Diet soda", VolumeMl: 330}},
		{name: "missing name", row: hydration.PresetRow{ID: "p3", VolumeMl: 350}, wantErr: ErrInvalidPreset},
		{name: "zero volume", row: hydration.PresetRow{ID: "p4", Name: "Air"}, wantErr: ErrInvalidPreset},
		{name: "foreign", row: hydration.PresetRow{ID: "p5", UserID: "u2", Name: "Mug", VolumeMl: 1}, wantErr: ErrForeignPreset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockRepository)
			service := NewService(mockRepo, slog.Default())
			if tt.wantErr == nil {
				want := tt.row
				want.UserID = "u1"
				mockRepo.On("Upsert", mock.Anything, []hydration.PresetRow{want}).Return(1, nil)
			}

			n, err := service.Upsert(context.Background(), "u1", []hydration.PresetRow{tt.row})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 1, n)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestService_DeleteAndList(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())
	mockRepo.On("Delete", mock.Anything, "u1", []string{"p1"}).Return(1, nil)
	mockRepo.On("List", mock.Anything, "u1").Return([]hydration.PresetRow{{ID: "p2"}}, nil)

	n, err := service.Delete(context.Background(), "u1", []string{"p1"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := service.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	n, err = service.Delete(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	mockRepo.AssertExpectations(t)
}

func TestService_Upsert_IssueMessage(t *testing.T) {
	tests := []struct {
		name    string
		row     hydration.PresetRow
		wantMsg string
	}{
		{name: "negative volume", row: hydration.PresetRow{ID: "p1", Name: "Mug", VolumeMl: -10}, wantMsg: "volume_ml must be positive"},
		{name: "negative factor", row: hydration.PresetRow{ID: "p2", Name: "Mug", VolumeMl: 350, HydrationFactor: -5}, wantMsg: "hydration_factor must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewService(new(MockRepository), slog.Default())

			_, err := service.Upsert(context.Background(), "u1", []hydration.PresetRow{tt.row})

			require.ErrorIs(t, err, ErrInvalidPreset)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Contains(t, err.Error(), tt.row.ID)
		})
	}
}
