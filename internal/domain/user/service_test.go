package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, id, login, passwordHash string) error {
	args := m.Called(ctx, id, login, passwordHash)
	return args.Error(0)
}

func (m *MockRepository) FindByLogin(ctx context.Context, login string) (User, error) {
	args := m.Called(ctx, login)
	return args.Get(0).(User), args.Error(1)
}

func newTestService(repo Repository) *Service {
	s := NewService(repo, NewPasswordValidator(), slog.Default())
	s.newID = func() string { return "5b0c6f1e-0000-4000-8000-000000000001" }
	return s
}

func TestService_Register(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	// хэш заранее неизвестен, проверяем только что он bcrypt от пароля
	mockRepo.On("Create", mock.Anything, "5b0c6f1e-0000-4000-8000-000000000001", "testuser", mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("Dr1nk-Water")) == nil
	})).Return(nil)

	userID, err := service.Register(context.Background(), "testuser", "Dr1nk-Water")

	require.NoError(t, err)
	assert.Equal(t, "5b0c6f1e-0000-4000-8000-000000000001", userID)
	mockRepo.AssertExpectations(t)
}

func TestService_Register_Errors(t *testing.T) {
	tests := []struct {
		name     string
		login    string
		password string
		repoErr  error
		wantErr  error
	}{
		{name: "invalid input", login: "ab", password: "Dr1nk-Water", wantErr: ErrInvalidInput},
		{name: "weak password", login: "testuser", password: "password", wantErr: ErrInvalidInput},
		{name: "login taken", login: "testuser", password: "Dr1nk-Water", repoErr: ErrLoginTaken, wantErr: ErrLoginTaken},
		{name: "database error", login: "testuser", password: "Dr1nk-Water", repoErr: errors.New("database error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockRepository)
			service := newTestService(mockRepo)
			if tt.repoErr != nil {
				mockRepo.On("Create", mock.Anything, mock.Anything, tt.login, mock.AnythingOfType("string")).Return(tt.repoErr)
			}

			_, err := service.Register(context.Background(), tt.login, tt.password)

			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestService_Authenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Dr1nk-Water"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := User{ID: "u-1", Login: "testuser", Password: string(hash)}

	tests := []struct {
		name     string
		login    string
		password string
		found    User
		findErr  error
		wantErr  error
	}{
		{name: "success", login: "testuser", password: "Dr1nk-Water", found: stored},
		{name: "user not found", login: "nobody", password: "Dr1nk-Water", findErr: errors.New("no rows"), wantErr: ErrNotFound},
		{name: "wrong password", login: "testuser", password: "Wrong-Pass1", found: stored, wantErr: ErrInvalidAuth},
		{name: "broken hash", login: "testuser", password: "Dr1nk-Water", found: User{ID: "u-1", Password: "invalidhash"}, wantErr: ErrInvalidAuth},
		{name: "invalid login", login: "a b", password: "x", wantErr: ErrInvalidAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			mockRepo := new(MockRepository)
			service := newTestService(mockRepo)
			if tt.wantErr != ErrInvalidAuth || tt.found.ID != "" {
				mockRepo.On("FindByLogin", mock.Anything, tt.login).Return(tt.found, tt.findErr)
			}

			// Act
			u, err := service.Authenticate(context.Background(), tt.login, tt.password)

			// Assert
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, u.ID)
			} else {
				require.NoError(t, err)
				assert.Equal(t, stored, u)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}
