package migration

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/exp/slog"

	"hydrosync/internal/app/server/config"
)

// MockMigrator — мок для интерфейса Migrator
type MockMigrator struct {
	mock.Mock
}

func (m *MockMigrator) Up() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockMigrator) Version() (uint, bool, error) {
	args := m.Called()
	return args.Get(0).(uint), args.Bool(1), args.Error(2)
}

func (m *MockMigrator) Close() (error, error) {
	args := m.Called()
	return args.Error(0), args.Error(1)
}

func TestMigration_Up(t *testing.T) {
	tests := []struct {
		name     string
		upErr    error
		closeErr error
		wantErr  bool
	}{
		{name: "success"},
		// ErrNoChange не должна считаться ошибкой
		{name: "no change", upErr: migrate.ErrNoChange},
		{name: "up failure", upErr: errors.New("syntax error"), wantErr: true},
		{name: "close failure", closeErr: errors.New("conn reset"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockM := new(MockMigrator)
			mockM.On("Up").Return(tt.upErr)
			mockM.On("Version").Return(uint(4), false, nil).Maybe()
			mockM.On("Close").Return(nil, tt.closeErr)

			var source string
			engine := func(src, db string) (Migrator, error) {
				source = src
				return mockM, nil
			}

			mg := NewMigration(config.DB{Migrations: "migrations"}, engine, slog.Default())
			err := mg.Up()

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, "file://migrations", source)
			mockM.AssertExpectations(t)
		})
	}
}

func TestMigration_Up_EngineError(t *testing.T) {
	engine := func(source, db string) (Migrator, error) {
		return nil, errors.New("engine crash")
	}

	err := NewMigration(config.DB{}, engine, slog.Default()).Up()

	assert.EqualError(t, err, "engine crash")
}
