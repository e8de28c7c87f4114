package logger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/exp/slog"

	"hydrosync/internal/app/server/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name          string
		env           string
		expectedLevel slog.Level
	}{
		{
			name:          "local environment",
			env:           config.EnvLocal,
			expectedLevel: slog.LevelDebug,
		},
		{
			name:          "dev environment",
			env:           config.EnvDev,
			expectedLevel: slog.LevelDebug,
		},
		{
			name:          "prod environment",
			env:           config.EnvProd,
			expectedLevel: slog.LevelInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.env)
			require.NotNil(t, logger)
			ctx := context.Background()
			assert.Equal(t, tt.expectedLevel <= slog.LevelDebug, logger.Enabled(ctx, slog.LevelDebug))
			assert.True(t, logger.Enabled(ctx, slog.LevelInfo))
		})
	}
}

func TestSetupPrettySlog(t *testing.T) {
	var buf bytes.Buffer
	logger := setupPrettySlogTo(&buf)
	require.NotNil(t, logger)

	logger.With(slog.String("component", "test")).Info("hello", "volume_ml", 296)

	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "volume_ml")
	assert.Contains(t, buf.String(), "component")
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")

	logger := NewWithFile(config.EnvProd, path)
	logger.Debug("скрыто")
	logger.Info("записано", "count", 3)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "записано")
	assert.NotContains(t, string(data), "скрыто")
}

func TestNewCLI(t *testing.T) {
	ctx := context.Background()

	quiet := NewCLI(false, "")
	assert.False(t, quiet.Enabled(ctx, slog.LevelInfo))
	assert.True(t, quiet.Enabled(ctx, slog.LevelWarn))

	path := filepath.Join(t.TempDir(), "cli.log")
	verbose := NewCLI(true, path)
	verbose.Debug("подробно", "step", "upload")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "подробно")
}
