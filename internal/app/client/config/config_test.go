package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "localhost:8080", cfg.ServerAddress)
	assert.Equal(t, "@every 30s", cfg.SyncSchedule)
	assert.Equal(t, 2*time.Second, cfg.SyncDebounce)
	assert.Equal(t, 50*time.Millisecond, cfg.HandshakePause)
	assert.Equal(t, 591, cfg.CapacityMl)
	assert.Equal(t, "h2o", cfg.NamePrefix)
	assert.Equal(t, filepath.Join(dir, "hydration.db"), cfg.DataPath)
	assert.Equal(t, filepath.Join(dir, "token"), cfg.TokenPath)
	assert.True(t, cfg.IsLocal())
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)
	path := filepath.Join(dir, "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_address: sync.example.com\nbottle_capacity_ml: 710\napp_env: prod\n"), 0600))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "sync.example.com", cfg.ServerAddress)
	assert.Equal(t, 710, cfg.CapacityMl)
	assert.True(t, cfg.IsProd())
}

func TestLoad_InvalidCapacity(t *testing.T) {
	t.Setenv("CONFIG_DIR", t.TempDir())
	t.Setenv("BOTTLE_CAPACITY_ML", "0")

	_, err := Load("")

	assert.Error(t, err)
}
