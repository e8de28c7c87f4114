package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"hydrosync/internal/app/client/config"
	"hydrosync/internal/app/client/syncengine"
)

type fakeServer struct {
	srv    *httptest.Server
	reject atomic.Bool
	logout atomic.Int32
}

func newFakeServer(t *testing.T) *fakeServer {
	f := &fakeServer{}
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	auth := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if f.reject.Load() || r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				write(w, map[string]string{"status": "Error", "error": "Unauthorized"})
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("POST /user/login", func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]string{"token": "tok", "user_id": "u1", "status": "Ok"})
	})
	mux.HandleFunc("POST /user/logout", auth(func(w http.ResponseWriter, r *http.Request) {
		f.logout.Add(1)
		write(w, map[string]string{"status": "Ok"})
	}))
	mux.HandleFunc("GET /api/v1/sips", auth(func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{
			"status": "Ok",
			"rows": []map[string]any{
				{"id": "u1-1000-bottle", "user_id": "u1", "timestamp": 1000, "volume_ml": 100, "source": "bottle"},
			},
		})
	}))
	mux.HandleFunc("GET /api/v1/presets", auth(func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{"status": "Ok", "rows": []any{}})
	}))
	mux.HandleFunc("POST /api/v1/sips/upsert", auth(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Rows []json.RawMessage `json:"rows"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		write(w, map[string]any{"status": "Ok", "count": len(body.Rows)})
	}))

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func testConfig(t *testing.T, addr string) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Env:            "local",
		ServerAddress:  strings.TrimPrefix(addr, "http://"),
		ConfigDir:      dir,
		TokenPath:      filepath.Join(dir, "token"),
		DataPath:       filepath.Join(dir, "hydration.db"),
		SyncSchedule:   "@every 30s",
		NamePrefix:     "h2o",
		CapacityMl:     591,
		SyncDebounce:   syncengine.DefaultDebounce,
		HealthInterval: 0,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestApp_SyncWithoutLogin(t *testing.T) {
	srv := newFakeServer(t)
	app, err := New(testConfig(t, srv.srv.URL), testLogger())
	require.NoError(t, err)
	defer app.Shutdown()

	_, err = app.Sync(context.Background(), syncengine.ReasonManual)

	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.False(t, app.IsAuthenticated())
}

func TestApp_LoginPullsAndRestores(t *testing.T) {
	// Arrange
	srv := newFakeServer(t)
	cfg := testConfig(t, srv.srv.URL)
	app, err := New(cfg, testLogger())
	require.NoError(t, err)

	// Act
	res, err := app.Login(context.Background(), "alice", "secret123")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, res.Downloaded)
	assert.True(t, app.IsAuthenticated())
	assert.Equal(t, "u1", app.Store().Identity())
	require.Len(t, app.Store().BottleSips(), 1)
	assert.Equal(t, int64(1000), app.Store().BottleSips()[0].Timestamp)

	state := app.State()
	assert.Equal(t, "alice", state.Login)
	assert.NotZero(t, state.LastSync)

	token, err := os.ReadFile(cfg.TokenPath)
	require.NoError(t, err)
	assert.Equal(t, "tok", string(token))
	app.Shutdown()

	// новый процесс восстанавливает сессию и данные с диска
	restored, err := New(cfg, testLogger())
	require.NoError(t, err)
	defer restored.Shutdown()

	assert.True(t, restored.IsAuthenticated())
	assert.Equal(t, "u1", restored.Store().Identity())
	assert.Len(t, restored.Store().BottleSips(), 1)
}

func TestApp_UnauthorizedClearsSession(t *testing.T) {
	srv := newFakeServer(t)
	cfg := testConfig(t, srv.srv.URL)
	app, err := New(cfg, testLogger())
	require.NoError(t, err)
	defer app.Shutdown()

	_, err = app.Login(context.Background(), "alice", "secret123")
	require.NoError(t, err)

	srv.reject.Store(true)
	_, err = app.Sync(context.Background(), syncengine.ReasonRefresh)

	require.Error(t, err)
	var syncErr *syncengine.SyncError
	assert.ErrorAs(t, err, &syncErr)
	assert.False(t, app.IsAuthenticated())
	_, statErr := os.Stat(cfg.TokenPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestApp_Logout(t *testing.T) {
	srv := newFakeServer(t)
	app, err := New(testConfig(t, srv.srv.URL), testLogger())
	require.NoError(t, err)
	defer app.Shutdown()

	_, err = app.Login(context.Background(), "alice", "secret123")
	require.NoError(t, err)

	require.NoError(t, app.Logout(context.Background()))

	assert.Equal(t, int32(1), srv.logout.Load())
	assert.False(t, app.IsAuthenticated())
	assert.Empty(t, app.Store().Identity())
	// локальные данные остаются после выхода
	assert.Len(t, app.Store().BottleSips(), 1)
}

func TestApp_SecondProcessIsReadOnly(t *testing.T) {
	// Arrange
	srv := newFakeServer(t)
	cfg := testConfig(t, srv.srv.URL)
	daemon, err := New(cfg, testLogger())
	require.NoError(t, err)
	defer daemon.Shutdown()

	// Act
	cli, err := New(cfg, testLogger())
	require.NoError(t, err)
	defer cli.Shutdown()

	// Assert
	assert.NoError(t, daemon.RequireWritable())
	assert.ErrorIs(t, cli.RequireWritable(), ErrDataLocked)
	assert.ErrorIs(t, cli.Run(context.Background(), false), ErrDataLocked)
}

func TestApp_RunStopsWithContext(t *testing.T) {
	srv := newFakeServer(t)
	app, err := New(testConfig(t, srv.srv.URL), testLogger())
	require.NoError(t, err)
	defer app.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, app.Run(ctx, false))
}

func TestApp_HandleSignalsReturnsOnCancel(t *testing.T) {
	app := &App{log: testLogger()}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		app.handleSignals(ctx)
		close(done)
	}()
	cancel()

	assert.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}
