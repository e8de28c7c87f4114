package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	gosync "sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"

	"hydrosync/internal/app/client/config"
	"hydrosync/internal/app/client/devicelink"
	"hydrosync/internal/app/client/eventstore"
	"hydrosync/internal/app/client/remote"
	"hydrosync/internal/app/client/syncengine"
	"hydrosync/internal/domain/hydration"
	"hydrosync/internal/infrastructure/ble"
)

var (
	ErrNotAuthenticated = errors.New("вход не выполнен. Выполните: hydrosync auth login")
	ErrDeviceLost       = errors.New("связь с бутылкой потеряна")
)

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

type App struct {
	config  *config.Config
	log     *slog.Logger
	storage Storage
	store   *eventstore.Store
	remote  *remote.Client
	engine  *syncengine.Engine
	link    *devicelink.Link
	state   *State
	lockErr error
	cancel  context.CancelFunc
	mu      gosync.RWMutex
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	state, err := loadState(cfg)
	if err != nil {
		log.Warn("Не удалось загрузить состояние приложения", "error", err)
		state = &State{}
	}

	// Инициализируем локальное хранилище (используем SQLite)
	var storage Storage
	sqliteStorage, err := NewSQLiteStorage(cfg.DataPath)
	if err != nil {
		log.Warn("Не удалось инициализировать SQLite, используем память", "error", err)
		storage = NewMemoryStorage()
	} else {
		storage = sqliteStorage
	}

	// без блокировки приложение открывается только на чтение
	lockErr := storage.Lock()
	if lockErr != nil {
		log.Debug("Локальные данные доступны только для чтения", "error", lockErr)
	}

	snap, err := storage.LoadSnapshot(context.Background())
	if err != nil {
		storage.Close()
		return nil, fmt.Errorf("ошибка загрузки локальных данных: %w", err)
	}

	store := eventstore.New(log)
	store.Restore(snap)

	remoteClient := remote.New(cfg, log)

	app := &App{
		config:  cfg,
		log:     log,
		storage: storage,
		store:   store,
		remote:  remoteClient,
		engine:  syncengine.New(store, remoteClient, cfg.SyncDebounce, log),
		state:   state,
		lockErr: lockErr,
	}
	app.link = devicelink.New(ble.New(log), store, devicelink.Config{
		NamePrefix:     cfg.NamePrefix,
		CapacityMl:     cfg.CapacityMl,
		HandshakePause: cfg.HandshakePause,
	}, log)

	store.Subscribe(app.persist)

	// Восстанавливаем сессию из файла токена
	if token, err := app.GetToken(); err == nil && token != "" {
		remoteClient.SetToken(token)
		if state.UserID != "" {
			store.SetIdentity(state.UserID)
		}
		log.Debug("Токен загружен из файла")
	}

	return app, nil
}

func loadState(cfg *config.Config) (*State, error) {
	statePath := filepath.Join(cfg.ConfigDir, "state.json")

	data, err := os.ReadFile(statePath)
	if os.IsNotExist(err) {
		return &State{}, nil
	}
	if err != nil {
		return nil, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// saveState вызывается под a.mu
func (a *App) saveState() error {
	data, err := json.MarshalIndent(a.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(a.config.ConfigDir, "state.json"), data, 0600)
}

// persist сохраняет каждый опубликованный снимок
func (a *App) persist(snap eventstore.Snapshot) {
	if err := a.storage.SaveSnapshot(context.Background(), snap); err != nil {
		a.log.Error("Ошибка сохранения локальных данных", "revision", snap.Revision, "error", err)
	}
}

func (a *App) Store() *eventstore.Store { return a.store }

// RequireWritable возвращает ErrDataLocked, если данные держит другой процесс
func (a *App) RequireWritable() error {
	return a.lockErr
}

func (a *App) Link() *devicelink.Link { return a.link }

// State возвращает копию состояния сессии
func (a *App) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return *a.state
}

// IsAuthenticated проверяет, выполнен ли вход
func (a *App) IsAuthenticated() bool {
	return a.remote.Token() != "" && a.store.Identity() != ""
}

// GetToken возвращает сохраненный токен
func (a *App) GetToken() (string, error) {
	tokenBytes, err := os.ReadFile(a.config.TokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotAuthenticated
		}
		return "", fmt.Errorf("ошибка чтения токена: %w", err)
	}
	return strings.TrimSpace(string(tokenBytes)), nil
}

// SaveToken сохраняет токен аутентификации
func (a *App) SaveToken(token string) error {
	if err := os.WriteFile(a.config.TokenPath, []byte(token), 0600); err != nil {
		return fmt.Errorf("ошибка сохранения токена: %w", err)
	}
	a.remote.SetToken(token)
	return nil
}

// ClearToken удаляет токен и сбрасывает активный аккаунт
func (a *App) ClearToken() error {
	a.remote.SetToken("")
	a.store.SetIdentity("")

	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.UserID = ""
	a.state.Login = ""

	if err := os.Remove(a.config.TokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления токена: %w", err)
	}
	if err := a.saveState(); err != nil {
		return fmt.Errorf("ошибка сохранения состояния: %w", err)
	}
	return nil
}

// Register регистрирует нового пользователя и возвращает его идентификатор
func (a *App) Register(ctx context.Context, login, password string) (string, error) {
	userID, err := a.remote.Register(ctx, login, password)
	if err != nil {
		return "", err
	}

	a.log.Info("Пользователь успешно зарегистрирован", "login", login)
	return userID, nil
}

// Login выполняет вход, делает пользователя активным аккаунтом и выполняет
// проход синхронизации с полной выборкой.
func (a *App) Login(ctx context.Context, login, password string) (syncengine.Result, error) {
	token, userID, err := a.remote.Login(ctx, login, password)
	if err != nil {
		return syncengine.Result{}, err
	}

	if err = a.SaveToken(token); err != nil {
		return syncengine.Result{}, err
	}

	a.mu.Lock()
	a.state.UserID = userID
	a.state.Login = login
	if err = a.saveState(); err != nil {
		a.log.Warn("Не удалось сохранить состояние", "error", err)
	}
	a.mu.Unlock()

	a.store.SetIdentity(userID)
	a.log.Info("Вход выполнен успешно", "login", login)

	return a.Sync(ctx, syncengine.ReasonSignIn)
}

// Logout завершает сессию на сервере и локально. Локальные данные остаются.
func (a *App) Logout(ctx context.Context) error {
	if a.remote.Token() != "" {
		if err := a.remote.Logout(ctx); err != nil && !errors.Is(err, remote.ErrUnauthorized) {
			a.log.Warn("Не удалось завершить сессию на сервере", "error", err)
		}
	}
	return a.ClearToken()
}

// Sync выполняет проход синхронизации синхронно
func (a *App) Sync(ctx context.Context, reason syncengine.Reason) (syncengine.Result, error) {
	if !a.IsAuthenticated() {
		return syncengine.Result{}, ErrNotAuthenticated
	}

	res, err := a.engine.Run(ctx, syncengine.Options{Pull: reason.Pulls()})
	if err != nil {
		a.handleAuthError(err)
		return res, err
	}

	a.mu.Lock()
	a.state.LastSync = time.Now().UnixMilli()
	if err := a.saveState(); err != nil {
		a.log.Warn("Не удалось сохранить состояние", "error", err)
	}
	a.mu.Unlock()
	return res, nil
}

// SyncStats статистика синхронизации текущего процесса
func (a *App) SyncStats() syncengine.Stats {
	return a.engine.Stats()
}

// History возвращает строки удаленного хранилища за диапазон дат (YYYY-MM-DD, UTC)
func (a *App) History(ctx context.Context, startDate, endDate string) ([]hydration.SipRow, error) {
	if !a.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	rows, err := a.remote.History(ctx, startDate, endDate)
	if err != nil {
		a.handleAuthError(err)
		return nil, err
	}
	return rows, nil
}

// CheckConnection проверяет соединение с сервером
func (a *App) CheckConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return a.remote.HealthCheck(ctx)
}

// handleAuthError сбрасывает сессию, если сервер отверг токен
func (a *App) handleAuthError(err error) {
	if !errors.Is(err, remote.ErrUnauthorized) {
		return
	}
	a.log.Warn("Сессия истекла, требуется повторный вход")
	if cErr := a.ClearToken(); cErr != nil {
		a.log.Error("Не удалось сбросить сессию", "error", cErr)
	}
}

// Run запускает клиент в режиме демона до сигнала завершения или отмены ctx.
// withDevice включает сессию с бутылкой.
func (a *App) Run(ctx context.Context, withDevice bool) error {
	if err := a.RequireWritable(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	defer cancel()

	go a.handleSignals(ctx)

	a.store.Subscribe(a.engine.OnSnapshot(ctx))

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(a.config.SyncSchedule, func() {
		a.engine.Trigger(ctx, syncengine.ReasonInterval)
	}); err != nil {
		return fmt.Errorf("некорректное расписание синхронизации %q: %w", a.config.SyncSchedule, err)
	}
	scheduler.Start()
	defer func() {
		<-scheduler.Stop().Done()
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.realtimeLoop(gctx)
		return nil
	})
	g.Go(func() error {
		a.healthLoop(gctx)
		return nil
	})
	if withDevice {
		g.Go(func() error {
			return a.deviceSession(gctx)
		})
	}

	a.engine.Trigger(ctx, syncengine.ReasonRestore)

	a.log.Info("Клиент запущен",
		"server", a.config.ServerAddress,
		"env", a.config.Env,
		"device", withDevice,
	)

	err := g.Wait()
	a.engine.Wait()
	if dErr := a.link.Disconnect(); dErr != nil {
		a.log.Debug("ошибка отключения бутылки", "error", dErr)
	}
	return err
}

// realtimeLoop держит подписку на изменения с переподключением. Каждое
// подтвержденное подключение запускает проход с полной выборкой.
func (a *App) realtimeLoop(ctx context.Context) {
	backoff := minBackoff
	for ctx.Err() == nil {
		if !a.IsAuthenticated() {
			if sleep(ctx, maxBackoff) != nil {
				return
			}
			continue
		}

		err := a.remote.Subscribe(ctx, remote.StreamHandler{
			OnReady: func() {
				backoff = minBackoff
				a.log.Info("Подписка на изменения установлена")
				a.engine.Trigger(ctx, syncengine.ReasonRealtime)
			},
			OnChange: a.engine.ApplyChange,
		})
		if err == nil {
			return
		}
		a.handleAuthError(err)
		a.log.Warn("Подписка на изменения прервана", "error", err, "retry_in", backoff)

		if sleep(ctx, backoff) != nil {
			return
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// healthLoop следит за доступностью сервера и запускает проход при восстановлении связи
func (a *App) healthLoop(ctx context.Context) {
	interval := a.config.HealthInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	online := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := a.CheckConnection(ctx)
			switch {
			case err != nil && online:
				online = false
				a.log.Warn("Сервер недоступен", "error", err)
			case err == nil && !online:
				online = true
				a.log.Info("Связь с сервером восстановлена")
				a.engine.Trigger(ctx, syncengine.ReasonNetwork)
			}
		}
	}
}

// deviceSession подключается к бутылке один раз и держит сессию до отмены ctx.
// Переподключения нет: потеря связи завершает сессию ошибкой.
func (a *App) deviceSession(ctx context.Context) error {
	lost := make(chan struct{}, 1)
	a.link.OnStatus(func(s devicelink.Status) {
		if s != devicelink.StatusDisconnected {
			return
		}
		select {
		case lost <- struct{}{}:
		default:
		}
	})

	if err := a.link.Connect(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	if a.link.Status() == devicelink.StatusDisconnected {
		return ErrDeviceLost
	}

	select {
	case <-ctx.Done():
		return nil
	case <-lost:
		if ctx.Err() != nil {
			return nil
		}
		return ErrDeviceLost
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// handleSignals отменяет ctx по сигналу и выходит вместе с Run
func (a *App) handleSignals(ctx context.Context) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
	case sig := <-sigChan:
		a.log.Info("Получен сигнал завершения", "signal", sig.String())
		if a.cancel != nil {
			a.cancel()
		}
	}
}

// Shutdown дожидается фоновых проходов и закрывает хранилище
func (a *App) Shutdown() {
	a.log.Info("Завершение работы клиента...")

	if a.cancel != nil {
		a.cancel()
	}
	a.engine.Wait()

	if err := a.storage.Close(); err != nil {
		a.log.Error("Ошибка закрытия хранилища", "error", err)
	}
	a.log.Info("Клиент завершил работу")
}
