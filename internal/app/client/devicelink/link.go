// Package devicelink подключается к умной бутылке, выполняет рукопожатие
// и превращает кадры уведомлений в глотки.
package devicelink

import (
	"context"
	"encoding/hex"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/exp/slog"

	"hydrosync/internal/domain/hydration"
)

type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
)

// SipSink принимает распознанные глотки
type SipSink interface {
	RecordBottleSip(sip hydration.BottleSip) hydration.BottleSip
}

type Config struct {
	NamePrefix     string
	CapacityMl     int
	HandshakePause time.Duration
}

// session характеристики одного подключения. epoch отличает сессии друг от друга.
type session struct {
	epoch      uint64
	peripheral Peripheral
	data       Characteristic
	debug      Characteristic
	setPoint   Characteristic
	led        Characteristic
}

type Link struct {
	transport Transport
	sink      SipSink
	cfg       Config
	log       *slog.Logger
	now       func() time.Time

	mu         sync.Mutex
	status     Status
	deviceName string
	current    *session
	listeners  []func(Status)

	epoch   atomic.Uint64
	battery atomic.Int32
}

func New(transport Transport, sink SipSink, cfg Config, log *slog.Logger) *Link {
	if cfg.NamePrefix == "" {
		cfg.NamePrefix = DefaultNamePrefix
	}
	if cfg.CapacityMl <= 0 {
		cfg.CapacityMl = DefaultCapacityMl
	}

	l := &Link{
		transport: transport,
		sink:      sink,
		cfg:       cfg,
		log:       log.With(slog.String("component", "device_link")),
		now:       time.Now,
		status:    StatusDisconnected,
	}
	l.battery.Store(-1)
	return l
}

// OnStatus регистрирует слушателя смены статуса
func (l *Link) OnStatus(fn func(Status)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

func (l *Link) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

func (l *Link) DeviceName() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.deviceName
}

// Battery возвращает последний известный заряд в процентах
func (l *Link) Battery() (int, bool) {
	v := l.battery.Load()
	return int(v), v >= 0
}

func (l *Link) setStatus(s Status) {
	l.mu.Lock()
	if l.status == s {
		l.mu.Unlock()
		return
	}
	l.status = s
	listeners := slices.Clone(l.listeners)
	l.mu.Unlock()

	l.log.Info("статус устройства", "status", s)
	for _, fn := range listeners {
		fn(s)
	}
}

// Connect находит бутылку, разрешает характеристики, выполняет рукопожатие
// и подписывается на кадры. Статус Connected выставляется только после
// успешной записи команды готовности.
func (l *Link) Connect(ctx context.Context) error {
	l.mu.Lock()
	if l.status != StatusDisconnected {
		l.mu.Unlock()
		return ErrAlreadyConnected
	}
	l.status = StatusConnecting
	listeners := slices.Clone(l.listeners)
	l.mu.Unlock()
	for _, fn := range listeners {
		fn(StatusConnecting)
	}

	s, err := l.connect(ctx)
	if err != nil {
		l.log.Error("не удалось подключиться к бутылке", "error", err)
		if s != nil {
			l.epoch.CompareAndSwap(s.epoch, s.epoch+1)
			if dErr := s.peripheral.Disconnect(); dErr != nil {
				l.log.Debug("ошибка отключения", "error", dErr)
			}
		}
		l.setStatus(StatusDisconnected)
		return err
	}

	l.mu.Lock()
	l.current = s
	l.mu.Unlock()

	l.setStatus(StatusConnected)
	// связь могла оборваться между проверкой эпохи и сменой статуса
	if l.epoch.Load() != s.epoch {
		l.setStatus(StatusDisconnected)
	}
	return nil
}

func (l *Link) connect(ctx context.Context) (*session, error) {
	p, err := l.transport.Discover(ctx, l.cfg.NamePrefix)
	if err != nil {
		return nil, &ConnectionError{Stage: "discover", Err: err}
	}

	name := p.Name()
	if name == "" {
		name = DefaultDeviceName
	}
	l.mu.Lock()
	l.deviceName = name
	l.mu.Unlock()

	s := &session{epoch: l.epoch.Add(1), peripheral: p}
	p.OnDisconnect(func() { l.handleLinkLoss(s.epoch) })

	log := l.log.With(slog.String("device", name))

	user, err := p.Service(ctx, ServiceUser)
	if err != nil {
		log.Warn("основной профиль не найден", "error", err)
		user = nil
	}
	legacy, err := p.Service(ctx, ServiceLegacy)
	if err != nil {
		log.Warn("устаревший профиль не найден", "error", err)
		legacy = nil
	}
	if user == nil && legacy == nil {
		return s, &ConnectionError{Stage: "profile", Err: ErrNoProfile}
	}

	if user != nil {
		if s.data, err = user.Characteristic(ctx, CharUserData); err != nil {
			log.Warn("характеристика данных не найдена в основном профиле", "error", err)
			s.data = nil
		}
	}
	if s.data == nil && legacy != nil {
		if s.data, err = legacy.Characteristic(ctx, CharLegacyData); err != nil {
			log.Warn("характеристика данных не найдена в устаревшем профиле", "error", err)
			s.data = nil
		}
	}
	if s.data == nil {
		return s, &ConnectionError{Stage: "characteristics", Err: ErrNoDataCharacteristic}
	}

	l.subscribeBattery(ctx, p, s.epoch)

	s.debug = findControl(ctx, CharDebug, legacy, user)
	s.setPoint = findControl(ctx, CharSetPoint, legacy, user)
	s.led = findControl(ctx, CharLED, legacy, user)
	if s.debug == nil || s.setPoint == nil {
		log.Warn("управляющие характеристики отсутствуют, соединение может оборваться")
	}

	if err := l.handshake(ctx, s); err != nil {
		return s, &ConnectionError{Stage: "handshake", Err: err}
	}

	if err := s.data.Subscribe(func(frame []byte) { l.handleFrame(s, frame) }); err != nil {
		return s, &ConnectionError{Stage: "subscribe", Err: err}
	}

	if err := s.data.Write(ctx, cmdReady); err != nil {
		return s, &ConnectionError{Stage: "ready", Err: &TransportWriteError{Characteristic: "data", Err: err}}
	}

	if l.epoch.Load() != s.epoch {
		return s, &ConnectionError{Stage: "ready", Err: ErrLinkLost}
	}
	log.Info("бутылка подключена, ожидаем данные")
	return s, nil
}

// findControl ищет управляющую характеристику сначала в устаревшем профиле, затем в основном
func findControl(ctx context.Context, uuid string, services ...Service) Characteristic {
	for _, svc := range services {
		if svc == nil {
			continue
		}
		if c, err := svc.Characteristic(ctx, uuid); err == nil && c != nil {
			return c
		}
	}
	return nil
}

func (l *Link) subscribeBattery(ctx context.Context, p Peripheral, epoch uint64) {
	svc, err := p.Service(ctx, ServiceBattery)
	if err != nil {
		l.log.Warn("сервис батареи недоступен", "error", err)
		return
	}
	c, err := svc.Characteristic(ctx, CharBatteryLevel)
	if err != nil {
		l.log.Warn("характеристика заряда недоступна", "error", err)
		return
	}

	if v, err := c.Read(ctx); err != nil || len(v) == 0 {
		l.log.Warn("не удалось прочитать заряд", "error", err)
	} else {
		l.battery.Store(int32(v[0]))
		l.log.Info("заряд батареи", "percent", v[0])
	}

	err = c.Subscribe(func(v []byte) {
		if len(v) == 0 || l.epoch.Load() != epoch {
			return
		}
		l.battery.Store(int32(v[0]))
		l.log.Debug("обновление заряда", "percent", v[0])
	})
	if err != nil {
		l.log.Warn("не удалось подписаться на заряд", "error", err)
	}
}

// Handshake повторяет рукопожатие для текущего подключения
func (l *Link) Handshake(ctx context.Context) error {
	l.mu.Lock()
	s := l.current
	l.mu.Unlock()
	if s == nil {
		return ErrNotConnected
	}
	return l.handshake(ctx, s)
}

// handshake пишет команды строго по порядку. Ошибки записи и отсутствующие
// характеристики только логируются; прерывает рукопожатие лишь отмена ctx.
func (l *Link) handshake(ctx context.Context, s *session) error {
	for i, cmd := range HandshakeSequence {
		var target Characteristic
		switch cmd.Target {
		case TargetDebug:
			target = s.debug
		case TargetSetPoint:
			target = s.setPoint
		}
		if target == nil {
			continue
		}

		payload, err := hex.DecodeString(cmd.Hex)
		if err != nil {
			l.log.Error("некорректная команда рукопожатия", "index", i, "error", err)
			continue
		}

		if err := target.Write(ctx, payload); err != nil {
			werr := &TransportWriteError{Characteristic: string(cmd.Target), Err: err}
			l.log.Warn("ошибка записи команды рукопожатия", "index", i, "error", werr)
		}

		if err := pause(ctx, l.cfg.HandshakePause); err != nil {
			return err
		}
	}
	return nil
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// handleFrame обрабатывает уведомление характеристики данных.
// Кадры от завершенной сессии отбрасываются.
func (l *Link) handleFrame(s *session, frame []byte) {
	if l.epoch.Load() != s.epoch {
		l.log.Debug("кадр после отключения отброшен", "frame", hex.EncodeToString(frame))
		return
	}

	ctx := context.Background()

	r, err := Decode(frame, l.cfg.CapacityMl, l.now())
	if err != nil {
		var anomaly *DecodeAnomaly
		if errors.As(err, &anomaly) {
			l.log.Warn("кадр проигнорирован", "error", err)
		}
		return
	}

	if r.Remaining == 0 {
		if err := s.data.Write(ctx, cmdReady); err != nil {
			l.log.Warn("не удалось повторить команду готовности", "error", &TransportWriteError{Characteristic: "data", Err: err})
		}
		return
	}

	l.log.Debug("кадр глотка", "remaining", r.Remaining, "total", r.Total, "seconds_ago", r.SecondsAgo)

	if r.Sip != nil && l.epoch.Load() == s.epoch {
		l.sink.RecordBottleSip(*r.Sip)
		l.log.Info("глоток с бутылки", "volume_ml", r.Sip.VolumeMl, "timestamp", r.Sip.Timestamp)
	}

	if s.led != nil {
		if err := s.led.Write(ctx, cmdPulse); err != nil {
			l.log.Debug("не удалось мигнуть подсветкой", "error", &TransportWriteError{Characteristic: "led", Err: err})
		}
	}
}

// handleLinkLoss переводит сессию в Disconnected при асинхронной потере связи
func (l *Link) handleLinkLoss(epoch uint64) {
	if !l.epoch.CompareAndSwap(epoch, epoch+1) {
		return
	}
	l.mu.Lock()
	if l.current != nil && l.current.epoch == epoch {
		l.current = nil
	}
	l.mu.Unlock()

	l.log.Warn("связь с бутылкой потеряна")
	l.setStatus(StatusDisconnected)
}

// Disconnect завершает текущую сессию. Переподключение не выполняется.
func (l *Link) Disconnect() error {
	l.mu.Lock()
	s := l.current
	l.current = nil
	l.mu.Unlock()

	if s == nil {
		return nil
	}
	l.epoch.CompareAndSwap(s.epoch, s.epoch+1)
	l.setStatus(StatusDisconnected)

	return s.peripheral.Disconnect()
}
