package devicelink

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"hydrosync/internal/domain/hydration"
)

type writeLog struct {
	mu     sync.Mutex
	writes []string
}

func (w *writeLog) add(s string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes = append(w.writes, s)
}

func (w *writeLog) all() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.writes...)
}

type fakeChar struct {
	name     string
	log      *writeLog
	writeErr error
	value    []byte
	notify   func([]byte)
}

func (c *fakeChar) Write(_ context.Context, data []byte) error {
	c.log.add(c.name + ":" + hex.EncodeToString(data))
	return c.writeErr
}

func (c *fakeChar) Read(context.Context) ([]byte, error) {
	if c.value == nil {
		return nil, errors.New("not readable")
	}
	return c.value, nil
}

func (c *fakeChar) Subscribe(fn func([]byte)) error {
	c.notify = fn
	return nil
}

type fakeService struct {
	chars map[string]*fakeChar
}

func (s *fakeService) Characteristic(_ context.Context, uuid string) (Characteristic, error) {
	c, ok := s.chars[uuid]
	if !ok {
		return nil, errors.New("characteristic not found")
	}
	return c, nil
}

type fakePeripheral struct {
	name         string
	services     map[string]*fakeService
	onDisconnect func()
	disconnected bool
}

func (p *fakePeripheral) Name() string { return p.name }

func (p *fakePeripheral) Service(_ context.Context, uuid string) (Service, error) {
	s, ok := p.services[uuid]
	if !ok {
		return nil, errors.New("service not found")
	}
	return s, nil
}

func (p *fakePeripheral) OnDisconnect(fn func()) { p.onDisconnect = fn }

func (p *fakePeripheral) Disconnect() error {
	p.disconnected = true
	return nil
}

type fakeTransport struct {
	peripheral *fakePeripheral
	err        error
}

func (t *fakeTransport) Discover(context.Context, string) (Peripheral, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.peripheral, nil
}

type fakeSink struct {
	mu   sync.Mutex
	sips []hydration.BottleSip
}

func (s *fakeSink) RecordBottleSip(sip hydration.BottleSip) hydration.BottleSip {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sips = append(s.sips, sip)
	return sip
}

type bottle struct {
	log        *writeLog
	peripheral *fakePeripheral
	data       *fakeChar
	legacyData *fakeChar
	battery    *fakeChar
}

// newBottle собирает устройство с обоими профилями и батареей
func newBottle() *bottle {
	w := &writeLog{}
	b := &bottle{
		log:        w,
		data:       &fakeChar{name: "data", log: w},
		legacyData: &fakeChar{name: "legacy_data", log: w},
		battery:    &fakeChar{name: "battery", log: w, value: []byte{87}},
	}
	b.peripheral = &fakePeripheral{
		name: "h2oTEST",
		services: map[string]*fakeService{
			ServiceUser: {chars: map[string]*fakeChar{CharUserData: b.data}},
			ServiceLegacy: {chars: map[string]*fakeChar{
				CharLegacyData: b.legacyData,
				CharDebug:      {name: "debug", log: w},
				CharSetPoint:   {name: "set_point", log: w},
				CharLED:        {name: "led", log: w},
			}},
			ServiceBattery: {chars: map[string]*fakeChar{CharBatteryLevel: b.battery}},
		},
	}
	return b
}

func newTestLink(b *bottle, sink SipSink) *Link {
	l := New(&fakeTransport{peripheral: b.peripheral}, sink, Config{}, slog.Default())
	l.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	return l
}

func expectedHandshake() []string {
	out := make([]string, 0, len(HandshakeSequence))
	for _, cmd := range HandshakeSequence {
		out = append(out, string(cmd.Target)+":"+cmd.Hex)
	}
	return out
}

func TestLink_Connect_HandshakeThenReady(t *testing.T) {
	// Arrange
	b := newBottle()
	l := newTestLink(b, &fakeSink{})
	var statuses []Status
	l.OnStatus(func(s Status) { statuses = append(statuses, s) })

	// Act
	err := l.Connect(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, StatusConnected, l.Status())
	assert.Equal(t, []Status{StatusConnecting, StatusConnected}, statuses)
	assert.Equal(t, "h2oTEST", l.DeviceName())

	want := append(expectedHandshake(), "data:57")
	assert.Equal(t, want, b.log.all())

	level, ok := l.Battery()
	assert.True(t, ok)
	assert.Equal(t, 87, level)
	assert.NotNil(t, b.data.notify)
	assert.Nil(t, b.legacyData.notify)
}

func TestLink_Connect_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(b *bottle)
		wantErr error
	}{
		{
			name: "no profile",
			mutate: func(b *bottle) {
				delete(b.peripheral.services, ServiceUser)
				delete(b.peripheral.services, ServiceLegacy)
			},
			wantErr: ErrNoProfile,
		},
		{
			name: "no data characteristic",
			mutate: func(b *bottle) {
				delete(b.peripheral.services[ServiceUser].chars, CharUserData)
				delete(b.peripheral.services[ServiceLegacy].chars, CharLegacyData)
			},
			wantErr: ErrNoDataCharacteristic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBottle()
			tt.mutate(b)
			l := newTestLink(b, &fakeSink{})

			err := l.Connect(context.Background())

			var connErr *ConnectionError
			require.ErrorAs(t, err, &connErr)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, StatusDisconnected, l.Status())
			assert.True(t, b.peripheral.disconnected)
		})
	}
}

func TestLink_Connect_DiscoveryError(t *testing.T) {
	l := New(&fakeTransport{err: errors.New("scan timeout")}, &fakeSink{}, Config{}, slog.Default())

	err := l.Connect(context.Background())

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "discover", connErr.Stage)
	assert.Equal(t, StatusDisconnected, l.Status())
}

func TestLink_Connect_FallsBackToLegacyData(t *testing.T) {
	b := newBottle()
	delete(b.peripheral.services, ServiceUser)
	l := newTestLink(b, &fakeSink{})

	require.NoError(t, l.Connect(context.Background()))

	assert.NotNil(t, b.legacyData.notify)
	writes := b.log.all()
	assert.Equal(t, "legacy_data:57", writes[len(writes)-1])
}

func TestLink_Connect_MissingControlsOnlyWarn(t *testing.T) {
	b := newBottle()
	legacy := b.peripheral.services[ServiceLegacy]
	delete(legacy.chars, CharDebug)
	delete(legacy.chars, CharSetPoint)
	delete(b.peripheral.services, ServiceBattery)
	l := newTestLink(b, &fakeSink{})

	require.NoError(t, l.Connect(context.Background()))

	assert.Equal(t, []string{"data:57"}, b.log.all())
	_, ok := l.Battery()
	assert.False(t, ok)
}

func TestLink_Connect_HandshakeWriteErrorsAreNotFatal(t *testing.T) {
	b := newBottle()
	b.peripheral.services[ServiceLegacy].chars[CharSetPoint].writeErr = errors.New("gatt busy")
	l := newTestLink(b, &fakeSink{})

	require.NoError(t, l.Connect(context.Background()))

	assert.Equal(t, StatusConnected, l.Status())
	assert.Len(t, b.log.all(), len(HandshakeSequence)+1)
}

func TestLink_Connect_ReadyWriteFailureIsFatal(t *testing.T) {
	b := newBottle()
	b.data.writeErr = errors.New("gatt closed")
	l := newTestLink(b, &fakeSink{})

	err := l.Connect(context.Background())

	var writeErr *TransportWriteError
	assert.ErrorAs(t, err, &writeErr)
	assert.Equal(t, StatusDisconnected, l.Status())
}

func TestLink_Connect_Twice(t *testing.T) {
	b := newBottle()
	l := newTestLink(b, &fakeSink{})
	require.NoError(t, l.Connect(context.Background()))

	assert.ErrorIs(t, l.Connect(context.Background()), ErrAlreadyConnected)
}

func TestLink_Frames(t *testing.T) {
	b := newBottle()
	sink := &fakeSink{}
	l := newTestLink(b, sink)
	require.NoError(t, l.Connect(context.Background()))
	before := len(b.log.all())

	b.data.notify([]byte{3, 50, 0, 10, 0, 0, 0, 0, 30})
	b.data.notify([]byte{2, 0, 0, 10, 0, 0, 0, 0, 1})
	b.data.notify([]byte{0, 0, 0, 0, 0, 0, 0, 0, 0})
	b.data.notify([]byte{9, 9})

	require.Len(t, sink.sips, 1)
	assert.Equal(t, hydration.BottleSip{Timestamp: 1_700_000_000_000 - 30_000, VolumeMl: 296}, sink.sips[0])
	assert.Equal(t, []string{"led:02", "led:02", "data:57"}, b.log.all()[before:])
}

func TestLink_FramesAfterLinkLossAreDropped(t *testing.T) {
	b := newBottle()
	sink := &fakeSink{}
	l := newTestLink(b, sink)
	require.NoError(t, l.Connect(context.Background()))

	b.peripheral.onDisconnect()
	b.data.notify([]byte{3, 50, 0, 10, 0, 0, 0, 0, 30})

	assert.Equal(t, StatusDisconnected, l.Status())
	assert.Empty(t, sink.sips)
}

func TestLink_Disconnect(t *testing.T) {
	b := newBottle()
	sink := &fakeSink{}
	l := newTestLink(b, sink)
	require.NoError(t, l.Connect(context.Background()))

	require.NoError(t, l.Disconnect())
	b.data.notify([]byte{3, 50, 0, 10, 0, 0, 0, 0, 30})
	b.peripheral.onDisconnect()

	assert.True(t, b.peripheral.disconnected)
	assert.Equal(t, StatusDisconnected, l.Status())
	assert.Empty(t, sink.sips)
	assert.ErrorIs(t, l.Handshake(context.Background()), ErrNotConnected)
}
