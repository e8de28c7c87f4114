// Package ble реализует транспорт devicelink поверх tinygo.org/x/bluetooth.
package ble

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/exp/slog"
	"tinygo.org/x/bluetooth"

	"hydrosync/internal/app/client/devicelink"
)

var ErrNotFound = errors.New("device not found")

type Transport struct {
	adapter *bluetooth.Adapter
	log     *slog.Logger

	mu           sync.Mutex
	enabled      bool
	disconnected map[string]func()
}

// New создает транспорт на адаптере по умолчанию
func New(log *slog.Logger) *Transport {
	return &Transport{
		adapter:      bluetooth.DefaultAdapter,
		log:          log.With(slog.String("component", "ble")),
		disconnected: make(map[string]func()),
	}
}

func (t *Transport) enable() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.enabled {
		return nil
	}

	t.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if connected {
			return
		}
		t.mu.Lock()
		fn := t.disconnected[device.Address.String()]
		delete(t.disconnected, device.Address.String())
		t.mu.Unlock()
		if fn != nil {
			fn()
		}
	})

	if err := t.adapter.Enable(); err != nil {
		return fmt.Errorf("enable adapter: %w", err)
	}
	t.enabled = true
	return nil
}

// Discover сканирует эфир до первого устройства с подходящим префиксом имени
func (t *Transport) Discover(ctx context.Context, namePrefix string) (devicelink.Peripheral, error) {
	if err := t.enable(); err != nil {
		return nil, err
	}

	found := make(chan bluetooth.ScanResult, 1)
	scanErr := make(chan error, 1)

	go func() {
		scanErr <- t.adapter.Scan(func(a *bluetooth.Adapter, r bluetooth.ScanResult) {
			if !strings.HasPrefix(r.LocalName(), namePrefix) {
				return
			}
			select {
			case found <- r:
				_ = a.StopScan()
			default:
			}
		})
	}()

	var result bluetooth.ScanResult
	select {
	case <-ctx.Done():
		_ = t.adapter.StopScan()
		return nil, ctx.Err()
	case err := <-scanErr:
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		select {
		case result = <-found:
		default:
			return nil, ErrNotFound
		}
	case result = <-found:
	}

	t.log.Info("устройство найдено", "name", result.LocalName(), "address", result.Address.String(), "rssi", result.RSSI)

	device, err := t.adapter.Connect(result.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", result.Address.String(), err)
	}

	return &peripheral{
		transport: t,
		device:    device,
		name:      result.LocalName(),
		address:   result.Address.String(),
	}, nil
}

type peripheral struct {
	transport *Transport
	device    bluetooth.Device
	name      string
	address   string
}

func (p *peripheral) Name() string { return p.name }

func (p *peripheral) Service(_ context.Context, uuid string) (devicelink.Service, error) {
	id, err := bluetooth.ParseUUID(uuid)
	if err != nil {
		return nil, fmt.Errorf("parse uuid %s: %w", uuid, err)
	}
	services, err := p.device.DiscoverServices([]bluetooth.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("discover service %s: %w", uuid, err)
	}
	if len(services) == 0 {
		return nil, fmt.Errorf("service %s: %w", uuid, ErrNotFound)
	}
	return &service{svc: services[0]}, nil
}

func (p *peripheral) OnDisconnect(fn func()) {
	p.transport.mu.Lock()
	defer p.transport.mu.Unlock()
	p.transport.disconnected[p.address] = fn
}

func (p *peripheral) Disconnect() error {
	p.transport.mu.Lock()
	delete(p.transport.disconnected, p.address)
	p.transport.mu.Unlock()
	return p.device.Disconnect()
}

type service struct {
	svc bluetooth.DeviceService
}

func (s *service) Characteristic(_ context.Context, uuid string) (devicelink.Characteristic, error) {
	id, err := bluetooth.ParseUUID(uuid)
	if err != nil {
		return nil, fmt.Errorf("parse uuid %s: %w", uuid, err)
	}
	chars, err := s.svc.DiscoverCharacteristics([]bluetooth.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("discover characteristic %s: %w", uuid, err)
	}
	if len(chars) == 0 {
		return nil, fmt.Errorf("characteristic %s: %w", uuid, ErrNotFound)
	}
	return &characteristic{c: chars[0]}, nil
}

type characteristic struct {
	c bluetooth.DeviceCharacteristic
}

func (c *characteristic) Write(_ context.Context, data []byte) error {
	_, err := c.c.WriteWithoutResponse(data)
	return err
}

func (c *characteristic) Read(_ context.Context) ([]byte, error) {
	buf := make([]byte, 64)
	n, err := c.c.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (c *characteristic) Subscribe(fn func(data []byte)) error {
	return c.c.EnableNotifications(func(buf []byte) {
		// буфер переиспользуется драйвером
		fn(append([]byte(nil), buf...))
	})
}
