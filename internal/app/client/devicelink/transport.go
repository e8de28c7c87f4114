package devicelink

import "context"

// Transport находит устройство по префиксу имени
type Transport interface {
	Discover(ctx context.Context, namePrefix string) (Peripheral, error)
}

// Peripheral подключенное устройство
type Peripheral interface {
	Name() string
	Service(ctx context.Context, uuid string) (Service, error)
	// OnDisconnect вызывается асинхронно при потере связи
	OnDisconnect(fn func())
	Disconnect() error
}

type Service interface {
	Characteristic(ctx context.Context, uuid string) (Characteristic, error)
}

type Characteristic interface {
	Write(ctx context.Context, data []byte) error
	Read(ctx context.Context) ([]byte, error)
	// Subscribe включает уведомления; fn может вызываться из чужой горутины
	Subscribe(fn func(data []byte)) error
}
