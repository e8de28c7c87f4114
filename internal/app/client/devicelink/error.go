package devicelink

import (
	"errors"
	"fmt"
)

var (
	ErrNoProfile            = errors.New("no compatible service profile")
	ErrNoDataCharacteristic = errors.New("no data characteristic")
	ErrLinkLost             = errors.New("link lost during connect")
	ErrAlreadyConnected     = errors.New("device link is not disconnected")
	ErrNotConnected         = errors.New("device link is not connected")
)

// ConnectionError ошибка установления соединения, прерывает попытку подключения
type ConnectionError struct {
	Stage string
	Err   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed at %s: %v", e.Stage, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TransportWriteError ошибка записи команды, не фатальна
type TransportWriteError struct {
	Characteristic string
	Err            error
}

func (e *TransportWriteError) Error() string {
	return fmt.Sprintf("write to %s: %v", e.Characteristic, e.Err)
}

func (e *TransportWriteError) Unwrap() error { return e.Err }

// DecodeAnomaly кадр не соответствует ожидаемой разметке
type DecodeAnomaly struct {
	Frame  []byte
	Reason string
}

func (e *DecodeAnomaly) Error() string {
	return fmt.Sprintf("malformed frame %x: %s", e.Frame, e.Reason)
}
