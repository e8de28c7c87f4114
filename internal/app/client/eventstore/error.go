package eventstore

import "errors"

var (
	ErrEntryNotFound  = errors.New("manual entry not found")
	ErrPresetNotFound = errors.New("preset not found")
	ErrInvalidVolume  = errors.New("volume must be positive")
	ErrInvalidFactor  = errors.New("hydration factor must not be negative")
)
