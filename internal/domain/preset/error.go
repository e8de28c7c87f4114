package preset

import "errors"

var (
	ErrInvalidPreset = errors.New("invalid preset")
	ErrForeignPreset = errors.New("preset belongs to another user")
)
