package core

import (
	"errors"
)

var (
	ErrNotSupported  = errors.New("variable rate shading is not supported on this device")
	ErrInvalidHandle = errors.New("invalid or released handle")
	ErrDeviceLost    = errors.New("device lost")
)
