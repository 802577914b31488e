package i2c

import "errors"

var (
	// ErrShortRead means the adapter completed fewer messages than requested.
	ErrShortRead = errors.New("i2c: short transfer")
	ErrClosed    = errors.New("i2c: device not open")
)
