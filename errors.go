package glora

import (
	"errors"
	"fmt"
)

var (
	ErrVersionMismatch = errors.New("version not matched")
	// ErrInvalidState is returned when an operation is not allowed in the
	// current device state. Nothing is written to the bus in that case.
	ErrInvalidState  = errors.New("invalid device state")
	ErrReadOnly      = errors.New("register is read-only")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrNoInterrupt   = errors.New("no interrupt line configured")
)

// TransportError is a failed bus transaction. After one of these the FIFO
// cursor position is unknown, so callers should not keep reading.
type TransportError struct {
	Op  string
	Reg Register
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %v: %v", e.Op, e.Reg, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// LengthError reports a payload length above the configured bound.
type LengthError struct {
	Length int
	Max    int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("payload length %d exceeds bound %d", e.Length, e.Max)
}

// IsTransportFault reports whether err came from a failed bus transaction.
func IsTransportFault(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
