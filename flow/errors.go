package flow

import (
	"errors"
	"fmt"
)

// ErrClosed is returned when sending to or draining a closed Channel.
var ErrClosed = errors.New("channel closed")

// ErrShutdownTimeout is returned by Scope.Shutdown when jobs outlive the timeout.
var ErrShutdownTimeout = errors.New("scope shutdown timed out")

// PanicError is the error a Job ends with when its function panics.
type PanicError struct {
	Value any
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
