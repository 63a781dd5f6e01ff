package transcribe

import (
	"errors"
	"fmt"
)

// ErrNotStarted is returned when audio is pushed to an engine before Start
var ErrNotStarted = errors.New("engine not started")

// EngineError wraps any failure raised by a recognition engine so callers
// can tell engine faults apart from source or sink faults
type EngineError struct {
	Op  string // start, push, flush
	Err error
}

// NewEngineError wraps err as an engine failure during op
func NewEngineError(op string, err error) *EngineError {
	return &EngineError{Op: op, Err: err}
}

// Error implements the error interface
func (e *EngineError) Error() string {
	return fmt.Sprintf("engine %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause
func (e *EngineError) Unwrap() error {
	return e.Err
}

// IsEngineError reports whether err is or wraps an engine failure
func IsEngineError(err error) bool {
	var engineErr *EngineError
	return errors.As(err, &engineErr)
}
