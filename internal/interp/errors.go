package interp

import (
	"fmt"
	"time"
)

// InterpreterError reports a failure from the external interpreter: a bad
// exit, an unreadable save file, or unparseable output. The message is
// surfaced to the caller uninterpreted and never retried automatically.
type InterpreterError struct {
	Message string
}

func (e *InterpreterError) Error() string { return e.Message }

// TimeoutError reports that the interpreter exceeded its wall-clock bound
// and was killed. Distinct from InterpreterError so callers can tell a hung
// process from one that reported failure.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("interpreter timed out after %s", e.Timeout)
}
