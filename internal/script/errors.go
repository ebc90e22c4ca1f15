package script

import (
	"errors"
	"fmt"
)

var (
	// ErrHookClosed is returned when calling into a closed hook.
	ErrHookClosed = errors.New("lua hook is closed")

	// ErrTimeout is returned when a script call exceeds its time limit.
	ErrTimeout = errors.New("lua call timed out")
)

// ScriptError reports a failure inside the Lua script.
type ScriptError struct {
	// Op is what was being run ("load" or the hook name).
	Op  string
	Err error
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	return fmt.Sprintf("lua %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ScriptError) Unwrap() error {
	return e.Err
}
