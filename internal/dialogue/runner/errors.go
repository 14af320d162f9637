package runner

import (
	"errors"
	"fmt"

	"github.com/dialogrun/diavolo/internal/dialogue/state"
)

// RuntimeConfigError reports an actors-count mismatch or an args payload
// that failed JSON-schema validation, both surfaced from Instantiate.
type RuntimeConfigError struct {
	Err error
}

func (e *RuntimeConfigError) Error() string { return fmt.Sprintf("runtime config: %v", e.Err) }
func (e *RuntimeConfigError) Unwrap() error  { return e.Err }

// EvaluationError wraps an error raised by the embedded expression
// evaluator. Per spec §7 this is fatal: the caller should treat the
// dialogue as aborted.
type EvaluationError struct {
	Err error
}

func (e *EvaluationError) Error() string { return fmt.Sprintf("evaluation error: %v", e.Err) }
func (e *EvaluationError) Unwrap() error  { return e.Err }

// ErrControlFlow is re-exported from the state package so callers can
// errors.Is against one sentinel regardless of which layer raised it
// (call-depth exhaustion, goto to a non-existent line id, or the
// 1000-iteration runaway-dispatch guard).
var ErrControlFlow = state.ErrControlFlow

func controlFlowError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrControlFlow}, args...)...)
}

// InvalidActionError is returned, never as an error value but as false
// from Dispatch, when the host requests an action the current view does
// not support (Select with no Choice available, Confirm with no Confirm
// pending, Advance before the current line is completed/selected). It is
// "recovered locally": Dispatch leaves all state untouched.
type InvalidActionError struct {
	Reason string
}

func (e *InvalidActionError) Error() string { return e.Reason }

func isControlFlow(err error) bool {
	return errors.Is(err, ErrControlFlow)
}
