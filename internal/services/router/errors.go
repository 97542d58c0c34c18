package router

import (
	"errors"
	"fmt"

	"github.com/hxuan190/route-executor/internal/domain"
)

// Validation failures.
var (
	ErrRouteCountMismatch    = errors.New("route count mismatch")
	ErrAmountConservation    = errors.New("amount conservation violated")
	ErrInvalidSlippageBound  = errors.New("invalid slippage bound")
	ErrRouteStructureInvalid = errors.New("route structure invalid")
	ErrHopStructureInvalid   = errors.New("hop structure invalid")
	ErrTooManyHops           = errors.New("too many hops")
	ErrWeightSumInvalid      = errors.New("weight sum invalid")
)

// Execution failures.
var (
	ErrInvalidSpec      = errors.New("invalid route spec")
	ErrAdapterFailed    = errors.New("adapter failed")
	ErrSlippageExceeded = errors.New("slippage exceeded")
)

// ValidationError reports the first structural rule a RouteSpec breaks.
// Route and Hop are -1 when the rule is not positional.
type ValidationError struct {
	Kind   error
	Route  int
	Hop    int
	Detail string
	Cause  error
}

func newValidationError(kind error, route, hop int, format string, args ...any) *ValidationError {
	return &ValidationError{
		Kind:   kind,
		Route:  route,
		Hop:    hop,
		Detail: fmt.Sprintf(format, args...),
	}
}

func (e *ValidationError) Error() string {
	switch {
	case e.Hop >= 0:
		return fmt.Sprintf("%v: route %d hop %d: %s", e.Kind, e.Route, e.Hop, e.Detail)
	case e.Route >= 0:
		return fmt.Sprintf("%v: route %d: %s", e.Kind, e.Route, e.Detail)
	default:
		return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
	}
}

func (e *ValidationError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// StepError is a failure bound to one (route, hop, split) position.
// Kind is ErrAdapterFailed for adapter errors, or the lookup sentinel when the
// adapter or its context could not be resolved.
type StepError struct {
	Route int
	Hop   int
	Index int
	Venue domain.Venue
	Kind  error
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%v at route %d hop %d index %d (%s): %v", e.Kind, e.Route, e.Hop, e.Index, e.Venue, e.Err)
}

func (e *StepError) Unwrap() []error {
	if e.Err == nil || e.Err == e.Kind {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func (e *StepError) Position() *domain.FailurePosition {
	return &domain.FailurePosition{Route: e.Route, Hop: e.Hop, Index: e.Index, Venue: e.Venue}
}

type SlippageError struct {
	TotalOut  uint64
	MinReturn uint64
}

func (e *SlippageError) Error() string {
	return fmt.Sprintf("%v: total out %d below min return %d", ErrSlippageExceeded, e.TotalOut, e.MinReturn)
}

func (e *SlippageError) Unwrap() error {
	return ErrSlippageExceeded
}

// Stage names where an execution stopped.
const (
	StageValidate  = "validate"
	StagePreflight = "preflight"
	StageExecute   = "execute"
	StageSettle    = "settle"
)

// ExecutionError wraps every engine failure with the partial trace collected
// before it. The trace is diagnostic only.
type ExecutionError struct {
	Stage string
	Trace domain.ExecutionTrace
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
