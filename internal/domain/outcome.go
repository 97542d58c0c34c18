package domain

import "fmt"

// TraceEntry records one adapter invocation.
type TraceEntry struct {
	Route     int    `json:"route"`
	Hop       int    `json:"hop"`
	Index     int    `json:"index"`
	Venue     Venue  `json:"venue"`
	AmountIn  uint64 `json:"amountIn"`
	AmountOut uint64 `json:"amountOut"`
}

// ExecutionTrace is the ordered list of adapter invocations of one execution.
type ExecutionTrace []TraceEntry

// ExecutionOutcome is the engine's successful result.
type ExecutionOutcome struct {
	TotalOut     uint64         `json:"totalOut"`
	RouteOutputs []uint64       `json:"routeOutputs"`
	Trace        ExecutionTrace `json:"trace"`
}

type ExecutionState uint8

const (
	StatePending ExecutionState = iota
	StateValidating
	StateExecuting
	StateSucceeded
	StateFailed
)

func (s ExecutionState) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateValidating:
		return "Validating"
	case StateExecuting:
		return "Executing"
	case StateSucceeded:
		return "Succeeded"
	case StateFailed:
		return "Failed"
	default:
		return "UNKNOWN"
	}
}

func (s ExecutionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ExecutionState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Pending":
		*s = StatePending
	case "Validating":
		*s = StateValidating
	case "Executing":
		*s = StateExecuting
	case "Succeeded":
		*s = StateSucceeded
	case "Failed":
		*s = StateFailed
	default:
		return fmt.Errorf("unknown execution state %q", text)
	}
	return nil
}

// IsTerminal reports whether s ends an execution.
func (s ExecutionState) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// FailurePosition locates the step at which an execution stopped.
type FailurePosition struct {
	Route int   `json:"route"`
	Hop   int   `json:"hop"`
	Index int   `json:"index"`
	Venue Venue `json:"venue"`
}

// Fees are the commission charged around a routed swap.
type Fees struct {
	Commission  uint64 `json:"commission"`
	PlatformFee uint64 `json:"platformFee"`
	// Trim is positive slippage withheld from the output.
	Trim      uint64 `json:"trim"`
	FromInput bool   `json:"fromInput"`
}

// Report is the caller-facing result of one RouteSpec execution. A failed report
// never carries an output amount; its trace is diagnostic only. Journaled
// reports are always terminal; an order still in flight is reported with its
// current state and no amounts.
type Report struct {
	OrderID        uint64           `json:"orderId"`
	State          ExecutionState   `json:"state"`
	TotalOut       uint64           `json:"totalOut"`
	NetOut         uint64           `json:"netOut"`
	MinReturn      uint64           `json:"minReturn"`
	Fees           *Fees            `json:"fees,omitempty"`
	FailureKind    string           `json:"failureKind,omitempty"`
	ValidationKind string           `json:"validationKind,omitempty"`
	Failure        string           `json:"failure,omitempty"`
	Position       *FailurePosition `json:"position,omitempty"`
	Trace          ExecutionTrace   `json:"trace"`
	DurationMS     int64            `json:"durationMs"`
}

func (r *Report) Succeeded() bool {
	return r.State == StateSucceeded
}
