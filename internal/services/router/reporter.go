package router

import (
	"context"
	"errors"

	"github.com/hxuan190/route-executor/internal/domain"
	"github.com/hxuan190/route-executor/internal/services/market"
)

// Failure kinds reported to callers. Values are stable.
const (
	KindInvalidSpec           = "InvalidSpec"
	KindRouteCountMismatch    = "RouteCountMismatch"
	KindAmountConservation    = "AmountConservationViolation"
	KindInvalidSlippageBound  = "InvalidSlippageBound"
	KindRouteStructureInvalid = "RouteStructureInvalid"
	KindHopStructureInvalid   = "HopStructureInvalid"
	KindTooManyHops           = "TooManyHops"
	KindWeightSumInvalid      = "WeightSumInvalid"
	KindAdapterNotFound       = "AdapterNotFound"
	KindContextNotFound       = "ContextNotFound"
	KindAdapterFailed         = "AdapterFailed"
	KindSlippageExceeded      = "SlippageExceeded"
	KindArithmeticOverflow    = "ArithmeticOverflow"
	KindArithmeticUnderflow   = "ArithmeticUnderflow"
	KindCanceled              = "Canceled"
	KindInternal              = "Internal"
)

type errorKind struct {
	err  error
	kind string
}

var validationKinds = []errorKind{
	{ErrRouteCountMismatch, KindRouteCountMismatch},
	{ErrAmountConservation, KindAmountConservation},
	{ErrInvalidSlippageBound, KindInvalidSlippageBound},
	{ErrRouteStructureInvalid, KindRouteStructureInvalid},
	{ErrHopStructureInvalid, KindHopStructureInvalid},
	{ErrTooManyHops, KindTooManyHops},
	{ErrWeightSumInvalid, KindWeightSumInvalid},
}

// Checked in order; the more specific kinds come first.
var failureKinds = []errorKind{
	{ErrInvalidSpec, KindInvalidSpec},
	{market.ErrAdapterNotFound, KindAdapterNotFound},
	{market.ErrContextNotFound, KindContextNotFound},
	{ErrAdapterFailed, KindAdapterFailed},
	{ErrSlippageExceeded, KindSlippageExceeded},
	{ErrArithmeticOverflow, KindArithmeticOverflow},
	{ErrArithmeticUnderflow, KindArithmeticUnderflow},
	{context.Canceled, KindCanceled},
	{context.DeadlineExceeded, KindCanceled},
}

// FailureKind maps an engine error to its stable kind name.
func FailureKind(err error) string {
	if err == nil {
		return ""
	}
	if kind := ValidationKind(err); kind != "" && !errors.Is(err, ErrInvalidSpec) {
		return kind
	}
	for _, fk := range failureKinds {
		if errors.Is(err, fk.err) {
			return fk.kind
		}
	}
	return KindInternal
}

// ValidationKind returns the validation rule err breaks, or "" when err is not
// a validation failure.
func ValidationKind(err error) string {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return ""
	}
	for _, vk := range validationKinds {
		if errors.Is(verr.Kind, vk.err) {
			return vk.kind
		}
	}
	return KindInternal
}

// IsValidationFailure reports whether err was raised before any adapter ran
// because the RouteSpec itself is malformed.
func IsValidationFailure(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// Report turns an engine result into a caller-facing report. Exactly one of
// outcome and err is expected to be set; a failed report never carries an
// output amount.
func Report(outcome *domain.ExecutionOutcome, err error) *domain.Report {
	if err == nil && outcome != nil {
		trace := outcome.Trace
		if trace == nil {
			trace = domain.ExecutionTrace{}
		}
		return &domain.Report{
			State:    domain.StateSucceeded,
			TotalOut: outcome.TotalOut,
			NetOut:   outcome.TotalOut,
			Trace:    trace,
		}
	}
	if err == nil {
		err = errors.New("no outcome")
	}

	report := &domain.Report{
		State:          domain.StateFailed,
		FailureKind:    FailureKind(err),
		ValidationKind: ValidationKind(err),
		Failure:        err.Error(),
		Trace:          domain.ExecutionTrace{},
	}

	var execErr *ExecutionError
	if errors.As(err, &execErr) && execErr.Trace != nil {
		report.Trace = execErr.Trace
	}

	var stepErr *StepError
	if errors.As(err, &stepErr) {
		report.Position = stepErr.Position()
	} else {
		var verr *ValidationError
		if errors.As(err, &verr) && verr.Route >= 0 {
			report.Position = &domain.FailurePosition{Route: verr.Route, Hop: verr.Hop, Index: -1}
		}
	}
	return report
}
