package router

import (
	"context"
	"fmt"

	"github.com/hxuan190/route-executor/internal/domain"
	"github.com/hxuan190/route-executor/internal/services/market"
	"golang.org/x/sync/errgroup"
)

// Engine walks a validated RouteSpec, splitting each hop's input across its
// venues and carrying the hop output into the next hop. It holds no mutable
// state and may be shared between goroutines.
type Engine struct {
	validator *Validator
	adapters  market.AdapterLookup

	// ParallelRoutes runs routes concurrently. Results equal the sequential
	// walk as long as routes do not share adapter state.
	ParallelRoutes bool
}

func NewEngine(validator *Validator, adapters market.AdapterLookup) *Engine {
	if validator == nil {
		validator = defaultValidator
	}
	return &Engine{
		validator: validator,
		adapters:  adapters,
	}
}

type step struct {
	adapter market.VenueAdapter
	ec      domain.ExecutionContext
}

// routePlan holds the resolved steps of one route, indexed [hop][split].
type routePlan [][]step

// StateFunc observes the non-terminal states of one execution.
type StateFunc func(state domain.ExecutionState)

// Execute runs spec. On any failure the returned error is an *ExecutionError
// and no outcome is returned; callers must treat the whole execution as
// aborted.
func (e *Engine) Execute(ctx context.Context, spec *domain.RouteSpec, resolver market.ContextResolver) (*domain.ExecutionOutcome, error) {
	return e.ExecuteWithState(ctx, spec, resolver, nil)
}

// ExecuteWithState is Execute reporting StateValidating before the structural
// checks and StateExecuting before the first adapter call. onState may be nil.
func (e *Engine) ExecuteWithState(ctx context.Context, spec *domain.RouteSpec, resolver market.ContextResolver, onState StateFunc) (*domain.ExecutionOutcome, error) {
	if onState == nil {
		onState = func(domain.ExecutionState) {}
	}

	onState(domain.StateValidating)
	if err := e.validator.Validate(spec); err != nil {
		return nil, &ExecutionError{Stage: StageValidate, Err: fmt.Errorf("%w: %w", ErrInvalidSpec, err)}
	}

	plans, err := e.preflight(spec, resolver)
	if err != nil {
		return nil, &ExecutionError{Stage: StagePreflight, Err: err}
	}

	onState(domain.StateExecuting)

	var (
		routeOutputs []uint64
		trace        domain.ExecutionTrace
	)
	if e.ParallelRoutes && len(spec.Routes) > 1 {
		routeOutputs, trace, err = e.runParallel(ctx, spec, plans)
	} else {
		routeOutputs, trace, err = e.runSequential(ctx, spec, plans)
	}
	if err != nil {
		return nil, &ExecutionError{Stage: StageExecute, Trace: trace, Err: err}
	}

	totalOut, err := SumAmounts(routeOutputs)
	if err != nil {
		return nil, &ExecutionError{Stage: StageSettle, Trace: trace, Err: err}
	}
	if totalOut < spec.MinReturn {
		return nil, &ExecutionError{
			Stage: StageSettle,
			Trace: trace,
			Err:   &SlippageError{TotalOut: totalOut, MinReturn: spec.MinReturn},
		}
	}

	return &domain.ExecutionOutcome{
		TotalOut:     totalOut,
		RouteOutputs: routeOutputs,
		Trace:        trace,
	}, nil
}

// preflight resolves the adapter and context of every split, zero weights
// included, before any adapter runs. A nil resolver resolves nothing.
func (e *Engine) preflight(spec *domain.RouteSpec, resolver market.ContextResolver) ([]routePlan, error) {
	if resolver == nil {
		resolver = market.StaticContexts{}
	}
	plans := make([]routePlan, len(spec.Routes))
	for r, route := range spec.Routes {
		plan := make(routePlan, len(route.Hops))
		for h, hop := range route.Hops {
			steps := make([]step, len(hop.Venues))
			for i, venue := range hop.Venues {
				adapter, err := e.adapters.Lookup(venue)
				if err != nil {
					return nil, &StepError{Route: r, Hop: h, Index: i, Venue: venue, Kind: market.ErrAdapterNotFound, Err: err}
				}
				key := domain.StepKey{Route: r, Hop: h, Index: i, Venue: venue}
				ec, err := resolver.Resolve(key)
				if err != nil {
					return nil, &StepError{Route: r, Hop: h, Index: i, Venue: venue, Kind: market.ErrContextNotFound, Err: err}
				}
				steps[i] = step{adapter: adapter, ec: ec}
			}
			plan[h] = steps
		}
		plans[r] = plan
	}
	return plans, nil
}

func (e *Engine) runSequential(ctx context.Context, spec *domain.RouteSpec, plans []routePlan) ([]uint64, domain.ExecutionTrace, error) {
	outputs := make([]uint64, len(spec.Routes))
	trace := make(domain.ExecutionTrace, 0, spec.HopCount())
	for r := range spec.Routes {
		out, routeTrace, err := e.runRoute(ctx, r, spec.Routes[r], plans[r], spec.ParallelAmounts[r])
		trace = append(trace, routeTrace...)
		if err != nil {
			return nil, trace, err
		}
		outputs[r] = out
	}
	return outputs, trace, nil
}

// runParallel runs every route to its own result. Routes are not cancelled
// when a sibling fails, so the reported failure and the stitched trace match
// what runSequential would produce for the same adapter outputs.
func (e *Engine) runParallel(ctx context.Context, spec *domain.RouteSpec, plans []routePlan) ([]uint64, domain.ExecutionTrace, error) {
	n := len(spec.Routes)
	outputs := make([]uint64, n)
	traces := make([]domain.ExecutionTrace, n)
	errs := make([]error, n)

	var g errgroup.Group
	for r := 0; r < n; r++ {
		g.Go(func() error {
			outputs[r], traces[r], errs[r] = e.runRoute(ctx, r, spec.Routes[r], plans[r], spec.ParallelAmounts[r])
			return nil
		})
	}
	_ = g.Wait()

	trace := make(domain.ExecutionTrace, 0, spec.HopCount())
	for r := 0; r < n; r++ {
		trace = append(trace, traces[r]...)
		if errs[r] != nil {
			return nil, trace, errs[r]
		}
	}
	return outputs, trace, nil
}

func (e *Engine) runRoute(ctx context.Context, r int, route domain.Route, plan routePlan, amount uint64) (uint64, domain.ExecutionTrace, error) {
	trace := make(domain.ExecutionTrace, 0, len(route.Hops))
	carry := amount
	for h, hop := range route.Hops {
		parts, err := SplitAmounts(carry, hop.Weights)
		if err != nil {
			return 0, trace, fmt.Errorf("route %d hop %d: %w", r, h, err)
		}

		var hopOut uint64
		for i, part := range parts {
			if part == 0 {
				continue
			}
			if err := ctx.Err(); err != nil {
				return 0, trace, err
			}

			venue := hop.Venues[i]
			s := plan[h][i]
			out, err := s.adapter.Execute(ctx, venue, part, s.ec)
			if err != nil {
				return 0, trace, &StepError{Route: r, Hop: h, Index: i, Venue: venue, Kind: ErrAdapterFailed, Err: err}
			}
			trace = append(trace, domain.TraceEntry{
				Route:     r,
				Hop:       h,
				Index:     i,
				Venue:     venue,
				AmountIn:  part,
				AmountOut: out,
			})

			hopOut, err = CheckedAdd(hopOut, out)
			if err != nil {
				return 0, trace, fmt.Errorf("route %d hop %d: %w", r, h, err)
			}
		}
		carry = hopOut
	}
	return carry, trace, nil
}
