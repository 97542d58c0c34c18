package router

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/hxuan190/route-executor/internal/domain"
	"github.com/hxuan190/route-executor/internal/services/market"
)

func TestEngineSingleHopSplit(t *testing.T) {
	outputs := map[uint64]uint64{50: 20, 30: 12, 20: 8}
	adapter := newScriptedAdapter(func(_ domain.Venue, in uint64) (uint64, error) {
		return outputs[in], nil
	}, venueA, venueB, venueC)
	engine := NewEngine(nil, market.NewAdapterRegistry(adapter))

	spec := singleHopSpec(100, 40, hop([]domain.Venue{venueA, venueB, venueC}, 50, 30, 20))
	spec.ExpectAmountOut = 40

	outcome, err := engine.Execute(context.Background(), spec, allContexts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if outcome.TotalOut != 40 {
		t.Errorf("TotalOut = %d, want 40", outcome.TotalOut)
	}

	wantTrace := domain.ExecutionTrace{
		{Route: 0, Hop: 0, Index: 0, Venue: venueA, AmountIn: 50, AmountOut: 20},
		{Route: 0, Hop: 0, Index: 1, Venue: venueB, AmountIn: 30, AmountOut: 12},
		{Route: 0, Hop: 0, Index: 2, Venue: venueC, AmountIn: 20, AmountOut: 8},
	}
	if !reflect.DeepEqual(outcome.Trace, wantTrace) {
		t.Errorf("Trace = %+v, want %+v", outcome.Trace, wantTrace)
	}
}

func TestEngineParallelRoutes(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		t.Run(fmt.Sprintf("parallel=%v", parallel), func(t *testing.T) {
			adapter := newScriptedAdapter(func(v domain.Venue, in uint64) (uint64, error) {
				if v == venueA {
					return in / 2, nil // 60 -> 30
				}
				return in * 5 / 8, nil // 40 -> 25
			}, venueA, venueB)
			engine := NewEngine(nil, market.NewAdapterRegistry(adapter))
			engine.ParallelRoutes = parallel

			spec := &domain.RouteSpec{
				AmountIn:        100,
				ExpectAmountOut: 60,
				MinReturn:       55,
				ParallelAmounts: []uint64{60, 40},
				Routes: []domain.Route{
					{Hops: []domain.Hop{hop([]domain.Venue{venueA}, 100)}},
					{Hops: []domain.Hop{hop([]domain.Venue{venueB}, 100)}},
				},
			}

			outcome, err := engine.Execute(context.Background(), spec, allContexts)
			if err != nil {
				t.Fatalf("Execute() error: %v", err)
			}
			if outcome.TotalOut != 55 {
				t.Errorf("TotalOut = %d, want 55", outcome.TotalOut)
			}
			if !reflect.DeepEqual(outcome.RouteOutputs, []uint64{30, 25}) {
				t.Errorf("RouteOutputs = %v, want [30 25]", outcome.RouteOutputs)
			}
			if len(outcome.Trace) != 2 || outcome.Trace[0].Route != 0 || outcome.Trace[1].Route != 1 {
				t.Errorf("Trace not in route order: %+v", outcome.Trace)
			}
		})
	}
}

func TestEngineMultiHopCarry(t *testing.T) {
	// Hop 0 doubles, hop 1 splits the doubled amount.
	adapter := newScriptedAdapter(func(v domain.Venue, in uint64) (uint64, error) {
		if v == venueA {
			return in * 2, nil
		}
		return in, nil
	}, venueA, venueB, venueC)
	engine := NewEngine(nil, market.NewAdapterRegistry(adapter))

	spec := singleHopSpec(10, 0, hop([]domain.Venue{venueA}, 100))
	spec.Routes[0].Hops = append(spec.Routes[0].Hops, hop([]domain.Venue{venueB, venueC}, 33, 67))

	outcome, err := engine.Execute(context.Background(), spec, allContexts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if outcome.TotalOut != 20 {
		t.Errorf("TotalOut = %d, want 20", outcome.TotalOut)
	}

	calls := adapter.Calls()
	want := []adapterCall{{venueA, 10}, {venueB, 6}, {venueC, 14}}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestEngineSkipsZeroParts(t *testing.T) {
	adapter := newScriptedAdapter(identity, venueA, venueB)
	engine := NewEngine(nil, market.NewAdapterRegistry(adapter))

	spec := singleHopSpec(1, 0, hop([]domain.Venue{venueA, venueB}, 50, 50))
	outcome, err := engine.Execute(context.Background(), spec, allContexts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	for _, c := range adapter.Calls() {
		if c.amount == 0 {
			t.Fatalf("adapter called with zero amount: %+v", c)
		}
	}
	if outcome.TotalOut != 1 || len(outcome.Trace) != 1 {
		t.Errorf("outcome = %+v, want a single step of 1", outcome)
	}
}

func TestEngineSlippageExceeded(t *testing.T) {
	adapter := newScriptedAdapter(func(_ domain.Venue, in uint64) (uint64, error) {
		return in - 1, nil
	}, venueA)
	engine := NewEngine(nil, market.NewAdapterRegistry(adapter))

	spec := singleHopSpec(100, 100, hop([]domain.Venue{venueA}, 100))
	outcome, err := engine.Execute(context.Background(), spec, allContexts)
	if outcome != nil {
		t.Fatalf("outcome = %+v, want nil", outcome)
	}
	if !errors.Is(err, ErrSlippageExceeded) {
		t.Fatalf("Execute() error = %v, want ErrSlippageExceeded", err)
	}

	var slip *SlippageError
	if !errors.As(err, &slip) || slip.TotalOut != 99 || slip.MinReturn != 100 {
		t.Errorf("SlippageError = %+v", slip)
	}
	var execErr *ExecutionError
	if !errors.As(err, &execErr) || execErr.Stage != StageSettle || len(execErr.Trace) != 1 {
		t.Errorf("ExecutionError = %+v", execErr)
	}
}

func TestEngineAdapterFailure(t *testing.T) {
	adapter := newScriptedAdapter(func(v domain.Venue, in uint64) (uint64, error) {
		if v == venueC {
			return 0, errVenueDown
		}
		return in, nil
	}, venueA, venueB, venueC)
	engine := NewEngine(nil, market.NewAdapterRegistry(adapter))

	spec := singleHopSpec(100, 0, hop([]domain.Venue{venueA}, 100))
	spec.Routes[0].Hops = append(spec.Routes[0].Hops, hop([]domain.Venue{venueB, venueC}, 50, 50))

	outcome, err := engine.Execute(context.Background(), spec, allContexts)
	if outcome != nil {
		t.Fatalf("outcome = %+v, want nil on failure", outcome)
	}
	if !errors.Is(err, ErrAdapterFailed) || !errors.Is(err, errVenueDown) {
		t.Fatalf("Execute() error = %v, want ErrAdapterFailed wrapping errVenueDown", err)
	}

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("error %T carries no StepError", err)
	}
	if stepErr.Route != 0 || stepErr.Hop != 1 || stepErr.Index != 1 || stepErr.Venue != venueC {
		t.Errorf("position = %+v", stepErr.Position())
	}

	var execErr *ExecutionError
	if !errors.As(err, &execErr) || execErr.Stage != StageExecute {
		t.Fatalf("ExecutionError = %+v", execErr)
	}
	if len(execErr.Trace) != 2 {
		t.Errorf("partial trace has %d entries, want 2", len(execErr.Trace))
	}
	if len(adapter.Calls()) != 3 {
		t.Errorf("adapter calls = %d, want 3 (no retries)", len(adapter.Calls()))
	}
}

func TestEngineValidationBeforeAdapters(t *testing.T) {
	adapter := newScriptedAdapter(identity, venueA, venueB)
	engine := NewEngine(nil, market.NewAdapterRegistry(adapter))

	spec := &domain.RouteSpec{
		AmountIn:        100,
		ExpectAmountOut: 100,
		ParallelAmounts: []uint64{50, 40},
		Routes: []domain.Route{
			{Hops: []domain.Hop{hop([]domain.Venue{venueA}, 100)}},
			{Hops: []domain.Hop{hop([]domain.Venue{venueB}, 100)}},
		},
	}

	_, err := engine.Execute(context.Background(), spec, allContexts)
	if !errors.Is(err, ErrInvalidSpec) || !errors.Is(err, ErrAmountConservation) {
		t.Fatalf("Execute() error = %v, want ErrInvalidSpec wrapping ErrAmountConservation", err)
	}
	if n := len(adapter.Calls()); n != 0 {
		t.Errorf("adapter called %d times before validation failed", n)
	}
}

func TestEnginePreflight(t *testing.T) {
	t.Run("adapter not found", func(t *testing.T) {
		adapter := newScriptedAdapter(identity, venueA)
		engine := NewEngine(nil, market.NewAdapterRegistry(adapter))

		spec := singleHopSpec(100, 0, hop([]domain.Venue{venueA}, 100))
		spec.Routes[0].Hops = append(spec.Routes[0].Hops, hop([]domain.Venue{venueA, venueB}, 100, 0))

		_, err := engine.Execute(context.Background(), spec, allContexts)
		if !errors.Is(err, market.ErrAdapterNotFound) {
			t.Fatalf("Execute() error = %v, want ErrAdapterNotFound", err)
		}
		if n := len(adapter.Calls()); n != 0 {
			t.Errorf("adapter called %d times before preflight failed", n)
		}
	})

	t.Run("context not found", func(t *testing.T) {
		adapter := newScriptedAdapter(identity, venueA, venueB)
		engine := NewEngine(nil, market.NewAdapterRegistry(adapter))

		spec := singleHopSpec(100, 0, hop([]domain.Venue{venueA, venueB}, 60, 40))
		contexts := market.StaticContexts{
			{Route: 0, Hop: 0, Index: 0, Venue: venueA}: {},
		}

		_, err := engine.Execute(context.Background(), spec, contexts)
		if !errors.Is(err, market.ErrContextNotFound) {
			t.Fatalf("Execute() error = %v, want ErrContextNotFound", err)
		}
		var stepErr *StepError
		if !errors.As(err, &stepErr) || stepErr.Index != 1 {
			t.Errorf("StepError = %+v, want index 1", stepErr)
		}
		if n := len(adapter.Calls()); n != 0 {
			t.Errorf("adapter called %d times before preflight failed", n)
		}
	})
}

func TestEngineParallelFailureMatchesSequential(t *testing.T) {
	failB := func(v domain.Venue, in uint64) (uint64, error) {
		if v == venueB {
			return 0, errVenueDown
		}
		return in, nil
	}
	spec := &domain.RouteSpec{
		AmountIn:        90,
		ExpectAmountOut: 90,
		ParallelAmounts: []uint64{30, 30, 30},
		Routes: []domain.Route{
			{Hops: []domain.Hop{hop([]domain.Venue{venueA}, 100)}},
			{Hops: []domain.Hop{hop([]domain.Venue{venueB}, 100)}},
			{Hops: []domain.Hop{hop([]domain.Venue{venueB}, 100)}},
		},
	}

	run := func(parallel bool) *ExecutionError {
		engine := NewEngine(nil, market.NewAdapterRegistry(newScriptedAdapter(failB, venueA, venueB)))
		engine.ParallelRoutes = parallel
		_, err := engine.Execute(context.Background(), spec, allContexts)
		var execErr *ExecutionError
		if !errors.As(err, &execErr) {
			t.Fatalf("Execute(parallel=%v) error = %v, want an ExecutionError", parallel, err)
		}
		return execErr
	}

	seq := run(false)
	var seqStep *StepError
	if !errors.As(seq, &seqStep) || seqStep.Route != 1 {
		t.Fatalf("sequential StepError = %+v, want route 1", seqStep)
	}
	wantTrace := domain.ExecutionTrace{
		{Route: 0, Hop: 0, Index: 0, Venue: venueA, AmountIn: 30, AmountOut: 30},
	}
	if !reflect.DeepEqual(seq.Trace, wantTrace) {
		t.Fatalf("sequential trace = %+v, want %+v", seq.Trace, wantTrace)
	}

	for i := 0; i < 50; i++ {
		par := run(true)
		var parStep *StepError
		if !errors.As(par, &parStep) {
			t.Fatalf("parallel error = %v, want a StepError", par)
		}
		if parStep.Route != seqStep.Route || parStep.Hop != seqStep.Hop || parStep.Index != seqStep.Index {
			t.Fatalf("parallel failure at route %d hop %d index %d, sequential at route %d hop %d index %d",
				parStep.Route, parStep.Hop, parStep.Index, seqStep.Route, seqStep.Hop, seqStep.Index)
		}
		if FailureKind(par) != FailureKind(seq) {
			t.Fatalf("parallel kind = %q, sequential kind = %q", FailureKind(par), FailureKind(seq))
		}
		if !reflect.DeepEqual(par.Trace, seq.Trace) {
			t.Fatalf("parallel trace = %+v, sequential trace = %+v", par.Trace, seq.Trace)
		}
	}
}

func TestEngineNilResolver(t *testing.T) {
	adapter := newScriptedAdapter(identity, venueA)
	engine := NewEngine(nil, market.NewAdapterRegistry(adapter))

	_, err := engine.Execute(context.Background(), singleHopSpec(100, 0, hop([]domain.Venue{venueA}, 100)), nil)
	if !errors.Is(err, market.ErrContextNotFound) {
		t.Fatalf("Execute() error = %v, want ErrContextNotFound", err)
	}
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Route != 0 || stepErr.Hop != 0 || stepErr.Index != 0 {
		t.Errorf("StepError = %+v, want route 0 hop 0 index 0", stepErr)
	}
	if n := len(adapter.Calls()); n != 0 {
		t.Errorf("adapter called %d times", n)
	}
}

func TestEngineExecuteWithState(t *testing.T) {
	tests := []struct {
		name     string
		spec     func() *domain.RouteSpec
		resolver market.ContextResolver
		want     []domain.ExecutionState
	}{
		{
			name:     "success",
			spec:     func() *domain.RouteSpec { return singleHopSpec(100, 0, hop([]domain.Venue{venueA}, 100)) },
			resolver: allContexts,
			want:     []domain.ExecutionState{domain.StateValidating, domain.StateExecuting},
		},
		{
			name:     "invalid spec",
			spec:     func() *domain.RouteSpec { return singleHopSpec(100, 0, hop([]domain.Venue{venueA}, 99)) },
			resolver: allContexts,
			want:     []domain.ExecutionState{domain.StateValidating},
		},
		{
			name:     "missing context",
			spec:     func() *domain.RouteSpec { return singleHopSpec(100, 0, hop([]domain.Venue{venueA}, 100)) },
			resolver: market.StaticContexts{},
			want:     []domain.ExecutionState{domain.StateValidating},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(nil, market.NewAdapterRegistry(newScriptedAdapter(identity, venueA)))
			var got []domain.ExecutionState
			_, _ = engine.ExecuteWithState(context.Background(), tt.spec(), tt.resolver, func(s domain.ExecutionState) {
				got = append(got, s)
			})
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("states = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngineCanceledContext(t *testing.T) {
	adapter := newScriptedAdapter(identity, venueA)
	engine := NewEngine(nil, market.NewAdapterRegistry(adapter))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Execute(ctx, singleHopSpec(100, 0, hop([]domain.Venue{venueA}, 100)), allContexts)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute() error = %v, want context.Canceled", err)
	}
	if FailureKind(err) != KindCanceled {
		t.Errorf("FailureKind = %q, want %q", FailureKind(err), KindCanceled)
	}
}

func TestEngineDoesNotMutateSpec(t *testing.T) {
	adapter := newScriptedAdapter(identity, venueA, venueB)
	engine := NewEngine(nil, market.NewAdapterRegistry(adapter))

	spec := singleHopSpec(100, 0, hop([]domain.Venue{venueA, venueB}, 33, 67))
	before := *spec
	beforeWeights := append(domain.Weights(nil), spec.Routes[0].Hops[0].Weights...)

	if _, err := engine.Execute(context.Background(), spec, allContexts); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if spec.AmountIn != before.AmountIn || !reflect.DeepEqual(spec.Routes[0].Hops[0].Weights, beforeWeights) {
		t.Errorf("spec mutated: %+v", spec)
	}
}

func BenchmarkEngineExecute(b *testing.B) {
	adapter := newScriptedAdapter(identity, venueA, venueB, venueC)
	engine := NewEngine(nil, market.NewAdapterRegistry(adapter))
	spec := singleHopSpec(1_000_000, 0, hop([]domain.Venue{venueA, venueB, venueC}, 50, 30, 20))
	spec.Routes[0].Hops = append(spec.Routes[0].Hops, hop([]domain.Venue{venueA}, 100))
	ctx := context.Background()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = engine.Execute(ctx, spec, allContexts)
	}
}
