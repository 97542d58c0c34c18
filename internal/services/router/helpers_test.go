package router

import (
	"context"
	"errors"
	"sync"

	"github.com/hxuan190/route-executor/internal/domain"
	"github.com/hxuan190/route-executor/internal/services/market"
)

var errVenueDown = errors.New("venue down")

type adapterCall struct {
	venue  domain.Venue
	amount uint64
}

// scriptedAdapter returns outputs from fn and records every call.
type scriptedAdapter struct {
	mu     sync.Mutex
	venues map[domain.Venue]bool
	fn     func(venue domain.Venue, amountIn uint64) (uint64, error)
	calls  []adapterCall
}

func newScriptedAdapter(fn func(domain.Venue, uint64) (uint64, error), venues ...domain.Venue) *scriptedAdapter {
	a := &scriptedAdapter{venues: make(map[domain.Venue]bool), fn: fn}
	for _, v := range venues {
		a.venues[v] = true
	}
	return a
}

// identity returns amountIn unchanged.
func identity(_ domain.Venue, amountIn uint64) (uint64, error) {
	return amountIn, nil
}

func (a *scriptedAdapter) SupportsVenue(venue domain.Venue) bool {
	return a.venues[venue]
}

func (a *scriptedAdapter) Execute(ctx context.Context, venue domain.Venue, amountIn uint64, _ domain.ExecutionContext) (uint64, error) {
	a.mu.Lock()
	a.calls = append(a.calls, adapterCall{venue: venue, amount: amountIn})
	a.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return a.fn(venue, amountIn)
}

func (a *scriptedAdapter) Calls() []adapterCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]adapterCall(nil), a.calls...)
}

// allContexts resolves an empty context for every step.
var allContexts = market.ResolverFunc(func(domain.StepKey) (domain.ExecutionContext, error) {
	return domain.ExecutionContext{}, nil
})

const (
	venueA = domain.VenueRaydiumSwap
	venueB = domain.VenueWhirlpool
	venueC = domain.VenueMeteoraDlmm
)

func hop(venues []domain.Venue, weights ...uint8) domain.Hop {
	return domain.Hop{Venues: venues, Weights: weights}
}

func singleHopSpec(amountIn, minReturn uint64, h domain.Hop) *domain.RouteSpec {
	return &domain.RouteSpec{
		AmountIn:        amountIn,
		ExpectAmountOut: amountIn,
		MinReturn:       minReturn,
		ParallelAmounts: []uint64{amountIn},
		Routes:          []domain.Route{{Hops: []domain.Hop{h}}},
	}
}
