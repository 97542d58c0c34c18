package simulator

import (
	"context"
	"fmt"

	"github.com/hxuan190/route-executor/internal/domain"
)

// Adapter executes swaps for a fixed set of venues against a Market.
// The ExecutionContext carries the pool address in Accounts[0] and the mint
// being sold in Accounts[1].
type Adapter struct {
	market *Market
	venues map[domain.Venue]struct{}
}

func NewAdapter(m *Market, venues ...domain.Venue) *Adapter {
	a := &Adapter{
		market: m,
		venues: make(map[domain.Venue]struct{}, len(venues)),
	}
	for _, v := range venues {
		a.venues[v] = struct{}{}
	}
	return a
}

func (a *Adapter) SupportsVenue(venue domain.Venue) bool {
	_, ok := a.venues[venue]
	return ok
}

func (a *Adapter) Execute(ctx context.Context, venue domain.Venue, amountIn uint64, ec domain.ExecutionContext) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(ec.Accounts) < 2 || ec.Accounts[0] == nil || ec.Accounts[1] == nil {
		return 0, fmt.Errorf("%w: want pool and source mint accounts, got %d", ErrMalformedContext, len(ec.Accounts))
	}

	pool := ec.Accounts[0].PublicKey
	if p, ok := a.market.GetPool(pool); ok && p.Venue != venue {
		return 0, fmt.Errorf("%w: pool %s is %s, not %s", ErrMalformedContext, pool, p.Venue, venue)
	}

	q, err := a.market.Swap(pool, ec.Accounts[1].PublicKey, amountIn)
	if err != nil {
		return 0, err
	}
	return q.AmountOut, nil
}
