package simulator

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/hxuan190/route-executor/internal/domain"
	"github.com/hxuan190/route-executor/internal/services/market"
)

var (
	ErrPoolNotFound          = errors.New("pool not found")
	ErrPoolInactive          = errors.New("pool inactive")
	ErrMintMismatch          = errors.New("mint does not belong to pool")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrMalformedContext      = errors.New("malformed execution context")
)

// Market is an in-memory set of constant-product pools. Swaps mutate reserves;
// Snapshot and Restore let a caller undo a whole execution.
type Market struct {
	pools *market.ShardedPoolMap
}

func NewMarket() *Market {
	return &Market{pools: market.NewShardedPoolMap()}
}

func (m *Market) UpsertPool(pool *domain.Pool) {
	p := pool.Clone()
	p.UpdateFlags()
	m.pools.Set(p.Address, p)
}

// RemovePool deletes a pool and reports whether it existed.
func (m *Market) RemovePool(address solana.PublicKey) bool {
	if _, ok := m.pools.Get(address); !ok {
		return false
	}
	m.pools.Delete(address)
	return true
}

func (m *Market) GetPool(address solana.PublicKey) (*domain.Pool, bool) {
	return m.pools.Get(address)
}

func (m *Market) Pools() []*domain.Pool {
	return m.pools.GetAll()
}

func (m *Market) Len() int {
	return m.pools.Len()
}

func (m *Market) Snapshot() domain.PoolRegistry {
	return m.pools.Snapshot()
}

func (m *Market) Restore(snap domain.PoolRegistry) {
	m.pools.Restore(snap)
}

// Quote prices a swap without touching reserves.
func (m *Market) Quote(address, sourceMint solana.PublicKey, amountIn uint64) (*domain.SwapQuote, error) {
	pool, ok := m.pools.Get(address)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, address)
	}
	return quote(pool, sourceMint, amountIn)
}

// Swap prices a swap and applies it to the pool reserves atomically.
func (m *Market) Swap(address, sourceMint solana.PublicKey, amountIn uint64) (*domain.SwapQuote, error) {
	var result *domain.SwapQuote
	found, err := m.pools.Update(address, func(pool *domain.Pool) error {
		q, err := quote(pool, sourceMint, amountIn)
		if err != nil {
			return err
		}
		if q.AToB {
			pool.UpdateReserves(pool.ReserveA+amountIn, pool.ReserveB-q.AmountOut)
		} else {
			pool.UpdateReserves(pool.ReserveA-q.AmountOut, pool.ReserveB+amountIn)
		}
		q.Pool = pool.Clone()
		result = q
		return nil
	})
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, address)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func quote(pool *domain.Pool, sourceMint solana.PublicKey, amountIn uint64) (*domain.SwapQuote, error) {
	if !pool.Active {
		return nil, fmt.Errorf("%w: %s", ErrPoolInactive, pool.Address)
	}
	aToB, ok := pool.Direction(sourceMint)
	if !ok {
		return nil, fmt.Errorf("%w: %s not in pool %s", ErrMintMismatch, sourceMint, pool.Address)
	}

	reserveIn, reserveOut := pool.ReserveA, pool.ReserveB
	if !aToB {
		reserveIn, reserveOut = pool.ReserveB, pool.ReserveA
	}
	if reserveIn > ^uint64(0)-amountIn {
		return nil, fmt.Errorf("%w: input reserve would overflow", ErrInsufficientLiquidity)
	}

	out, fee, err := ConstantProductOut(amountIn, reserveIn, reserveOut, pool.FeeBps)
	if err != nil {
		return nil, err
	}
	return &domain.SwapQuote{
		Pool:      pool,
		AmountIn:  amountIn,
		AmountOut: out,
		FeeAmount: fee,
		AToB:      aToB,
	}, nil
}
