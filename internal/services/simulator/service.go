package simulator

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/route-executor/internal/adapters/persistence"
	"github.com/hxuan190/route-executor/internal/config"
	"github.com/hxuan190/route-executor/internal/domain"
	"github.com/hxuan190/route-executor/internal/metrics"
	"github.com/hxuan190/route-executor/internal/services"
)

const SIMULATOR_SERVICE = "simulator-service"

var ErrInvalidPool = errors.New("invalid pool")

// Service owns the simulated market: it loads and persists pools and
// serialises executions so a failed one can be rolled back.
type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	// mu orders executions against each other and against pool upserts.
	mu      sync.Mutex
	market  *Market
	adapter *Adapter
	storage *persistence.Storage
	config  *config.StorageConfig

	pendingPools   []*domain.Pool
	pendingPoolsMu sync.Mutex

	updateCount atomic.Uint64
	done        chan struct{}
}

// NewService builds a service without the container, with no storage.
func NewService(venues ...domain.Venue) *Service {
	svc := &Service{}
	svc.init(venues)
	return svc
}

func (svc *Service) ID() string {
	return SIMULATOR_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	execConf := c.GetConfig(config.EXECUTOR_CONFIG_KEY).(*config.ExecutorConfig)
	svc.config = c.GetConfig(config.STORAGE_CONFIG_KEY).(*config.StorageConfig)

	svc.init(execConf.SimVenues)

	if svc.config.PersistenceEnabled {
		storage, err := persistence.NewStorage(svc.config.DBPath)
		if err != nil {
			return err
		}
		svc.storage = storage
	}
	return nil
}

func (svc *Service) init(venues []domain.Venue) {
	if svc.logger == nil {
		svc.logger = services.NewServiceLogger(svc)
	}
	svc.market = NewMarket()
	svc.adapter = NewAdapter(svc.market, venues...)
	svc.pendingPools = make([]*domain.Pool, 0)
	svc.done = make(chan struct{})
}

func (svc *Service) Start() error {
	if svc.storage != nil {
		svc.loadPoolsFromStorage()
		go svc.processPersistence()
	}
	go svc.logStats()
	return nil
}

func (svc *Service) Stop() error {
	close(svc.done)

	if svc.storage == nil {
		return nil
	}
	allPools := svc.market.Pools()
	if len(allPools) > 0 {
		svc.logger.Info().Int("count", len(allPools)).Msg("persisting all pools before shutdown")
		if err := svc.storage.SavePoolBatch(allPools); err != nil {
			svc.logger.Error().Err(err).Msg("failed to persist pools on shutdown")
		}
	}
	return svc.storage.Close()
}

func (svc *Service) Adapter() *Adapter {
	return svc.adapter
}

func (svc *Service) Market() *Market {
	return svc.market
}

// Storage is nil when persistence is disabled.
func (svc *Service) Storage() *persistence.Storage {
	return svc.storage
}

// UpsertPool adds or replaces a pool and queues it for persistence.
func (svc *Service) UpsertPool(pool *domain.Pool) error {
	if err := validatePool(pool); err != nil {
		return err
	}

	svc.mu.Lock()
	svc.market.UpsertPool(pool)
	svc.mu.Unlock()

	svc.updateCount.Add(1)
	metrics.PoolUpdates.Inc()
	svc.queuePools(pool.Clone())
	return nil
}

// RemovePool deletes a pool from the market and from storage. It reports
// false when the pool is unknown.
func (svc *Service) RemovePool(address solana.PublicKey) (bool, error) {
	svc.mu.Lock()
	removed := svc.market.RemovePool(address)
	svc.mu.Unlock()
	if !removed || svc.storage == nil {
		return removed, nil
	}

	svc.pendingPoolsMu.Lock()
	svc.pendingPools = slices.DeleteFunc(svc.pendingPools, func(p *domain.Pool) bool {
		return p.Address.Equals(address)
	})
	svc.pendingPoolsMu.Unlock()

	if err := svc.storage.DeletePool(address); err != nil {
		return true, fmt.Errorf("delete stored pool %s: %w", address, err)
	}
	return true, nil
}

// QuotePool prices a swap on one pool without changing its reserves.
func (svc *Service) QuotePool(address, sourceMint solana.PublicKey, amountIn uint64) (*domain.SwapQuote, error) {
	return svc.market.Quote(address, sourceMint, amountIn)
}

// StoredPoolCount is the number of pools in storage, 0 when persistence is
// disabled.
func (svc *Service) StoredPoolCount() (int, error) {
	if svc.storage == nil {
		return 0, nil
	}
	return svc.storage.GetPoolCount()
}

func (svc *Service) GetPool(address solana.PublicKey) (*domain.Pool, bool) {
	return svc.market.GetPool(address)
}

// ListPools returns every pool ordered by address.
func (svc *Service) ListPools() []*domain.Pool {
	pools := svc.market.Pools()
	sort.Slice(pools, func(i, j int) bool {
		return pools[i].Address.String() < pools[j].Address.String()
	})
	return pools
}

func (svc *Service) GetStats() (int, uint64) {
	return svc.market.Len(), svc.updateCount.Load()
}

// RunAtomic runs fn with exclusive use of the market. If fn fails every pool
// is restored to its state before the call; otherwise the pools fn changed
// are queued for persistence.
func (svc *Service) RunAtomic(fn func() error) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	snap := svc.market.Snapshot()
	if err := fn(); err != nil {
		svc.market.Restore(snap)
		return err
	}

	var changed []*domain.Pool
	for _, pool := range svc.market.Pools() {
		before, ok := snap[pool.Address]
		if !ok || before.ReserveA != pool.ReserveA || before.ReserveB != pool.ReserveB {
			changed = append(changed, pool)
		}
	}
	svc.queuePools(changed...)
	return nil
}

func (svc *Service) queuePools(pools ...*domain.Pool) {
	if svc.storage == nil || len(pools) == 0 {
		return
	}
	svc.pendingPoolsMu.Lock()
	svc.pendingPools = append(svc.pendingPools, pools...)
	svc.pendingPoolsMu.Unlock()
}

func (svc *Service) loadPoolsFromStorage() {
	pools, err := svc.storage.LoadAllPools()
	if err != nil {
		svc.logger.Error().Err(err).Msg("failed to load pools from storage")
		return
	}
	for _, pool := range pools {
		svc.market.UpsertPool(pool)
	}
	svc.logger.Info().Int("count", len(pools)).Msg("loaded pools from storage")
}

func (svc *Service) processPersistence() {
	interval := time.Duration(svc.config.PersistInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-svc.done:
			return
		case <-ticker.C:
			svc.persistPendingPools()
		}
	}
}

func (svc *Service) persistPendingPools() {
	svc.pendingPoolsMu.Lock()
	if len(svc.pendingPools) == 0 {
		svc.pendingPoolsMu.Unlock()
		return
	}
	pools := dedupePools(svc.pendingPools)
	svc.pendingPools = make([]*domain.Pool, 0)
	svc.pendingPoolsMu.Unlock()

	if err := svc.storage.SavePoolBatch(pools); err != nil {
		svc.logger.Error().Err(err).Int("count", len(pools)).Msg("failed to persist pools")
		svc.queuePools(pools...)
		return
	}
	metrics.PoolsPersisted.Add(float64(len(pools)))
	svc.logger.Debug().Int("count", len(pools)).Msg("persisted pools to storage")
}

func (svc *Service) logStats() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-svc.done:
			return
		case <-ticker.C:
		}

		pools := svc.market.Pools()
		ready := 0
		for _, p := range pools {
			if p.IsReady() {
				ready++
			}
		}
		_, updates := svc.GetStats()

		metrics.PoolCount.Set(float64(len(pools)))
		metrics.ReadyPoolCount.Set(float64(ready))

		svc.logger.Info().
			Int("pools", len(pools)).
			Int("ready_pools", ready).
			Uint64("pool_updates", updates).
			Msg("stats")
	}
}

// dedupePools keeps the last queued copy of each pool.
func dedupePools(pools []*domain.Pool) []*domain.Pool {
	latest := make(map[solana.PublicKey]int, len(pools))
	out := make([]*domain.Pool, 0, len(pools))
	for _, p := range pools {
		if i, ok := latest[p.Address]; ok {
			out[i] = p
			continue
		}
		latest[p.Address] = len(out)
		out = append(out, p)
	}
	return out
}

func validatePool(pool *domain.Pool) error {
	switch {
	case pool == nil:
		return fmt.Errorf("%w: nil", ErrInvalidPool)
	case pool.Address.IsZero():
		return fmt.Errorf("%w: missing address", ErrInvalidPool)
	case pool.MintA.IsZero() || pool.MintB.IsZero():
		return fmt.Errorf("%w: missing mint", ErrInvalidPool)
	case pool.MintA.Equals(pool.MintB):
		return fmt.Errorf("%w: mintA equals mintB", ErrInvalidPool)
	case !pool.Venue.IsValid():
		return fmt.Errorf("%w: unknown venue %d", ErrInvalidPool, pool.Venue)
	case pool.FeeBps >= bpsDenom:
		return fmt.Errorf("%w: fee %d bps", ErrInvalidPool, pool.FeeBps)
	}
	return nil
}
