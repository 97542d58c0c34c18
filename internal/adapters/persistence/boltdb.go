package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/route-executor/internal/domain"
)

const (
	PoolsBucket      = "pools"
	ExecutionsBucket = "executions"

	DefaultDBPath = "./data/route-executor.db"
)

type StoredPool struct {
	Address         string `json:"address"`
	Venue           uint8  `json:"venue"`
	MintA           string `json:"mintA"`
	MintB           string `json:"mintB"`
	ReserveA        uint64 `json:"reserveA"`
	ReserveB        uint64 `json:"reserveB"`
	FeeBps          uint16 `json:"feeBps"`
	Active          bool   `json:"active"`
	LastUpdatedSlot uint64 `json:"lastUpdatedSlot"`
}

type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database dir: %w", err)
	}

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[executorStorage] opened database")

	return &Storage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) SavePool(pool *domain.Pool) error {
	data, err := sonic.Marshal(poolToStored(pool))
	if err != nil {
		return fmt.Errorf("failed to marshal pool: %w", err)
	}

	return s.db.Set(PoolsBucket, []byte(pool.Address.String()), data)
}

func (s *Storage) SavePoolBatch(pools []*domain.Pool) error {
	if len(pools) == 0 {
		return nil
	}

	batch := s.db.NewBatch()
	for _, pool := range pools {
		data, err := sonic.Marshal(poolToStored(pool))
		if err != nil {
			return fmt.Errorf("failed to marshal pool %s: %w", pool.Address.String(), err)
		}

		value := data
		op := &boltdb.WriteOperation{
			Bucket: []byte(PoolsBucket),
			Key:    []byte(pool.Address.String()),
			Value:  &value,
			Op:     boltdb.OpSet,
		}
		if err := batch.Add(op); err != nil {
			return fmt.Errorf("failed to add pool %s to batch: %w", pool.Address.String(), err)
		}
	}

	if err := batch.Execute(); err != nil {
		log.Error().Err(err).Int("count", len(pools)).Msg("[executorStorage] FAILED to execute batch")
		return err
	}

	log.Info().Int("count", len(pools)).Msg("[executorStorage] saved pool batch")
	return nil
}

func (s *Storage) LoadAllPools() ([]*domain.Pool, error) {
	data, err := s.db.List(PoolsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}

	pools := make([]*domain.Pool, 0, len(data))
	failed := 0

	for address, value := range data {
		var stored StoredPool
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Error().Str("address", address).Err(err).Msg("[executorStorage] failed to unmarshal pool, skipping")
			failed++
			continue
		}

		pool, err := storedToPool(&stored)
		if err != nil {
			log.Error().Str("address", address).Err(err).Msg("[executorStorage] failed to convert stored pool, skipping")
			failed++
			continue
		}

		pools = append(pools, pool)
	}

	if failed > 0 {
		log.Error().
			Int("total_in_db", len(data)).
			Int("loaded", len(pools)).
			Int("failed", failed).
			Msg("[executorStorage] pool loading completed with errors")
	} else {
		log.Info().
			Int("total_in_db", len(data)).
			Int("loaded", len(pools)).
			Msg("[executorStorage] pool loading completed successfully")
	}

	return pools, nil
}

// DeletePool removes a stored pool. Deleting before any pool was saved is a
// no-op.
func (s *Storage) DeletePool(address solana.PublicKey) error {
	if !slices.Contains(s.db.Buckets(), PoolsBucket) {
		return nil
	}
	return s.db.Delete(PoolsBucket, []byte(address.String()))
}

func (s *Storage) GetPoolCount() (int, error) {
	count := 0
	err := s.db.ForEach(PoolsBucket, func(_, _ []byte) error {
		count++
		return nil
	})
	return count, err
}

func (s *Storage) SaveExecution(report *domain.Report) error {
	data, err := sonic.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal execution: %w", err)
	}
	return s.db.Set(ExecutionsBucket, orderKey(report.OrderID), data)
}

func (s *Storage) GetExecution(orderID uint64) (*domain.Report, error) {
	value, err := s.db.Get(ExecutionsBucket, orderKey(orderID))
	if err != nil {
		return nil, fmt.Errorf("failed to get execution %d: %w", orderID, err)
	}
	if value == nil {
		return nil, fmt.Errorf("%w: order %d", ErrExecutionNotFound, orderID)
	}

	var report domain.Report
	if err := sonic.Unmarshal(value, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution %d: %w", orderID, err)
	}
	return &report, nil
}

// FailedOrders scans the executions bucket for failed reports, in ascending
// order id.
func (s *Storage) FailedOrders(_ context.Context) ([]uint64, error) {
	var out []uint64
	err := s.db.ForEach(ExecutionsBucket, func(key, value []byte) error {
		var report domain.Report
		if err := sonic.Unmarshal(value, &report); err != nil {
			log.Error().Str("order_id", string(key)).Err(err).Msg("[executorStorage] failed to unmarshal execution, skipping")
			return nil
		}
		if !report.Succeeded() {
			out = append(out, report.OrderID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan executions: %w", err)
	}
	slices.Sort(out)
	return out, nil
}

// Record implements Journal.
func (s *Storage) Record(_ context.Context, report *domain.Report) error {
	return s.SaveExecution(report)
}

// Get implements Journal.
func (s *Storage) Get(_ context.Context, orderID uint64) (*domain.Report, error) {
	return s.GetExecution(orderID)
}

func orderKey(orderID uint64) []byte {
	return []byte(strconv.FormatUint(orderID, 10))
}

func poolToStored(pool *domain.Pool) *StoredPool {
	return &StoredPool{
		Address:         pool.Address.String(),
		Venue:           uint8(pool.Venue),
		MintA:           pool.MintA.String(),
		MintB:           pool.MintB.String(),
		ReserveA:        pool.ReserveA,
		ReserveB:        pool.ReserveB,
		FeeBps:          pool.FeeBps,
		Active:          pool.Active,
		LastUpdatedSlot: pool.LastUpdatedSlot,
	}
}

func storedToPool(stored *StoredPool) (*domain.Pool, error) {
	address, err := solana.PublicKeyFromBase58(stored.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}

	mintA, err := solana.PublicKeyFromBase58(stored.MintA)
	if err != nil {
		return nil, fmt.Errorf("invalid mintA: %w", err)
	}

	mintB, err := solana.PublicKeyFromBase58(stored.MintB)
	if err != nil {
		return nil, fmt.Errorf("invalid mintB: %w", err)
	}

	venue := domain.Venue(stored.Venue)
	if !venue.IsValid() {
		return nil, fmt.Errorf("invalid venue tag %d", stored.Venue)
	}

	pool := &domain.Pool{
		Address:         address,
		Venue:           venue,
		MintA:           mintA,
		MintB:           mintB,
		ReserveA:        stored.ReserveA,
		ReserveB:        stored.ReserveB,
		FeeBps:          stored.FeeBps,
		Active:          stored.Active,
		LastUpdatedSlot: stored.LastUpdatedSlot,
	}
	pool.UpdateFlags()
	return pool, nil
}
