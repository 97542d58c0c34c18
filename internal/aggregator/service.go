package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/redis/go-redis/v9"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/route-executor/internal/adapters/persistence"
	"github.com/hxuan190/route-executor/internal/codec"
	"github.com/hxuan190/route-executor/internal/config"
	"github.com/hxuan190/route-executor/internal/domain"
	"github.com/hxuan190/route-executor/internal/metrics"
	"github.com/hxuan190/route-executor/internal/services"
	"github.com/hxuan190/route-executor/internal/services/builder"
	"github.com/hxuan190/route-executor/internal/services/market"
	"github.com/hxuan190/route-executor/internal/services/router"
	"github.com/hxuan190/route-executor/internal/services/simulator"
)

const AGGREGATOR_SERVICE = "aggregator-service"

var (
	ErrDuplicateOrder          = errors.New("order already executed")
	ErrNilSpec                 = errors.New("route spec is required")
	ErrFailedOrdersUnsupported = errors.New("journal cannot list failed orders")

	// Error aliases
	ErrExecutionNotFound = persistence.ErrExecutionNotFound
	ErrInvalidPool       = simulator.ErrInvalidPool
	ErrPoolNotFound      = simulator.ErrPoolNotFound
)

// ExecuteRequest is one dry-run execution against the simulated market.
type ExecuteRequest struct {
	OrderID    uint64
	Spec       *domain.RouteSpec
	Contexts   market.ContextResolver
	Commission *domain.Commission
}

type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	validator *router.Validator
	engine    *router.Engine
	adapters  *market.AdapterRegistry
	simulator *simulator.Service
	journal   persistence.Journal
	reports   *reportCache
	inflight  *inflightOrders
	redis     *redis.Client

	execConf *config.ExecutorConfig
	timeout  time.Duration
}

// NewService wires a service outside the container. journal may be nil.
func NewService(execConf *config.ExecutorConfig, sim *simulator.Service, journal persistence.Journal) *Service {
	svc := &Service{}
	svc.logger = services.NewServiceLogger(svc)
	svc.init(execConf, sim)
	svc.journal = journal
	return svc
}

func (svc *Service) ID() string {
	return AGGREGATOR_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	execConf := c.GetConfig(config.EXECUTOR_CONFIG_KEY).(*config.ExecutorConfig)
	storageConf := c.GetConfig(config.STORAGE_CONFIG_KEY).(*config.StorageConfig)
	sim := c.Instance(simulator.SIMULATOR_SERVICE).(*simulator.Service)

	svc.init(execConf, sim)

	switch storageConf.Journal {
	case config.JournalRedis:
		svc.redis = redis.NewClient(&redis.Options{
			Addr:     storageConf.RedisAddr,
			Password: storageConf.RedisPassword,
			DB:       storageConf.RedisDB,
		})
		journal, err := persistence.NewRedisJournal(svc.redis, storageConf.JournalTTLDuration())
		if err != nil {
			return err
		}
		svc.journal = journal
	default:
		if sim.Storage() == nil {
			return fmt.Errorf("bolt journal requires pool storage")
		}
		svc.journal = sim.Storage()
	}
	return nil
}

func (svc *Service) init(execConf *config.ExecutorConfig, sim *simulator.Service) {
	svc.execConf = execConf
	svc.simulator = sim
	svc.timeout = time.Duration(execConf.ExecuteTimeoutMS) * time.Millisecond
	svc.validator = router.NewValidator(execConf.MaxHops)
	svc.adapters = market.NewAdapterRegistry(sim.Adapter())
	svc.engine = router.NewEngine(svc.validator, svc.adapters)
	svc.engine.ParallelRoutes = execConf.ParallelRoutes
	svc.reports = newReportCache(defaultOrderCacheSize)
	svc.inflight = newInflightOrders()
}

func (svc *Service) Start() error {
	if svc.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := svc.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis journal unreachable: %w", err)
		}
	}
	svc.logger.Info().
		Int("max_hops", svc.execConf.MaxHops).
		Bool("parallel_routes", svc.execConf.ParallelRoutes).
		Int("venues", len(svc.adapters.SupportedVenues())).
		Msg("aggregator started")
	return nil
}

func (svc *Service) Stop() error {
	if svc.redis != nil {
		return svc.redis.Close()
	}
	return nil
}

// Validate checks spec against the configured validator.
func (svc *Service) Validate(spec *domain.RouteSpec) error {
	err := svc.validator.Validate(spec)
	result := "valid"
	if err != nil {
		result = router.ValidationKind(err)
	}
	metrics.ValidationRequests.WithLabelValues(result).Inc()
	return err
}

func (svc *Service) Encode(spec *domain.RouteSpec) ([]byte, error) {
	return codec.EncodeRouteSpec(spec)
}

func (svc *Service) Decode(data []byte) (*domain.RouteSpec, error) {
	return codec.DecodeRouteSpec(data)
}

// BuildInstruction validates req.Spec and assembles the router swap
// instruction for it.
func (svc *Service) BuildInstruction(accounts *builder.SwapAccounts, req *domain.SwapRequest, contexts market.ContextResolver) (solana.Instruction, error) {
	if err := svc.Validate(&req.Spec); err != nil {
		return nil, err
	}
	return builder.BuildSwapInstruction(builder.RouterProgramID, accounts, req, contexts)
}

// Execute runs req against the simulated market. Execution failures are
// reported in the returned report, not as an error; err is set only when the
// request itself cannot be run.
func (svc *Service) Execute(ctx context.Context, req *ExecuteRequest) (*domain.Report, error) {
	if req.Spec == nil {
		return nil, ErrNilSpec
	}
	if err := router.ValidateCommission(req.Commission); err != nil {
		return nil, err
	}
	logger := svc.logger.Order(req.OrderID)

	// Fast path; the authoritative check runs under the market lock below.
	if prev, ok := svc.reports.Get(req.OrderID); ok && prev.Succeeded() {
		metrics.DuplicateOrders.Inc()
		return nil, fmt.Errorf("%w: %d", ErrDuplicateOrder, req.OrderID)
	}
	order := svc.inflight.begin(req.OrderID)
	defer svc.inflight.end(req.OrderID, order)
	onState := func(state domain.ExecutionState) {
		svc.inflight.set(order, state)
	}

	execCtx, cancel := context.WithTimeout(ctx, svc.timeout)
	defer cancel()

	start := time.Now()
	var (
		outcome *domain.ExecutionOutcome
		fees    *domain.Fees
		netOut  uint64
	)
	// The duplicate check runs under the market lock so two requests with
	// the same order id cannot both execute.
	err := svc.simulator.RunAtomic(func() error {
		if svc.alreadySucceeded(ctx, req.OrderID) {
			return fmt.Errorf("%w: %d", ErrDuplicateOrder, req.OrderID)
		}
		var err error
		outcome, err = svc.engine.ExecuteWithState(execCtx, req.Spec, req.Contexts, onState)
		if err != nil {
			return err
		}
		fees, netOut, err = applyCommission(req, outcome)
		if err != nil {
			return err
		}
		// Claim the order id before the lock is released.
		svc.reports.Set(&domain.Report{OrderID: req.OrderID, State: domain.StateSucceeded})
		return nil
	})
	if errors.Is(err, ErrDuplicateOrder) {
		metrics.DuplicateOrders.Inc()
		return nil, err
	}
	elapsed := time.Since(start)

	report := router.Report(outcome, err)
	report.OrderID = req.OrderID
	report.MinReturn = req.Spec.MinReturn
	report.DurationMS = elapsed.Milliseconds()
	if err == nil {
		report.Fees = fees
		report.NetOut = netOut
	}

	mode := "sequential"
	if svc.engine.ParallelRoutes {
		mode = "parallel"
	}
	metrics.ExecutionDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	metrics.ExecutionRequests.WithLabelValues(report.State.String(), report.FailureKind).Inc()
	metrics.RoutesPerSpec.Observe(float64(len(req.Spec.Routes)))
	metrics.HopsPerSpec.Observe(float64(req.Spec.HopCount()))
	for _, entry := range report.Trace {
		metrics.AdapterCalls.WithLabelValues(entry.Venue.String()).Inc()
	}

	svc.reports.Set(report)
	if svc.journal != nil {
		if jerr := svc.journal.Record(ctx, report); jerr != nil {
			metrics.JournalErrors.Inc()
			logger.Error().Err(jerr).Msg("failed to journal execution")
		}
	}

	if err != nil {
		logger.Info().
			Str("kind", report.FailureKind).
			Err(err).
			Dur("elapsed", elapsed).
			Msg("execution failed")
	} else {
		logger.Info().
			Uint64("total_out", report.TotalOut).
			Uint64("net_out", report.NetOut).
			Int("steps", len(report.Trace)).
			Dur("elapsed", elapsed).
			Msg("execution succeeded")
	}
	return report, nil
}

// applyCommission computes the fees and trim of req on outcome and the output
// left to the caller. Whatever is deducted from the output must leave at least
// MinReturn.
func applyCommission(req *ExecuteRequest, outcome *domain.ExecutionOutcome) (*domain.Fees, uint64, error) {
	if !req.Commission.Enabled() {
		return nil, outcome.TotalOut, nil
	}

	c := req.Commission
	base := outcome.TotalOut
	if c.FromInput {
		base = req.Spec.AmountIn
	}
	fees, err := router.CalculateFees(base, c.Rate, c.FromInput, c.PlatformFeeRate)
	if err != nil {
		return nil, 0, settleError(outcome, err)
	}

	var charged uint64
	if !c.FromInput {
		if charged, err = router.TotalFees(fees); err != nil {
			return nil, 0, settleError(outcome, err)
		}
	}
	fees.Trim, err = router.CalculateTrim(outcome.TotalOut, req.Spec.ExpectAmountOut, charged, c.FromInput, c.TrimRate)
	if err != nil {
		return nil, 0, settleError(outcome, err)
	}

	deducted, err := router.CheckedAdd(charged, fees.Trim)
	if err != nil {
		return nil, 0, settleError(outcome, err)
	}
	net, err := router.CheckedSub(outcome.TotalOut, deducted)
	if err != nil {
		return nil, 0, settleError(outcome, err)
	}
	if net < req.Spec.MinReturn {
		return nil, 0, settleError(outcome, &router.SlippageError{TotalOut: net, MinReturn: req.Spec.MinReturn})
	}
	return &fees, net, nil
}

func settleError(outcome *domain.ExecutionOutcome, err error) error {
	return &router.ExecutionError{Stage: router.StageSettle, Trace: outcome.Trace, Err: err}
}

// alreadySucceeded reports whether orderID has a succeeded report in the
// cache or the journal. Journal errors other than not-found are logged and
// treated as no report.
func (svc *Service) alreadySucceeded(ctx context.Context, orderID uint64) bool {
	if prev, ok := svc.reports.Get(orderID); ok {
		return prev.Succeeded()
	}
	if svc.journal == nil {
		return false
	}
	prev, err := svc.journal.Get(ctx, orderID)
	if err != nil {
		if !errors.Is(err, persistence.ErrExecutionNotFound) {
			svc.logger.Warn().Err(err).Uint64("order_id", orderID).Msg("journal lookup failed")
		}
		return false
	}
	svc.reports.Set(prev)
	return prev.Succeeded()
}

// GetExecution returns the latest report of orderID. While an execution of
// orderID is in flight a report carrying only its current state is returned.
func (svc *Service) GetExecution(ctx context.Context, orderID uint64) (*domain.Report, error) {
	if state, ok := svc.inflight.get(orderID); ok {
		return &domain.Report{OrderID: orderID, State: state, Trace: domain.ExecutionTrace{}}, nil
	}
	if report, ok := svc.reports.Get(orderID); ok {
		return report, nil
	}
	if svc.journal == nil {
		return nil, fmt.Errorf("%w: order %d", ErrExecutionNotFound, orderID)
	}
	report, err := svc.journal.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	svc.reports.Set(report)
	return report, nil
}

// FailedOrders lists the order ids whose latest journaled report failed.
func (svc *Service) FailedOrders(ctx context.Context) ([]uint64, error) {
	lister, ok := svc.journal.(persistence.FailedOrderLister)
	if !ok {
		return nil, ErrFailedOrdersUnsupported
	}
	return lister.FailedOrders(ctx)
}

func (svc *Service) UpsertPool(pool *domain.Pool) error {
	return svc.simulator.UpsertPool(pool)
}

func (svc *Service) ListPools() []*domain.Pool {
	return svc.simulator.ListPools()
}

func (svc *Service) GetPool(address solana.PublicKey) (*domain.Pool, bool) {
	return svc.simulator.GetPool(address)
}

func (svc *Service) RemovePool(address solana.PublicKey) (bool, error) {
	return svc.simulator.RemovePool(address)
}

func (svc *Service) QuotePool(address, sourceMint solana.PublicKey, amountIn uint64) (*domain.SwapQuote, error) {
	return svc.simulator.QuotePool(address, sourceMint, amountIn)
}

func (svc *Service) StoredPoolCount() (int, error) {
	return svc.simulator.StoredPoolCount()
}

func (svc *Service) GetStats() (int, uint64) {
	return svc.simulator.GetStats()
}

func (svc *Service) SupportedVenues() []domain.Venue {
	return svc.adapters.SupportedVenues()
}
