package http

import (
	"errors"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/route-executor/internal/aggregator"
	"github.com/hxuan190/route-executor/internal/common"
	"github.com/hxuan190/route-executor/internal/domain"
	"github.com/hxuan190/route-executor/internal/http/httputil"
)

type PoolHandler struct {
	aggregatorSvc *aggregator.Service
}

func NewPoolHandler(aggregatorSvc *aggregator.Service) *PoolHandler {
	return &PoolHandler{aggregatorSvc: aggregatorSvc}
}

func (h *PoolHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/stats", h.getStats)
	pub.GET("/list", h.listPools)
	pub.GET("/:address", h.getPool)
	pub.GET("/:address/quote", h.quotePool)
	admin.POST("", h.upsertPool)
	admin.DELETE("/:address", h.removePool)
}

func (h *PoolHandler) Root() string {
	return "/pools"
}

// PoolStatsResponse contains aggregated statistics about simulated pools
type PoolStatsResponse struct {
	// Number of pools in the simulated market
	PoolCount int `json:"pool_count" example:"12"`

	// Pool upserts received since service start
	UpdateCount uint64 `json:"update_count" example:"340"`

	// Pools in storage, 0 when persistence is disabled
	PersistedCount int `json:"persisted_count" example:"12"`

	// Venues served by the simulated adapter
	Venues []domain.Venue `json:"venues"`
}

// @Summary Pool statistics
// @Tags pools
// @Produce json
// @Success 200 {object} PoolStatsResponse
// @Failure 500 {object} httputil.Response
// @Router /api/v1/pools/stats [get]
func (h *PoolHandler) getStats(c *gin.Context) {
	poolCount, updateCount := h.aggregatorSvc.GetStats()
	persisted, err := h.aggregatorSvc.StoredPoolCount()
	if err != nil {
		httputil.HandleInternalError(c, err.Error())
		return
	}
	httputil.HandleSuccess(c, PoolStatsResponse{
		PoolCount:      poolCount,
		UpdateCount:    updateCount,
		PersistedCount: persisted,
		Venues:         h.aggregatorSvc.SupportedVenues(),
	})
}

// PoolInfo describes one constant-product pool
type PoolInfo struct {
	// Pool address (Solana public key)
	Address string `json:"address" example:"HJPjoWUrhoZzkNfRpHuieeFk9WcZWjwy6PBjZ81ngndJ"`

	// Venue the pool is served under
	Venue domain.Venue `json:"venue" swaggertype:"string" example:"RaydiumSwap"`

	TokenMintA string `json:"token_mint_a" example:"So11111111111111111111111111111111111111112"`
	TokenMintB string `json:"token_mint_b" example:"uSd2czE61Evaf76RNbq4KPpXnkiL3irdzgLFUMe3NoG"`

	// Reserves in smallest units, as decimal strings
	ReserveA string `json:"reserve_a" example:"1234567890123"`
	ReserveB string `json:"reserve_b" example:"9876543210987"`

	// Pool fee rate in basis points (1 bps = 0.01%)
	FeeRate uint16 `json:"fee_rate_bps" example:"25"`

	Active          bool   `json:"active" example:"true"`
	LastUpdatedSlot uint64 `json:"last_updated_slot" example:"245831456"`
}

func toPoolInfo(pool *domain.Pool) PoolInfo {
	return PoolInfo{
		Address:         pool.Address.String(),
		Venue:           pool.Venue,
		TokenMintA:      pool.MintA.String(),
		TokenMintB:      pool.MintB.String(),
		ReserveA:        strconv.FormatUint(pool.ReserveA, 10),
		ReserveB:        strconv.FormatUint(pool.ReserveB, 10),
		FeeRate:         pool.FeeBps,
		Active:          pool.Active,
		LastUpdatedSlot: pool.LastUpdatedSlot,
	}
}

// PoolListResponse contains paginated list of pools
type PoolListResponse struct {
	Pools []PoolInfo `json:"pools"`

	// Total number of pools across all pages
	Total int `json:"total" example:"12"`

	// Current page number (1-indexed)
	Page int `json:"page" example:"1"`

	// Number of pools per page (max 500)
	Limit int `json:"limit" example:"100"`

	// Total number of pages available
	Pages int `json:"pages" example:"1"`
}

// @Summary List pools
// @Tags pools
// @Produce json
// @Param page query int false "Page number (1-indexed)" default(1)
// @Param limit query int false "Pools per page (max 500)" default(100)
// @Success 200 {object} PoolListResponse
// @Router /api/v1/pools/list [get]
func (h *PoolHandler) listPools(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	allPools := h.aggregatorSvc.ListPools()
	total := len(allPools)

	pages := (total + limit - 1) / limit
	offset := (page - 1) * limit
	end := offset + limit
	if offset > total {
		offset = total
	}
	if end > total {
		end = total
	}

	pools := make([]PoolInfo, 0, end-offset)
	for _, pool := range allPools[offset:end] {
		pools = append(pools, toPoolInfo(pool))
	}

	httputil.HandleSuccess(c, PoolListResponse{
		Pools: pools,
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: pages,
	})
}

// @Summary Get pool
// @Tags pools
// @Produce json
// @Param address path string true "Pool address"
// @Success 200 {object} PoolInfo
// @Failure 400 {object} httputil.Response
// @Failure 404 {object} httputil.Response
// @Router /api/v1/pools/{address} [get]
func (h *PoolHandler) getPool(c *gin.Context) {
	address, err := solana.PublicKeyFromBase58(c.Param("address"))
	if err != nil {
		httputil.HandleBadRequest(c, "invalid pool address")
		return
	}

	pool, ok := h.aggregatorSvc.GetPool(address)
	if !ok {
		httputil.HandleNotFound(c, "pool not found")
		return
	}
	httputil.HandleSuccess(c, toPoolInfo(pool))
}

// UpsertPoolRequest adds or replaces a simulated pool
type UpsertPoolRequest struct {
	Address  string       `json:"address" binding:"required"`
	Venue    domain.Venue `json:"venue" swaggertype:"string" example:"RaydiumSwap"`
	MintA    string       `json:"mintA" binding:"required"`
	MintB    string       `json:"mintB" binding:"required"`
	ReserveA uint64       `json:"reserveA"`
	ReserveB uint64       `json:"reserveB"`
	FeeBps   uint16       `json:"feeBps" example:"25"`
	Active   bool         `json:"active"`
	Slot     uint64       `json:"slot"`
}

// @Summary Upsert pool
// @Description Add or replace a pool of the simulated market. Changed pools are persisted in batches.
// @Tags pools
// @Accept json
// @Produce json
// @Param request body UpsertPoolRequest true "Pool"
// @Success 200 {object} PoolInfo
// @Failure 400 {object} httputil.Response
// @Router /api/v1/admin/pools [post]
func (h *PoolHandler) upsertPool(c *gin.Context) {
	var req UpsertPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	keys := make([]solana.PublicKey, 3)
	for i, s := range []string{req.Address, req.MintA, req.MintB} {
		key, err := solana.PublicKeyFromBase58(s)
		if err != nil {
			httputil.HandleBadRequest(c, "invalid address "+s)
			return
		}
		keys[i] = key
	}

	pool := &domain.Pool{
		Address:         keys[0],
		Venue:           req.Venue,
		MintA:           keys[1],
		MintB:           keys[2],
		ReserveA:        req.ReserveA,
		ReserveB:        req.ReserveB,
		FeeBps:          req.FeeBps,
		Active:          req.Active,
		LastUpdatedSlot: req.Slot,
	}
	if err := h.aggregatorSvc.UpsertPool(pool); err != nil {
		if errors.Is(err, aggregator.ErrInvalidPool) {
			httputil.HandleBadRequest(c, err.Error())
			return
		}
		httputil.HandleInternalError(c, err.Error())
		return
	}
	httputil.HandleSuccess(c, toPoolInfo(pool))
}

// PoolQuoteResponse prices one swap against the current reserves
type PoolQuoteResponse struct {
	Pool       string `json:"pool" example:"HJPjoWUrhoZzkNfRpHuieeFk9WcZWjwy6PBjZ81ngndJ"`
	SourceMint string `json:"source_mint" example:"So11111111111111111111111111111111111111112"`

	// Amounts in smallest units, as decimal strings
	AmountIn  string `json:"amount_in" example:"1000000"`
	AmountOut string `json:"amount_out" example:"996006"`
	FeeAmount string `json:"fee_amount" example:"2500"`

	// Whether the swap sells token A for token B
	AToB bool `json:"a_to_b" example:"true"`
}

// @Summary Quote pool
// @Description Price a swap on one simulated pool without changing its reserves.
// @Tags pools
// @Produce json
// @Param address path string true "Pool address"
// @Param sourceMint query string true "Mint being sold"
// @Param amountIn query string true "Amount sold in smallest units"
// @Success 200 {object} PoolQuoteResponse
// @Failure 400 {object} httputil.Response
// @Failure 404 {object} httputil.Response
// @Failure 422 {object} httputil.Response
// @Router /api/v1/pools/{address}/quote [get]
func (h *PoolHandler) quotePool(c *gin.Context) {
	address, err := solana.PublicKeyFromBase58(c.Param("address"))
	if err != nil {
		httputil.HandleBadRequest(c, "invalid pool address")
		return
	}
	sourceMint, err := solana.PublicKeyFromBase58(c.Query("sourceMint"))
	if err != nil {
		httputil.HandleBadRequest(c, "invalid sourceMint")
		return
	}
	amountIn, err := strconv.ParseUint(c.Query("amountIn"), 10, 64)
	if err != nil || amountIn == 0 {
		httputil.HandleBadRequest(c, "amountIn must be a positive integer")
		return
	}

	quote, err := h.aggregatorSvc.QuotePool(address, sourceMint, amountIn)
	switch {
	case errors.Is(err, aggregator.ErrPoolNotFound):
		httputil.HandleNotFound(c, err.Error())
		return
	case err != nil:
		httputil.HandleHttpError(c, common.HTTPErrorUnprocessable("QuoteFailed", err.Error()), nil)
		return
	}

	httputil.HandleSuccess(c, PoolQuoteResponse{
		Pool:       address.String(),
		SourceMint: sourceMint.String(),
		AmountIn:   strconv.FormatUint(quote.AmountIn, 10),
		AmountOut:  strconv.FormatUint(quote.AmountOut, 10),
		FeeAmount:  strconv.FormatUint(quote.FeeAmount, 10),
		AToB:       quote.AToB,
	})
}

// @Summary Remove pool
// @Description Delete a pool from the simulated market and from storage.
// @Tags pools
// @Produce json
// @Param address path string true "Pool address"
// @Success 200 {object} httputil.Response
// @Failure 400 {object} httputil.Response
// @Failure 404 {object} httputil.Response
// @Router /api/v1/admin/pools/{address} [delete]
func (h *PoolHandler) removePool(c *gin.Context) {
	address, err := solana.PublicKeyFromBase58(c.Param("address"))
	if err != nil {
		httputil.HandleBadRequest(c, "invalid pool address")
		return
	}

	removed, err := h.aggregatorSvc.RemovePool(address)
	if err != nil {
		httputil.HandleInternalError(c, err.Error())
		return
	}
	if !removed {
		httputil.HandleNotFound(c, "pool not found")
		return
	}
	httputil.HandleSuccess(c, gin.H{"address": address.String()})
}
