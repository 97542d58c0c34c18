package http

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/route-executor/internal/aggregator"
	"github.com/hxuan190/route-executor/internal/common"
	"github.com/hxuan190/route-executor/internal/domain"
	"github.com/hxuan190/route-executor/internal/http/httputil"
	"github.com/hxuan190/route-executor/internal/services/builder"
	"github.com/hxuan190/route-executor/internal/services/market"
	"github.com/hxuan190/route-executor/internal/services/router"
)

type RouteHandler struct {
	aggregatorSvc *aggregator.Service
}

func NewRouteHandler(aggregatorSvc *aggregator.Service) *RouteHandler {
	return &RouteHandler{aggregatorSvc: aggregatorSvc}
}

func (h *RouteHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("/validate", h.validate)
	pub.POST("/encode", h.encode)
	pub.POST("/decode", h.decode)
	pub.POST("/instruction", h.instruction)
	pub.POST("/execute", h.execute)
	pub.GET("/executions/failed", h.failedExecutions)
	pub.GET("/executions/:orderId", h.getExecution)
}

func (h *RouteHandler) Root() string {
	return "/route"
}

// SpecRequest carries a route spec either as JSON or in its binary encoding.
type SpecRequest struct {
	// Route spec as JSON. Takes precedence over Encoded.
	Spec *domain.RouteSpec `json:"spec,omitempty"`

	// Base64 of the binary route spec encoding
	Encoded string `json:"encoded,omitempty" example:"AOH1BQAAAAA="`
}

func (r *SpecRequest) resolve(svc *aggregator.Service) (*domain.RouteSpec, error) {
	if r.Spec != nil {
		return r.Spec, nil
	}
	if r.Encoded == "" {
		return nil, errors.New("either spec or encoded is required")
	}
	raw, err := base64.StdEncoding.DecodeString(r.Encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	return svc.Decode(raw)
}

// ValidateResponse reports whether a route spec passed every structural check
type ValidateResponse struct {
	Valid bool `json:"valid" example:"false"`

	// Broken rule, empty when valid
	Kind string `json:"kind,omitempty" example:"WeightSumInvalid"`

	// Human-readable detail, empty when valid
	Error string `json:"error,omitempty" example:"weight sum invalid: route 0 hop 1: weights sum to 99, want 100"`
}

// @Summary Validate route spec
// @Description Run the structural checks of a route spec without executing it:
// @Description route count, amount conservation, slippage bound, hop structure and weight sums.
// @Description The first broken rule is reported.
// @Tags route
// @Accept json
// @Produce json
// @Param request body SpecRequest true "Route spec as JSON or base64 encoding"
// @Success 200 {object} ValidateResponse
// @Failure 400 {object} httputil.Response "Malformed body or encoding"
// @Router /api/v1/route/validate [post]
func (h *RouteHandler) validate(c *gin.Context) {
	var req SpecRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	spec, err := req.resolve(h.aggregatorSvc)
	if err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}

	if err := h.aggregatorSvc.Validate(spec); err != nil {
		httputil.HandleSuccess(c, ValidateResponse{
			Valid: false,
			Kind:  router.ValidationKind(err),
			Error: err.Error(),
		})
		return
	}
	httputil.HandleSuccess(c, ValidateResponse{Valid: true})
}

// EncodeResponse is the binary encoding of a route spec
type EncodeResponse struct {
	// Base64 of the encoded bytes
	Encoded string `json:"encoded"`

	// Encoded length in bytes
	Size int `json:"size" example:"64"`
}

// @Summary Encode route spec
// @Description Encode a JSON route spec into the binary argument layout:
// @Description little-endian u64 amounts, u32 length prefixes, u8 venue tags and weight bytes.
// @Tags route
// @Accept json
// @Produce json
// @Param request body SpecRequest true "Route spec as JSON"
// @Success 200 {object} EncodeResponse
// @Failure 400 {object} httputil.Response
// @Router /api/v1/route/encode [post]
func (h *RouteHandler) encode(c *gin.Context) {
	var req SpecRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Spec == nil {
		httputil.HandleBadRequest(c, "spec is required")
		return
	}
	data, err := h.aggregatorSvc.Encode(req.Spec)
	if err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}
	httputil.HandleSuccess(c, EncodeResponse{
		Encoded: base64.StdEncoding.EncodeToString(data),
		Size:    len(data),
	})
}

// @Summary Decode route spec
// @Description Decode a base64 binary route spec into JSON. Unknown venue tags,
// @Description weights above 100, truncated input and trailing bytes are rejected.
// @Tags route
// @Accept json
// @Produce json
// @Param request body SpecRequest true "Base64 route spec encoding"
// @Success 200 {object} domain.RouteSpec
// @Failure 400 {object} httputil.Response
// @Router /api/v1/route/decode [post]
func (h *RouteHandler) decode(c *gin.Context) {
	var req SpecRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Encoded == "" {
		httputil.HandleBadRequest(c, "encoded is required")
		return
	}
	spec, err := req.resolve(h.aggregatorSvc)
	if err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}
	httputil.HandleSuccess(c, spec)
}

// AccountMetaDTO is one account of an execution context
type AccountMetaDTO struct {
	PublicKey  string `json:"pubkey" binding:"required" example:"HJPjoWUrhoZzkNfRpHuieeFk9WcZWjwy6PBjZ81ngndJ"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

// StepContextDTO is the execution context of one (route, hop, index) split.
// The venue is taken from the route spec at that position.
type StepContextDTO struct {
	Route    int              `json:"route"`
	Hop      int              `json:"hop"`
	Index    int              `json:"index"`
	Accounts []AccountMetaDTO `json:"accounts"`

	// Base64 opaque venue data
	Data string `json:"data,omitempty"`
}

// ExecuteRequest runs a route spec against the simulated market
type ExecuteRequest struct {
	SpecRequest

	// Opaque caller order id; a succeeded order id cannot be executed again
	OrderID uint64 `json:"orderId" example:"42"`

	// One context per split. For simulated venues accounts[0] is the pool and
	// accounts[1] the mint being sold.
	Contexts []StepContextDTO `json:"contexts"`

	Commission *domain.Commission `json:"commission,omitempty"`
}

// @Summary Execute route spec
// @Description Execute a route spec against the simulated market as a dry run.
// @Description Either every split succeeds and the output meets minReturn, or no pool is changed.
// @Description
// @Description **Error Handling:**
// @Description - 400: Invalid spec, missing context or invalid commission (report in data)
// @Description - 409: Order id already executed successfully
// @Description - 422: A venue failed or the output fell below minReturn (report in data)
// @Tags route
// @Accept json
// @Produce json
// @Param request body ExecuteRequest true "Spec, per-split contexts and optional commission"
// @Success 200 {object} domain.Report
// @Failure 400 {object} httputil.Response
// @Failure 409 {object} httputil.Response
// @Failure 422 {object} httputil.Response
// @Router /api/v1/route/execute [post]
func (h *RouteHandler) execute(c *gin.Context) {
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	spec, err := req.resolve(h.aggregatorSvc)
	if err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}
	contexts, err := parseContexts(spec, req.Contexts)
	if err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}

	report, err := h.aggregatorSvc.Execute(c.Request.Context(), &aggregator.ExecuteRequest{
		OrderID:    req.OrderID,
		Spec:       spec,
		Contexts:   contexts,
		Commission: req.Commission,
	})
	switch {
	case errors.Is(err, aggregator.ErrDuplicateOrder):
		httputil.HandleHttpError(c, common.HTTPErrorResourceConflict(err.Error()), nil)
		return
	case errors.Is(err, router.ErrInvalidCommissionRate), errors.Is(err, router.ErrInvalidPlatformFeeRate),
		errors.Is(err, router.ErrInvalidTrimRate):
		httputil.HandleBadRequest(c, err.Error())
		return
	case err != nil:
		httputil.HandleInternalError(c, err.Error())
		return
	}

	if !report.Succeeded() {
		httputil.HandleHttpError(c, httpErrorForKind(report.FailureKind, report.Failure), report)
		return
	}
	httputil.HandleSuccess(c, report)
}

// InstructionRequest builds the router swap instruction for a route spec
type InstructionRequest struct {
	SpecRequest

	OrderID uint64 `json:"orderId" example:"42"`

	Payer           string `json:"payer" binding:"required"`
	SourceMint      string `json:"sourceMint" binding:"required" example:"So11111111111111111111111111111111111111112"`
	DestinationMint string `json:"destinationMint" binding:"required" example:"uSd2czE61Evaf76RNbq4KPpXnkiL3irdzgLFUMe3NoG"`

	// Token accounts default to the payer's associated token accounts
	SourceTokenAccount      string `json:"sourceTokenAccount,omitempty"`
	DestinationTokenAccount string `json:"destinationTokenAccount,omitempty"`

	// Derive associated token accounts under Token-2022 instead of SPL Token
	SourceToken2022      bool `json:"sourceToken2022,omitempty"`
	DestinationToken2022 bool `json:"destinationToken2022,omitempty"`

	// One context per split, zero-weight splits included
	Contexts []StepContextDTO `json:"contexts"`
}

// InstructionResponse is an unsigned router swap instruction
type InstructionResponse struct {
	ProgramID string           `json:"programId" example:"6m2CDdhRgxpH4WjvdzxAYbGxwdGUz5MziiL5jek2kBma"`
	Accounts  []AccountMetaDTO `json:"accounts"`

	// Base64 instruction data: discriminator, route spec, order id
	Data string `json:"data"`
}

// @Summary Build swap instruction
// @Description Build the router program swap instruction for a validated route spec.
// @Description The fixed swap accounts come first, followed by every split's context accounts
// @Description in route, hop, index order. Omitted token accounts are derived as the payer's
// @Description associated token accounts.
// @Tags route
// @Accept json
// @Produce json
// @Param request body InstructionRequest true "Spec, swap accounts and per-split contexts"
// @Success 200 {object} InstructionResponse
// @Failure 400 {object} httputil.Response
// @Router /api/v1/route/instruction [post]
func (h *RouteHandler) instruction(c *gin.Context) {
	var req InstructionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	spec, err := req.resolve(h.aggregatorSvc)
	if err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}
	contexts, err := parseContexts(spec, req.Contexts)
	if err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}

	accounts := &builder.SwapAccounts{}
	for _, f := range []struct {
		name string
		in   string
		out  *solana.PublicKey
	}{
		{"payer", req.Payer, &accounts.Payer},
		{"sourceTokenAccount", req.SourceTokenAccount, &accounts.SourceTokenAccount},
		{"destinationTokenAccount", req.DestinationTokenAccount, &accounts.DestinationTokenAccount},
		{"sourceMint", req.SourceMint, &accounts.SourceMint},
		{"destinationMint", req.DestinationMint, &accounts.DestinationMint},
	} {
		if f.in == "" {
			continue
		}
		key, err := solana.PublicKeyFromBase58(f.in)
		if err != nil {
			httputil.HandleBadRequest(c, "invalid "+f.name+" address")
			return
		}
		*f.out = key
	}
	if err := accounts.FillTokenAccounts(tokenProgram(req.SourceToken2022), tokenProgram(req.DestinationToken2022)); err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}

	ix, err := h.aggregatorSvc.BuildInstruction(accounts, &domain.SwapRequest{OrderID: req.OrderID, Spec: *spec}, contexts)
	if err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}
	data, err := ix.Data()
	if err != nil {
		httputil.HandleInternalError(c, err.Error())
		return
	}

	metas := ix.Accounts()
	resp := InstructionResponse{
		ProgramID: ix.ProgramID().String(),
		Accounts:  make([]AccountMetaDTO, 0, len(metas)),
		Data:      base64.StdEncoding.EncodeToString(data),
	}
	for _, m := range metas {
		resp.Accounts = append(resp.Accounts, AccountMetaDTO{
			PublicKey:  m.PublicKey.String(),
			IsSigner:   m.IsSigner,
			IsWritable: m.IsWritable,
		})
	}
	httputil.HandleSuccess(c, resp)
}

// FailedExecutionsResponse lists orders whose latest report failed
type FailedExecutionsResponse struct {
	OrderIDs []uint64 `json:"orderIds"`
	Count    int      `json:"count" example:"2"`
}

// @Summary List failed executions
// @Description List order ids whose latest journaled report is a failure, in ascending order.
// @Tags route
// @Produce json
// @Success 200 {object} FailedExecutionsResponse
// @Failure 501 {object} httputil.Response "Journal backend cannot list failures"
// @Router /api/v1/route/executions/failed [get]
func (h *RouteHandler) failedExecutions(c *gin.Context) {
	ids, err := h.aggregatorSvc.FailedOrders(c.Request.Context())
	switch {
	case errors.Is(err, aggregator.ErrFailedOrdersUnsupported):
		httputil.HandleHttpError(c, common.HTTPErrorNotImplemented(err.Error()), nil)
		return
	case err != nil:
		httputil.HandleInternalError(c, err.Error())
		return
	}
	if ids == nil {
		ids = []uint64{}
	}
	httputil.HandleSuccess(c, FailedExecutionsResponse{OrderIDs: ids, Count: len(ids)})
}

// @Summary Get execution report
// @Description Look up the latest journaled report of an order id.
// @Tags route
// @Produce json
// @Param orderId path int true "Order id"
// @Success 200 {object} domain.Report
// @Failure 400 {object} httputil.Response
// @Failure 404 {object} httputil.Response
// @Router /api/v1/route/executions/{orderId} [get]
func (h *RouteHandler) getExecution(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("orderId"), 10, 64)
	if err != nil {
		httputil.HandleBadRequest(c, "invalid orderId")
		return
	}

	report, err := h.aggregatorSvc.GetExecution(c.Request.Context(), orderID)
	switch {
	case errors.Is(err, aggregator.ErrExecutionNotFound):
		httputil.HandleNotFound(c, err.Error())
	case err != nil:
		httputil.HandleInternalError(c, err.Error())
	default:
		httputil.HandleSuccess(c, report)
	}
}

// parseContexts keys each context by its position in spec.
func parseContexts(spec *domain.RouteSpec, in []StepContextDTO) (market.StaticContexts, error) {
	contexts := make(market.StaticContexts, len(in))
	for n, dto := range in {
		if dto.Route < 0 || dto.Route >= len(spec.Routes) {
			return nil, fmt.Errorf("contexts[%d]: route %d out of range", n, dto.Route)
		}
		hops := spec.Routes[dto.Route].Hops
		if dto.Hop < 0 || dto.Hop >= len(hops) {
			return nil, fmt.Errorf("contexts[%d]: hop %d out of range", n, dto.Hop)
		}
		venues := hops[dto.Hop].Venues
		if dto.Index < 0 || dto.Index >= len(venues) {
			return nil, fmt.Errorf("contexts[%d]: index %d out of range", n, dto.Index)
		}

		ec := domain.ExecutionContext{Accounts: make(solana.AccountMetaSlice, 0, len(dto.Accounts))}
		for a, acc := range dto.Accounts {
			key, err := solana.PublicKeyFromBase58(acc.PublicKey)
			if err != nil {
				return nil, fmt.Errorf("contexts[%d].accounts[%d]: invalid pubkey", n, a)
			}
			ec.Accounts = append(ec.Accounts, &solana.AccountMeta{PublicKey: key, IsSigner: acc.IsSigner, IsWritable: acc.IsWritable})
		}
		if dto.Data != "" {
			data, err := base64.StdEncoding.DecodeString(dto.Data)
			if err != nil {
				return nil, fmt.Errorf("contexts[%d]: invalid base64 data", n)
			}
			ec.Data = data
		}

		contexts.Set(domain.StepKey{Route: dto.Route, Hop: dto.Hop, Index: dto.Index, Venue: venues[dto.Index]}, ec)
	}
	return contexts, nil
}

func tokenProgram(token2022 bool) solana.PublicKey {
	if token2022 {
		return builder.Token2022ProgramID
	}
	return builder.TokenProgramID
}

// httpErrorForKind maps a failed report to a status code.
func httpErrorForKind(kind, msg string) *common.HttpError {
	switch kind {
	case router.KindInvalidSpec, router.KindRouteCountMismatch, router.KindAmountConservation,
		router.KindInvalidSlippageBound, router.KindRouteStructureInvalid, router.KindHopStructureInvalid,
		router.KindTooManyHops, router.KindWeightSumInvalid, router.KindContextNotFound:
		herr := common.HTTPErrorBadRequest(msg)
		herr.Code = kind
		return herr
	case router.KindAdapterNotFound, router.KindAdapterFailed, router.KindSlippageExceeded,
		router.KindArithmeticOverflow, router.KindArithmeticUnderflow, router.KindCanceled:
		return common.HTTPErrorUnprocessable(kind, msg)
	default:
		herr := common.HTTPErrorInternalError(msg)
		herr.Code = kind
		return herr
	}
}
