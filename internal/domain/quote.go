package domain

// SwapQuote is the result of a constant-product swap against a Pool.
type SwapQuote struct {
	Pool      *Pool  `json:"-"`
	AmountIn  uint64 `json:"amountIn"`
	AmountOut uint64 `json:"amountOut"`
	FeeAmount uint64 `json:"feeAmount"`
	AToB      bool   `json:"aToB"`
}
