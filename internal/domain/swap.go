package domain

// SwapRequest is the instruction argument block of a routed swap: the
// RouteSpec followed by an opaque order id.
type SwapRequest struct {
	OrderID uint64    `json:"orderId"`
	Spec    RouteSpec `json:"spec"`
}

// Commission describes an optional fee charged around a routed swap.
// Rate is in parts per 1e9 and PlatformFeeRate in basis points of the commission.
// TrimRate caps, in parts per 1000 of the output, how much of the output above
// ExpectAmountOut is kept as positive slippage.
type Commission struct {
	Rate            uint32 `json:"rate"`
	FromInput       bool   `json:"fromInput"`
	PlatformFeeRate uint16 `json:"platformFeeRate"`
	TrimRate        uint8  `json:"trimRate"`
}

func (c *Commission) Enabled() bool {
	return c != nil && (c.Rate > 0 || c.TrimRate > 0)
}
