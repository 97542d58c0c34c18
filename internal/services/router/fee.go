package router

import (
	"errors"
	"fmt"

	"github.com/hxuan190/route-executor/internal/domain"
)

const (
	CommissionRateLimit    uint32 = 100_000_000 // 10%
	CommissionDenominator  uint64 = 1_000_000_000
	PlatformFeeRateLimit   uint16 = 10_000 // 100%
	PlatformFeeDenominator uint64 = 10_000
	TrimRateLimit          uint8  = 100 // 10%
	TrimDenominator        uint64 = 1_000
)

var (
	ErrInvalidCommissionRate    = errors.New("invalid commission rate")
	ErrInvalidPlatformFeeRate   = errors.New("invalid platform fee rate")
	ErrInvalidPlatformFeeAmount = errors.New("platform fee exceeds commission")
	ErrInvalidTrimRate          = errors.New("invalid trim rate")
)

// CalculateFees splits the commission on amount between the integrator and
// the platform. With fromInput the commission is grossed up so that it equals
// rate of (amount + commission). The returned Commission excludes PlatformFee.
func CalculateFees(amount uint64, commissionRate uint32, fromInput bool, platformFeeRate uint16) (domain.Fees, error) {
	fees := domain.Fees{FromInput: fromInput}
	if commissionRate == 0 {
		return fees, nil
	}
	if commissionRate > CommissionRateLimit {
		return fees, fmt.Errorf("%w: %d > %d", ErrInvalidCommissionRate, commissionRate, CommissionRateLimit)
	}

	denom := CommissionDenominator
	if fromInput {
		denom -= uint64(commissionRate)
	}
	commission, err := mulDiv(amount, uint64(commissionRate), denom)
	if err != nil {
		return fees, err
	}

	var platform uint64
	if platformFeeRate > 0 {
		if platformFeeRate > PlatformFeeRateLimit {
			return fees, fmt.Errorf("%w: %d > %d", ErrInvalidPlatformFeeRate, platformFeeRate, PlatformFeeRateLimit)
		}
		platform, err = mulDiv(commission, uint64(platformFeeRate), PlatformFeeDenominator)
		if err != nil {
			return fees, err
		}
	}
	if platform > commission {
		return fees, ErrInvalidPlatformFeeAmount
	}

	fees.Commission = commission - platform
	fees.PlatformFee = platform
	return fees, nil
}

// CalculateTrim returns the part of amountOut above expectAmountOut that is
// withheld, capped at trimRate/1000 of amountOut. When the commission is
// taken from the output, charged (commission plus platform fee) is deducted
// before comparing. All subtractions saturate at zero.
func CalculateTrim(amountOut, expectAmountOut, charged uint64, fromInput bool, trimRate uint8) (uint64, error) {
	if trimRate == 0 {
		return 0, nil
	}
	if trimRate > TrimRateLimit {
		return 0, fmt.Errorf("%w: %d > %d", ErrInvalidTrimRate, trimRate, TrimRateLimit)
	}
	limit, err := mulDiv(amountOut, uint64(trimRate), TrimDenominator)
	if err != nil {
		return 0, err
	}

	remaining := amountOut
	if !fromInput {
		remaining = saturatingSub(remaining, charged)
	}
	return min(saturatingSub(remaining, expectAmountOut), limit), nil
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// TotalFees is the full amount charged: commission plus platform fee.
func TotalFees(f domain.Fees) (uint64, error) {
	return CheckedAdd(f.Commission, f.PlatformFee)
}

// ValidateCommission checks the rates of c without computing any fee. A nil
// commission is valid.
func ValidateCommission(c *domain.Commission) error {
	if c == nil {
		return nil
	}
	if c.Rate > CommissionRateLimit {
		return fmt.Errorf("%w: %d > %d", ErrInvalidCommissionRate, c.Rate, CommissionRateLimit)
	}
	if c.PlatformFeeRate > PlatformFeeRateLimit {
		return fmt.Errorf("%w: %d > %d", ErrInvalidPlatformFeeRate, c.PlatformFeeRate, PlatformFeeRateLimit)
	}
	if c.TrimRate > TrimRateLimit {
		return fmt.Errorf("%w: %d > %d", ErrInvalidTrimRate, c.TrimRate, TrimRateLimit)
	}
	return nil
}
