package simulator

import (
	"fmt"

	"github.com/holiman/uint256"
)

const bpsDenom = 10_000

// ConstantProductOut computes x*y=k output with the fee taken from the input.
// Intermediates are 256-bit so no reserve size can wrap.
func ConstantProductOut(amountIn, reserveIn, reserveOut uint64, feeBps uint16) (amountOut, fee uint64, err error) {
	if amountIn == 0 {
		return 0, 0, fmt.Errorf("%w: zero amount", ErrInsufficientLiquidity)
	}
	if reserveIn == 0 || reserveOut == 0 {
		return 0, 0, fmt.Errorf("%w: empty reserves", ErrInsufficientLiquidity)
	}
	if feeBps >= bpsDenom {
		return 0, 0, fmt.Errorf("fee %d bps out of range", feeBps)
	}

	in := uint256.NewInt(amountIn)
	afterFee := new(uint256.Int).Mul(in, uint256.NewInt(uint64(bpsDenom-feeBps)))
	afterFee.Div(afterFee, uint256.NewInt(bpsDenom))

	num := new(uint256.Int).Mul(afterFee, uint256.NewInt(reserveOut))
	den := new(uint256.Int).Add(uint256.NewInt(reserveIn), afterFee)
	out := num.Div(num, den)

	// out < reserveOut always holds, so it fits in 64 bits.
	amountOut = out.Uint64()
	if amountOut == 0 {
		return 0, 0, fmt.Errorf("%w: output rounds to zero", ErrInsufficientLiquidity)
	}
	return amountOut, amountIn - afterFee.Uint64(), nil
}
