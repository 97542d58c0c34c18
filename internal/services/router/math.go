package router

import (
	"errors"
	"fmt"
	"math/bits"
	"sync"

	"github.com/holiman/uint256"
)

var (
	ErrArithmeticOverflow  = errors.New("arithmetic overflow")
	ErrArithmeticUnderflow = errors.New("arithmetic underflow")
)

var uint256Pool = sync.Pool{
	New: func() interface{} {
		return new(uint256.Int)
	},
}

func getU256() *uint256.Int {
	return uint256Pool.Get().(*uint256.Int)
}

func putU256(v *uint256.Int) {
	v.Clear()
	uint256Pool.Put(v)
}

// MulDiv returns floor(amount * weight / denom). The product is formed in a
// 256-bit intermediate so it never wraps; a quotient that does not fit in
// 64 bits, or a zero denominator, is an overflow.
func MulDiv(amount uint64, weight uint8, denom uint64) (uint64, error) {
	return mulDiv(amount, uint64(weight), denom)
}

func mulDiv(a, b, denom uint64) (uint64, error) {
	if denom == 0 {
		return 0, fmt.Errorf("%w: zero denominator", ErrArithmeticOverflow)
	}

	x := getU256()
	y := getU256()
	defer putU256(x)
	defer putU256(y)

	x.SetUint64(a)
	y.SetUint64(b)
	x.Mul(x, y)
	y.SetUint64(denom)
	x.Div(x, y)

	if !x.IsUint64() {
		return 0, fmt.Errorf("%w: %d*%d/%d", ErrArithmeticOverflow, a, b, denom)
	}
	return x.Uint64(), nil
}

func CheckedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: %d+%d", ErrArithmeticOverflow, a, b)
	}
	return sum, nil
}

func CheckedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, fmt.Errorf("%w: %d-%d", ErrArithmeticUnderflow, a, b)
	}
	return diff, nil
}

// SumAmounts folds amounts with CheckedAdd.
func SumAmounts(amounts []uint64) (uint64, error) {
	var total uint64
	for _, a := range amounts {
		next, err := CheckedAdd(total, a)
		if err != nil {
			return 0, err
		}
		total = next
	}
	return total, nil
}
