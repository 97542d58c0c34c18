package router

import (
	"fmt"

	"github.com/hxuan190/route-executor/internal/domain"
)

// SplitAmounts divides amount across weights. Every entry but the last
// non-zero weight gets floor(amount*w/100); that last entry takes the
// residual, so the parts always sum to amount exactly. Zero weights get zero.
func SplitAmounts(amount uint64, weights []uint8) ([]uint64, error) {
	last := -1
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			last = i
			break
		}
	}
	if last < 0 {
		return nil, fmt.Errorf("%w: all weights are zero", ErrWeightSumInvalid)
	}

	parts := make([]uint64, len(weights))
	var allocated uint64
	for i, w := range weights {
		switch {
		case w == 0:
			continue
		case i == last:
			residual, err := CheckedSub(amount, allocated)
			if err != nil {
				return nil, err
			}
			parts[i] = residual
		default:
			part, err := MulDiv(amount, w, uint64(domain.TotalWeight))
			if err != nil {
				return nil, err
			}
			allocated, err = CheckedAdd(allocated, part)
			if err != nil {
				return nil, err
			}
			parts[i] = part
		}
	}
	return parts, nil
}
