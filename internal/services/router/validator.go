package router

import (
	"github.com/hxuan190/route-executor/internal/domain"
)

// Validator checks the structural rules of a RouteSpec. It is pure and
// fail-fast: checks run in a fixed order and the first violation is returned.
type Validator struct {
	// MaxHops limits the hops of each route. Zero disables the limit.
	MaxHops int
}

func NewValidator(maxHops int) *Validator {
	return &Validator{MaxHops: maxHops}
}

var defaultValidator = &Validator{}

// Validate checks spec without a hop limit.
func Validate(spec *domain.RouteSpec) error {
	return defaultValidator.Validate(spec)
}

func (v *Validator) Validate(spec *domain.RouteSpec) error {
	if spec == nil {
		return newValidationError(ErrRouteCountMismatch, -1, -1, "nil route spec")
	}

	if err := v.checkRouteCount(spec); err != nil {
		return err
	}
	if err := v.checkConservation(spec); err != nil {
		return err
	}
	if spec.MinReturn > spec.ExpectAmountOut {
		return newValidationError(ErrInvalidSlippageBound, -1, -1,
			"min return %d exceeds expected amount out %d", spec.MinReturn, spec.ExpectAmountOut)
	}
	if err := v.checkStructure(spec); err != nil {
		return err
	}
	return v.checkWeights(spec)
}

func (v *Validator) checkRouteCount(spec *domain.RouteSpec) error {
	if len(spec.Routes) == 0 {
		return newValidationError(ErrRouteCountMismatch, -1, -1, "no routes")
	}
	if len(spec.ParallelAmounts) != len(spec.Routes) {
		return newValidationError(ErrRouteCountMismatch, -1, -1,
			"%d parallel amounts for %d routes", len(spec.ParallelAmounts), len(spec.Routes))
	}
	return nil
}

func (v *Validator) checkConservation(spec *domain.RouteSpec) error {
	sum, err := SumAmounts(spec.ParallelAmounts)
	if err != nil {
		verr := newValidationError(ErrAmountConservation, -1, -1, "parallel amounts overflow")
		verr.Cause = err
		return verr
	}
	if sum != spec.AmountIn {
		return newValidationError(ErrAmountConservation, -1, -1,
			"parallel amounts sum to %d, amount in is %d", sum, spec.AmountIn)
	}
	return nil
}

func (v *Validator) checkStructure(spec *domain.RouteSpec) error {
	for r, route := range spec.Routes {
		if len(route.Hops) == 0 {
			return newValidationError(ErrRouteStructureInvalid, r, -1, "route has no hops")
		}
		if v.MaxHops > 0 && len(route.Hops) > v.MaxHops {
			return newValidationError(ErrTooManyHops, r, -1,
				"%d hops, limit is %d", len(route.Hops), v.MaxHops)
		}
		for h, hop := range route.Hops {
			if len(hop.Venues) == 0 {
				return newValidationError(ErrHopStructureInvalid, r, h, "hop has no venues")
			}
			if len(hop.Venues) != len(hop.Weights) {
				return newValidationError(ErrHopStructureInvalid, r, h,
					"%d venues, %d weights", len(hop.Venues), len(hop.Weights))
			}
			for i, venue := range hop.Venues {
				if !venue.IsValid() {
					return newValidationError(ErrHopStructureInvalid, r, h,
						"venue %d: unknown tag %d", i, uint8(venue))
				}
			}
		}
	}
	return nil
}

func (v *Validator) checkWeights(spec *domain.RouteSpec) error {
	for r, route := range spec.Routes {
		for h, hop := range route.Hops {
			sum := 0
			for _, w := range hop.Weights {
				sum += int(w)
			}
			if sum != int(domain.TotalWeight) {
				return newValidationError(ErrWeightSumInvalid, r, h,
					"weights sum to %d, want %d", sum, domain.TotalWeight)
			}
		}
	}
	return nil
}
