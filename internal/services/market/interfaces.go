package market

import (
	"context"

	"github.com/hxuan190/route-executor/internal/domain"
)

// VenueAdapter performs a swap of amountIn on one venue and returns the amount
// received. Adapters are never called with a zero amount and must be safe for
// concurrent use when the engine runs routes in parallel.
type VenueAdapter interface {
	Execute(ctx context.Context, venue domain.Venue, amountIn uint64, ec domain.ExecutionContext) (uint64, error)

	// SupportsVenue returns true if this adapter can execute the given venue
	SupportsVenue(venue domain.Venue) bool
}

// ContextResolver supplies the ExecutionContext for one step of a RouteSpec.
type ContextResolver interface {
	Resolve(key domain.StepKey) (domain.ExecutionContext, error)
}

// AdapterLookup finds the adapter registered for a venue.
type AdapterLookup interface {
	Lookup(venue domain.Venue) (VenueAdapter, error)
}
