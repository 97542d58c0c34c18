package market

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hxuan190/route-executor/internal/domain"
)

var ErrAdapterNotFound = errors.New("adapter not found")

// AdapterRegistry dispatches venues to adapters. Adapters are consulted in
// registration order and the first one supporting the venue wins.
type AdapterRegistry struct {
	mu       sync.RWMutex
	adapters []VenueAdapter
}

func NewAdapterRegistry(adapters ...VenueAdapter) *AdapterRegistry {
	r := &AdapterRegistry{
		adapters: make([]VenueAdapter, 0, len(adapters)),
	}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

func (r *AdapterRegistry) Register(adapter VenueAdapter) {
	r.mu.Lock()
	r.adapters = append(r.adapters, adapter)
	r.mu.Unlock()
}

func (r *AdapterRegistry) Lookup(venue domain.Venue) (VenueAdapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, adapter := range r.adapters {
		if adapter.SupportsVenue(venue) {
			return adapter, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrAdapterNotFound, venue)
}

// SupportedVenues lists every venue at least one adapter handles.
func (r *AdapterRegistry) SupportedVenues() []domain.Venue {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Venue, 0)
	for _, v := range domain.AllVenues() {
		for _, adapter := range r.adapters {
			if adapter.SupportsVenue(v) {
				out = append(out, v)
				break
			}
		}
	}
	return out
}

func (r *AdapterRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.adapters)
}
