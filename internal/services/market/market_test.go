package market

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/hxuan190/route-executor/internal/domain"
)

type stubAdapter struct {
	name   string
	venues []domain.Venue
}

func (a *stubAdapter) Execute(_ context.Context, _ domain.Venue, amountIn uint64, _ domain.ExecutionContext) (uint64, error) {
	return amountIn, nil
}

func (a *stubAdapter) SupportsVenue(venue domain.Venue) bool {
	for _, v := range a.venues {
		if v == venue {
			return true
		}
	}
	return false
}

func TestAdapterRegistryLookup(t *testing.T) {
	first := &stubAdapter{name: "first", venues: []domain.Venue{domain.VenueRaydiumSwap, domain.VenueWhirlpool}}
	second := &stubAdapter{name: "second", venues: []domain.Venue{domain.VenueWhirlpool, domain.VenueMeteoraDlmm}}
	registry := NewAdapterRegistry(first, second)

	tests := []struct {
		venue   domain.Venue
		want    string
		wantErr bool
	}{
		{domain.VenueRaydiumSwap, "first", false},
		{domain.VenueWhirlpool, "first", false},
		{domain.VenueMeteoraDlmm, "second", false},
		{domain.VenuePhoenix, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.venue.String(), func(t *testing.T) {
			adapter, err := registry.Lookup(tt.venue)
			if tt.wantErr {
				if !errors.Is(err, ErrAdapterNotFound) {
					t.Fatalf("Lookup() error = %v, want ErrAdapterNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup() error: %v", err)
			}
			if got := adapter.(*stubAdapter).name; got != tt.want {
				t.Errorf("Lookup() = %s, want %s", got, tt.want)
			}
		})
	}

	if registry.Len() != 2 {
		t.Errorf("Len() = %d, want 2", registry.Len())
	}
	if got := len(registry.SupportedVenues()); got != 3 {
		t.Errorf("SupportedVenues() has %d venues, want 3", got)
	}
}

func TestStaticContexts(t *testing.T) {
	key := domain.StepKey{Route: 1, Hop: 0, Index: 2, Venue: domain.VenueWhirlpool}
	ec := domain.ExecutionContext{Data: []byte{1, 2, 3}}

	contexts := StaticContexts{}
	contexts.Set(key, ec)

	got, err := contexts.Resolve(key)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if !reflect.DeepEqual(got, ec) {
		t.Errorf("Resolve() = %+v, want %+v", got, ec)
	}

	other := key
	other.Venue = domain.VenueRaydiumSwap
	if _, err := contexts.Resolve(other); !errors.Is(err, ErrContextNotFound) {
		t.Errorf("Resolve(other venue) error = %v, want ErrContextNotFound", err)
	}
}

func testPool(seed byte, reserveA, reserveB uint64) *domain.Pool {
	return &domain.Pool{
		Address:  solana.PublicKey{seed},
		Venue:    domain.VenueRaydiumSwap,
		MintA:    solana.PublicKey{0xA0, seed},
		MintB:    solana.PublicKey{0xB0, seed},
		ReserveA: reserveA,
		ReserveB: reserveB,
		Active:   true,
	}
}

func TestShardedPoolMapGetReturnsCopy(t *testing.T) {
	m := NewShardedPoolMap()
	pool := testPool(1, 100, 200)
	m.Set(pool.Address, pool)

	got, ok := m.Get(pool.Address)
	if !ok {
		t.Fatal("Get() found nothing")
	}
	got.ReserveA = 0

	again, _ := m.Get(pool.Address)
	if again.ReserveA != 100 {
		t.Errorf("stored pool changed through returned copy: ReserveA = %d", again.ReserveA)
	}
}

func TestShardedPoolMapUpdate(t *testing.T) {
	m := NewShardedPoolMap()
	pool := testPool(2, 100, 200)
	m.Set(pool.Address, pool)

	found, err := m.Update(pool.Address, func(p *domain.Pool) error {
		p.UpdateReserves(150, 120)
		return nil
	})
	if !found || err != nil {
		t.Fatalf("Update() = %v, %v", found, err)
	}
	got, _ := m.Get(pool.Address)
	if got.ReserveA != 150 || got.ReserveB != 120 {
		t.Errorf("reserves = %d/%d, want 150/120", got.ReserveA, got.ReserveB)
	}

	called := false
	found, _ = m.Update(solana.PublicKey{99}, func(*domain.Pool) error {
		called = true
		return nil
	})
	if found || called {
		t.Errorf("Update(missing) found=%v called=%v", found, called)
	}
}

func TestShardedPoolMapSnapshotRestore(t *testing.T) {
	m := NewShardedPoolMap()
	for i := byte(0); i < 40; i++ {
		p := testPool(i, uint64(i)+1, 1000)
		m.Set(p.Address, p)
	}

	snap := m.Snapshot()
	if len(snap) != 40 {
		t.Fatalf("Snapshot() has %d pools, want 40", len(snap))
	}

	m.Update(solana.PublicKey{3}, func(p *domain.Pool) error {
		p.UpdateReserves(0, 0)
		return nil
	})
	extra := testPool(200, 1, 1)
	m.Set(extra.Address, extra)
	m.Delete(solana.PublicKey{7})

	m.Restore(snap)

	if m.Len() != 40 {
		t.Errorf("Len() = %d after restore, want 40", m.Len())
	}
	if _, ok := m.Get(extra.Address); ok {
		t.Error("pool added after snapshot survived restore")
	}
	p3, _ := m.Get(solana.PublicKey{3})
	if p3.ReserveA != 4 || p3.ReserveB != 1000 {
		t.Errorf("pool 3 reserves = %d/%d, want 4/1000", p3.ReserveA, p3.ReserveB)
	}
	if _, ok := m.Get(solana.PublicKey{7}); !ok {
		t.Error("deleted pool not restored")
	}

	// The snapshot is independent of the map after restore.
	snap[solana.PublicKey{3}].ReserveA = 999
	p3, _ = m.Get(solana.PublicKey{3})
	if p3.ReserveA != 4 {
		t.Errorf("restore shares pools with snapshot: ReserveA = %d", p3.ReserveA)
	}
}

func TestShardedPoolMapGetAll(t *testing.T) {
	m := NewShardedPoolMap()
	for i := byte(0); i < 5; i++ {
		p := testPool(i, 1, 1)
		m.Set(p.Address, p)
	}
	if got := len(m.GetAll()); got != 5 {
		t.Errorf("GetAll() returned %d pools, want 5", got)
	}
}
