package domain

import (
	"github.com/gagliardetto/solana-go"
)

type PoolRegistry map[solana.PublicKey]*Pool

type PoolFlags uint64

const (
	FlagActive PoolFlags = 1 << 0
	FlagFunded PoolFlags = 1 << 1
	FlagLowFee PoolFlags = 1 << 2
)

const FlagReadyMask = FlagActive | FlagFunded

// Pool is a constant-product liquidity pool served by the simulated venue.
type Pool struct {
	Address         solana.PublicKey `json:"address"`
	Venue           Venue            `json:"venue"`
	MintA           solana.PublicKey `json:"mintA"`
	MintB           solana.PublicKey `json:"mintB"`
	ReserveA        uint64           `json:"reserveA"`
	ReserveB        uint64           `json:"reserveB"`
	FeeBps          uint16           `json:"feeBps"`
	Active          bool             `json:"active"`
	LastUpdatedSlot uint64           `json:"lastUpdatedSlot"`
	Flags           PoolFlags        `json:"-"`
}

func (p *Pool) IsReady() bool {
	return p.Flags&FlagReadyMask == FlagReadyMask
}

func (p *Pool) UpdateFlags() {
	p.Flags = 0
	if p.Active {
		p.Flags |= FlagActive
	}
	if p.ReserveA > 0 && p.ReserveB > 0 {
		p.Flags |= FlagFunded
	}
	if p.FeeBps < 30 {
		p.Flags |= FlagLowFee
	}
}

func (p *Pool) SetActive(active bool) {
	p.Active = active
	if active {
		p.Flags |= FlagActive
	} else {
		p.Flags &^= FlagActive
	}
}

func (p *Pool) HasFlags(mask PoolFlags) bool {
	return p.Flags&mask == mask
}

func (p *Pool) UpdateReserves(reserveA, reserveB uint64) {
	p.ReserveA = reserveA
	p.ReserveB = reserveB
	if reserveA > 0 && reserveB > 0 {
		p.Flags |= FlagFunded
	} else {
		p.Flags &^= FlagFunded
	}
}

// Direction reports whether swapping from sourceMint trades A for B.
// ok is false when sourceMint is neither side of the pool.
func (p *Pool) Direction(sourceMint solana.PublicKey) (aToB bool, ok bool) {
	switch sourceMint {
	case p.MintA:
		return true, true
	case p.MintB:
		return false, true
	default:
		return false, false
	}
}

func (p *Pool) Clone() *Pool {
	c := *p
	return &c
}
