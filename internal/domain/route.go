package domain

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const (
	// TotalWeight is the sum every hop's weights must reach.
	TotalWeight uint8 = 100

	// DefaultMaxHops mirrors the on-chain router's per-route hop limit.
	DefaultMaxHops = 3
)

// RouteSpec describes one swap request: the input amount, the output bounds and
// the routing tree (parallel routes of ordered hops of weighted venue splits).
// A RouteSpec is treated as immutable once handed to the validator.
type RouteSpec struct {
	AmountIn        uint64   `json:"amountIn"`
	ExpectAmountOut uint64   `json:"expectAmountOut"`
	MinReturn       uint64   `json:"minReturn"`
	ParallelAmounts []uint64 `json:"parallelAmounts"`
	Routes          []Route  `json:"routes"`
}

// Route is one independent path from the source asset to the destination asset.
// The asset produced by hop i is assumed to be the asset consumed by hop i+1.
type Route struct {
	Hops []Hop `json:"hops"`
}

// Hop is one stage of a route, split across venues by integer percentage.
type Hop struct {
	Venues  []Venue `json:"venues"`
	Weights Weights `json:"weights"`
}

// Weights is the per-venue percentage list of a hop. JSON accepts either an
// integer array or a base64 byte string; it always encodes as an integer array.
type Weights []uint8

func (w Weights) MarshalJSON() ([]byte, error) {
	ints := make([]int, len(w))
	for i, v := range w {
		ints[i] = int(v)
	}
	return json.Marshal(ints)
}

func (w *Weights) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("weights: %w", err)
		}
		*w = Weights(raw)
		return nil
	}

	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	out := make(Weights, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return fmt.Errorf("weights[%d]: %d out of byte range", i, v)
		}
		out[i] = uint8(v)
	}
	*w = out
	return nil
}

// HopCount returns the total number of hops across all routes.
func (s *RouteSpec) HopCount() int {
	n := 0
	for _, r := range s.Routes {
		n += len(r.Hops)
	}
	return n
}

// ExecutionContext is the caller-resolved set of account handles a venue adapter
// needs for one hop split. The engine passes it through without inspecting it.
type ExecutionContext struct {
	Accounts solana.AccountMetaSlice `json:"accounts"`
	Data     []byte                  `json:"data,omitempty"`
}

// StepKey identifies one (route, hop, split) position of a RouteSpec.
type StepKey struct {
	Route int   `json:"route"`
	Hop   int   `json:"hop"`
	Index int   `json:"index"`
	Venue Venue `json:"venue"`
}

func (k StepKey) String() string {
	return fmt.Sprintf("route=%d hop=%d index=%d venue=%s", k.Route, k.Hop, k.Index, k.Venue)
}
