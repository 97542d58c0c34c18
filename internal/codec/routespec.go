// Package codec encodes RouteSpecs in the ledger program's argument layout:
// little-endian integers and u32 length-prefixed sequences.
package codec

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/hxuan190/route-executor/internal/domain"
)

var (
	ErrMalformed     = errors.New("malformed route spec encoding")
	ErrTrailingBytes = errors.New("trailing bytes after route spec")
)

// EncodeRouteSpec writes spec as:
//
//	amountIn u64 | expectAmountOut u64 | minReturn u64 |
//	parallelAmounts vec<u64> | routes vec<vec<hop>>
//	hop = venues vec<u8> | weights bytes
func EncodeRouteSpec(spec *domain.RouteSpec) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := encodeRouteSpec(bin.NewBorshEncoder(buf), spec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeRouteSpec is the inverse of EncodeRouteSpec. The whole input must be
// consumed.
func DecodeRouteSpec(data []byte) (*domain.RouteSpec, error) {
	dec := bin.NewBorshDecoder(data)
	spec, err := decodeRouteSpec(dec)
	if err != nil {
		return nil, err
	}
	if dec.HasRemaining() {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingBytes, dec.Remaining())
	}
	return spec, nil
}

// EncodeSwapRequest writes the RouteSpec followed by the u64 order id.
func EncodeSwapRequest(req *domain.SwapRequest) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := encodeRouteSpec(enc, &req.Spec); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(req.OrderID, bin.LE); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeSwapRequest(data []byte) (*domain.SwapRequest, error) {
	dec := bin.NewBorshDecoder(data)
	spec, err := decodeRouteSpec(dec)
	if err != nil {
		return nil, err
	}
	orderID, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("%w: order id: %v", ErrMalformed, err)
	}
	if dec.HasRemaining() {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingBytes, dec.Remaining())
	}
	return &domain.SwapRequest{OrderID: orderID, Spec: *spec}, nil
}

func encodeRouteSpec(enc *bin.Encoder, spec *domain.RouteSpec) error {
	if spec == nil {
		return errors.New("nil route spec")
	}
	for _, v := range []uint64{spec.AmountIn, spec.ExpectAmountOut, spec.MinReturn} {
		if err := enc.WriteUint64(v, bin.LE); err != nil {
			return err
		}
	}

	if err := enc.WriteLength(len(spec.ParallelAmounts)); err != nil {
		return err
	}
	for _, a := range spec.ParallelAmounts {
		if err := enc.WriteUint64(a, bin.LE); err != nil {
			return err
		}
	}

	if err := enc.WriteLength(len(spec.Routes)); err != nil {
		return err
	}
	for _, route := range spec.Routes {
		if err := enc.WriteLength(len(route.Hops)); err != nil {
			return err
		}
		for _, hop := range route.Hops {
			if err := encodeHop(enc, hop); err != nil {
				return err
			}
		}
	}
	return nil
}

func encodeHop(enc *bin.Encoder, hop domain.Hop) error {
	if err := enc.WriteLength(len(hop.Venues)); err != nil {
		return err
	}
	for _, v := range hop.Venues {
		if err := enc.WriteUint8(uint8(v)); err != nil {
			return err
		}
	}
	return enc.WriteBytes(hop.Weights, true)
}

func decodeRouteSpec(dec *bin.Decoder) (*domain.RouteSpec, error) {
	spec := &domain.RouteSpec{}
	fields := []*uint64{&spec.AmountIn, &spec.ExpectAmountOut, &spec.MinReturn}
	names := []string{"amountIn", "expectAmountOut", "minReturn"}
	for i, f := range fields {
		v, err := dec.ReadUint64(bin.LE)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, names[i], err)
		}
		*f = v
	}

	n, err := readLength(dec, 8, "parallelAmounts")
	if err != nil {
		return nil, err
	}
	spec.ParallelAmounts = make([]uint64, n)
	for i := range spec.ParallelAmounts {
		if spec.ParallelAmounts[i], err = dec.ReadUint64(bin.LE); err != nil {
			return nil, fmt.Errorf("%w: parallelAmounts[%d]: %v", ErrMalformed, i, err)
		}
	}

	// Each route needs at least its own 4-byte length prefix.
	n, err = readLength(dec, 4, "routes")
	if err != nil {
		return nil, err
	}
	spec.Routes = make([]domain.Route, n)
	for r := range spec.Routes {
		hops, err := readLength(dec, 8, fmt.Sprintf("routes[%d]", r))
		if err != nil {
			return nil, err
		}
		spec.Routes[r].Hops = make([]domain.Hop, hops)
		for h := range spec.Routes[r].Hops {
			hop, err := decodeHop(dec, r, h)
			if err != nil {
				return nil, err
			}
			spec.Routes[r].Hops[h] = hop
		}
	}
	return spec, nil
}

func decodeHop(dec *bin.Decoder, r, h int) (domain.Hop, error) {
	where := fmt.Sprintf("routes[%d].hops[%d]", r, h)

	n, err := readLength(dec, 1, where+".venues")
	if err != nil {
		return domain.Hop{}, err
	}
	venues := make([]domain.Venue, n)
	for i := range venues {
		tag, err := dec.ReadUint8()
		if err != nil {
			return domain.Hop{}, fmt.Errorf("%w: %s.venues[%d]: %v", ErrMalformed, where, i, err)
		}
		venues[i] = domain.Venue(tag)
		if !venues[i].IsValid() {
			return domain.Hop{}, fmt.Errorf("%w: %s.venues[%d]: unknown venue tag %d", ErrMalformed, where, i, tag)
		}
	}

	n, err = readLength(dec, 1, where+".weights")
	if err != nil {
		return domain.Hop{}, err
	}
	raw, err := dec.ReadNBytes(n)
	if err != nil {
		return domain.Hop{}, fmt.Errorf("%w: %s.weights: %v", ErrMalformed, where, err)
	}
	weights := make(domain.Weights, n)
	copy(weights, raw)
	for i, w := range weights {
		if w > domain.TotalWeight {
			return domain.Hop{}, fmt.Errorf("%w: %s.weights[%d]: %d exceeds %d", ErrMalformed, where, i, w, domain.TotalWeight)
		}
	}
	return domain.Hop{Venues: venues, Weights: weights}, nil
}

// readLength reads a u32 length prefix and rejects counts the remaining input
// cannot possibly hold.
func readLength(dec *bin.Decoder, minElemSize int, what string) (int, error) {
	n, err := dec.ReadLength()
	if err != nil {
		return 0, fmt.Errorf("%w: %s length: %v", ErrMalformed, what, err)
	}
	if n > dec.Remaining()/minElemSize {
		return 0, fmt.Errorf("%w: %s length %d exceeds remaining input", ErrMalformed, what, n)
	}
	return n, nil
}
