package router

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestSplitAmounts(t *testing.T) {
	tests := []struct {
		name    string
		amount  uint64
		weights []uint8
		want    []uint64
	}{
		{"residual to last", 100, []uint8{33, 33, 34}, []uint64{33, 33, 34}},
		{"residual absorbs rounding", 1000, []uint8{33, 33, 34}, []uint64{330, 330, 340}},
		{"odd amount", 7, []uint8{50, 50}, []uint64{3, 4}},
		{"three way", 100, []uint8{50, 30, 20}, []uint64{50, 30, 20}},
		{"single venue", 12345, []uint8{100}, []uint64{12345}},
		{"zero weight in the middle", 10, []uint8{50, 0, 50}, []uint64{5, 0, 5}},
		{"trailing zero weight", 11, []uint8{60, 40, 0}, []uint64{6, 5, 0}},
		{"zero amount", 0, []uint8{50, 50}, []uint64{0, 0}},
		{"max amount", math.MaxUint64, []uint8{50, 50}, []uint64{math.MaxUint64 / 2, math.MaxUint64 - math.MaxUint64/2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitAmounts(tt.amount, tt.weights)
			if err != nil {
				t.Fatalf("SplitAmounts() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitAmounts() = %v, want %v", got, tt.want)
			}

			sum, err := SumAmounts(got)
			if err != nil || sum != tt.amount {
				t.Errorf("parts sum to %d (%v), want %d", sum, err, tt.amount)
			}
		})
	}
}

func TestSplitAmountsAllZero(t *testing.T) {
	if _, err := SplitAmounts(100, []uint8{0, 0}); !errors.Is(err, ErrWeightSumInvalid) {
		t.Errorf("SplitAmounts() error = %v, want ErrWeightSumInvalid", err)
	}
}

func BenchmarkSplitAmounts(b *testing.B) {
	weights := []uint8{33, 33, 34}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = SplitAmounts(1_000_000_007, weights)
	}
}
