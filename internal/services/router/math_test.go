package router

import (
	"errors"
	"math"
	"testing"
)

func TestMulDiv(t *testing.T) {
	tests := []struct {
		name    string
		amount  uint64
		weight  uint8
		denom   uint64
		want    uint64
		wantErr error
	}{
		{"half", 100, 50, 100, 50, nil},
		{"floors", 7, 50, 100, 3, nil},
		{"zero amount", 0, 100, 100, 0, nil},
		{"max amount full weight", math.MaxUint64, 100, 100, math.MaxUint64, nil},
		{"max amount no wrap", math.MaxUint64, 99, 100, 18262276632972456098, nil},
		{"quotient overflows", math.MaxUint64, 200, 100, 0, ErrArithmeticOverflow},
		{"zero denominator", 1, 1, 0, 0, ErrArithmeticOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MulDiv(tt.amount, tt.weight, tt.denom)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("MulDiv() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("MulDiv() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("MulDiv() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCheckedArithmetic(t *testing.T) {
	if _, err := CheckedAdd(math.MaxUint64, 1); !errors.Is(err, ErrArithmeticOverflow) {
		t.Errorf("CheckedAdd overflow error = %v", err)
	}
	if got, err := CheckedAdd(math.MaxUint64-1, 1); err != nil || got != math.MaxUint64 {
		t.Errorf("CheckedAdd() = %d, %v", got, err)
	}
	if _, err := CheckedSub(1, 2); !errors.Is(err, ErrArithmeticUnderflow) {
		t.Errorf("CheckedSub underflow error = %v", err)
	}
	if got, err := CheckedSub(5, 5); err != nil || got != 0 {
		t.Errorf("CheckedSub() = %d, %v", got, err)
	}
}

func TestSumAmounts(t *testing.T) {
	if got, err := SumAmounts(nil); err != nil || got != 0 {
		t.Errorf("SumAmounts(nil) = %d, %v", got, err)
	}
	if got, err := SumAmounts([]uint64{60, 40}); err != nil || got != 100 {
		t.Errorf("SumAmounts() = %d, %v", got, err)
	}
	if _, err := SumAmounts([]uint64{math.MaxUint64, 1}); !errors.Is(err, ErrArithmeticOverflow) {
		t.Errorf("SumAmounts overflow error = %v", err)
	}
}

func BenchmarkMulDiv(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = MulDiv(math.MaxUint64-uint64(i), 33, 100)
	}
}
