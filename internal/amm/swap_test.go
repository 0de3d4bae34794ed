package amm

import (
	"math/rand"
	"testing"

	"github.com/holiman/uint256"
)

func TestSwapWithoutFeesTruncates(t *testing.T) {
	tests := []struct {
		name      string
		sourceIn  uint64
		srcAmount uint64
		dstAmount uint64
		expected  uint64
	}{
		{name: "large destination truncation", sourceIn: 10, srcAmount: 4_000_000, dstAmount: 70_000_000_000, expected: 174_999},
		{name: "exact division", sourceIn: 10, srcAmount: 19_990, dstAmount: 30_000, expected: 15},
		{name: "balanced pool", sourceIn: 10_000, srcAmount: 1_000_000, dstAmount: 1_000_000, expected: 9_900},
		{name: "input dwarfs pool", sourceIn: 1_000_000_000, srcAmount: 1_000, dstAmount: 1_000, expected: 999},
		{name: "one lamport in", sourceIn: 1, srcAmount: 1_000_000, dstAmount: 1_000_000, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := SwapWithoutFees(tt.sourceIn, tt.srcAmount, tt.dstAmount)
			if err != nil {
				t.Fatalf("SwapWithoutFees(%d, %d, %d): %v", tt.sourceIn, tt.srcAmount, tt.dstAmount, err)
			}
			if out != tt.expected {
				t.Errorf("SwapWithoutFees(%d, %d, %d) = %d, want %d",
					tt.sourceIn, tt.srcAmount, tt.dstAmount, out, tt.expected)
			}
		})
	}
}

func TestSwapWithoutFeesEmptyPool(t *testing.T) {
	if _, err := SwapWithoutFees(0, 0, 1_000_000); err != ErrMathOverflow {
		t.Errorf("zero denominator should fail with ErrMathOverflow, got %v", err)
	}
}

// The output floor means a swap may increase the invariant but never
// decrease it: (src+in)*(dst-out) >= src*dst for every priced trade.
func TestSwapWithoutFeesPreservesInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 10_000; i++ {
		src := rng.Uint64()%1_000_000_000_000 + 1
		dst := rng.Uint64()%1_000_000_000_000 + 1
		in := rng.Uint64()%1_000_000_000 + 1

		out, err := SwapWithoutFees(in, src, dst)
		if err != nil {
			t.Fatalf("SwapWithoutFees(%d, %d, %d): %v", in, src, dst, err)
		}
		if out > dst {
			t.Fatalf("output %d exceeds destination reserve %d", out, dst)
		}

		before := new(uint256.Int).Mul(uint256.NewInt(src), uint256.NewInt(dst))
		after := new(uint256.Int).Mul(uint256.NewInt(src+in), uint256.NewInt(dst-out))
		if after.Cmp(before) < 0 {
			t.Fatalf("invariant decreased: in=%d src=%d dst=%d out=%d", in, src, dst, out)
		}
	}
}

func TestSwapFeeAccounting(t *testing.T) {
	result, err := Swap(10_000, 1_000_000, 1_000_000, 2_500, 200_000)
	if err != nil {
		t.Fatalf("Swap: %v", err)
	}

	if result.TradeFee != 25 {
		t.Errorf("TradeFee = %d, want 25", result.TradeFee)
	}
	if result.ProtocolFee != 5 {
		t.Errorf("ProtocolFee = %d, want 5", result.ProtocolFee)
	}
	if result.FromAmount != 9_975 {
		t.Errorf("FromAmount = %d, want 9975", result.FromAmount)
	}
	if result.ToAmount != 9_876 {
		t.Errorf("ToAmount = %d, want 9876", result.ToAmount)
	}
	if result.FromAmount+result.TradeFee != 10_000 {
		t.Errorf("net input %d + trade fee %d should reassemble the gross input",
			result.FromAmount, result.TradeFee)
	}
}

func TestSwapZeroFeeRates(t *testing.T) {
	result, err := Swap(10_000, 1_000_000, 1_000_000, 0, 0)
	if err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if result.TradeFee != 0 || result.ProtocolFee != 0 {
		t.Errorf("zero rates should charge nothing, got trade=%d protocol=%d",
			result.TradeFee, result.ProtocolFee)
	}
	if result.FromAmount != 10_000 {
		t.Errorf("FromAmount = %d, want the full gross input", result.FromAmount)
	}
}

func TestSwapFeeAboveInput(t *testing.T) {
	// a rate above 100% quotes a fee larger than the input itself
	if _, err := Swap(10, 1_000_000, 1_000_000, 2_000_000, 0); err != ErrMathUnderflow {
		t.Errorf("expected ErrMathUnderflow, got %v", err)
	}
}

func BenchmarkSwap(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = Swap(1_000_000_000, 500_000_000_000, 250_000_000_000, 2_500, 200_000)
	}
}
