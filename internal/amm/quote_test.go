package amm

import (
	"errors"
	"testing"
)

// flatFeeSchedule charges a fixed fee regardless of amount or epoch.
type flatFeeSchedule struct {
	fee uint64
}

func (s flatFeeSchedule) CalculateEpochFee(epoch, preFeeAmount uint64) (uint64, bool) {
	return s.fee, true
}

// epochSwitchSchedule charges nothing before switchEpoch and a flat fee
// from it onward.
type epochSwitchSchedule struct {
	switchEpoch uint64
	fee         uint64
}

func (s epochSwitchSchedule) CalculateEpochFee(epoch, preFeeAmount uint64) (uint64, bool) {
	if epoch >= s.switchEpoch {
		return s.fee, true
	}
	return 0, true
}

type failingSchedule struct{}

func (failingSchedule) CalculateEpochFee(epoch, preFeeAmount uint64) (uint64, bool) {
	return 0, false
}

func baseQuoteParams() QuoteParams {
	return QuoteParams{
		AmountIn: 10_000,
		SwapXToY: true,
		Config: AmmConfig{
			TradeFeeRate:             2_500,
			ProtocolFeeRate:          200_000,
			RatioChangeToleranceRate: MaxPercentage,
		},
		ProtocolFeeX:    5_000,
		UserLockedX:     5_000,
		ReserveXBalance: 1_010_000,
		ReserveYBalance: 1_000_000,
	}
}

func TestQuoteFeeBreakdown(t *testing.T) {
	out, err := Quote(baseQuoteParams())
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	// available reserves are 1000000:1000000 after stripping the protocol
	// fee and user lock from the X side
	if out.FromAmountAfterTransferFees != 10_000 {
		t.Errorf("FromAmountAfterTransferFees = %d, want 10000 (no transfer fee)", out.FromAmountAfterTransferFees)
	}
	if out.TradeFee != 25 {
		t.Errorf("TradeFee = %d, want 25", out.TradeFee)
	}
	if out.ProtocolFee != 5 {
		t.Errorf("ProtocolFee = %d, want 5", out.ProtocolFee)
	}
	if out.FromAmount != 9_975 {
		t.Errorf("FromAmount = %d, want 9975", out.FromAmount)
	}
	if out.ToAmount != 9_876 {
		t.Errorf("ToAmount = %d, want 9876", out.ToAmount)
	}
	if out.ToAmountAfterTransferFees != 9_876 {
		t.Errorf("ToAmountAfterTransferFees = %d, want 9876 (no transfer fee)", out.ToAmountAfterTransferFees)
	}
	// on a balanced 1:1 pool the exact rebalance lock equals the output
	if out.FromToLock != 9_876 {
		t.Errorf("FromToLock = %d, want 9876", out.FromToLock)
	}
}

// An exact rebalance solution passes even a zero tolerance, so the same
// trade must price identically regardless of how tight the tolerance is.
func TestQuoteExactLockPassesZeroTolerance(t *testing.T) {
	p := baseQuoteParams()
	p.Config.RatioChangeToleranceRate = 0

	out, err := Quote(p)
	if err != nil {
		t.Fatalf("Quote with zero tolerance: %v", err)
	}
	if out.FromToLock != 9_876 {
		t.Errorf("FromToLock = %d, want 9876", out.FromToLock)
	}
}

func TestQuoteDeterministic(t *testing.T) {
	p := baseQuoteParams()
	first, err := Quote(p)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	second, err := Quote(p)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if *first != *second {
		t.Errorf("identical params produced different outputs: %+v vs %+v", first, second)
	}
}

func TestQuoteHalted(t *testing.T) {
	p := baseQuoteParams()
	p.Config.Halted = true

	if _, err := Quote(p); !errors.Is(err, ErrAmmHalted) {
		t.Errorf("expected ErrAmmHalted, got %v", err)
	}
}

func TestQuoteDirectionMirrors(t *testing.T) {
	p := baseQuoteParams()

	mirrored := p
	mirrored.SwapXToY = false
	mirrored.ProtocolFeeX, mirrored.ProtocolFeeY = p.ProtocolFeeY, p.ProtocolFeeX
	mirrored.UserLockedX, mirrored.UserLockedY = p.UserLockedY, p.UserLockedX
	mirrored.ReserveXBalance, mirrored.ReserveYBalance = p.ReserveYBalance, p.ReserveXBalance

	out, err := Quote(p)
	if err != nil {
		t.Fatalf("Quote x->y: %v", err)
	}
	mirroredOut, err := Quote(mirrored)
	if err != nil {
		t.Fatalf("Quote y->x: %v", err)
	}
	if *out != *mirroredOut {
		t.Errorf("mirrored pool should price identically: %+v vs %+v", out, mirroredOut)
	}
}

func TestQuoteSourceTransferFeeConsumesInput(t *testing.T) {
	p := baseQuoteParams()
	p.TransferFeeX = flatFeeSchedule{fee: 10_000}

	if _, err := Quote(p); !errors.Is(err, ErrInputAmountTooSmall) {
		t.Errorf("expected ErrInputAmountTooSmall, got %v", err)
	}
}

func TestQuoteDestTransferFeeConsumesOutput(t *testing.T) {
	p := baseQuoteParams()
	p.TransferFeeY = flatFeeSchedule{fee: 1_000_000}

	if _, err := Quote(p); !errors.Is(err, ErrOutputIsZero) {
		t.Errorf("expected ErrOutputIsZero, got %v", err)
	}
}

func TestQuoteTransferFeeReducesAmounts(t *testing.T) {
	p := baseQuoteParams()
	p.TransferFeeX = flatFeeSchedule{fee: 1_000}
	p.TransferFeeY = flatFeeSchedule{fee: 500}

	out, err := Quote(p)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if out.FromAmountAfterTransferFees != 9_000 {
		t.Errorf("FromAmountAfterTransferFees = %d, want 9000", out.FromAmountAfterTransferFees)
	}
	if out.ToAmountAfterTransferFees != out.ToAmount-500 {
		t.Errorf("ToAmountAfterTransferFees = %d, want ToAmount-500 = %d",
			out.ToAmountAfterTransferFees, out.ToAmount-500)
	}
}

func TestQuoteEpochSelectsFeeRule(t *testing.T) {
	p := baseQuoteParams()
	p.TransferFeeX = epochSwitchSchedule{switchEpoch: 100, fee: 1_000}

	p.Epoch = 99
	before, err := Quote(p)
	if err != nil {
		t.Fatalf("Quote at epoch 99: %v", err)
	}
	if before.FromAmountAfterTransferFees != 10_000 {
		t.Errorf("epoch 99 should charge nothing, got net input %d", before.FromAmountAfterTransferFees)
	}

	p.Epoch = 100
	after, err := Quote(p)
	if err != nil {
		t.Fatalf("Quote at epoch 100: %v", err)
	}
	if after.FromAmountAfterTransferFees != 9_000 {
		t.Errorf("epoch 100 should charge 1000, got net input %d", after.FromAmountAfterTransferFees)
	}
}

func TestQuoteFailingSchedule(t *testing.T) {
	p := baseQuoteParams()
	p.TransferFeeX = failingSchedule{}

	if _, err := Quote(p); !errors.Is(err, ErrMathOverflow) {
		t.Errorf("expected ErrMathOverflow, got %v", err)
	}
}

func TestQuoteCorruptedAccounting(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*QuoteParams)
	}{
		{
			name:   "protocol fee exceeds reserve",
			mutate: func(p *QuoteParams) { p.ProtocolFeeX = p.ReserveXBalance + 1 },
		},
		{
			name:   "user lock exceeds remainder",
			mutate: func(p *QuoteParams) { p.UserLockedY = p.ReserveYBalance + 1 },
		},
		{
			name:   "pool lock exceeds total",
			mutate: func(p *QuoteParams) { p.LockedX = p.ReserveXBalance },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseQuoteParams()
			tt.mutate(&p)
			if _, err := Quote(p); !errors.Is(err, ErrMathUnderflow) {
				t.Errorf("expected ErrMathUnderflow, got %v", err)
			}
		})
	}
}

func TestQuoteTradeTooBig(t *testing.T) {
	// a lopsided pool with a tight tolerance: the residual drift after the
	// best integer lock is too large
	p := QuoteParams{
		AmountIn: 10,
		SwapXToY: true,
		Config: AmmConfig{
			TradeFeeRate:             0,
			ProtocolFeeRate:          0,
			RatioChangeToleranceRate: 100,
		},
		ReserveXBalance: 100,
		ReserveYBalance: 1_000_000,
	}

	if _, err := Quote(p); !errors.Is(err, ErrTradeTooBig) {
		t.Errorf("expected ErrTradeTooBig, got %v", err)
	}
}

func BenchmarkQuote(b *testing.B) {
	b.ReportAllocs()
	p := baseQuoteParams()
	for i := 0; i < b.N; i++ {
		_, _ = Quote(p)
	}
}
