package amm

import "github.com/holiman/uint256"

// SwapResult is the outcome of pricing a single exact-in swap against the
// constant-product curve.
type SwapResult struct {
	// FromAmount is the net input actually applied to the invariant, after
	// the trade fee was deducted.
	FromAmount uint64
	// ToAmount is the gross output before any token-level transfer fee.
	ToAmount uint64

	// TradeFee is the fee charged on the gross input, rounded up.
	TradeFee uint64
	// ProtocolFee is the protocol's share of TradeFee, rounded down, so
	// ProtocolFee <= TradeFee always.
	ProtocolFee uint64
}

// SwapWithoutFees solves x*y=k for the output side:
//
//	out = floor(netIn * dstReserve / (srcReserve + netIn))
//
// The floor guarantees (srcReserve+netIn)*(dstReserve-out) >= srcReserve*dstReserve,
// i.e. a swap can increase the invariant but never decrease it.
//
// Valid for 1 <= srcReserve*dstReserve <= 2^128-1 and 1 <= netIn <= 2^64-1;
// callers validate reserves before pricing against them.
func SwapWithoutFees(sourceAmount, poolSourceAmount, poolDestinationAmount uint64) (uint64, error) {
	numerator, overflow := new(uint256.Int).MulOverflow(
		uint256.NewInt(sourceAmount),
		uint256.NewInt(poolDestinationAmount),
	)
	if overflow {
		return 0, ErrMathOverflow
	}
	denominator, overflow := new(uint256.Int).AddOverflow(
		uint256.NewInt(poolSourceAmount),
		uint256.NewInt(sourceAmount),
	)
	if overflow || denominator.IsZero() {
		return 0, ErrMathOverflow
	}
	out := numerator.Div(numerator, denominator)
	if !out.IsUint64() {
		return 0, ErrMathOverflow
	}
	return out.Uint64(), nil
}

// Swap prices a gross exact-in amount: charge the trade fee (ceil), carve
// the protocol share out of it (floor), then run the remainder through the
// invariant formula. It fails only on arithmetic overflow; business-rule
// rejections (trade too big, reserve exhaustion) belong to the quote
// orchestrator.
func Swap(sourceAmount, poolSourceAmount, poolDestinationAmount, tradeFeeRate, protocolFeeRate uint64) (*SwapResult, error) {
	tradeFee, err := TradeFee(sourceAmount, tradeFeeRate)
	if err != nil {
		return nil, err
	}
	protocolFee, err := ProtocolFee(tradeFee, protocolFeeRate)
	if err != nil {
		return nil, err
	}

	// tradeFee <= sourceAmount whenever tradeFeeRate <= MaxPercentage, but
	// rates are caller-supplied so the subtraction stays checked.
	if tradeFee > sourceAmount {
		return nil, ErrMathUnderflow
	}
	sourceAmountPostFees := sourceAmount - tradeFee

	destinationAmountSwapped, err := SwapWithoutFees(
		sourceAmountPostFees,
		poolSourceAmount,
		poolDestinationAmount,
	)
	if err != nil {
		return nil, err
	}

	return &SwapResult{
		FromAmount:  sourceAmountPostFees,
		ToAmount:    destinationAmountSwapped,
		TradeFee:    tradeFee,
		ProtocolFee: protocolFee,
	}, nil
}
