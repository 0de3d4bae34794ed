// Package amm implements the pricing core for a constant-product pool:
// fee math, the invariant swap formula, the ratio-rebalance solver, the
// quote orchestrator and the pool-share issuance/redemption math.
//
// Every function is a pure function over its arguments. All monetary
// quantities are uint64; intermediates go through uint256 so a product of
// two native-width values can never silently wrap. Rounding directions are
// load-bearing: fees charged to the user round up, fees retained by the
// protocol and amounts paid out round down. Getting any of these backwards
// is a value leak, not a cosmetic bug.
package amm

import "github.com/holiman/uint256"

// MaxPercentage is the fee-rate denominator: a rate of 1_000_000 is 100%.
const MaxPercentage uint64 = 1_000_000

var maxPercentageU256 = uint256.NewInt(MaxPercentage)

// ceilDiv computes ceil(amount * numerator / denominator) in 256-bit space.
func ceilDiv(amount, numerator, denominator *uint256.Int) (*uint256.Int, bool) {
	if denominator.IsZero() {
		return nil, false
	}
	product, overflow := new(uint256.Int).MulOverflow(amount, numerator)
	if overflow {
		return nil, false
	}
	sum, overflow := product.AddOverflow(product, denominator)
	if overflow {
		return nil, false
	}
	sum.SubUint64(sum, 1)
	return sum.Div(sum, denominator), true
}

// floorDiv computes floor(amount * numerator / denominator) in 256-bit space.
func floorDiv(amount, numerator, denominator *uint256.Int) (*uint256.Int, bool) {
	if denominator.IsZero() {
		return nil, false
	}
	product, overflow := new(uint256.Int).MulOverflow(amount, numerator)
	if overflow {
		return nil, false
	}
	return product.Div(product, denominator), true
}

// TradeFee returns the trading fee charged on a gross input amount,
// rounded up so the pool never under-collects. tradeFeeRate is a numerator
// over MaxPercentage.
func TradeFee(amount, tradeFeeRate uint64) (uint64, error) {
	fee, ok := ceilDiv(
		uint256.NewInt(amount),
		uint256.NewInt(tradeFeeRate),
		maxPercentageU256,
	)
	if !ok || !fee.IsUint64() {
		return 0, ErrMathOverflow
	}
	return fee.Uint64(), nil
}

// ProtocolFee returns the protocol's share of an already-computed trade fee,
// rounded down so it can never exceed the trade fee it is carved out of.
// protocolFeeRate is a numerator over MaxPercentage.
func ProtocolFee(tradeFeeAmount, protocolFeeRate uint64) (uint64, error) {
	fee, ok := floorDiv(
		uint256.NewInt(tradeFeeAmount),
		uint256.NewInt(protocolFeeRate),
		maxPercentageU256,
	)
	if !ok || !fee.IsUint64() {
		return 0, ErrMathOverflow
	}
	return fee.Uint64(), nil
}
