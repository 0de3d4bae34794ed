package amm

import "github.com/holiman/uint256"

// DepositShares returns the pool-share tokens to mint for a two-sided
// deposit.
//
// The first depositor bootstraps the pool and receives
// floor(sqrt(amountA*amountB)), which fixes the initial price. The square
// root is an exact integer root over the 128-bit product; no floating point
// is involved, so the bootstrap mint is reproducible bit-for-bit.
//
// Every later depositor receives the minimum of the two proportional
// shares, floored. Taking the minimum means a lopsided deposit donates its
// excess side to existing holders instead of diluting them.
func DepositShares(tokenAAmount, tokenBAmount, totalShareSupply, reserveA, reserveB uint64) (uint64, error) {
	if totalShareSupply == 0 {
		product := new(uint256.Int).Mul(
			uint256.NewInt(tokenAAmount),
			uint256.NewInt(tokenBAmount),
		)
		// sqrt of a 128-bit product always fits in 64 bits
		return product.Sqrt(product).Uint64(), nil
	}

	if reserveA == 0 || reserveB == 0 {
		// nonzero supply over an empty reserve is broken pool accounting
		return 0, ErrMathOverflow
	}

	supply := uint256.NewInt(totalShareSupply)
	sharesA, ok := floorDiv(uint256.NewInt(tokenAAmount), supply, uint256.NewInt(reserveA))
	if !ok {
		return 0, ErrMathOverflow
	}
	sharesB, ok := floorDiv(uint256.NewInt(tokenBAmount), supply, uint256.NewInt(reserveB))
	if !ok {
		return 0, ErrMathOverflow
	}

	shares := sharesA
	if sharesB.Cmp(sharesA) < 0 {
		shares = sharesB
	}
	if !shares.IsUint64() {
		return 0, ErrMathOverflow
	}
	return shares.Uint64(), nil
}

// WithdrawAmounts returns the proportional payout for burning shareAmount
// pool-share tokens, floored on both sides. Burning against a zero supply
// pays out nothing.
func WithdrawAmounts(shareAmount, totalShareSupply, reserveA, reserveB uint64) (uint64, uint64, error) {
	if totalShareSupply == 0 {
		return 0, 0, nil
	}

	shares := uint256.NewInt(shareAmount)
	supply := uint256.NewInt(totalShareSupply)

	amountA, ok := floorDiv(shares, uint256.NewInt(reserveA), supply)
	if !ok || !amountA.IsUint64() {
		return 0, 0, ErrMathOverflow
	}
	amountB, ok := floorDiv(shares, uint256.NewInt(reserveB), supply)
	if !ok || !amountB.IsUint64() {
		return 0, 0, ErrMathOverflow
	}
	return amountA.Uint64(), amountB.Uint64(), nil
}
