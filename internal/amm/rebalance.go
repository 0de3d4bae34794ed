package amm

import "github.com/holiman/uint256"

// RebalanceResult is the outcome of the ratio-rebalance solver for one
// quote. It is computed fresh per call and never persisted.
type RebalanceResult struct {
	// FromToLock is the amount to additionally set aside from the source
	// side so the post-trade available ratio tracks the pre-trade one.
	FromToLock uint64
	// IsRateToleranceExceeded reports that no lock in the search window
	// keeps the ratio drift inside the configured tolerance.
	IsRateToleranceExceeded bool
}

// rebalanceWindow is the number of integer lock candidates examined around
// the real-valued solution. The real solution's floor/ceil are not
// guaranteed to be the minimal-error integer once clamping and the
// zero-ratio exclusion apply, hence the small local scan.
const rebalanceWindow = 3

// RebalancePoolRatio computes how much of the source reserve must be held
// back after a swap so that
//
//	(currentSrc - lock) / (currentDst - toAmountSwapped)
//
// stays as close as possible to originalSrc/originalDst, and whether the
// residual drift exceeds toleranceRate (a numerator over MaxPercentage).
//
// All ratio comparisons are exact: instead of evaluating the real-valued
// ratios, candidate errors are compared by cross-multiplied integer
// numerators over the common denominator remaining*originalDst. This keeps
// candidate selection and tie-breaking bit-identical across platforms,
// which float64 intermediates cannot guarantee at large reserve magnitudes.
//
// Candidates are scanned upward from the low edge of the window; a later
// candidate replaces the incumbent only on strictly smaller error, so
// equal-error ties keep the lower lock. Callers that re-derive the lock
// must reproduce this scan order, not just "some minimal-error value".
func RebalancePoolRatio(
	toAmountSwapped uint64,
	currentSourceReserve uint64,
	currentDestReserve uint64,
	originalSourceReserve uint64,
	originalDestReserve uint64,
	toleranceRate uint64,
) (*RebalanceResult, error) {
	// Defensive terminal cases: draining the destination side or pricing
	// against an empty reserve. Unreachable given upstream validation, but
	// a pricing function does not get to assume that.
	if toAmountSwapped >= currentDestReserve ||
		currentSourceReserve == 0 ||
		originalSourceReserve == 0 ||
		originalDestReserve == 0 {
		return &RebalanceResult{FromToLock: 0, IsRateToleranceExceeded: true}, nil
	}

	remainingDest := currentDestReserve - toAmountSwapped

	origSrc := uint256.NewInt(originalSourceReserve)
	origDst := uint256.NewInt(originalDestReserve)
	remaining := uint256.NewInt(remainingDest)

	// Real solution: lock* = currentSrc - remaining * origSrc/origDst.
	// floored = floor(remaining * origSrc / origDst), so lock* sits in
	// (currentSrc - floored - 1, currentSrc - floored].
	floored, overflow := new(uint256.Int).MulOverflow(remaining, origSrc)
	if overflow {
		return nil, ErrMathOverflow
	}
	floored.Div(floored, origDst)

	// Window start one below the bracketed solution, clamped to zero.
	var start uint64
	lowEdge := new(uint256.Int).AddUint64(floored, 1)
	src := uint256.NewInt(currentSourceReserve)
	if lowEdge.Cmp(src) < 0 {
		start = currentSourceReserve - lowEdge.Uint64()
	}

	var (
		bestLock  uint64
		bestErr   *uint256.Int
		target, _ = new(uint256.Int).MulOverflow(origSrc, remaining)
		scaled    = new(uint256.Int)
	)
	for i := uint64(0); i < rebalanceWindow; i++ {
		candidate := start + i
		if candidate >= currentSourceReserve {
			// candidate == currentSrc would zero the new ratio; anything
			// above is outside the clamp. The scan is upward, so stop.
			break
		}
		// err(candidate) = |(currentSrc-candidate)*origDst - origSrc*remaining|
		// over the common denominator remaining*origDst, which cancels when
		// comparing candidates.
		scaled.Mul(uint256.NewInt(currentSourceReserve-candidate), origDst)
		errNum := new(uint256.Int)
		if scaled.Cmp(target) >= 0 {
			errNum.Sub(scaled, target)
		} else {
			errNum.Sub(target, scaled)
		}
		if bestErr == nil || errNum.Cmp(bestErr) < 0 {
			bestErr = errNum
			bestLock = candidate
		}
	}
	if bestErr == nil {
		// currentSourceReserve == 0 is handled above, so the window always
		// contains at least candidate 0.
		return &RebalanceResult{FromToLock: 0, IsRateToleranceExceeded: true}, nil
	}

	// |finalRatio - targetRatio| / targetRatio > toleranceRate / MaxPercentage
	// cross-multiplied into integers:
	//   bestErr * MaxPercentage > toleranceRate * origSrc * remaining
	lhs, overflow := new(uint256.Int).MulOverflow(bestErr, maxPercentageU256)
	if overflow {
		return nil, ErrMathOverflow
	}
	rhs, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(toleranceRate), target)
	if overflow {
		return nil, ErrMathOverflow
	}

	return &RebalanceResult{
		FromToLock:              bestLock,
		IsRateToleranceExceeded: lhs.Cmp(rhs) > 0,
	}, nil
}
