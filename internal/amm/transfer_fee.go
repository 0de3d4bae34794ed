package amm

// TransferFeeSchedule is the narrow view this core takes of a token's
// transfer-fee rules. The schedule is an opaque capability: the fee may be
// basis-point, tiered or flat, and may change with the epoch; the core only
// asks "what does moving preFeeAmount cost at this epoch". Implementations
// return ok=false when the fee cannot be computed.
//
// Token-2022 mints implement this via their transfer-fee extension; classic
// SPL mints have no schedule at all (callers pass nil).
type TransferFeeSchedule interface {
	CalculateEpochFee(epoch uint64, preFeeAmount uint64) (fee uint64, ok bool)
}

// TransferFee returns the token-level fee for moving preFeeAmount at the
// given epoch. A nil schedule means the mint charges nothing.
func TransferFee(schedule TransferFeeSchedule, preFeeAmount, epoch uint64) (uint64, error) {
	if schedule == nil {
		return 0, nil
	}
	fee, ok := schedule.CalculateEpochFee(epoch, preFeeAmount)
	if !ok {
		return 0, ErrMathOverflow
	}
	return fee, nil
}

// subTransferFee deducts a transfer fee from a gross amount, saturating at
// zero: a pathological schedule may quote a fee above the amount itself, and
// that is the one place underflow is not an invariant violation.
func subTransferFee(amount, fee uint64) uint64 {
	if fee >= amount {
		return 0
	}
	return amount - fee
}
