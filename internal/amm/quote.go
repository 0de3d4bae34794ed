package amm

import "fmt"

// AmmConfig is the immutable fee-rate snapshot a quote is priced against.
// It is passed by value so a quote can never observe a concurrent config
// change half-way through.
type AmmConfig struct {
	// TradeFeeRate is the trading fee numerator over MaxPercentage.
	TradeFeeRate uint64
	// ProtocolFeeRate is the protocol's share of the trade fee (not of the
	// trade amount), a numerator over MaxPercentage.
	ProtocolFeeRate uint64
	// RatioChangeToleranceRate bounds the post-trade available-ratio drift,
	// a numerator over MaxPercentage.
	RatioChangeToleranceRate uint64
	// Halted rejects all quotes before any math runs.
	Halted bool
}

// QuoteParams is one pool-state snapshot plus the trade to price against it.
// Reserves and locks are raw ledger balances; the orchestrator derives the
// tradable base itself.
type QuoteParams struct {
	// AmountIn is the nominal input before any transfer fee.
	AmountIn uint64
	// SwapXToY selects the trade direction.
	SwapXToY bool

	Config AmmConfig

	// TransferFeeX/Y are the per-mint transfer-fee schedules; nil for mints
	// without one.
	TransferFeeX TransferFeeSchedule
	TransferFeeY TransferFeeSchedule
	// Epoch indexes the transfer-fee schedules.
	Epoch uint64

	// ProtocolFeeX/Y are protocol-fee accruals sitting inside the reserves.
	ProtocolFeeX uint64
	ProtocolFeeY uint64
	// UserLockedX/Y are user funds locked by pending orders.
	UserLockedX uint64
	UserLockedY uint64
	// LockedX/Y are pool-level locks from earlier trades.
	LockedX uint64
	LockedY uint64
	// ReserveXBalance/YBalance are the pools' full token balances.
	ReserveXBalance uint64
	ReserveYBalance uint64
}

// QuoteOutput is the sole externally consumed artifact of a quote. The
// caller applies it atomically (moving tokens, crediting fees, recording the
// lock); this core never performs that application itself.
type QuoteOutput struct {
	// FromAmount is the net input applied to the invariant (post trade fee).
	FromAmount uint64
	// ToAmount is the gross output before the destination transfer fee.
	ToAmount uint64
	// FromAmountAfterTransferFees is the input net of the source mint's
	// transfer fee (what actually reached the pool), before the trade fee.
	FromAmountAfterTransferFees uint64
	// ToAmountAfterTransferFees is what the counterparty actually receives.
	ToAmountAfterTransferFees uint64

	TradeFee    uint64
	ProtocolFee uint64
	FromToLock  uint64
}

// Quote prices one exact-in trade against a pool snapshot: strip protocol
// fees, user locks and pool locks from the raw reserves, net out the source
// transfer fee, run the constant-product engine, solve the rebalance lock,
// apply the boundary checks and net out the destination transfer fee.
//
// Quote is a pure function: identical params yield identical output, and
// any failure is terminal for this call and reported as a distinct error
// kind, never silently clamped.
func Quote(p QuoteParams) (*QuoteOutput, error) {
	if p.Config.Halted {
		return nil, ErrAmmHalted
	}

	// Tradable base, step one: reserves minus protocol-fee accruals and
	// user-pending locks. These exceeding the raw balance is corrupted
	// upstream bookkeeping, not a market condition.
	totalX, err := checkedSub2(p.ReserveXBalance, p.ProtocolFeeX, p.UserLockedX)
	if err != nil {
		return nil, fmt.Errorf("%w: token X reserve accounting", err)
	}
	totalY, err := checkedSub2(p.ReserveYBalance, p.ProtocolFeeY, p.UserLockedY)
	if err != nil {
		return nil, fmt.Errorf("%w: token Y reserve accounting", err)
	}

	// Step two: exclude pool-level locks left behind by earlier trades.
	if p.LockedX > totalX {
		return nil, fmt.Errorf("%w: token X pool lock", ErrMathUnderflow)
	}
	if p.LockedY > totalY {
		return nil, fmt.Errorf("%w: token Y pool lock", ErrMathUnderflow)
	}
	availableX := totalX - p.LockedX
	availableY := totalY - p.LockedY

	var (
		srcSchedule, dstSchedule   TransferFeeSchedule
		availableSrc, availableDst uint64
		totalSrc, totalDst         uint64
	)
	if p.SwapXToY {
		srcSchedule, dstSchedule = p.TransferFeeX, p.TransferFeeY
		availableSrc, availableDst = availableX, availableY
		totalSrc, totalDst = totalX, totalY
	} else {
		srcSchedule, dstSchedule = p.TransferFeeY, p.TransferFeeX
		availableSrc, availableDst = availableY, availableX
		totalSrc, totalDst = totalY, totalX
	}

	// The pool only ever sees the input net of the token's own transfer fee.
	inFee, err := TransferFee(srcSchedule, p.AmountIn, p.Epoch)
	if err != nil {
		return nil, err
	}
	exchangeIn := subTransferFee(p.AmountIn, inFee)
	if exchangeIn == 0 {
		return nil, ErrInputAmountTooSmall
	}

	swapResult, err := Swap(
		exchangeIn,
		availableSrc,
		availableDst,
		p.Config.TradeFeeRate,
		p.Config.ProtocolFeeRate,
	)
	if err != nil {
		return nil, err
	}

	// The ratio baseline is the pre-pool-lock reserves: locks from earlier
	// trades are the drift being corrected, so they must not poison the
	// target ratio.
	rebalance, err := RebalancePoolRatio(
		swapResult.ToAmount,
		availableSrc,
		availableDst,
		totalSrc,
		totalDst,
		p.Config.RatioChangeToleranceRate,
	)
	if err != nil {
		return nil, err
	}
	if rebalance.IsRateToleranceExceeded {
		return nil, ErrTradeTooBig
	}

	// Reserve-exhaustion boundary. The comparison differs by direction
	// (>= for X to Y, > for Y to X), mirroring the on-chain program
	// exactly; unify only in lockstep with the program, never here alone.
	if p.SwapXToY {
		if rebalance.FromToLock >= availableSrc {
			return nil, ErrInsufficientPoolTokenXBalance
		}
	} else {
		if rebalance.FromToLock > availableSrc {
			return nil, ErrInsufficientPoolTokenYBalance
		}
	}

	outFee, err := TransferFee(dstSchedule, swapResult.ToAmount, p.Epoch)
	if err != nil {
		return nil, err
	}
	toAmountAfterFees := subTransferFee(swapResult.ToAmount, outFee)
	if toAmountAfterFees == 0 {
		return nil, ErrOutputIsZero
	}

	return &QuoteOutput{
		FromAmount:                  swapResult.FromAmount,
		ToAmount:                    swapResult.ToAmount,
		FromAmountAfterTransferFees: exchangeIn,
		ToAmountAfterTransferFees:   toAmountAfterFees,
		TradeFee:                    swapResult.TradeFee,
		ProtocolFee:                 swapResult.ProtocolFee,
		FromToLock:                  rebalance.FromToLock,
	}, nil
}

// checkedSub2 computes base - a - b, failing on underflow.
func checkedSub2(base, a, b uint64) (uint64, error) {
	if a > base {
		return 0, ErrMathUnderflow
	}
	rest := base - a
	if b > rest {
		return 0, ErrMathUnderflow
	}
	return rest - b, nil
}
