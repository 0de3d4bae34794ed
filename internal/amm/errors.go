package amm

import "errors"

var (
	// ErrMathOverflow is returned when an arithmetic step exceeds its integer
	// range. It is terminal for the current call and never retried here.
	ErrMathOverflow = errors.New("math overflow")

	// ErrMathUnderflow is returned when a subtraction would go negative.
	// Inside a quote this means upstream bookkeeping is broken (an accrued
	// fee or lock larger than the reserve it was taken from), so it is a
	// fatal invariant violation rather than a recoverable business error.
	ErrMathUnderflow = errors.New("math underflow")

	// ErrInputAmountTooSmall is returned when the nominal input collapses to
	// zero after the token-level transfer fee.
	ErrInputAmountTooSmall = errors.New("input amount too small")

	// ErrOutputIsZero is returned when the gross output collapses to zero
	// after the token-level transfer fee.
	ErrOutputIsZero = errors.New("output is zero")

	// ErrTradeTooBig is returned when the rebalance solver cannot keep the
	// post-trade reserve ratio inside the configured tolerance.
	ErrTradeTooBig = errors.New("trade too big, exceeds max rate tolerance")

	// ErrInsufficientPoolTokenXBalance is returned when the computed lock
	// would consume the entire available X reserve.
	ErrInsufficientPoolTokenXBalance = errors.New("insufficient pool token X balance")

	// ErrInsufficientPoolTokenYBalance is returned when the computed lock
	// would exceed the available Y reserve.
	ErrInsufficientPoolTokenYBalance = errors.New("insufficient pool token Y balance")

	// ErrAmmHalted is returned when the pool's config snapshot has trading
	// halted.
	ErrAmmHalted = errors.New("amm is halted")
)
