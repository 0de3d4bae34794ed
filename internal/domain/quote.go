package domain

import (
	"github.com/gagliardetto/solana-go"

	"github.com/darklakefi/dex-engine/internal/amm"
)

// QuoteResult pairs a priced trade with the pool it was priced against.
type QuoteResult struct {
	Pool     *Pool
	XToY     bool
	AmountIn uint64
	Epoch    uint64
	Output   *amm.QuoteOutput
}

// DepositQuote is the share mint preview for a two-sided deposit.
type DepositQuote struct {
	Pool         *Pool
	TokenXAmount uint64
	TokenYAmount uint64
	SharesToMint uint64
}

// WithdrawQuote is the proportional payout preview for burning shares.
type WithdrawQuote struct {
	Pool         *Pool
	ShareAmount  uint64
	TokenXAmount uint64
	TokenYAmount uint64
}

// MintInfo is the token-level data the engine needs about one mint: which
// token program owns it and, for Token-2022 mints, its transfer-fee
// schedule (nil when the mint has none).
type MintInfo struct {
	Mint     solana.PublicKey
	Program  solana.PublicKey
	Schedule amm.TransferFeeSchedule
}
