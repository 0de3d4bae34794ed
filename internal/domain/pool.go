package domain

import (
	"github.com/gagliardetto/solana-go"

	"github.com/darklakefi/dex-engine/internal/amm"
)

type PoolRegistry map[solana.PublicKey]*Pool

// Pool is one constant-product pool's accounting snapshot as the engine
// tracks it: full reserves plus the side-effects that shrink the tradable
// base (protocol-fee accruals, user-pending locks, pool-level locks), and
// the fee-rate config the pool trades under.
type Pool struct {
	Address solana.PublicKey `json:"address"`

	TokenMintX    solana.PublicKey `json:"tokenMintX"`
	TokenMintY    solana.PublicKey `json:"tokenMintY"`
	TokenProgramX solana.PublicKey `json:"tokenProgramX"`
	TokenProgramY solana.PublicKey `json:"tokenProgramY"`

	ReserveX uint64 `json:"reserveX"`
	ReserveY uint64 `json:"reserveY"`

	ProtocolFeeX uint64 `json:"protocolFeeX"`
	ProtocolFeeY uint64 `json:"protocolFeeY"`
	UserLockedX  uint64 `json:"userLockedX"`
	UserLockedY  uint64 `json:"userLockedY"`
	LockedX      uint64 `json:"lockedX"`
	LockedY      uint64 `json:"lockedY"`

	ShareSupply uint64 `json:"shareSupply"`

	Config amm.AmmConfig `json:"config"`

	LastUpdatedSlot uint64 `json:"lastUpdatedSlot"`
}

// MintFor maps a trade direction to the source and destination mints.
func (p *Pool) MintFor(xToY bool) (src, dst solana.PublicKey) {
	if xToY {
		return p.TokenMintX, p.TokenMintY
	}
	return p.TokenMintY, p.TokenMintX
}

// QuoteParams assembles the pricing-core call for one trade against this
// pool snapshot. The transfer-fee schedules belong to the mints, not the
// pool, so the caller resolves them (nil for mints without one).
func (p *Pool) QuoteParams(amountIn uint64, xToY bool, epoch uint64, feeX, feeY amm.TransferFeeSchedule) amm.QuoteParams {
	return amm.QuoteParams{
		AmountIn:        amountIn,
		SwapXToY:        xToY,
		Config:          p.Config,
		TransferFeeX:    feeX,
		TransferFeeY:    feeY,
		Epoch:           epoch,
		ProtocolFeeX:    p.ProtocolFeeX,
		ProtocolFeeY:    p.ProtocolFeeY,
		UserLockedX:     p.UserLockedX,
		UserLockedY:     p.UserLockedY,
		LockedX:         p.LockedX,
		LockedY:         p.LockedY,
		ReserveXBalance: p.ReserveX,
		ReserveYBalance: p.ReserveY,
	}
}
