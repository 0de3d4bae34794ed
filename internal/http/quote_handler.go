package http

import (
	"errors"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/darklakefi/dex-engine/internal/amm"
	"github.com/darklakefi/dex-engine/internal/domain"
	"github.com/darklakefi/dex-engine/internal/engine"
	"github.com/darklakefi/dex-engine/internal/http/httputil"
)

type QuoteHandler struct {
	engineSvc *engine.Service
}

func NewQuoteHandler(engineSvc *engine.Service) *QuoteHandler {
	return &QuoteHandler{engineSvc: engineSvc}
}

func (h *QuoteHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getQuote)
}

func (h *QuoteHandler) Root() string {
	return "/quote"
}

// QuoteRequest represents the parameters for requesting a swap quote
type QuoteRequest struct {
	// Pool address to trade against (Solana base58 public key)
	Pool string `form:"pool" binding:"required" example:"HJPjoWUrhoZzkNfRpHuieeFk9WcZWjwy6PBjZ81ngndJ"`

	// Input token mint address; determines the trade direction
	InputMint string `form:"inputMint" binding:"required" example:"So11111111111111111111111111111111111111112"`

	// Gross input amount in smallest token units, before transfer fees
	Amount string `form:"amount" binding:"required" example:"1000000000"`

	// Transfer-fee epoch override. When omitted the current epoch is used.
	// Useful for replaying historical quotes against a known epoch.
	Epoch string `form:"epoch" example:"612"`

	// Slippage tolerance in basis points (1 bps = 0.01%)
	// Default: 50 bps (0.5%)
	SlippageBps uint16 `form:"slippageBps" example:"50"`
}

// QuoteResponse contains the priced swap with its full fee breakdown
type QuoteResponse struct {
	// Pool address the quote was priced against
	Pool string `json:"pool" example:"HJPjoWUrhoZzkNfRpHuieeFk9WcZWjwy6PBjZ81ngndJ"`

	// Input and output token mints
	InputMint  string `json:"inputMint" example:"So11111111111111111111111111111111111111112"`
	OutputMint string `json:"outputMint" example:"uSd2czE61Evaf76RNbq4KPpXnkiL3irdzgLFUMe3NoG"`

	// Gross input amount as requested
	AmountIn string `json:"amountIn" example:"1000000000"`

	// Input amount after the source mint's transfer fee; this is what the
	// curve actually prices
	AmountInAfterTransferFee string `json:"amountInAfterTransferFee" example:"999000000"`

	// Output amount debited from the pool
	AmountOut string `json:"amountOut" example:"145320000"`

	// Output amount after the destination mint's transfer fee; this is
	// what the trader receives
	AmountOutAfterTransferFee string `json:"amountOutAfterTransferFee" example:"145174680"`

	// Trade fee charged on the input, and the protocol's cut of it
	TradeFee    string `json:"tradeFee" example:"2500000"`
	ProtocolFee string `json:"protocolFee" example:"500000"`

	// Source-side amount set aside to restore the pool's original ratio
	FromToLock string `json:"fromToLock" example:"120"`

	// Transfer-fee epoch the quote was priced at
	Epoch uint64 `json:"epoch" example:"612"`

	// Minimum received after applying slippage to amountOutAfterTransferFee
	MinAmountOut string `json:"minAmountOut" example:"144448806"`
}

func (h *QuoteHandler) getQuote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}

	poolAddress, err := solana.PublicKeyFromBase58(req.Pool)
	if err != nil {
		httputil.BadRequest(c, "invalid pool address")
		return
	}

	inputMint, err := solana.PublicKeyFromBase58(req.InputMint)
	if err != nil {
		httputil.BadRequest(c, "invalid inputMint address")
		return
	}

	amount, err := strconv.ParseUint(req.Amount, 10, 64)
	if err != nil || amount == 0 {
		httputil.BadRequest(c, "invalid amount: must be a positive integer")
		return
	}

	var epochOverride *uint64
	if req.Epoch != "" {
		epoch, err := strconv.ParseUint(req.Epoch, 10, 64)
		if err != nil {
			httputil.BadRequest(c, "invalid epoch")
			return
		}
		epochOverride = &epoch
	}

	slippageBps := req.SlippageBps
	if slippageBps == 0 {
		slippageBps = 50
	}
	if slippageBps >= 10000 {
		httputil.BadRequest(c, "invalid slippageBps: must be below 10000")
		return
	}

	result, err := h.engineSvc.GetQuote(c.Request.Context(), poolAddress, inputMint, amount, epochOverride)
	if err != nil {
		writeQuoteError(c, err)
		return
	}

	httputil.Success(c, buildQuoteResponse(result, slippageBps))
}

func buildQuoteResponse(result *domain.QuoteResult, slippageBps uint16) QuoteResponse {
	out := result.Output
	srcMint, dstMint := result.Pool.MintFor(result.XToY)

	return QuoteResponse{
		Pool:                      result.Pool.Address.String(),
		InputMint:                 srcMint.String(),
		OutputMint:                dstMint.String(),
		AmountIn:                  strconv.FormatUint(result.AmountIn, 10),
		AmountInAfterTransferFee:  strconv.FormatUint(out.FromAmountAfterTransferFees, 10),
		AmountOut:                 strconv.FormatUint(out.ToAmount, 10),
		AmountOutAfterTransferFee: strconv.FormatUint(out.ToAmountAfterTransferFees, 10),
		TradeFee:                  strconv.FormatUint(out.TradeFee, 10),
		ProtocolFee:               strconv.FormatUint(out.ProtocolFee, 10),
		FromToLock:                strconv.FormatUint(out.FromToLock, 10),
		Epoch:                     result.Epoch,
		MinAmountOut:              strconv.FormatUint(applySlippage(out.ToAmountAfterTransferFees, slippageBps), 10),
	}
}

// applySlippage floors amount * (10000 - bps) / 10000 without overflowing
// uint64 on large amounts.
func applySlippage(amount uint64, bps uint16) uint64 {
	keep := uint64(10000 - bps)
	return (amount/10000)*keep + (amount%10000)*keep/10000
}

func writeQuoteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrPoolNotFound):
		httputil.NotFound(c, err.Error())
	case errors.Is(err, engine.ErrUnknownInputMint):
		httputil.BadRequest(c, err.Error())
	case errors.Is(err, amm.ErrTradeTooBig),
		errors.Is(err, amm.ErrAmmHalted),
		errors.Is(err, amm.ErrInputAmountTooSmall),
		errors.Is(err, amm.ErrOutputIsZero),
		errors.Is(err, amm.ErrInsufficientPoolTokenXBalance),
		errors.Is(err, amm.ErrInsufficientPoolTokenYBalance),
		errors.Is(err, amm.ErrMathOverflow),
		errors.Is(err, amm.ErrMathUnderflow):
		httputil.UnprocessableEntity(c, err.Error())
	default:
		httputil.InternalError(c, err.Error())
	}
}
