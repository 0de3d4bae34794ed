package http

import (
	"errors"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/darklakefi/dex-engine/internal/amm"
	"github.com/darklakefi/dex-engine/internal/engine"
	"github.com/darklakefi/dex-engine/internal/http/httputil"
)

type LiquidityHandler struct {
	engineSvc *engine.Service
}

func NewLiquidityHandler(engineSvc *engine.Service) *LiquidityHandler {
	return &LiquidityHandler{engineSvc: engineSvc}
}

func (h *LiquidityHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/deposit", h.getDepositQuote)
	pub.GET("/withdraw", h.getWithdrawQuote)
}

func (h *LiquidityHandler) Root() string {
	return "/liquidity"
}

// DepositQuoteResponse previews the shares minted for a two-sided deposit
type DepositQuoteResponse struct {
	Pool string `json:"pool" example:"HJPjoWUrhoZzkNfRpHuieeFk9WcZWjwy6PBjZ81ngndJ"`

	// Deposit amounts in smallest token units
	TokenXAmount string `json:"tokenXAmount" example:"1000000"`
	TokenYAmount string `json:"tokenYAmount" example:"2000000"`

	// Shares the deposit would mint at current reserves
	SharesToMint string `json:"sharesToMint" example:"1414213"`

	// Share supply before the deposit
	ShareSupply string `json:"shareSupply" example:"0"`
}

func (h *LiquidityHandler) getDepositQuote(c *gin.Context) {
	poolAddress, ok := parsePoolParam(c)
	if !ok {
		return
	}

	amountX, err := strconv.ParseUint(c.Query("amountX"), 10, 64)
	if err != nil {
		httputil.BadRequest(c, "invalid amountX: must be a non-negative integer")
		return
	}
	amountY, err := strconv.ParseUint(c.Query("amountY"), 10, 64)
	if err != nil {
		httputil.BadRequest(c, "invalid amountY: must be a non-negative integer")
		return
	}

	quote, err := h.engineSvc.GetDepositQuote(poolAddress, amountX, amountY)
	if err != nil {
		writeLiquidityError(c, err)
		return
	}

	httputil.Success(c, DepositQuoteResponse{
		Pool:         poolAddress.String(),
		TokenXAmount: strconv.FormatUint(quote.TokenXAmount, 10),
		TokenYAmount: strconv.FormatUint(quote.TokenYAmount, 10),
		SharesToMint: strconv.FormatUint(quote.SharesToMint, 10),
		ShareSupply:  strconv.FormatUint(quote.Pool.ShareSupply, 10),
	})
}

// WithdrawQuoteResponse previews the payout for burning shares
type WithdrawQuoteResponse struct {
	Pool string `json:"pool" example:"HJPjoWUrhoZzkNfRpHuieeFk9WcZWjwy6PBjZ81ngndJ"`

	// Shares being burned
	ShareAmount string `json:"shareAmount" example:"100000"`

	// Proportional payout in smallest token units
	TokenXAmount string `json:"tokenXAmount" example:"35136"`
	TokenYAmount string `json:"tokenYAmount" example:"70272"`

	// Share supply before the burn
	ShareSupply string `json:"shareSupply" example:"3513641828"`
}

func (h *LiquidityHandler) getWithdrawQuote(c *gin.Context) {
	poolAddress, ok := parsePoolParam(c)
	if !ok {
		return
	}

	shares, err := strconv.ParseUint(c.Query("shares"), 10, 64)
	if err != nil || shares == 0 {
		httputil.BadRequest(c, "invalid shares: must be a positive integer")
		return
	}

	quote, err := h.engineSvc.GetWithdrawQuote(poolAddress, shares)
	if err != nil {
		writeLiquidityError(c, err)
		return
	}

	httputil.Success(c, WithdrawQuoteResponse{
		Pool:         poolAddress.String(),
		ShareAmount:  strconv.FormatUint(quote.ShareAmount, 10),
		TokenXAmount: strconv.FormatUint(quote.TokenXAmount, 10),
		TokenYAmount: strconv.FormatUint(quote.TokenYAmount, 10),
		ShareSupply:  strconv.FormatUint(quote.Pool.ShareSupply, 10),
	})
}

func parsePoolParam(c *gin.Context) (solana.PublicKey, bool) {
	poolAddress, err := solana.PublicKeyFromBase58(c.Query("pool"))
	if err != nil {
		httputil.BadRequest(c, "invalid pool address")
		return solana.PublicKey{}, false
	}
	return poolAddress, true
}

func writeLiquidityError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrPoolNotFound):
		httputil.NotFound(c, err.Error())
	case errors.Is(err, amm.ErrMathOverflow):
		httputil.UnprocessableEntity(c, err.Error())
	default:
		httputil.InternalError(c, err.Error())
	}
}
