package http

import (
	"sort"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/darklakefi/dex-engine/internal/amm"
	"github.com/darklakefi/dex-engine/internal/domain"
	"github.com/darklakefi/dex-engine/internal/engine"
	"github.com/darklakefi/dex-engine/internal/http/httputil"
)

type PoolHandler struct {
	engineSvc *engine.Service
}

func NewPoolHandler(engineSvc *engine.Service) *PoolHandler {
	return &PoolHandler{engineSvc: engineSvc}
}

func (h *PoolHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/stats", h.getStats)
	pub.GET("/list", h.listPools)
	pub.GET("/:address", h.getPool)

	admin.POST("", h.upsertPool)
	admin.POST("/:address/halt", h.setHalted)
}

func (h *PoolHandler) Root() string {
	return "/pools"
}

// PoolStatsResponse contains aggregated statistics about tracked pools
type PoolStatsResponse struct {
	// Total number of pools tracked by the engine
	PoolCount int `json:"pool_count" example:"42"`

	// Highest slot any tracked pool snapshot was taken at
	LastUpdatedSlot uint64 `json:"last_updated_slot" example:"245831456"`
}

func (h *PoolHandler) getStats(c *gin.Context) {
	poolCount, lastSlot := h.engineSvc.GetStats()
	httputil.Success(c, PoolStatsResponse{
		PoolCount:       poolCount,
		LastUpdatedSlot: lastSlot,
	})
}

// PoolInfo contains summary information about one pool
type PoolInfo struct {
	// Pool address (Solana public key)
	Address string `json:"address" example:"HJPjoWUrhoZzkNfRpHuieeFk9WcZWjwy6PBjZ81ngndJ"`

	// Token mints of the pair
	TokenMintX string `json:"token_mint_x" example:"So11111111111111111111111111111111111111112"`
	TokenMintY string `json:"token_mint_y" example:"uSd2czE61Evaf76RNbq4KPpXnkiL3irdzgLFUMe3NoG"`

	// Whether the pool currently rejects quotes
	Halted bool `json:"halted" example:"false"`
}

// PoolListResponse contains a paginated list of pools
type PoolListResponse struct {
	Pools []PoolInfo `json:"pools"`

	// Total number of pools across all pages
	Total int `json:"total" example:"42"`

	// Current page number (1-indexed)
	Page int `json:"page" example:"1"`

	// Number of pools per page (max 500)
	Limit int `json:"limit" example:"100"`

	// Total number of pages available
	Pages int `json:"pages" example:"1"`
}

func (h *PoolHandler) listPools(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	allPools := h.engineSvc.ListPools()
	sort.Slice(allPools, func(i, j int) bool {
		return allPools[i].Address.String() < allPools[j].Address.String()
	})
	total := len(allPools)

	pages := (total + limit - 1) / limit
	offset := (page - 1) * limit
	end := offset + limit
	if offset > total {
		offset = total
	}
	if end > total {
		end = total
	}

	pools := make([]PoolInfo, 0, end-offset)
	for _, pool := range allPools[offset:end] {
		pools = append(pools, PoolInfo{
			Address:    pool.Address.String(),
			TokenMintX: pool.TokenMintX.String(),
			TokenMintY: pool.TokenMintY.String(),
			Halted:     pool.Config.Halted,
		})
	}

	httputil.Success(c, PoolListResponse{
		Pools: pools,
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: pages,
	})
}

// PoolDetailResponse contains the full accounting snapshot of one pool
type PoolDetailResponse struct {
	Address string `json:"address" example:"HJPjoWUrhoZzkNfRpHuieeFk9WcZWjwy6PBjZ81ngndJ"`

	TokenMintX    string `json:"token_mint_x" example:"So11111111111111111111111111111111111111112"`
	TokenMintY    string `json:"token_mint_y" example:"uSd2czE61Evaf76RNbq4KPpXnkiL3irdzgLFUMe3NoG"`
	TokenProgramX string `json:"token_program_x,omitempty"`
	TokenProgramY string `json:"token_program_y,omitempty"`

	// Full reserve balances in smallest units
	ReserveX string `json:"reserve_x" example:"1234567890123"`
	ReserveY string `json:"reserve_y" example:"9876543210987"`

	// Balances carved out of the reserves and not tradable
	ProtocolFeeX string `json:"protocol_fee_x" example:"120000"`
	ProtocolFeeY string `json:"protocol_fee_y" example:"450000"`
	UserLockedX  string `json:"user_locked_x" example:"0"`
	UserLockedY  string `json:"user_locked_y" example:"0"`
	LockedX      string `json:"locked_x" example:"300"`
	LockedY      string `json:"locked_y" example:"0"`

	// Outstanding LP share supply
	ShareSupply string `json:"share_supply" example:"3513641828"`

	// Fee rates as parts per million (1000000 = 100%)
	TradeFeeRate             uint64 `json:"trade_fee_rate" example:"2500"`
	ProtocolFeeRate          uint64 `json:"protocol_fee_rate" example:"200000"`
	RatioChangeToleranceRate uint64 `json:"ratio_change_tolerance_rate" example:"5000"`
	Halted                   bool   `json:"halted" example:"false"`

	// Solana slot number when pool data was last updated
	LastUpdatedSlot uint64 `json:"last_updated_slot" example:"245831456"`
}

func (h *PoolHandler) getPool(c *gin.Context) {
	address, err := solana.PublicKeyFromBase58(c.Param("address"))
	if err != nil {
		httputil.BadRequest(c, "invalid pool address")
		return
	}

	pool, err := h.engineSvc.GetPool(address)
	if err != nil {
		httputil.NotFound(c, "pool not found")
		return
	}

	httputil.Success(c, poolToDetail(pool))
}

func poolToDetail(pool *domain.Pool) PoolDetailResponse {
	detail := PoolDetailResponse{
		Address:    pool.Address.String(),
		TokenMintX: pool.TokenMintX.String(),
		TokenMintY: pool.TokenMintY.String(),

		ReserveX: strconv.FormatUint(pool.ReserveX, 10),
		ReserveY: strconv.FormatUint(pool.ReserveY, 10),

		ProtocolFeeX: strconv.FormatUint(pool.ProtocolFeeX, 10),
		ProtocolFeeY: strconv.FormatUint(pool.ProtocolFeeY, 10),
		UserLockedX:  strconv.FormatUint(pool.UserLockedX, 10),
		UserLockedY:  strconv.FormatUint(pool.UserLockedY, 10),
		LockedX:      strconv.FormatUint(pool.LockedX, 10),
		LockedY:      strconv.FormatUint(pool.LockedY, 10),

		ShareSupply: strconv.FormatUint(pool.ShareSupply, 10),

		TradeFeeRate:             pool.Config.TradeFeeRate,
		ProtocolFeeRate:          pool.Config.ProtocolFeeRate,
		RatioChangeToleranceRate: pool.Config.RatioChangeToleranceRate,
		Halted:                   pool.Config.Halted,

		LastUpdatedSlot: pool.LastUpdatedSlot,
	}

	if !pool.TokenProgramX.IsZero() {
		detail.TokenProgramX = pool.TokenProgramX.String()
	}
	if !pool.TokenProgramY.IsZero() {
		detail.TokenProgramY = pool.TokenProgramY.String()
	}

	return detail
}

// UpsertPoolRequest registers or replaces one pool snapshot
type UpsertPoolRequest struct {
	Address string `json:"address" binding:"required"`

	TokenMintX    string `json:"token_mint_x" binding:"required"`
	TokenMintY    string `json:"token_mint_y" binding:"required"`
	TokenProgramX string `json:"token_program_x"`
	TokenProgramY string `json:"token_program_y"`

	ReserveX uint64 `json:"reserve_x"`
	ReserveY uint64 `json:"reserve_y"`

	ProtocolFeeX uint64 `json:"protocol_fee_x"`
	ProtocolFeeY uint64 `json:"protocol_fee_y"`
	UserLockedX  uint64 `json:"user_locked_x"`
	UserLockedY  uint64 `json:"user_locked_y"`
	LockedX      uint64 `json:"locked_x"`
	LockedY      uint64 `json:"locked_y"`

	ShareSupply uint64 `json:"share_supply"`

	// Zero rates and halted=false inherit the engine defaults
	TradeFeeRate             uint64 `json:"trade_fee_rate"`
	ProtocolFeeRate          uint64 `json:"protocol_fee_rate"`
	RatioChangeToleranceRate uint64 `json:"ratio_change_tolerance_rate"`
	Halted                   bool   `json:"halted"`

	LastUpdatedSlot uint64 `json:"last_updated_slot"`
}

func (h *PoolHandler) upsertPool(c *gin.Context) {
	var req UpsertPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	address, err := solana.PublicKeyFromBase58(req.Address)
	if err != nil {
		httputil.BadRequest(c, "invalid pool address")
		return
	}
	tokenMintX, err := solana.PublicKeyFromBase58(req.TokenMintX)
	if err != nil {
		httputil.BadRequest(c, "invalid token_mint_x")
		return
	}
	tokenMintY, err := solana.PublicKeyFromBase58(req.TokenMintY)
	if err != nil {
		httputil.BadRequest(c, "invalid token_mint_y")
		return
	}

	var tokenProgramX, tokenProgramY solana.PublicKey
	if req.TokenProgramX != "" {
		tokenProgramX, err = solana.PublicKeyFromBase58(req.TokenProgramX)
		if err != nil {
			httputil.BadRequest(c, "invalid token_program_x")
			return
		}
	}
	if req.TokenProgramY != "" {
		tokenProgramY, err = solana.PublicKeyFromBase58(req.TokenProgramY)
		if err != nil {
			httputil.BadRequest(c, "invalid token_program_y")
			return
		}
	}

	pool := &domain.Pool{
		Address:       address,
		TokenMintX:    tokenMintX,
		TokenMintY:    tokenMintY,
		TokenProgramX: tokenProgramX,
		TokenProgramY: tokenProgramY,

		ReserveX: req.ReserveX,
		ReserveY: req.ReserveY,

		ProtocolFeeX: req.ProtocolFeeX,
		ProtocolFeeY: req.ProtocolFeeY,
		UserLockedX:  req.UserLockedX,
		UserLockedY:  req.UserLockedY,
		LockedX:      req.LockedX,
		LockedY:      req.LockedY,

		ShareSupply: req.ShareSupply,

		Config: amm.AmmConfig{
			TradeFeeRate:             req.TradeFeeRate,
			ProtocolFeeRate:          req.ProtocolFeeRate,
			RatioChangeToleranceRate: req.RatioChangeToleranceRate,
			Halted:                   req.Halted,
		},

		LastUpdatedSlot: req.LastUpdatedSlot,
	}

	if err := h.engineSvc.UpsertPool(pool); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	httputil.Success(c, poolToDetail(pool))
}

// SetHaltedRequest flips a pool's halt flag
type SetHaltedRequest struct {
	Halted bool `json:"halted"`
}

func (h *PoolHandler) setHalted(c *gin.Context) {
	address, err := solana.PublicKeyFromBase58(c.Param("address"))
	if err != nil {
		httputil.BadRequest(c, "invalid pool address")
		return
	}

	var req SetHaltedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if err := h.engineSvc.SetHalted(address, req.Halted); err != nil {
		httputil.NotFound(c, err.Error())
		return
	}

	httputil.Success(c, gin.H{"address": address.String(), "halted": req.Halted})
}
