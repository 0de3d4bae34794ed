package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/darklakefi/dex-engine/internal/adapters/persistence"
	"github.com/darklakefi/dex-engine/internal/amm"
	"github.com/darklakefi/dex-engine/internal/common"
	"github.com/darklakefi/dex-engine/internal/config"
	"github.com/darklakefi/dex-engine/internal/domain"
	"github.com/darklakefi/dex-engine/internal/metrics"
	"github.com/darklakefi/dex-engine/internal/services"
)

const ENGINE_SERVICE = "engine-service"

var (
	ErrPoolNotFound     = errors.New("pool not found")
	ErrUnknownInputMint = errors.New("input mint does not belong to pool")
	ErrInvalidFeeConfig = errors.New("fee rates must not exceed MaxPercentage")
)

// Service owns the in-memory pool registry and fronts the pricing core.
// Pool snapshots arrive via UpsertPool (an indexer, an admin endpoint, a
// replay job), quotes read a copied snapshot so pricing never races an
// update.
type Service struct {
	container.BaseDIInstance

	logger  *services.ServiceLogger
	config  *config.EngineConfig
	mintSvc *services.MintService
	storage *persistence.Storage

	mu    sync.RWMutex
	pools domain.PoolRegistry

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func (svc *Service) ID() string {
	return ENGINE_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	svc.config = c.GetConfig(config.ENGINE_CONFIG_KEY).(*config.EngineConfig)
	svc.mintSvc = c.Instance(services.MINT_SERVICE).(*services.MintService)

	svc.pools = make(domain.PoolRegistry)
	svc.stopCh = make(chan struct{})

	if svc.config.PersistenceEnabled {
		storage, err := persistence.NewStorage(svc.config.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open pool storage: %w", err)
		}
		svc.storage = storage
	}

	return nil
}

func (svc *Service) Start() error {
	if svc.storage != nil {
		pools, err := svc.storage.LoadAllPools()
		if err != nil {
			return fmt.Errorf("failed to load pools: %w", err)
		}

		svc.mu.Lock()
		for _, pool := range pools {
			svc.pools[pool.Address] = pool
		}
		count := len(svc.pools)
		svc.mu.Unlock()

		metrics.PoolCount.Set(float64(count))
		svc.logger.Info().Int("pools", count).Msg("restored pool registry from disk")

		svc.wg.Add(1)
		go svc.persistLoop()
	}

	return nil
}

func (svc *Service) Stop() error {
	close(svc.stopCh)
	svc.wg.Wait()

	if svc.storage != nil {
		if err := svc.persistAll(); err != nil {
			svc.logger.Err(err).Msg("final pool persist failed")
		} else if count, err := svc.storage.GetPoolCount(); err == nil {
			svc.logger.Info().Int("pools", count).Msg("pool registry flushed to disk")
		}
		return svc.storage.Close()
	}
	return nil
}

func (svc *Service) persistLoop() {
	defer svc.wg.Done()

	interval := time.Duration(svc.config.PersistInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := svc.persistAll(); err != nil {
				svc.logger.Err(err).Msg("periodic pool persist failed")
			}
		case <-svc.stopCh:
			return
		}
	}
}

func (svc *Service) persistAll() error {
	return svc.storage.SavePoolBatch(svc.ListPools())
}

// UpsertPool registers a pool snapshot or replaces an existing one. A
// snapshot with an all-zero fee config inherits the engine defaults.
func (svc *Service) UpsertPool(pool *domain.Pool) error {
	if pool == nil || pool.Address.IsZero() {
		return errors.New("pool address is required")
	}
	if pool.TokenMintX.IsZero() || pool.TokenMintY.IsZero() {
		return errors.New("pool token mints are required")
	}

	if pool.Config == (amm.AmmConfig{}) {
		pool.Config = svc.config.DefaultAmmConfig()
	}
	if pool.Config.TradeFeeRate > amm.MaxPercentage ||
		pool.Config.ProtocolFeeRate > amm.MaxPercentage ||
		pool.Config.RatioChangeToleranceRate > amm.MaxPercentage {
		return ErrInvalidFeeConfig
	}

	svc.mu.Lock()
	svc.pools[pool.Address] = pool
	count := len(svc.pools)
	svc.mu.Unlock()

	metrics.PoolUpdates.Inc()
	metrics.PoolCount.Set(float64(count))

	// write-through so a crash between persist ticks does not lose the
	// snapshot; a storage error degrades to in-memory only
	if svc.storage != nil {
		if err := svc.storage.SavePool(pool); err != nil {
			svc.logger.Err(err).Str("pool", pool.Address.String()).Msg("failed to persist pool snapshot")
		}
	}

	svc.logger.Debug().
		Str("pool", pool.Address.String()).
		Uint64("reserveX", pool.ReserveX).
		Uint64("reserveY", pool.ReserveY).
		Uint64("slot", pool.LastUpdatedSlot).
		Msg("pool snapshot updated")

	return nil
}

// SetHalted flips a pool's halt flag. Halted pools reject quotes but stay
// listed.
func (svc *Service) SetHalted(address solana.PublicKey, halted bool) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	pool, ok := svc.pools[address]
	if !ok {
		return ErrPoolNotFound
	}

	updated := *pool
	updated.Config.Halted = halted
	svc.pools[address] = &updated

	svc.logger.Info().Str("pool", address.String()).Bool("halted", halted).Msg("pool halt flag changed")
	return nil
}

// GetPool returns a copy of one pool snapshot.
func (svc *Service) GetPool(address solana.PublicKey) (*domain.Pool, error) {
	svc.mu.RLock()
	pool, ok := svc.pools[address]
	svc.mu.RUnlock()
	if !ok {
		return nil, ErrPoolNotFound
	}

	snapshot := *pool
	return &snapshot, nil
}

// ListPools returns copies of every tracked pool snapshot.
func (svc *Service) ListPools() []*domain.Pool {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	pools := make([]*domain.Pool, 0, len(svc.pools))
	for _, pool := range svc.pools {
		snapshot := *pool
		pools = append(pools, &snapshot)
	}
	return pools
}

func (svc *Service) GetStats() (int, uint64) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	var lastSlot uint64
	for _, pool := range svc.pools {
		if pool.LastUpdatedSlot > lastSlot {
			lastSlot = pool.LastUpdatedSlot
		}
	}
	return len(svc.pools), lastSlot
}

// GetQuote prices an exact-in swap against one pool. epochOverride pins the
// transfer-fee epoch for replay; when nil the current epoch is fetched.
func (svc *Service) GetQuote(ctx context.Context, poolAddress, inputMint solana.PublicKey, amountIn uint64, epochOverride *uint64) (*domain.QuoteResult, error) {
	pool, err := svc.GetPool(poolAddress)
	if err != nil {
		return nil, err
	}

	var xToY bool
	switch inputMint {
	case pool.TokenMintX:
		xToY = true
	case pool.TokenMintY:
		xToY = false
	default:
		return nil, ErrUnknownInputMint
	}

	direction := directionLabel(xToY)
	start := time.Now()

	feeX, feeY, err := svc.resolveSchedules(ctx, pool)
	if err != nil {
		metrics.QuoteRequests.WithLabelValues(direction, "error").Inc()
		return nil, err
	}

	var epoch uint64
	if epochOverride != nil {
		epoch = *epochOverride
	} else if feeX != nil || feeY != nil {
		epoch, err = svc.mintSvc.CurrentEpoch(ctx)
		if err != nil {
			metrics.QuoteRequests.WithLabelValues(direction, "error").Inc()
			return nil, fmt.Errorf("failed to resolve current epoch: %w", err)
		}
	}

	output, err := amm.Quote(pool.QuoteParams(amountIn, xToY, epoch, feeX, feeY))
	metrics.QuoteDuration.WithLabelValues(direction).Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, amm.ErrTradeTooBig) {
			metrics.RebalanceToleranceExceeded.Inc()
		}
		metrics.QuoteRequests.WithLabelValues(direction, "error").Inc()
		return nil, err
	}

	metrics.QuoteRequests.WithLabelValues(direction, "ok").Inc()
	metrics.QuoteLockAmount.Observe(float64(output.FromToLock))

	return &domain.QuoteResult{
		Pool:     pool,
		XToY:     xToY,
		AmountIn: amountIn,
		Epoch:    epoch,
		Output:   output,
	}, nil
}

// GetDepositQuote previews the shares minted for a two-sided deposit at the
// pool's current reserves.
func (svc *Service) GetDepositQuote(poolAddress solana.PublicKey, tokenXAmount, tokenYAmount uint64) (*domain.DepositQuote, error) {
	pool, err := svc.GetPool(poolAddress)
	if err != nil {
		return nil, err
	}

	shares, err := amm.DepositShares(tokenXAmount, tokenYAmount, pool.ShareSupply, pool.ReserveX, pool.ReserveY)
	if err != nil {
		metrics.LiquidityQuotes.WithLabelValues("deposit", "error").Inc()
		return nil, err
	}

	metrics.LiquidityQuotes.WithLabelValues("deposit", "ok").Inc()
	return &domain.DepositQuote{
		Pool:         pool,
		TokenXAmount: tokenXAmount,
		TokenYAmount: tokenYAmount,
		SharesToMint: shares,
	}, nil
}

// GetWithdrawQuote previews the proportional payout for burning shares.
func (svc *Service) GetWithdrawQuote(poolAddress solana.PublicKey, shareAmount uint64) (*domain.WithdrawQuote, error) {
	pool, err := svc.GetPool(poolAddress)
	if err != nil {
		return nil, err
	}

	amountX, amountY, err := amm.WithdrawAmounts(shareAmount, pool.ShareSupply, pool.ReserveX, pool.ReserveY)
	if err != nil {
		metrics.LiquidityQuotes.WithLabelValues("withdraw", "error").Inc()
		return nil, err
	}

	metrics.LiquidityQuotes.WithLabelValues("withdraw", "ok").Inc()
	return &domain.WithdrawQuote{
		Pool:         pool,
		ShareAmount:  shareAmount,
		TokenXAmount: amountX,
		TokenYAmount: amountY,
	}, nil
}

// resolveSchedules fetches transfer-fee schedules for the pool's mints.
// Classic SPL mints never carry one, so only Token-2022 (or unknown
// program) mints hit the mint service.
func (svc *Service) resolveSchedules(ctx context.Context, pool *domain.Pool) (feeX, feeY amm.TransferFeeSchedule, err error) {
	if needsSchedule(pool.TokenProgramX) {
		info, err := svc.mintSvc.MintInfo(ctx, pool.TokenMintX)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve token X mint: %w", err)
		}
		feeX = info.Schedule
	}
	if needsSchedule(pool.TokenProgramY) {
		info, err := svc.mintSvc.MintInfo(ctx, pool.TokenMintY)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve token Y mint: %w", err)
		}
		feeY = info.Schedule
	}
	return feeX, feeY, nil
}

func needsSchedule(program solana.PublicKey) bool {
	return program.IsZero() || common.IsToken2022(program)
}

func directionLabel(xToY bool) string {
	if xToY {
		return "x_to_y"
	}
	return "y_to_x"
}
