package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/darklakefi/dex-engine/internal/common"
	"github.com/darklakefi/dex-engine/internal/config"
	"github.com/darklakefi/dex-engine/internal/domain"
	"github.com/darklakefi/dex-engine/internal/metrics"
	"github.com/darklakefi/dex-engine/internal/token2022"
)

const MINT_SERVICE = "mint-service"

const epochCacheTTL = 30 * time.Second

type cachedMint struct {
	info      domain.MintInfo
	fetchedAt time.Time
}

// MintService resolves per-mint token data: the owning token program and,
// for Token-2022 mints, the transfer-fee schedule the pricing core charges
// against. Results are cached with a TTL; transfer-fee configs change at
// epoch granularity, so a short-lived cache is safe.
type MintService struct {
	container.BaseDIInstance

	logger    *ServiceLogger
	rpcClient *rpc.Client
	ttl       time.Duration

	mu    sync.RWMutex
	cache map[solana.PublicKey]cachedMint

	epochMu        sync.Mutex
	currentEpoch   uint64
	epochFetchedAt time.Time
}

func (s *MintService) ID() string {
	return MINT_SERVICE
}

func (s *MintService) Configure(c container.IContainer) error {
	s.logger = NewServiceLogger(s)

	rpcConfig := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)
	engineConfig := c.GetConfig(config.ENGINE_CONFIG_KEY).(*config.EngineConfig)

	s.rpcClient = rpc.New(rpcConfig.RPCUrl)
	s.ttl = time.Duration(engineConfig.MintCacheTTL) * time.Second
	s.cache = make(map[solana.PublicKey]cachedMint)
	return nil
}

func (s *MintService) Start() error {
	return nil
}

func (s *MintService) Stop() error {
	return nil
}

// MintInfo returns the token program and transfer-fee schedule for a mint.
// Classic SPL mints come back with a nil schedule.
func (s *MintService) MintInfo(ctx context.Context, mint solana.PublicKey) (domain.MintInfo, error) {
	s.mu.RLock()
	cached, ok := s.cache[mint]
	s.mu.RUnlock()
	if ok && time.Since(cached.fetchedAt) < s.ttl {
		metrics.MintCacheHits.Inc()
		return cached.info, nil
	}

	info, err := s.fetchMintInfo(ctx, mint)
	if err != nil {
		metrics.MintFetches.WithLabelValues("error").Inc()
		// a stale entry beats a failed quote
		if ok {
			s.logger.Warn().Err(err).Str("mint", mint.String()).Msg("mint refetch failed, serving stale schedule")
			return cached.info, nil
		}
		return domain.MintInfo{}, err
	}
	metrics.MintFetches.WithLabelValues("ok").Inc()

	s.mu.Lock()
	s.cache[mint] = cachedMint{info: info, fetchedAt: time.Now()}
	s.mu.Unlock()
	return info, nil
}

func (s *MintService) fetchMintInfo(ctx context.Context, mint solana.PublicKey) (domain.MintInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := s.rpcClient.GetAccountInfoWithOpts(ctx, mint, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		return domain.MintInfo{}, fmt.Errorf("fetch mint %s: %w", mint.String(), err)
	}
	if out == nil || out.Value == nil {
		return domain.MintInfo{}, fmt.Errorf("mint %s: account not found", mint.String())
	}

	info := domain.MintInfo{
		Mint:    mint,
		Program: out.Value.Owner,
	}

	if common.IsToken2022(out.Value.Owner) {
		cfg, err := token2022.ParseTransferFeeConfig(out.GetBinary())
		if err != nil {
			return domain.MintInfo{}, fmt.Errorf("mint %s: %w", mint.String(), err)
		}
		if cfg != nil {
			info.Schedule = cfg
		}
	}
	return info, nil
}

// CurrentEpoch returns the cluster's current epoch, cached briefly so the
// quote hot path does not hit the RPC node per request.
func (s *MintService) CurrentEpoch(ctx context.Context) (uint64, error) {
	s.epochMu.Lock()
	defer s.epochMu.Unlock()

	if time.Since(s.epochFetchedAt) < epochCacheTTL && !s.epochFetchedAt.IsZero() {
		return s.currentEpoch, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := s.rpcClient.GetEpochInfo(ctx, rpc.CommitmentFinalized)
	if err != nil {
		if !s.epochFetchedAt.IsZero() {
			return s.currentEpoch, nil
		}
		return 0, fmt.Errorf("fetch epoch info: %w", err)
	}

	s.currentEpoch = out.Epoch
	s.epochFetchedAt = time.Now()
	return s.currentEpoch, nil
}
