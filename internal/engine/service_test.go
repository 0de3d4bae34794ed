package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/darklakefi/dex-engine/internal/amm"
	"github.com/darklakefi/dex-engine/internal/common"
	"github.com/darklakefi/dex-engine/internal/config"
	"github.com/darklakefi/dex-engine/internal/domain"
	"github.com/darklakefi/dex-engine/internal/services"
)

var (
	testPoolAddress = solana.MustPublicKeyFromBase58("HJPjoWUrhoZzkNfRpHuieeFk9WcZWjwy6PBjZ81ngndJ")
	testMintX       = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	testMintY       = solana.MustPublicKeyFromBase58("uSd2czE61Evaf76RNbq4KPpXnkiL3irdzgLFUMe3NoG")
)

// newTestService wires the same fields Configure does, minus the container,
// the mint service and persistence. The logger must be set: every mutating
// operation logs through it.
func newTestService() *Service {
	svc := &Service{
		config: &config.EngineConfig{
			DefaultTradeFeeRate:       2_500,
			DefaultProtocolFeeRate:    200_000,
			DefaultRatioToleranceRate: 5_000,
		},
		pools: make(domain.PoolRegistry),
	}
	svc.logger = services.NewServiceLogger(svc)
	return svc
}

func testPool() *domain.Pool {
	return &domain.Pool{
		Address:    testPoolAddress,
		TokenMintX: testMintX,
		TokenMintY: testMintY,
		// classic SPL programs so no mint lookups are needed
		TokenProgramX: common.TokenProgramID,
		TokenProgramY: common.TokenProgramID,

		ReserveX: 1_000_000,
		ReserveY: 1_000_000,

		ShareSupply: 1_000_000,

		Config: amm.AmmConfig{
			TradeFeeRate:             2_500,
			ProtocolFeeRate:          200_000,
			RatioChangeToleranceRate: amm.MaxPercentage,
		},
	}
}

func TestUpsertPoolValidation(t *testing.T) {
	svc := newTestService()

	if err := svc.UpsertPool(nil); err == nil {
		t.Error("nil pool should be rejected")
	}
	if err := svc.UpsertPool(&domain.Pool{}); err == nil {
		t.Error("zero address should be rejected")
	}
	if err := svc.UpsertPool(&domain.Pool{Address: testPoolAddress}); err == nil {
		t.Error("missing mints should be rejected")
	}

	bad := testPool()
	bad.Config.TradeFeeRate = amm.MaxPercentage + 1
	if err := svc.UpsertPool(bad); !errors.Is(err, ErrInvalidFeeConfig) {
		t.Errorf("expected ErrInvalidFeeConfig, got %v", err)
	}
}

func TestUpsertPoolAppliesDefaultConfig(t *testing.T) {
	svc := newTestService()

	pool := testPool()
	pool.Config = amm.AmmConfig{}
	if err := svc.UpsertPool(pool); err != nil {
		t.Fatalf("UpsertPool: %v", err)
	}

	stored, err := svc.GetPool(testPoolAddress)
	if err != nil {
		t.Fatalf("GetPool: %v", err)
	}
	if stored.Config.TradeFeeRate != 2_500 ||
		stored.Config.ProtocolFeeRate != 200_000 ||
		stored.Config.RatioChangeToleranceRate != 5_000 {
		t.Errorf("defaults not applied, got %+v", stored.Config)
	}
}

func TestGetPoolReturnsCopy(t *testing.T) {
	svc := newTestService()
	if err := svc.UpsertPool(testPool()); err != nil {
		t.Fatalf("UpsertPool: %v", err)
	}

	first, _ := svc.GetPool(testPoolAddress)
	first.ReserveX = 0

	second, _ := svc.GetPool(testPoolAddress)
	if second.ReserveX != 1_000_000 {
		t.Error("mutating a returned pool must not affect the registry")
	}
}

func TestGetPoolNotFound(t *testing.T) {
	svc := newTestService()
	if _, err := svc.GetPool(testPoolAddress); !errors.Is(err, ErrPoolNotFound) {
		t.Errorf("expected ErrPoolNotFound, got %v", err)
	}
}

func TestSetHalted(t *testing.T) {
	svc := newTestService()
	if err := svc.UpsertPool(testPool()); err != nil {
		t.Fatalf("UpsertPool: %v", err)
	}

	if err := svc.SetHalted(testPoolAddress, true); err != nil {
		t.Fatalf("SetHalted: %v", err)
	}
	pool, _ := svc.GetPool(testPoolAddress)
	if !pool.Config.Halted {
		t.Error("pool should be halted")
	}

	if _, err := svc.GetQuote(context.Background(), testPoolAddress, testMintX, 10_000, nil); !errors.Is(err, amm.ErrAmmHalted) {
		t.Errorf("halted pool should reject quotes, got %v", err)
	}

	if err := svc.SetHalted(solana.PublicKey{}, true); !errors.Is(err, ErrPoolNotFound) {
		t.Errorf("expected ErrPoolNotFound, got %v", err)
	}
}

func TestGetQuote(t *testing.T) {
	svc := newTestService()
	if err := svc.UpsertPool(testPool()); err != nil {
		t.Fatalf("UpsertPool: %v", err)
	}

	result, err := svc.GetQuote(context.Background(), testPoolAddress, testMintX, 10_000, nil)
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	if !result.XToY {
		t.Error("input mint X should quote x to y")
	}
	if result.Output.ToAmount != 9_876 {
		t.Errorf("ToAmount = %d, want 9876", result.Output.ToAmount)
	}

	reverse, err := svc.GetQuote(context.Background(), testPoolAddress, testMintY, 10_000, nil)
	if err != nil {
		t.Fatalf("GetQuote reverse: %v", err)
	}
	if reverse.XToY {
		t.Error("input mint Y should quote y to x")
	}

	otherMint := solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	if _, err := svc.GetQuote(context.Background(), testPoolAddress, otherMint, 10_000, nil); !errors.Is(err, ErrUnknownInputMint) {
		t.Errorf("expected ErrUnknownInputMint, got %v", err)
	}
}

func TestGetQuoteEpochOverride(t *testing.T) {
	svc := newTestService()
	if err := svc.UpsertPool(testPool()); err != nil {
		t.Fatalf("UpsertPool: %v", err)
	}

	epoch := uint64(612)
	result, err := svc.GetQuote(context.Background(), testPoolAddress, testMintX, 10_000, &epoch)
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	if result.Epoch != 612 {
		t.Errorf("Epoch = %d, want the override 612", result.Epoch)
	}
}

func TestLiquidityQuotes(t *testing.T) {
	svc := newTestService()
	if err := svc.UpsertPool(testPool()); err != nil {
		t.Fatalf("UpsertPool: %v", err)
	}

	deposit, err := svc.GetDepositQuote(testPoolAddress, 100_000, 100_000)
	if err != nil {
		t.Fatalf("GetDepositQuote: %v", err)
	}
	if deposit.SharesToMint != 100_000 {
		t.Errorf("SharesToMint = %d, want 100000", deposit.SharesToMint)
	}

	withdraw, err := svc.GetWithdrawQuote(testPoolAddress, 100_000)
	if err != nil {
		t.Fatalf("GetWithdrawQuote: %v", err)
	}
	if withdraw.TokenXAmount != 100_000 || withdraw.TokenYAmount != 100_000 {
		t.Errorf("withdraw payout = (%d, %d), want (100000, 100000)",
			withdraw.TokenXAmount, withdraw.TokenYAmount)
	}

	if _, err := svc.GetDepositQuote(solana.PublicKey{}, 1, 1); !errors.Is(err, ErrPoolNotFound) {
		t.Errorf("expected ErrPoolNotFound, got %v", err)
	}
}

func TestGetStats(t *testing.T) {
	svc := newTestService()

	pool := testPool()
	pool.LastUpdatedSlot = 42
	if err := svc.UpsertPool(pool); err != nil {
		t.Fatalf("UpsertPool: %v", err)
	}

	count, lastSlot := svc.GetStats()
	if count != 1 || lastSlot != 42 {
		t.Errorf("GetStats() = (%d, %d), want (1, 42)", count, lastSlot)
	}
}
