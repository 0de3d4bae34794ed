package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/darklakefi/dex-engine/internal/common"
	"github.com/darklakefi/dex-engine/internal/config"
	"github.com/darklakefi/dex-engine/internal/engine"
	"github.com/darklakefi/dex-engine/internal/http"
	"github.com/darklakefi/dex-engine/internal/services"
)

// @title Darklake DEX Engine API
// @version 1.0
// @description Exact-integer pricing engine for Darklake constant-product pools.
// @description
// @description ## - Features
// @description - **Exact-In Quotes**: Full fee breakdown (trade fee, protocol cut, transfer fees, ratio lock)
// @description - **Token-2022 Aware**: Transfer-fee schedules resolved per mint and epoch
// @description - **Ratio Rebalancing**: Source-side lock amounts solved to restore the pre-trade ratio
// @description - **Liquidity Previews**: Deposit share mints and withdraw payouts at current reserves
// @description
// @description ## - Usage Tips
// @description - Amounts are smallest token units (base units, lamports)
// @description - Fee rates are parts per million: 1000000 = 100%
// @description - Default slippage is 50 bps (0.5%)
// @description
// @description ## - API Status
// @description - **Rate Limit**: 10 requests/second (burst: 20)
// @host localhost:8080
// @BasePath /
// @schemes http
// @tag.name quote
// @tag.description Price exact-in swaps with the full fee breakdown
// @tag.name pools
// @tag.description Inspect and administer tracked pool snapshots
// @tag.name liquidity
// @tag.description Preview deposit share mints and withdraw payouts

func main() {
	common.InitRuntime()

	// load env
	err := godotenv.Load()
	if err != nil {
		log.Warn().Err(err).Msg("no .env file loaded")
	}

	// di container config
	conf := container.NewConf(
		&config.GeneralConfig{},
		&config.RPCConfig{},
		&config.EngineConfig{},
	)

	// di container
	dic, err := container.New(
		conf,

		&services.MintService{},
		&engine.Service{},

		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	// Run() doesn't call Stop(), we must do it manually
	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
