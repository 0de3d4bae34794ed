package config

import (
	"errors"

	"github.com/andrew-solarstorm/go-packages/common"

	"github.com/darklakefi/dex-engine/internal/amm"
)

type EngineConfig struct {
	// DBPath is the path to the BoltDB file for pool snapshot persistence.
	// Default: "./data/dex-engine.db"
	DBPath string

	// PersistenceEnabled controls whether pool snapshots are persisted.
	// Default: true
	PersistenceEnabled bool

	// PersistInterval is how often pools are batch-saved to disk (in seconds).
	// Default: 30
	PersistInterval int

	// MintCacheTTL is how long fetched mint transfer-fee configs are reused
	// before re-fetching (in seconds). Default: 300
	MintCacheTTL int

	// Defaults applied to pools registered without an explicit fee config.
	DefaultTradeFeeRate       uint64
	DefaultProtocolFeeRate    uint64
	DefaultRatioToleranceRate uint64
}

func (c *EngineConfig) Key() string {
	return ENGINE_CONFIG_KEY
}

func (c *EngineConfig) Load() error {
	c.DBPath = common.GetEnvOrDefault("ENGINE_DB_PATH", "./data/dex-engine.db")
	c.PersistenceEnabled = common.GetEnvOrDefault("ENGINE_PERSISTENCE_ENABLED", "true") == "true"
	c.PersistInterval = common.GetEnvOrDefaultInt("ENGINE_PERSIST_INTERVAL", 30)
	c.MintCacheTTL = common.GetEnvOrDefaultInt("ENGINE_MINT_CACHE_TTL", 300)

	c.DefaultTradeFeeRate = uint64(common.GetEnvOrDefaultInt("ENGINE_DEFAULT_TRADE_FEE_RATE", 2500))
	c.DefaultProtocolFeeRate = uint64(common.GetEnvOrDefaultInt("ENGINE_DEFAULT_PROTOCOL_FEE_RATE", 200000))
	c.DefaultRatioToleranceRate = uint64(common.GetEnvOrDefaultInt("ENGINE_DEFAULT_RATIO_TOLERANCE_RATE", 5000))
	return c.Validate()
}

func (c *EngineConfig) Validate() error {
	if c.DefaultTradeFeeRate > amm.MaxPercentage ||
		c.DefaultProtocolFeeRate > amm.MaxPercentage ||
		c.DefaultRatioToleranceRate > amm.MaxPercentage {
		return errors.New("fee rates must not exceed MaxPercentage")
	}
	return nil
}

// DefaultAmmConfig is the fee snapshot applied to pools registered without
// an explicit config.
func (c *EngineConfig) DefaultAmmConfig() amm.AmmConfig {
	return amm.AmmConfig{
		TradeFeeRate:             c.DefaultTradeFeeRate,
		ProtocolFeeRate:          c.DefaultProtocolFeeRate,
		RatioChangeToleranceRate: c.DefaultRatioToleranceRate,
	}
}
