package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"

	"github.com/darklakefi/dex-engine/internal/amm"
	"github.com/darklakefi/dex-engine/internal/domain"
)

const (
	PoolsBucket = "pools"

	DefaultDBPath = "./data/dex-engine.db"
)

// StoredPool is the JSON shape a pool snapshot is persisted under. Amounts
// are decimal strings so the stored form stays readable and is not at the
// mercy of JSON number precision.
type StoredPool struct {
	Address       string `json:"address"`
	TokenMintX    string `json:"tokenMintX"`
	TokenMintY    string `json:"tokenMintY"`
	TokenProgramX string `json:"tokenProgramX,omitempty"`
	TokenProgramY string `json:"tokenProgramY,omitempty"`

	ReserveX string `json:"reserveX"`
	ReserveY string `json:"reserveY"`

	ProtocolFeeX string `json:"protocolFeeX"`
	ProtocolFeeY string `json:"protocolFeeY"`
	UserLockedX  string `json:"userLockedX"`
	UserLockedY  string `json:"userLockedY"`
	LockedX      string `json:"lockedX"`
	LockedY      string `json:"lockedY"`

	ShareSupply string `json:"shareSupply"`

	TradeFeeRate             uint64 `json:"tradeFeeRate"`
	ProtocolFeeRate          uint64 `json:"protocolFeeRate"`
	RatioChangeToleranceRate uint64 `json:"ratioChangeToleranceRate"`
	Halted                   bool   `json:"halted"`

	LastUpdatedSlot uint64 `json:"lastUpdatedSlot"`
}

type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	os.MkdirAll(filepath.Dir(dbPath), 0755)

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[poolStorage] opened database")

	return &Storage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) SavePool(pool *domain.Pool) error {
	data, err := sonic.Marshal(poolToStored(pool))
	if err != nil {
		return fmt.Errorf("failed to marshal pool: %w", err)
	}

	return s.db.Set(PoolsBucket, []byte(pool.Address.String()), data)
}

func (s *Storage) SavePoolBatch(pools []*domain.Pool) error {
	if len(pools) == 0 {
		return nil
	}

	batch := s.db.NewBatch()
	for _, pool := range pools {
		data, err := sonic.Marshal(poolToStored(pool))
		if err != nil {
			return fmt.Errorf("failed to marshal pool %s: %w", pool.Address.String(), err)
		}

		value := data
		op := &boltdb.WriteOperation{
			Bucket: []byte(PoolsBucket),
			Key:    []byte(pool.Address.String()),
			Value:  &value,
			Op:     boltdb.OpSet,
		}
		if err := batch.Add(op); err != nil {
			return fmt.Errorf("failed to add pool %s to batch: %w", pool.Address.String(), err)
		}
	}

	if err := batch.Execute(); err != nil {
		log.Error().Err(err).Int("count", len(pools)).Msg("[poolStorage] failed to execute batch")
		return err
	}

	log.Info().Int("count", len(pools)).Msg("[poolStorage] saved pool batch")
	return nil
}

func (s *Storage) LoadAllPools() ([]*domain.Pool, error) {
	data, err := s.db.List(PoolsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}

	pools := make([]*domain.Pool, 0, len(data))
	failed := 0

	for address, value := range data {
		var stored StoredPool
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Error().Str("address", address).Err(err).Msg("[poolStorage] failed to unmarshal pool, skipping")
			failed++
			continue
		}

		pool, err := storedToPool(&stored)
		if err != nil {
			log.Error().Str("address", address).Err(err).Msg("[poolStorage] failed to convert stored pool, skipping")
			failed++
			continue
		}

		pools = append(pools, pool)
	}

	if failed > 0 {
		log.Error().
			Int("total_in_db", len(data)).
			Int("loaded", len(pools)).
			Int("failed", failed).
			Msg("[poolStorage] pool loading completed with errors")
	} else {
		log.Info().
			Int("total_in_db", len(data)).
			Int("loaded", len(pools)).
			Msg("[poolStorage] pool loading completed")
	}

	return pools, nil
}

func (s *Storage) GetPoolCount() (int, error) {
	data, err := s.db.List(PoolsBucket)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

func poolToStored(pool *domain.Pool) *StoredPool {
	stored := &StoredPool{
		Address:    pool.Address.String(),
		TokenMintX: pool.TokenMintX.String(),
		TokenMintY: pool.TokenMintY.String(),

		ReserveX: formatU64(pool.ReserveX),
		ReserveY: formatU64(pool.ReserveY),

		ProtocolFeeX: formatU64(pool.ProtocolFeeX),
		ProtocolFeeY: formatU64(pool.ProtocolFeeY),
		UserLockedX:  formatU64(pool.UserLockedX),
		UserLockedY:  formatU64(pool.UserLockedY),
		LockedX:      formatU64(pool.LockedX),
		LockedY:      formatU64(pool.LockedY),

		ShareSupply: formatU64(pool.ShareSupply),

		TradeFeeRate:             pool.Config.TradeFeeRate,
		ProtocolFeeRate:          pool.Config.ProtocolFeeRate,
		RatioChangeToleranceRate: pool.Config.RatioChangeToleranceRate,
		Halted:                   pool.Config.Halted,

		LastUpdatedSlot: pool.LastUpdatedSlot,
	}

	if !pool.TokenProgramX.IsZero() {
		stored.TokenProgramX = pool.TokenProgramX.String()
	}
	if !pool.TokenProgramY.IsZero() {
		stored.TokenProgramY = pool.TokenProgramY.String()
	}

	return stored
}

func storedToPool(stored *StoredPool) (*domain.Pool, error) {
	address, err := solana.PublicKeyFromBase58(stored.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}

	tokenMintX, err := solana.PublicKeyFromBase58(stored.TokenMintX)
	if err != nil {
		return nil, fmt.Errorf("invalid tokenMintX: %w", err)
	}

	tokenMintY, err := solana.PublicKeyFromBase58(stored.TokenMintY)
	if err != nil {
		return nil, fmt.Errorf("invalid tokenMintY: %w", err)
	}

	var tokenProgramX, tokenProgramY solana.PublicKey
	if stored.TokenProgramX != "" {
		tokenProgramX, _ = solana.PublicKeyFromBase58(stored.TokenProgramX)
	}
	if stored.TokenProgramY != "" {
		tokenProgramY, _ = solana.PublicKeyFromBase58(stored.TokenProgramY)
	}

	pool := &domain.Pool{
		Address:       address,
		TokenMintX:    tokenMintX,
		TokenMintY:    tokenMintY,
		TokenProgramX: tokenProgramX,
		TokenProgramY: tokenProgramY,
		Config: amm.AmmConfig{
			TradeFeeRate:             stored.TradeFeeRate,
			ProtocolFeeRate:          stored.ProtocolFeeRate,
			RatioChangeToleranceRate: stored.RatioChangeToleranceRate,
			Halted:                   stored.Halted,
		},
		LastUpdatedSlot: stored.LastUpdatedSlot,
	}

	for _, field := range []struct {
		raw  string
		name string
		dst  *uint64
	}{
		{stored.ReserveX, "reserveX", &pool.ReserveX},
		{stored.ReserveY, "reserveY", &pool.ReserveY},
		{stored.ProtocolFeeX, "protocolFeeX", &pool.ProtocolFeeX},
		{stored.ProtocolFeeY, "protocolFeeY", &pool.ProtocolFeeY},
		{stored.UserLockedX, "userLockedX", &pool.UserLockedX},
		{stored.UserLockedY, "userLockedY", &pool.UserLockedY},
		{stored.LockedX, "lockedX", &pool.LockedX},
		{stored.LockedY, "lockedY", &pool.LockedY},
		{stored.ShareSupply, "shareSupply", &pool.ShareSupply},
	} {
		v, err := parseU64(field.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", field.name, err)
		}
		*field.dst = v
	}

	return pool, nil
}

func formatU64(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func parseU64(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}
