package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pool metrics
	PoolCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "darklake_pool_count",
		Help: "Total number of pools tracked by the engine",
	})

	PoolUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "darklake_pool_updates_total",
		Help: "Total number of pool snapshot updates received",
	})

	// Quote metrics
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "darklake_quote_requests_total",
			Help: "Total number of quote requests",
		},
		[]string{"direction", "status"},
	)

	QuoteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "darklake_quote_duration_seconds",
			Help:    "Quote request duration in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		},
		[]string{"direction"},
	)

	RebalanceToleranceExceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "darklake_rebalance_tolerance_exceeded_total",
		Help: "Quotes rejected because the ratio drift exceeded tolerance",
	})

	QuoteLockAmount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "darklake_quote_lock_amount",
		Help:    "Rebalance lock amounts set aside per quote (base units)",
		Buckets: []float64{0, 1, 10, 100, 1000, 10000, 100000, 1000000},
	})

	// Liquidity metrics
	LiquidityQuotes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "darklake_liquidity_quotes_total",
			Help: "Total number of deposit/withdraw share quotes",
		},
		[]string{"kind", "status"},
	)

	// Mint / transfer-fee metrics
	MintFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "darklake_mint_fetches_total",
			Help: "Mint account fetches for transfer-fee schedules",
		},
		[]string{"status"},
	)

	MintCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "darklake_mint_cache_hits_total",
		Help: "Transfer-fee schedule lookups served from cache",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "darklake_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "darklake_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
