package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors are created eagerly so engine code can record metrics without
// caring whether Register was called (tests never register them).
var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engage_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "engage_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	ReactionToggles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engage_reaction_toggles_total",
			Help: "Reaction toggles, by target kind, reaction kind and outcome.",
		},
		[]string{"target", "reaction", "outcome"},
	)

	Rollbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engage_optimistic_rollbacks_total",
			Help: "Optimistic updates reverted after a failed remote call, by component.",
		},
		[]string{"component"},
	)

	ViewIncrements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engage_view_increments_total",
			Help: "View increment requests sent, by outcome.",
		},
		[]string{"outcome"},
	)

	StaleDiscards = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engage_stale_results_discarded_total",
			Help: "Async results dropped because their guard token no longer matched.",
		},
		[]string{"component"},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "engage_sessions_active",
			Help: "Number of open player sessions.",
		},
	)

	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engage_cache_hits_total",
			Help: "Total Redis feed cache hits.",
		},
	)

	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engage_cache_misses_total",
			Help: "Total Redis feed cache misses.",
		},
	)

	CountRecalcDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "engage_comment_count_recalculation_duration_seconds",
			Help:    "Duration of comment reaction count recalculations.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Register registers all collectors with reg, plus DB pool gauges when a
// pool is given. Call once at startup.
func Register(reg prometheus.Registerer, pool *pgxpool.Pool) {
	reg.MustRegister(
		RequestDuration,
		RequestsInFlight,
		ReactionToggles,
		Rollbacks,
		ViewIncrements,
		StaleDiscards,
		ActiveSessions,
		CacheHits,
		CacheMisses,
		CountRecalcDuration,
	)

	if pool == nil {
		return
	}
	reg.MustRegister(
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "engage_db_connection_pool_active",
				Help: "Number of active database connections.",
			},
			func() float64 { return float64(pool.Stat().AcquiredConns()) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "engage_db_connection_pool_idle",
				Help: "Number of idle database connections.",
			},
			func() float64 { return float64(pool.Stat().IdleConns()) },
		),
	)
}
