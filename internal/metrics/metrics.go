package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Token lifecycle
	TokensCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hype_tokens_created_total",
		Help: "Total number of channel tokens minted",
	})

	PoolsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hype_pools_created_total",
		Help: "Total number of liquidity pools initialized",
	})

	// Swap metrics
	SwapRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hype_swap_requests_total",
			Help: "Total number of swap requests",
		},
		[]string{"direction", "status"},
	)

	SwapDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hype_swap_duration_seconds",
			Help:    "End-to-end swap duration (compose through post-verify) in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"direction"},
	)

	// Pipeline metrics
	SimulationRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hype_simulation_rejections_total",
		Help: "Transactions rejected by pre-flight simulation",
	})

	ConfirmationTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hype_confirmation_timeouts_total",
		Help: "Transactions that did not confirm within the deadline",
	})

	PostStateInconsistencies = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hype_post_state_inconsistencies_total",
		Help: "Confirmed transactions whose expected balance movement did not materialize",
	})

	DepositsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hype_deposits_processed_total",
		Help: "Total number of fiat deposits converted and funded",
	})

	// Listener metrics
	AccountSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hype_account_subscriptions",
		Help: "Number of live account-change subscriptions",
	})

	BalanceUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hype_balance_updates_total",
			Help: "Account-change notifications processed, by account kind",
		},
		[]string{"kind"},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hype_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hype_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
