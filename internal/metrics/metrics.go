package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "byts_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "byts_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	QuestionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "byts_questions_created_total",
			Help: "Total questions created",
		},
	)

	QuestionsArchived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "byts_questions_archived_total",
			Help: "Total questions archived",
		},
	)

	AnswersPosted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "byts_answers_posted_total",
			Help: "Total answers posted through the channel",
		},
	)

	ReactionsToggled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "byts_reactions_toggled_total",
			Help: "Total reaction toggles applied",
		},
		[]string{"kind"},
	)

	SessionsRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "byts_sessions_registered_total",
			Help: "Total anonymous sessions registered",
		},
	)

	SearchQueries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "byts_search_queries_total",
			Help: "Total question search queries",
		},
	)

	// Channel metrics
	ConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "byts_channel_connected_clients",
			Help: "Currently connected channel clients",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "byts_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)

	BlockedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "byts_blocked_requests_total",
			Help: "Total blocked requests",
		},
		[]string{"reason"},
	)
)
