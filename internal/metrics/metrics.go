package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phrasebook_http_requests_total",
		Help: "Total HTTP requests by method, route and status",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "phrasebook_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// Gemini
var (
	GeminiRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phrasebook_gemini_requests_total",
		Help: "Successful Gemini generation requests",
	})

	GeminiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phrasebook_gemini_errors_total",
		Help: "Gemini errors by reason (network, read, api, parse, empty, schema)",
	}, []string{"reason"})

	GeminiAPILatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "phrasebook_gemini_api_latency_seconds",
		Help:    "Gemini generateContent latency",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	})
)

// Phrase generation and caching
var (
	PhrasesGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phrasebook_phrases_generated_total",
		Help: "Phrases returned by the generator, by request kind (locations, country)",
	}, []string{"kind"})

	PhraseRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phrasebook_requests_total",
		Help: "Phrasebook requests by source that served them (cache, generated, mock)",
	}, []string{"source"})

	RequestLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phrasebook_request_limit_rejections_total",
		Help: "Generation requests refused because the daily quota was exhausted",
	})

	StoreErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phrasebook_store_errors_total",
		Help: "Swallowed store failures by operation",
	}, []string{"operation"})

	RefreshQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "phrasebook_refresh_queue_depth",
		Help: "Users waiting for a background phrase refresh",
	})
)

// Store contents
var (
	CachedPhrasesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "phrasebook_cached_phrases",
		Help: "Phrases in the generation cache across all users",
	})

	SavedPhrasesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "phrasebook_saved_phrases",
		Help: "Phrases in the saved store across all users",
	})

	SavedPhrasesByLanguage = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "phrasebook_saved_phrases_by_language",
		Help: "Saved phrases by language",
	}, []string{"language"})
)
