// Package metrics содержит Prometheus-метрики сервиса подбора.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "recommender"

var (
	// RecommendRequests число обработанных запросов подбора по исходу
	// (ok, invalid, upstream_error, not_found, internal_error)
	RecommendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recommend_requests_total",
		Help:      "Recommendation requests by outcome.",
	}, []string{"outcome"})

	// MatchesReturned распределение числа найденных товаров на запрос
	MatchesReturned = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "matches_returned",
		Help:      "Number of catalog items returned per successful request.",
		Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
	})

	// CatalogFetchDuration длительность загрузки каталога
	CatalogFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "catalog_fetch_duration_seconds",
		Help:      "Duration of full catalog fetches.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"result"})

	// ImageFetches число загрузок изображений по результату (ok, error)
	ImageFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "image_fetches_total",
		Help:      "Per-item image fetches by result.",
	}, []string{"result"})

	// CircuitBreakerState состояние circuit breaker (0 closed, 1 half-open, 2 open)
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
	}, []string{"name"})
)
