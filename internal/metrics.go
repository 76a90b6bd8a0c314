package internal

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "ezlfp"

// MetricsCollector owns a private registry. A nil collector is valid and
// records nothing.
type MetricsCollector struct {
	registry *prometheus.Registry

	requestCount       *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	upstreamRequests   *prometheus.CounterVec
	upstreamDuration   *prometheus.HistogramVec
	resolutions        *prometheus.CounterVec
	resolutionDuration prometheus.Histogram
	masterySource      *prometheus.CounterVec
	matchFetchFailures prometheus.Counter
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
}

func NewMetricsCollector() *MetricsCollector {
	mc := &MetricsCollector{
		registry: prometheus.NewRegistry(),
		requestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status code.",
		}, []string{"route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "riot_requests_total",
			Help:      "Riot API calls, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "riot_request_duration_seconds",
			Help:      "Riot API call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "player_resolutions_total",
			Help:      "Player stats resolutions, by outcome.",
		}, []string{"outcome"}),
		resolutionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "player_resolution_duration_seconds",
			Help:      "End to end player stats resolution latency.",
			Buckets:   []float64{.1, .25, .5, 1, 2, 5, 10, 20},
		}),
		masterySource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "mastery_source_total",
			Help:      "Mastery tier that produced the champion list.",
		}, []string{"source"}),
		matchFetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "match_fetch_failures_total",
			Help:      "Match detail fetches skipped during mastery derivation.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "snapshot_cache_hits_total",
			Help:      "Snapshot lookups served from Redis.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "snapshot_cache_misses_total",
			Help:      "Snapshot lookups not found in Redis.",
		}),
	}

	mc.registry.MustRegister(
		mc.requestCount,
		mc.requestDuration,
		mc.upstreamRequests,
		mc.upstreamDuration,
		mc.resolutions,
		mc.resolutionDuration,
		mc.masterySource,
		mc.matchFetchFailures,
		mc.cacheHits,
		mc.cacheMisses,
	)
	return mc
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return string(KindOf(err))
}

func (mc *MetricsCollector) RecordRequest(route string, duration time.Duration, statusCode int) {
	if mc == nil {
		return
	}
	mc.requestCount.WithLabelValues(route, strconv.Itoa(statusCode)).Inc()
	mc.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (mc *MetricsCollector) RecordUpstream(operation string, duration time.Duration, err error) {
	if mc == nil {
		return
	}
	mc.upstreamRequests.WithLabelValues(operation, outcomeLabel(err)).Inc()
	mc.upstreamDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (mc *MetricsCollector) RecordResolution(duration time.Duration, err error) {
	if mc == nil {
		return
	}
	mc.resolutions.WithLabelValues(outcomeLabel(err)).Inc()
	mc.resolutionDuration.Observe(duration.Seconds())
}

func (mc *MetricsCollector) RecordMasterySource(source MasterySource) {
	if mc == nil {
		return
	}
	mc.masterySource.WithLabelValues(string(source)).Inc()
}

func (mc *MetricsCollector) RecordMatchFetchFailure() {
	if mc == nil {
		return
	}
	mc.matchFetchFailures.Inc()
}

func (mc *MetricsCollector) RecordCacheHit() {
	if mc == nil {
		return
	}
	mc.cacheHits.Inc()
}

func (mc *MetricsCollector) RecordCacheMiss() {
	if mc == nil {
		return
	}
	mc.cacheMisses.Inc()
}

func (mc *MetricsCollector) Handler() http.Handler {
	if mc == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{})
}
