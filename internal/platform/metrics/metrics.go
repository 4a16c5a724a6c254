// Package metrics provides Prometheus metrics for the query store and the
// remote fetch client.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "monk"

// Collector owns every metric of one session. It registers on the
// Registerer it is given, so tests can use a private registry.
type Collector struct {
	cacheLookups    *prometheus.CounterVec
	fetches         *prometheus.CounterVec
	joined          prometheus.Counter
	discarded       *prometheus.CounterVec
	invalidations   prometheus.Counter
	liveEntries     prometheus.Gauge
	requestDuration *prometheus.HistogramVec
	mutationsTotal  *prometheus.CounterVec
}

// NewCollector creates and registers the collector's metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Subscriptions served from cache (hit) or requiring a fetch (miss)",
			},
			[]string{"result"},
		),
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_fetches_total",
				Help:      "Query fetches by outcome",
			},
			[]string{"outcome"},
		),
		joined: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_joined_total",
			Help:      "Subscriptions that joined an in-flight fetch",
		}),
		discarded: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_discarded_total",
				Help:      "Fetch results dropped before reaching the cache",
			},
			[]string{"reason"},
		),
		invalidations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_invalidations_total",
			Help:      "Query keys marked stale",
		}),
		liveEntries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "query_live_entries",
			Help:      "Cache entries with at least one subscriber",
		}),
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "remote_request_duration_seconds",
				Help:      "Duration of requests to the remote content service",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "status"},
		),
		mutationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_total",
				Help:      "Write operations by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// RecordLookup counts a subscription as a cache hit or miss.
func (c *Collector) RecordLookup(hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	c.cacheLookups.WithLabelValues("miss").Inc()
}

// RecordFetch counts a completed fetch.
func (c *Collector) RecordFetch(err error) {
	if c == nil {
		return
	}
	c.fetches.WithLabelValues(outcome(err)).Inc()
}

// RecordJoin counts a subscription that joined an in-flight fetch.
func (c *Collector) RecordJoin() {
	if c == nil {
		return
	}
	c.joined.Inc()
}

// RecordDiscard counts a dropped fetch result.
func (c *Collector) RecordDiscard(reason string) {
	if c == nil {
		return
	}
	c.discarded.WithLabelValues(reason).Inc()
}

// RecordInvalidation counts one invalidated key.
func (c *Collector) RecordInvalidation() {
	if c == nil {
		return
	}
	c.invalidations.Inc()
}

// SetLiveEntries reports the number of subscribed entries.
func (c *Collector) SetLiveEntries(n int) {
	if c == nil {
		return
	}
	c.liveEntries.Set(float64(n))
}

// RecordRequest observes one remote call. status is the HTTP status, 0 on
// transport failure.
func (c *Collector) RecordRequest(operation string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.requestDuration.WithLabelValues(operation, statusLabel(status)).Observe(d.Seconds())
}

// RecordMutation counts a finished write.
func (c *Collector) RecordMutation(err error) {
	if c == nil {
		return
	}
	c.mutationsTotal.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func statusLabel(status int) string {
	switch {
	case status == 0:
		return "transport_error"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
