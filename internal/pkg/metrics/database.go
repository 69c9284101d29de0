// Package metrics holds the Prometheus collectors shared by the storage and
// service layers, kept apart from middleware so database can import it.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SlowQuery is the duration past which a query counts as slow
const SlowQuery = 100 * time.Millisecond

var (
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledgerline_db_query_duration_seconds",
			Help:    "Storage call duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"database", "operation"},
	)

	dbQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerline_db_query_errors_total",
			Help: "Failed storage calls",
		},
		[]string{"database", "operation"},
	)

	dbSlowQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerline_db_slow_queries_total",
			Help: "Storage calls slower than 100ms",
		},
		[]string{"database", "operation"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerline_cache_lookups_total",
			Help: "Redis cache lookups by cache prefix and result",
		},
		[]string{"cache", "result"},
	)
)

// RecordDBQuery observes one storage call. The histogram count doubles as
// the call total.
func RecordDBQuery(database, operation string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(database, operation).Observe(duration.Seconds())
	if duration > SlowQuery {
		dbSlowQueries.WithLabelValues(database, operation).Inc()
	}
}

func RecordDBError(database, operation string) {
	dbQueryErrors.WithLabelValues(database, operation).Inc()
}

// RecordCacheLookup counts a hit or miss on the named cache
func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(cache, result).Inc()
}

// PoolStats is a snapshot of a connection pool
type PoolStats struct {
	Acquired int32
	Idle     int32
	Total    int32
	Max      int32
}

var (
	poolConnsDesc = prometheus.NewDesc(
		"ledgerline_db_pool_connections",
		"Connection pool size by state",
		[]string{"database", "state"}, nil,
	)
	pools = &poolCollector{sources: map[string]func() PoolStats{}}
)

func init() {
	prometheus.MustRegister(pools)
}

// ObservePool exposes the pool behind stats under name. A later call with
// the same name replaces the earlier source.
func ObservePool(name string, stats func() PoolStats) {
	pools.mu.Lock()
	pools.sources[name] = stats
	pools.mu.Unlock()
}

type poolCollector struct {
	mu      sync.Mutex
	sources map[string]func() PoolStats
}

func (p *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- poolConnsDesc
}

func (p *poolCollector) Collect(ch chan<- prometheus.Metric) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for name, source := range p.sources {
		s := source()
		for state, v := range map[string]int32{
			"acquired": s.Acquired,
			"idle":     s.Idle,
			"total":    s.Total,
			"max":      s.Max,
		} {
			ch <- prometheus.MustNewConstMetric(poolConnsDesc, prometheus.GaugeValue, float64(v), name, state)
		}
	}
}
