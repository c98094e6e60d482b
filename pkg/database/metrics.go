package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/event"
)

// PoolStatter is implemented by *pgxpool.Pool.
type PoolStatter interface {
	Stat() *pgxpool.Stat
}

// PoolStatsCollector exports pgxpool statistics as Prometheus metrics.
type PoolStatsCollector struct {
	pool    PoolStatter
	service string

	acquiredConns    *prometheus.Desc
	idleConns        *prometheus.Desc
	totalConns       *prometheus.Desc
	maxConns         *prometheus.Desc
	acquireCount     *prometheus.Desc
	acquireDuration  *prometheus.Desc
	emptyAcquires    *prometheus.Desc
	canceledAcquires *prometheus.Desc
}

// NewPoolStatsCollector creates a collector reading pool on every scrape.
func NewPoolStatsCollector(pool PoolStatter, service string) *PoolStatsCollector {
	labels := []string{"service", "system"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(name, help, labels, nil)
	}
	return &PoolStatsCollector{
		pool:             pool,
		service:          service,
		acquiredConns:    desc("db_pool_acquired_connections", "Number of currently acquired connections"),
		idleConns:        desc("db_pool_idle_connections", "Number of currently idle connections"),
		totalConns:       desc("db_pool_total_connections", "Total number of connections in the pool"),
		maxConns:         desc("db_pool_max_connections", "Maximum number of connections allowed"),
		acquireCount:     desc("db_pool_acquire_count_total", "Total number of connection acquires"),
		acquireDuration:  desc("db_pool_acquire_duration_seconds_total", "Total time spent acquiring connections in seconds"),
		emptyAcquires:    desc("db_pool_empty_acquire_count_total", "Total number of acquires that had to wait for a connection"),
		canceledAcquires: desc("db_pool_canceled_acquire_count_total", "Total number of canceled connection acquires"),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredConns
	ch <- c.idleConns
	ch <- c.totalConns
	ch <- c.maxConns
	ch <- c.acquireCount
	ch <- c.acquireDuration
	ch <- c.emptyAcquires
	ch <- c.canceledAcquires
}

// Collect implements prometheus.Collector.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stat := c.pool.Stat()
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, c.service, "postgresql")
	}
	counter := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, c.service, "postgresql")
	}

	gauge(c.acquiredConns, float64(stat.AcquiredConns()))
	gauge(c.idleConns, float64(stat.IdleConns()))
	gauge(c.totalConns, float64(stat.TotalConns()))
	gauge(c.maxConns, float64(stat.MaxConns()))
	counter(c.acquireCount, float64(stat.AcquireCount()))
	counter(c.acquireDuration, stat.AcquireDuration().Seconds())
	counter(c.emptyAcquires, float64(stat.EmptyAcquireCount()))
	counter(c.canceledAcquires, float64(stat.CanceledAcquireCount()))
}

// RegisterPoolMetrics registers a pgxpool collector with reg.
func RegisterPoolMetrics(reg prometheus.Registerer, pool PoolStatter, service string) error {
	return reg.Register(NewPoolStatsCollector(pool, service))
}

// MongoPoolMetrics tracks the MongoDB driver's connection pool through its
// pool event stream.
type MongoPoolMetrics struct {
	open            prometheus.Gauge
	inUse           prometheus.Gauge
	checkoutFailure prometheus.Counter
}

// NewMongoPoolMetrics creates and registers the pool gauges with reg.
func NewMongoPoolMetrics(reg prometheus.Registerer, service string) (*MongoPoolMetrics, error) {
	labels := prometheus.Labels{"service": service, "system": "mongodb"}
	m := &MongoPoolMetrics{
		open: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_pool_total_connections",
			Help:        "Total number of connections in the pool",
			ConstLabels: labels,
		}),
		inUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_pool_acquired_connections",
			Help:        "Number of currently acquired connections",
			ConstLabels: labels,
		}),
		checkoutFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "db_pool_canceled_acquire_count_total",
			Help:        "Total number of canceled connection acquires",
			ConstLabels: labels,
		}),
	}

	for _, c := range []prometheus.Collector{m.open, m.inUse, m.checkoutFailure} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Monitor returns the driver hook to install with MongoConfig.PoolMonitor.
func (m *MongoPoolMetrics) Monitor() *event.PoolMonitor {
	return &event.PoolMonitor{Event: m.observe}
}

func (m *MongoPoolMetrics) observe(evt *event.PoolEvent) {
	switch evt.Type {
	case event.ConnectionCreated:
		m.open.Inc()
	case event.ConnectionClosed:
		m.open.Dec()
	case event.GetSucceeded:
		m.inUse.Inc()
	case event.ConnectionReturned:
		m.inUse.Dec()
	case event.GetFailed:
		m.checkoutFailure.Inc()
	}
}
