package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/obe-achievement/internal/platform/envutil"
	"github.com/yungbote/obe-achievement/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	writeOps       *HistogramVec
	writeConflicts *CounterVec
	writeRetryable *CounterVec

	outcomesComputed *CounterVec
	outcomeWrites    *CounterVec
	bulkUnits        *CounterVec
	eventsPublished  *CounterVec
	warnings         *CounterVec

	dbStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	return envutil.Duration("METRICS_SCRAPE_INTERVAL", 10*time.Second)
}

// Init returns the process-wide registry, or nil when METRICS_ENABLED is off.
// All Metrics methods are nil-safe.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

// New builds an unregistered Metrics set. Tests use it directly.
func New() *Metrics {
	latency := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}
	return &Metrics{
		apiRequests: NewCounterVec("obe_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("obe_api_request_duration_seconds", "API request latency in seconds by method/route/status.", []string{"method", "route", "status"}, latency),
		apiInflight: NewGauge("obe_api_inflight_requests", "In-flight API requests."),

		writeOps:       NewHistogramVec("obe_write_duration_seconds", "Transactional write duration by operation/status.", []string{"op", "status"}, latency),
		writeConflicts: NewCounterVec("obe_write_conflicts_total", "Writes that lost a uniqueness race.", []string{"op"}),
		writeRetryable: NewCounterVec("obe_write_retryable_total", "Writes that failed with a transient store error.", []string{"op"}),

		outcomesComputed: NewCounterVec("obe_outcomes_computed_total", "Outcome rollups computed by level and verdict.", []string{"level", "status"}),
		outcomeWrites:    NewCounterVec("obe_outcome_writes_total", "Derived achievement saves by level and result (written/unchanged).", []string{"level", "result"}),
		bulkUnits:        NewCounterVec("obe_bulk_units_total", "Bulk recompute units by status.", []string{"status"}),
		eventsPublished:  NewCounterVec("obe_events_published_total", "Achievement-changed events by publish status.", []string{"status"}),
		warnings:         NewCounterVec("obe_warnings_total", "Non-fatal computation warnings by kind.", []string{"kind"}),

		dbStats:   NewGaugeVec("obe_db_pool", "Database connection pool stats.", []string{"stat"}),
		redisUp:   NewGauge("obe_redis_up", "Redis reachability (1 up, 0 down)."),
		redisPing: NewGauge("obe_redis_ping_seconds", "Redis ping latency in seconds."),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	all := []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.writeOps, m.writeConflicts, m.writeRetryable,
		m.outcomesComputed, m.outcomeWrites, m.bulkUnits, m.eventsPublished, m.warnings,
		m.dbStats, m.redisUp, m.redisPing,
	}
	for _, pw := range all {
		if err := pw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveWriteOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.writeOps.Observe(dur.Seconds(), op, status)
}

func (m *Metrics) IncWriteConflict(op string) {
	if m == nil {
		return
	}
	m.writeConflicts.Inc(op)
}

func (m *Metrics) IncWriteRetryable(op string) {
	if m == nil {
		return
	}
	m.writeRetryable.Inc(op)
}

// ObserveOutcome records one rollup verdict and whether the save wrote a row.
func (m *Metrics) ObserveOutcome(level, status string, written bool) {
	if m == nil {
		return
	}
	m.outcomesComputed.Inc(level, status)
	result := "unchanged"
	if written {
		result = "written"
	}
	m.outcomeWrites.Inc(level, result)
}

func (m *Metrics) IncBulkUnit(status string) {
	if m == nil {
		return
	}
	m.bulkUnits.Inc(status)
}

func (m *Metrics) IncEventPublished(status string) {
	if m == nil {
		return
	}
	m.eventsPublished.Inc(status)
}

func (m *Metrics) IncWarning(kind string) {
	if m == nil {
		return
	}
	m.warnings.Inc(kind)
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.dbStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
