package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run results used as the "result" label.
const (
	ResultOK          = "ok"
	ResultPartial     = "partial"
	ResultFetchFailed = "fetch_failed"
	ResultFailed      = "failed"
)

// Metrics holds all Prometheus metrics for report runs.
type Metrics struct {
	RunsTotal         *prometheus.CounterVec // labels: result
	RunDuration       prometheus.Histogram
	SkippedTimeframes *prometheus.CounterVec // labels: timeframe
	SendFailures      prometheus.Counter
	LastSuccessfulRun prometheus.Gauge
	CandlesFetched    *prometheus.GaugeVec // labels: timeframe
}

// NewMetrics creates the metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketpulse_runs_total",
			Help: "Report runs by result",
		}, []string{"result"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketpulse_run_duration_seconds",
			Help:    "Wall time of one collect, analyze and format run",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		SkippedTimeframes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketpulse_skipped_timeframes_total",
			Help: "Timeframes excluded from synthesis for lack of history",
		}, []string{"timeframe"}),
		SendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_send_failures_total",
			Help: "Reports that could not be delivered to Telegram",
		}),
		LastSuccessfulRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marketpulse_last_successful_run_timestamp_seconds",
			Help: "Unix time of the last run that produced a composite view",
		}),
		CandlesFetched: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "marketpulse_candles_fetched",
			Help: "Candles received in the last run per timeframe",
		}, []string{"timeframe"}),
	}

	reg.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.SkippedTimeframes,
		m.SendFailures,
		m.LastSuccessfulRun,
		m.CandlesFetched,
	)
	return m
}

// ObserveRun records one finished run.
func (m *Metrics) ObserveRun(result string, started time.Time) {
	m.RunsTotal.WithLabelValues(result).Inc()
	m.RunDuration.Observe(time.Since(started).Seconds())
	if result == ResultOK {
		m.LastSuccessfulRun.SetToCurrentTime()
	}
}

// HealthStatus tracks the outcome of the latest run for the health endpoint.
type HealthStatus struct {
	mu         sync.RWMutex
	startedAt  time.Time
	lastRun    time.Time
	lastResult string
	lastError  string
}

func NewHealthStatus() *HealthStatus {
	return &HealthStatus{startedAt: time.Now()}
}

// Record stores the result of a run; err may be nil.
func (h *HealthStatus) Record(result string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastRun = time.Now()
	h.lastResult = result
	h.lastError = ""
	if err != nil {
		h.lastError = err.Error()
	}
}

// Snapshot is a point-in-time copy of the health state.
type Snapshot struct {
	Status     string    `json:"status"`
	Uptime     string    `json:"uptime"`
	LastRun    time.Time `json:"last_run,omitempty"`
	LastResult string    `json:"last_result,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
}

// Snapshot reports "ok" until a run fails outright, then "degraded".
func (h *HealthStatus) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	status := "ok"
	if h.lastResult == ResultFetchFailed || h.lastResult == ResultFailed {
		status = "degraded"
	}
	return Snapshot{
		Status:     status,
		Uptime:     time.Since(h.startedAt).Truncate(time.Second).String(),
		LastRun:    h.lastRun,
		LastResult: h.lastResult,
		LastError:  h.lastError,
	}
}
