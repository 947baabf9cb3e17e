package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_ObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveRun(ResultOK, time.Now().Add(-time.Second))
	m.ObserveRun(ResultPartial, time.Now())
	m.ObserveRun(ResultOK, time.Now())

	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues(ResultOK)); got != 2 {
		t.Errorf("ok runs = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues(ResultPartial)); got != 1 {
		t.Errorf("partial runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LastSuccessfulRun); got <= 0 {
		t.Errorf("expected last successful run timestamp, got %v", got)
	}
	if n := testutil.CollectAndCount(m.RunDuration); n != 1 {
		t.Errorf("expected one histogram series, got %d", n)
	}
}

func TestNewMetrics_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	defer func() {
		if recover() == nil {
			t.Error("expected duplicate registration to panic")
		}
	}()
	NewMetrics(reg)
}

func TestHealthStatus(t *testing.T) {
	h := NewHealthStatus()
	if s := h.Snapshot(); s.Status != "ok" || !s.LastRun.IsZero() {
		t.Errorf("unexpected initial snapshot %+v", s)
	}

	h.Record(ResultFetchFailed, errors.New("timeout"))
	s := h.Snapshot()
	if s.Status != "degraded" || s.LastError != "timeout" || s.LastResult != ResultFetchFailed {
		t.Errorf("unexpected snapshot after failure %+v", s)
	}

	h.Record(ResultPartial, nil)
	if s := h.Snapshot(); s.Status != "ok" || s.LastError != "" {
		t.Errorf("unexpected snapshot after partial run %+v", s)
	}
}
