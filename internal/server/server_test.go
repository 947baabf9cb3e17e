package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"MarketPulse/internal/metrics"
)

type stubReports struct{ calls int }

func (s *stubReports) BuildReport(context.Context) string {
	s.calls++
	return "📊 <b>BTC multi-timeframe report</b>"
}

func setup(t *testing.T) (*gin.Engine, *stubReports, *metrics.HealthStatus, *metrics.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	h := metrics.NewHealthStatus()
	reports := &stubReports{}
	return NewRouter(reports, h, reg), reports, h, m
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthz(t *testing.T) {
	router, _, health, _ := setup(t)

	w := get(router, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var snap metrics.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Status != "ok" {
		t.Errorf("status %q, want ok", snap.Status)
	}

	health.Record(metrics.ResultFetchFailed, errors.New("timeout"))
	if w := get(router, "/healthz"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 after failed run, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router, _, _, m := setup(t)
	m.SendFailures.Inc()

	w := get(router, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "marketpulse_send_failures_total 1") {
		t.Errorf("metrics output missing counter:\n%s", w.Body.String())
	}
}

func TestReportEndpoint(t *testing.T) {
	router, reports, _, _ := setup(t)

	w := get(router, "/report")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "BTC multi-timeframe report") {
		t.Errorf("unexpected body %q", w.Body.String())
	}
	if reports.calls != 1 {
		t.Errorf("expected one report build, got %d", reports.calls)
	}
}
