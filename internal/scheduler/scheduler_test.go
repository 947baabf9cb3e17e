package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"MarketPulse/internal/analysis"
	"MarketPulse/internal/collector"
	"MarketPulse/internal/metrics"
	"MarketPulse/internal/model"
)

var fixedNow = time.Date(2024, 6, 30, 8, 0, 0, 0, time.UTC)

type failingSource struct{ err error }

func (f failingSource) Collect(context.Context) (*collector.Batch, error) { return nil, f.err }

type recordingSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (r *recordingSender) SendWithRetry(_ context.Context, text string, _ int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, text)
	return r.err
}

func newTestScheduler(t *testing.T, src Source, sender Sender) (*Scheduler, *metrics.Metrics) {
	t.Helper()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	s := NewScheduler(context.Background(), src, analysis.NewAnalyzer(model.TF1h, model.TF4h, model.TF1d),
		sender, m, metrics.NewHealthStatus(), "BTC")
	s.Now = func() time.Time { return fixedNow }
	return s, m
}

func mockSource() Source {
	f := &collector.MockFetcher{Price: 60000, Now: func() time.Time { return fixedNow }}
	c := collector.NewCollector(f, nil, "BTC")
	c.Now = func() time.Time { return fixedNow }
	return c
}

func TestBuildReport_FullPipeline(t *testing.T) {
	s, m := newTestScheduler(t, mockSource(), nil)

	report := s.BuildReport(context.Background())
	for _, want := range []string{"BTC multi-timeframe report", "▶ <b>1h</b>", "▶ <b>4h</b>", "▶ <b>1d</b>", "View: <b>"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues(metrics.ResultOK)); got != 1 {
		t.Errorf("ok runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CandlesFetched.WithLabelValues("1h")); got != 90*24 {
		t.Errorf("hourly candles gauge = %v, want %d", got, 90*24)
	}
	if s.Health.Snapshot().LastResult != metrics.ResultOK {
		t.Errorf("unexpected health %+v", s.Health.Snapshot())
	}
}

func TestBuildReport_FetchFailure(t *testing.T) {
	s, m := newTestScheduler(t, failingSource{err: errors.New("coingecko: status 503")}, nil)

	report := s.BuildReport(context.Background())
	if !strings.Contains(report, "Data unavailable: coingecko: status 503") {
		t.Errorf("unexpected failure report: %s", report)
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues(metrics.ResultFetchFailed)); got != 1 {
		t.Errorf("fetch_failed runs = %v, want 1", got)
	}
	if s.Health.Snapshot().Status != "degraded" {
		t.Error("expected degraded health after fetch failure")
	}
}

func TestBuildReport_PartialWithoutSupplement(t *testing.T) {
	f := &collector.MockFetcher{Price: 60000, Now: func() time.Time { return fixedNow }}
	c := collector.NewCollector(f, nil, "BTC")
	c.Long = "" // 90 days of hourly data alone cannot classify the daily timeframe
	s, m := newTestScheduler(t, c, nil)

	report := s.BuildReport(context.Background())
	if !strings.Contains(report, "⏭ 1d skipped") || !strings.Contains(report, "Insufficient data: 2 of 3") {
		t.Errorf("expected partial report:\n%s", report)
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues(metrics.ResultPartial)); got != 1 {
		t.Errorf("partial runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SkippedTimeframes.WithLabelValues("1d")); got != 1 {
		t.Errorf("skipped 1d = %v, want 1", got)
	}
}

func TestRunReportNow_SendsReport(t *testing.T) {
	sender := &recordingSender{err: errors.New("telegram down")}
	s, m := newTestScheduler(t, failingSource{err: errors.New("boom")}, sender)

	s.RunReportNow()
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], "Data unavailable") {
		t.Errorf("unexpected sent messages %q", sender.sent)
	}
	if got := testutil.ToFloat64(m.SendFailures); got != 1 {
		t.Errorf("send failures = %v, want 1", got)
	}
}

func TestHandleCommand(t *testing.T) {
	s, _ := newTestScheduler(t, failingSource{err: errors.New("boom")}, nil)

	tests := []struct {
		command string
		want    string
	}{
		{"/help", "Available commands"},
		{"/start", "Available commands"},
		{"/report", "Data unavailable: boom"},
		{"/report@PulseBot", "Data unavailable: boom"},
		{"  /REPORT now", "Data unavailable: boom"},
		{"hello", "Available commands"},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			if got := s.HandleCommand(context.Background(), tt.command); !strings.Contains(got, tt.want) {
				t.Errorf("HandleCommand(%q) = %q, want it to contain %q", tt.command, got, tt.want)
			}
		})
	}
}

func TestRegister_InvalidCron(t *testing.T) {
	s, _ := newTestScheduler(t, failingSource{}, nil)
	if err := s.Register("not a cron"); err == nil {
		t.Error("expected error for invalid cron expression")
	}
	if err := s.Register("0 0 8 * * *"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
