package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"MarketPulse/internal/analysis"
	"MarketPulse/internal/collector"
	"MarketPulse/internal/metrics"
	"MarketPulse/internal/notifier"
)

// Source supplies the candles for one run.
type Source interface {
	Collect(ctx context.Context) (*collector.Batch, error)
}

// Sender delivers a finished report.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages the report cron task and on-demand runs.
type Scheduler struct {
	Cron     *cron.Cron
	Source   Source
	Analyzer *analysis.Analyzer
	Notifier Sender
	Metrics  *metrics.Metrics
	Health   *metrics.HealthStatus
	Symbol   string
	Ctx      context.Context
	Now      func() time.Time

	mu sync.Mutex // serializes runs
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, src Source, an *analysis.Analyzer, sender Sender, m *metrics.Metrics, h *metrics.HealthStatus, symbol string) *Scheduler {
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log.Default()))),
		),
		Source:   src,
		Analyzer: an,
		Notifier: sender,
		Metrics:  m,
		Health:   h,
		Symbol:   symbol,
		Ctx:      ctx,
		Now:      time.Now,
	}
}

// Register adds the periodic report task.
func (s *Scheduler) Register(reportCron string) error {
	if _, err := s.Cron.AddFunc(reportCron, s.RunReportNow); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunReportNow builds a report and sends it (cron task, manual trigger, RUN_ON_START).
func (s *Scheduler) RunReportNow() {
	report := s.BuildReport(s.Ctx)
	s.trySend(report)
}

// BuildReport runs collect, analyze and format once. It always returns a
// message: the full report, or a short diagnostic when data is unavailable.
func (s *Scheduler) BuildReport(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	log.Printf("[INFO] running %s report", s.Symbol)

	batch, err := s.Source.Collect(ctx)
	if err != nil {
		log.Printf("[ERROR] collect: %v", err)
		s.finish(metrics.ResultFetchFailed, started, err)
		return notifier.FormatFailure(s.Symbol, err)
	}
	s.Metrics.CandlesFetched.WithLabelValues(string(batch.Base.Timeframe)).Set(float64(batch.Base.Len()))
	for _, sup := range batch.Supplements {
		s.Metrics.CandlesFetched.WithLabelValues(string(sup.Timeframe)).Set(float64(sup.Len()))
	}

	res, err := s.Analyzer.Run(batch.Base, batch.Supplements...)
	if res == nil {
		log.Printf("[ERROR] analyze: %v", err)
		s.finish(metrics.ResultFailed, started, err)
		return notifier.FormatFailure(s.Symbol, err)
	}
	for tf := range res.Skipped {
		s.Metrics.SkippedTimeframes.WithLabelValues(string(tf)).Inc()
	}

	result := metrics.ResultOK
	if err != nil {
		log.Printf("[WARN] %v", err)
		result = metrics.ResultPartial
	}
	s.finish(result, started, err)
	return notifier.FormatReport(res, s.Now())
}

func (s *Scheduler) finish(result string, started time.Time, err error) {
	s.Metrics.ObserveRun(result, started)
	s.Health.Record(result, err)
	log.Printf("[INFO] report run finished: %s in %v", result, time.Since(started).Truncate(time.Millisecond))
}

const helpText = "Available commands:\n• /report: multi-timeframe analysis now\n• /help: this message"

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	cmd, _, _ := strings.Cut(strings.TrimSpace(command), " ")
	cmd, _, _ = strings.Cut(cmd, "@") // /report@SomeBot in group chats
	switch strings.ToLower(cmd) {
	case "/report":
		return s.BuildReport(ctx)
	default:
		return helpText
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		log.Printf("[WARN] no notifier configured, report not delivered:\n%s", text)
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		if !errors.Is(err, context.Canceled) {
			s.Metrics.SendFailures.Inc()
		}
		log.Printf("[ERROR] send notification: %v", err)
	}
}
