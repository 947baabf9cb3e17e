package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"MarketPulse/internal/analysis"
	"MarketPulse/internal/collector"
	"MarketPulse/internal/config"
	"MarketPulse/internal/metrics"
	"MarketPulse/internal/notifier"
	"MarketPulse/internal/scheduler"
	"MarketPulse/internal/server"
	"MarketPulse/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] MarketPulse starting...")

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] load .env: %v", err)
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "binance":
		fetcher = collector.NewBinanceFetcher(cfg.DataSource.BaseURL, cfg.Proxy)
	case "yahoo":
		fetcher = collector.NewYahooFetcher(cfg.DataSource.BaseURL, cfg.Proxy)
	case "mock":
		fetcher = &collector.MockFetcher{Price: 60000}
	default:
		fetcher = collector.NewCoinGeckoFetcher(cfg.DataSource.BaseURL, cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s, symbol: %s", fetcher.Name(), cfg.DataSource.Symbol)

	// Init candle store
	var st store.CandleStore = store.NewNoopStore()
	if !cfg.Database.Disabled {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
			log.Printf("[WARN] create database dir: %v", err)
		}
		ss, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite store failed, using noop: %v", err)
		} else {
			st = ss
		}
	}
	defer st.Close()

	// Init collector and analyzer
	col := collector.NewCollector(fetcher, st, cfg.DataSource.Symbol)
	col.Base = cfg.Analysis.Short
	col.LookbackDays = cfg.DataSource.LookbackDays
	col.Long = cfg.Analysis.Long
	col.LongLookbackDays = cfg.DataSource.LongLookbackDays
	an := analysis.NewAnalyzer(cfg.Analysis.Short, cfg.Analysis.Medium, cfg.Analysis.Long)

	// Init metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)
	health := metrics.NewHealthStatus()

	// Init Telegram notifier
	var sender scheduler.Sender
	if cfg.Telegram.BotToken != "" {
		sender = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	} else {
		log.Println("[WARN] telegram.bot_token not set, reports will only be logged")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, an, sender, m, health, cfg.DataSource.Symbol)
	if err := sched.Register(cfg.Schedule.ReportCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram command bot
	if cfg.Telegram.Commands {
		bot, err := notifier.NewCommandBot(cfg.Telegram.BotToken, cfg.Telegram.ChatID, sched.HandleCommand)
		if err != nil {
			log.Printf("[ERROR] %v, commands disabled", err)
		} else {
			go bot.Start(ctx)
			log.Println("[INFO] Telegram command bot started")
		}
	}

	// Start HTTP server
	if cfg.Server.Addr != "" {
		gin.SetMode(gin.ReleaseMode)
		srv := server.New(cfg.Server.Addr, server.NewRouter(sched, health, reg))
		srv.Start()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			srv.Stop(shutdownCtx)
		}()
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing report now")
		go sched.RunReportNow()
	}

	log.Println("[INFO] MarketPulse is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] MarketPulse stopped")
}

