package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"MarketPulse/internal/model"
)

// Supported data providers.
var providers = map[string]bool{
	"coingecko": true,
	"binance":   true,
	"yahoo":     true,
	"mock":      true,
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		Commands bool   `yaml:"commands"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider         string `yaml:"provider"`
		Symbol           string `yaml:"symbol"`
		BaseURL          string `yaml:"base_url"`
		LookbackDays     int    `yaml:"lookback_days"`
		LongLookbackDays int    `yaml:"long_lookback_days"`
	} `yaml:"data_source"`
	Analysis struct {
		Short  model.Timeframe `yaml:"short"`
		Medium model.Timeframe `yaml:"medium"`
		Long   model.Timeframe `yaml:"long"`
	} `yaml:"analysis"`
	Schedule struct {
		ReportCron string `yaml:"report_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
		Disabled   bool   `yaml:"disabled"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("TELEGRAM_COMMANDS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TELEGRAM_COMMANDS: %w", err)
		}
		c.Telegram.Commands = b
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		c.DataSource.Provider = v
	}
	if v := os.Getenv("SYMBOL"); v != "" {
		c.DataSource.Symbol = v
	}
	if v := os.Getenv("LOOKBACK_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LOOKBACK_DAYS: %w", err)
		}
		c.DataSource.LookbackDays = n
	}
	if v := os.Getenv("CRON_REPORT"); v != "" {
		c.Schedule.ReportCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	c.DataSource.Provider = strings.ToLower(c.DataSource.Provider)
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "coingecko"
	}
	if c.DataSource.Symbol == "" {
		c.DataSource.Symbol = "BTC"
	}
	c.DataSource.Symbol = strings.ToUpper(c.DataSource.Symbol)
	if c.DataSource.LookbackDays == 0 {
		c.DataSource.LookbackDays = 90
	}
	if c.DataSource.LongLookbackDays == 0 {
		c.DataSource.LongLookbackDays = 365
	}
	if c.Analysis.Short == "" {
		c.Analysis.Short = model.TF1h
	}
	if c.Analysis.Medium == "" {
		c.Analysis.Medium = model.TF4h
	}
	if c.Analysis.Long == "" {
		c.Analysis.Long = model.TF1d
	}
	if c.Schedule.ReportCron == "" {
		c.Schedule.ReportCron = "0 0 8 * * *"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/candles.db"
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	if c.Telegram.Commands && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.commands requires telegram.bot_token")
	}
	if !providers[c.DataSource.Provider] {
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if c.DataSource.LookbackDays <= 0 {
		return fmt.Errorf("data_source.lookback_days must be positive")
	}
	if c.DataSource.LongLookbackDays < 0 {
		return fmt.Errorf("data_source.long_lookback_days must not be negative")
	}
	if c.DataSource.Provider == "coingecko" && c.Analysis.Short == model.TF1h && c.DataSource.LookbackDays > 90 {
		return fmt.Errorf("data_source.lookback_days: coingecko serves hourly data for at most 90 days")
	}

	tfs := []struct {
		key string
		tf  model.Timeframe
	}{
		{"analysis.short", c.Analysis.Short},
		{"analysis.medium", c.Analysis.Medium},
		{"analysis.long", c.Analysis.Long},
	}
	var prev int64
	for _, t := range tfs {
		d, err := t.tf.Duration()
		if err != nil {
			return fmt.Errorf("%s: %w", t.key, err)
		}
		if int64(d) <= prev {
			return fmt.Errorf("%s (%s) must be longer than the previous timeframe", t.key, t.tf)
		}
		prev = int64(d)
	}
	return nil
}
