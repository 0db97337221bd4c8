// Package config loads engine tunables from YAML with environment
// overrides and shipped defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/manekigames/merit-engine/internal/draw"
	"github.com/manekigames/merit-engine/internal/economy"
	"github.com/manekigames/merit-engine/internal/tap"
)

// Config is the full application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Session struct {
		StateFile      string `yaml:"state_file"`
		InitialBalance int64  `yaml:"initial_balance"`
	} `yaml:"session"`
	Market struct {
		BaseURL        string  `yaml:"base_url"`
		Symbol         string  `yaml:"symbol"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		FallbackPrice  float64 `yaml:"fallback_price"`
		RefreshCron    string  `yaml:"refresh_cron"`
	} `yaml:"market"`
	Draw struct {
		FreeQuota  int   `yaml:"free_quota"`
		Cost       int64 `yaml:"cost"`
		HistoryCap int   `yaml:"history_cap"`
		Bypass     bool  `yaml:"bypass"`
	} `yaml:"draw"`
	Tap struct {
		BaseRate       float64 `yaml:"base_rate"`
		StreakCoeff    float64 `yaml:"streak_coeff"`
		ComboCoeff     float64 `yaml:"combo_coeff"`
		CapRate        float64 `yaml:"cap_rate"`
		ForcedStreak   int     `yaml:"forced_streak"`
		ForcedRate     float64 `yaml:"forced_rate"`
		Cost           int64   `yaml:"cost"`
		MaxReward      int64   `yaml:"max_reward"`
		FreeRate       float64 `yaml:"free_rate"`
		FreeMin        int64   `yaml:"free_min"`
		FreeMax        int64   `yaml:"free_max"`
		TargetWindowMS int     `yaml:"target_window_ms"`
		Bypass         bool    `yaml:"bypass"`
	} `yaml:"tap"`
	Tiers []TierRow `yaml:"tiers"`
}

// TierRow mirrors one economy tier in YAML.
type TierRow struct {
	Name       string  `yaml:"name"`
	MinBalance int64   `yaml:"min_balance"`
	FeeRate    float64 `yaml:"fee_rate"`
	DailyLimit float64 `yaml:"daily_limit"`
}

// Load reads config from a YAML file (missing file is fine), then
// applies environment variable overrides and defaults.
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

	// Environment variable overrides
	if v := os.Getenv("MERIT_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("STATE_FILE"); v != "" {
		cfg.Session.StateFile = v
	}
	if v := os.Getenv("MARKET_BASE_URL"); v != "" {
		cfg.Market.BaseURL = v
	}

	// Defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/merit.db"
	}
	if cfg.Session.StateFile == "" {
		cfg.Session.StateFile = "data/session.json"
	}
	if cfg.Market.Symbol == "" {
		cfg.Market.Symbol = "MERIT"
	}
	if cfg.Market.TimeoutSeconds == 0 {
		cfg.Market.TimeoutSeconds = 3
	}
	if cfg.Market.RefreshCron == "" {
		// once per minute
		cfg.Market.RefreshCron = "0 * * * * *"
	}
	if len(cfg.Tiers) == 0 {
		for _, t := range economy.DefaultTable() {
			cfg.Tiers = append(cfg.Tiers, TierRow{
				Name:       t.Name,
				MinBalance: t.MinBalance,
				FeeRate:    t.FeeRate,
				DailyLimit: t.DailyLimit,
			})
		}
	}

	return cfg, nil
}

// Validate checks the semantic constraints of the loaded config.
func (c *Config) Validate() error {
	var errs []string

	prob := func(name string, v float64) {
		if v < 0 || v > 1 {
			errs = append(errs, name+" must be in [0,1]")
		}
	}
	prob("tap.base_rate", c.Tap.BaseRate)
	prob("tap.cap_rate", c.Tap.CapRate)
	prob("tap.forced_rate", c.Tap.ForcedRate)
	prob("tap.free_rate", c.Tap.FreeRate)
	if c.Draw.FreeQuota < 0 {
		errs = append(errs, "draw.free_quota must be >= 0")
	}
	if c.Draw.Cost < 0 {
		errs = append(errs, "draw.cost must be >= 0")
	}
	if c.Tap.Cost < 0 {
		errs = append(errs, "tap.cost must be >= 0")
	}
	if c.Tap.FreeMin < 0 || c.Tap.FreeMax < c.Tap.FreeMin {
		errs = append(errs, "tap.free_min/free_max must satisfy 0 <= min <= max")
	}
	if err := c.TierTable().Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// TierTable converts the configured rows to an economy table.
func (c *Config) TierTable() economy.Table {
	tb := make(economy.Table, 0, len(c.Tiers))
	for _, r := range c.Tiers {
		tb = append(tb, economy.Tier{
			Name:       r.Name,
			MinBalance: r.MinBalance,
			FeeRate:    r.FeeRate,
			DailyLimit: r.DailyLimit,
		})
	}
	return tb
}

// DrawConfig maps the draw section onto the engine config.
func (c *Config) DrawConfig() draw.Config {
	return draw.Config{
		FreeQuota:   c.Draw.FreeQuota,
		Cost:        c.Draw.Cost,
		HistoryCap:  c.Draw.HistoryCap,
		Bypass:      c.Draw.Bypass,
		FeedTimeout: time.Duration(c.Market.TimeoutSeconds) * time.Second,
	}
}

// TapConfig maps the tap section onto the engine config.
func (c *Config) TapConfig() tap.Config {
	return tap.Config{
		BaseRate:     c.Tap.BaseRate,
		StreakCoeff:  c.Tap.StreakCoeff,
		ComboCoeff:   c.Tap.ComboCoeff,
		CapRate:      c.Tap.CapRate,
		ForcedStreak: c.Tap.ForcedStreak,
		ForcedRate:   c.Tap.ForcedRate,
		Cost:         c.Tap.Cost,
		MaxReward:    c.Tap.MaxReward,
		FreeRate:     c.Tap.FreeRate,
		FreeMin:      c.Tap.FreeMin,
		FreeMax:      c.Tap.FreeMax,
		TargetWindow: time.Duration(c.Tap.TargetWindowMS) * time.Millisecond,
		Bypass:       c.Tap.Bypass,
	}
}

func (c *Config) MarketTimeout() time.Duration {
	return time.Duration(c.Market.TimeoutSeconds) * time.Second
}
