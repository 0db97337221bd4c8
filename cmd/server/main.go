package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/manekigames/merit-engine/internal/clock"
	"github.com/manekigames/merit-engine/internal/config"
	"github.com/manekigames/merit-engine/internal/draw"
	"github.com/manekigames/merit-engine/internal/logger"
	"github.com/manekigames/merit-engine/internal/market"
	"github.com/manekigames/merit-engine/internal/rng"
	"github.com/manekigames/merit-engine/internal/server"
	"github.com/manekigames/merit-engine/internal/session"
	"github.com/manekigames/merit-engine/internal/stats"
	"github.com/manekigames/merit-engine/internal/tap"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		os.Stderr.WriteString("load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "merit-engine",
	})
	if err := cfg.Validate(); err != nil {
		log.Error("config validation failed", "error", err)
		os.Exit(1)
	}

	clk := clock.New()
	src := rng.Default()

	// Session state. A fresh install gets the configured starter balance.
	sessStore := session.NewFileStore(cfg.Session.StateFile)
	state := sessStore.Load()
	if state.TotalDrawsLifetime == 0 && state.SoftBalance == 0 {
		state.SoftBalance = cfg.Session.InitialBalance
	}

	// Burn statistics: SQLite, memory fallback when it can't open.
	var statsStore stats.Store
	if sq, err := stats.NewSQLiteStore(cfg.Database.SQLitePath); err != nil {
		log.Warn("sqlite unavailable, stats held in memory", "error", err)
		statsStore = stats.NewMemStore()
	} else {
		statsStore = sq
		defer sq.Close()
	}
	statsSvc := stats.NewService(statsStore, clk, log)

	// Optional market flavor feed, refreshed on a schedule.
	var feed draw.PriceFeed
	if cfg.Market.BaseURL != "" {
		client := market.NewClient(cfg.Market.BaseURL, cfg.Market.Symbol, cfg.MarketTimeout(), cfg.Market.FallbackPrice, clk)
		feed = client
		sched := cron.New(cron.WithSeconds())
		if _, err := sched.AddFunc(cfg.Market.RefreshCron, func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.MarketTimeout())
			defer cancel()
			if _, err := client.Fetch(ctx); err != nil {
				log.Warn("price refresh failed", "error", err)
			}
		}); err != nil {
			log.Error("register price refresh", "error", err)
			os.Exit(1)
		}
		sched.Start()
		defer sched.Stop()
	}

	drawEng := draw.NewEngine(cfg.DrawConfig(), src, clk, state, sessStore, feed, log)
	tapEng := tap.NewEngine(cfg.TapConfig(), src, clk, state, sessStore, statsSvc, log)

	srv := server.New(drawEng, tapEng, cfg.TierTable(), statsSvc, state, log)
	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("listening", "addr", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown", "error", err)
	}
}
