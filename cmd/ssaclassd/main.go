package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/totoccar/SpaceSituationalAwareness/internal/api"
	"github.com/totoccar/SpaceSituationalAwareness/internal/auth"
	"github.com/totoccar/SpaceSituationalAwareness/internal/catalog"
	"github.com/totoccar/SpaceSituationalAwareness/internal/classify"
	"github.com/totoccar/SpaceSituationalAwareness/internal/metrics"
	"github.com/totoccar/SpaceSituationalAwareness/internal/propagation"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	}))

	addr := os.Getenv("SSA_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	rlCfg := loadRateLimitConfig(logger)
	catCfg := loadCatalogConfig(logger)

	engine := classify.NewEngine(propagation.NewSGP4(), logger)
	pool := classify.NewPool(loadWorkers(logger), engine, logger)

	store := catalog.NewFileStore(catCfg.cacheFile)
	cat := catalog.NewService(catalog.NewFetcher(catCfg.feedURL), store, logger)

	// Report the snapshot state at startup; a missing file just means the
	// first listing will fetch.
	if snap, err := store.Load(); err != nil {
		logger.Info("no catalog snapshot found, first listing will fetch", "path", catCfg.cacheFile)
	} else {
		logger.Info("catalog snapshot loaded",
			"count", len(snap.Satellites),
			"cached_at", snap.CachedAt.Format(time.RFC3339),
		)
		metrics.SetCatalogSnapshotAge(time.Since(snap.CachedAt).Seconds())
	}

	srv := api.NewServer(addr, logger, authCfg, rlCfg, engine, pool, cat)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background goroutine keeping the snapshot age gauge current.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if snap, err := store.Load(); err == nil {
					metrics.SetCatalogSnapshotAge(time.Since(snap.CachedAt).Seconds())
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server",
			"addr", addr,
			"auth_enabled", authCfg.Enabled,
			"ratelimit_enabled", rlCfg.Enabled,
			"feed_url", catCfg.feedURL,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func logLevel() slog.Level {
	switch os.Getenv("SSA_LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("SSA_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("SSA_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("SSA_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("SSA_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

func loadRateLimitConfig(logger *slog.Logger) api.RateLimitConfig {
	cfg := api.RateLimitConfig{
		PerSecond: 10,
		Burst:     20,
	}

	if v := os.Getenv("SSA_RATELIMIT_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid SSA_RATELIMIT_ENABLED value, rate limiting disabled", "value", v)
		} else {
			cfg.Enabled = enabled
		}
	}

	if v := os.Getenv("SSA_RATELIMIT_PER_SECOND"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n <= 0 {
			logger.Warn("invalid SSA_RATELIMIT_PER_SECOND value, using default", "value", v, "default", cfg.PerSecond)
		} else {
			cfg.PerSecond = n
		}
	}

	if v := os.Getenv("SSA_RATELIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SSA_RATELIMIT_BURST value, using default", "value", v, "default", cfg.Burst)
		} else {
			cfg.Burst = n
		}
	}

	if v := os.Getenv("SSA_TRUST_PROXY"); v != "" {
		trust, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid SSA_TRUST_PROXY value, not trusting proxy headers", "value", v)
		} else {
			cfg.TrustProxy = trust
		}
	}

	return cfg
}

type catalogConfig struct {
	feedURL   string
	cacheFile string
}

func loadCatalogConfig(logger *slog.Logger) catalogConfig {
	cfg := catalogConfig{
		cacheFile: "/tmp/ssa/tle_cache.json",
	}

	cfg.feedURL = os.Getenv("SSA_FEED_URL")
	if v := os.Getenv("SSA_CACHE_FILE"); v != "" {
		cfg.cacheFile = v
	}

	logger.Info("catalog config", "cache_file", cfg.cacheFile)
	return cfg
}

func loadWorkers(logger *slog.Logger) int {
	workers := runtime.NumCPU()
	if v := os.Getenv("SSA_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SSA_WORKERS value, using NumCPU", "value", v, "default", workers)
		} else {
			workers = n
		}
	}
	return workers
}
