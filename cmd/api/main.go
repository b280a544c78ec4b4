// Package main is the entry point for the feed ranking API server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/tidefall/feedrank/internal/api"
	"github.com/tidefall/feedrank/internal/auth"
	"github.com/tidefall/feedrank/internal/config"
	"github.com/tidefall/feedrank/internal/feed"
	"github.com/tidefall/feedrank/internal/health"
	"github.com/tidefall/feedrank/internal/middleware"
	"github.com/tidefall/feedrank/internal/post"
	"github.com/tidefall/feedrank/internal/postgres"
	"github.com/tidefall/feedrank/internal/ranking"
	"github.com/tidefall/feedrank/internal/user"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("Feedrank API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			slog.Error("invalid configuration", "error", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	rankCfg, err := ranking.LoadCalibration(cfg.RankingCalibrationPath)
	if err != nil {
		logger.Error("failed to load ranking calibration", "error", err)
		os.Exit(1)
	}
	scorer := ranking.NewScorer(rankCfg)

	checkers := make(map[string]health.Checker)

	var posts post.Repository
	var users user.Repository
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}()
		posts = postgres.NewPostStore(db, logger)
		users = postgres.NewUserStore(db, logger)
		checkers["database"] = health.NewDBChecker(db)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
		posts = post.NewInMemoryRepository()
		users = user.NewInMemoryRepository()
	}

	var cache *feed.TrendingCache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("failed to parse REDIS_URL", "error", err)
			os.Exit(1)
		}
		client := redis.NewClient(opts)
		defer func() {
			if err := client.Close(); err != nil {
				logger.Error("failed to close redis client", "error", err)
			}
		}()
		cache = feed.NewTrendingCache(client, feed.DefaultTrendingTTL, logger)
		checkers["redis"] = health.NewRedisChecker(client)
	}

	metrics := feed.NewMetrics()
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	feeds := feed.NewService(posts, users, scorer, cache, metrics, logger)
	feedHandlers := api.NewFeedHandlers(feeds)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /feed", feedHandlers.HandleFeed)
	mux.HandleFunc("GET /feed/trending", feedHandlers.HandleTrending)
	mux.HandleFunc("GET /feed/discovery", feedHandlers.HandleDiscovery)
	mux.HandleFunc("GET /health", health.Handler(checkers))
	mux.Handle("GET /metrics", promhttp.Handler())

	// Apply middleware: RequestID -> Logging -> OptionalAuth
	var handler http.Handler = mux
	if cfg.JWTSecret != "" {
		handler = auth.OptionalAuth(auth.NewJWTService(cfg.JWTSecret))(handler)
	}
	handler = middleware.RequestID(middleware.Logging(logger)(handler))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
