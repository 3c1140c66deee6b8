// Package main is the entry point for pathfinderd.
//
// pathfinderd answers one question over a trust-and-token network of
// the Circles family: how much value can safe S send to safe T, and
// through which concrete token transfers. It loads the trust graph
// (safes, balances, trust percentages) from PostgreSQL, derives a
// capacity graph, runs a 256-bit max-flow computation and returns the
// transfer schedule over a JSON HTTP API.
//
// # Architecture
//
//	┌────────────────────────────────────────────────────────────┐
//	│                    HTTP Transport Layer                    │
//	│  Middleware: recovery, request-id, logging, metrics,       │
//	│  CORS, rate-limit, auth (internal/middleware, handlers)    │
//	├────────────────────────────────────────────────────────────┤
//	│                      Service Layer                         │
//	│  (internal/service) validation, caching, metrics, tracing  │
//	├────────────────────────────────────────────────────────────┤
//	│                    Graph Builder Layer                     │
//	│  (internal/flowgraph) trust state → capacity edges         │
//	├────────────────────────────────────────────────────────────┤
//	│                       Flow Engine                          │
//	│  (internal/flow) fattest-first augmenting paths over       │
//	│  U256 capacities, transfer extraction                      │
//	├────────────────────────────────────────────────────────────┤
//	│                     Repository Layer                       │
//	│  (internal/repository) safes/balances/trusts from Postgres │
//	└────────────────────────────────────────────────────────────┘
//
// # Configuration
//
// Configuration is loaded with the following priority (highest to lowest):
//  1. Environment variables (prefix: PATHFINDER_)
//  2. Config files (config.yaml, config/config.yaml, /etc/pathfinder/config.yaml)
//  3. Default values from pkg/config/loader.go
//
// Key configuration options (environment variable format):
//
//	# Application
//	PATHFINDER_APP_NAME           - Service name (default: pathfinderd)
//	PATHFINDER_APP_ENVIRONMENT    - Environment: development, staging, production
//
//	# HTTP Server
//	PATHFINDER_HTTP_PORT          - API port (default: 8080)
//
//	# Logging
//	PATHFINDER_LOG_LEVEL          - debug, info, warn, error (default: info)
//	PATHFINDER_LOG_FORMAT         - json, text (default: json)
//	PATHFINDER_LOG_OUTPUT         - stdout, stderr, file (default: stdout)
//
//	# Database
//	PATHFINDER_DATABASE_HOST      - PostgreSQL host (default: localhost)
//	PATHFINDER_DATABASE_DATABASE  - Database name (default: pathfinder)
//	PATHFINDER_DATABASE_AUTO_MIGRATE - Run goose migrations on start (default: true)
//
//	# Caching
//	PATHFINDER_CACHE_ENABLED      - Enable result caching (default: false)
//	PATHFINDER_CACHE_DRIVER       - memory, redis (default: memory)
//
//	# Tracing / Metrics
//	PATHFINDER_TRACING_ENABLED    - OTLP tracing (default: false)
//	PATHFINDER_METRICS_ENABLED    - Prometheus metrics server (default: true)
//	PATHFINDER_METRICS_PORT       - Metrics port (default: 9090)
//
//	# Flow engine
//	PATHFINDER_FLOW_SPLIT_TRANSFERS - Allow partial transfers in extraction
//	PATHFINDER_FLOW_MAX_SAFES       - Trust graph size limit
//
// # API Usage
//
//	curl -s localhost:8080/api/v1/flow/compute -d '{
//	  "source": "0x9ba1bcd88e99d6e1e03252a70a63fea83bf1208e",
//	  "sink":   "0x42cedde51198f1a49c00ce52bebcd690e21a5f10"
//	}'
//
// Response:
//
//	{
//	  "max_flow": "7000000000000000000",
//	  "transfers": [
//	    {"from": "0x9ba1…", "to": "0x42ce…", "token": "0x9ba1…", "value": "7000000000000000000"}
//	  ]
//	}
//
// # Graceful Shutdown
//
// SIGINT/SIGTERM stop the HTTP server, bounded by http.shutdown_timeout;
// then the rate limiter, cache and database pool are closed and the trace
// exporter is flushed with its own 5-second bound.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"pathfinder/internal/handlers"
	"pathfinder/internal/middleware"
	"pathfinder/internal/repository"
	"pathfinder/internal/service"
	"pathfinder/pkg/cache"
	"pathfinder/pkg/config"
	"pathfinder/pkg/database"
	"pathfinder/pkg/logger"
	"pathfinder/pkg/metrics"
	"pathfinder/pkg/ratelimit"
	"pathfinder/pkg/telemetry"
)

func main() {
	// =========================================================================
	// Configuration and Logger
	// =========================================================================
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	ctx := context.Background()

	// =========================================================================
	// Telemetry (OpenTelemetry)
	// =========================================================================
	tp, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		logger.Log.Warn("Failed to init telemetry", "error", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Log.Warn("Failed to shutdown telemetry", "error", err)
			}
		}()
	}

	// =========================================================================
	// Metrics (Prometheus)
	// =========================================================================
	m := metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
	m.SetServiceInfo(cfg.App.Version, cfg.App.Environment)
	if cfg.Metrics.Enabled {
		go func() {
			logger.Log.Info("Metrics server listening", "port", cfg.Metrics.Port)
			if err := metrics.StartMetricsServer(cfg.Metrics.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Log.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// =========================================================================
	// Database and Migrations
	// =========================================================================
	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db.Pool(), &cfg.Database, repository.Migrations, repository.MigrationsDir); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	// =========================================================================
	// Cache
	// =========================================================================
	var flowCache *cache.FlowCache
	if cfg.Cache.Enabled {
		backend, err := cache.New(&cache.Options{
			Backend:       cfg.Cache.Driver,
			DefaultTTL:    cfg.Cache.DefaultTTL,
			MaxEntries:    cfg.Cache.MaxEntries,
			RedisAddr:     cfg.Cache.Address(),
			RedisPassword: cfg.Cache.Password,
			RedisDB:       cfg.Cache.DB,
		})
		if err != nil {
			// Кэш опционален - работаем без него
			logger.Log.Warn("Failed to init cache, running without it", "error", err)
		} else {
			defer func() {
				if err := backend.Close(); err != nil {
					logger.Log.Warn("Failed to close cache", "error", err)
				}
			}()
			flowCache = cache.NewFlowCache(backend, cfg.Cache.DefaultTTL)
			logger.Log.Info("Flow cache enabled", "driver", cfg.Cache.Driver)
		}
	}

	// =========================================================================
	// Rate Limiter
	// =========================================================================
	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter, err = ratelimit.New(&ratelimit.Config{
			Requests:        cfg.RateLimit.Requests,
			Window:          cfg.RateLimit.Window,
			Backend:         cfg.RateLimit.Backend,
			CleanupInterval: cfg.RateLimit.CleanupInterval,
			RedisAddr:       cfg.RateLimit.RedisAddr,
		})
		if err != nil {
			logger.Log.Warn("Failed to init rate limiter, running without it", "error", err)
		} else {
			defer func() {
				if err := limiter.Close(); err != nil {
					logger.Log.Warn("Failed to close rate limiter", "error", err)
				}
			}()
		}
	}

	// =========================================================================
	// Service and HTTP Server
	// =========================================================================
	repo := repository.NewPostgresSafeRepository(db)
	svc := service.New(repo, flowCache, m, cfg.Flow)

	mux := http.NewServeMux()
	handlers.NewFlowHandler(svc, db).Register(mux)

	chain := []middleware.Middleware{
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Metrics(),
	}
	if cfg.HTTP.CORS.Enabled {
		chain = append(chain, middleware.CORS(cfg.HTTP.CORS))
	}
	if limiter != nil {
		chain = append(chain, middleware.RateLimit(limiter))
	}
	if cfg.Auth.Enabled {
		chain = append(chain, middleware.Auth(cfg.Auth, "/healthz", "/readyz"))
	}

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.HTTP.Port),
		Handler:      middleware.Chain(mux, chain...),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logger.Log.Info("HTTP server listening",
			"port", cfg.HTTP.Port,
			"environment", cfg.App.Environment,
			"version", cfg.App.Version,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", "error", err)
		}
	}()

	// =========================================================================
	// Graceful Shutdown
	// =========================================================================
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("HTTP server shutdown failed", "error", err)
	}
	logger.Log.Info("Shutdown complete")
}
