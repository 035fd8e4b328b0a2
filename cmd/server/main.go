package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wanderwise-ai/orchestrator/internal/auth"
	"github.com/wanderwise-ai/orchestrator/internal/chat"
	"github.com/wanderwise-ai/orchestrator/internal/config"
	"github.com/wanderwise-ai/orchestrator/internal/db"
	"github.com/wanderwise-ai/orchestrator/internal/health"
	"github.com/wanderwise-ai/orchestrator/internal/httpapi"
	"github.com/wanderwise-ai/orchestrator/internal/llm"
	"github.com/wanderwise-ai/orchestrator/internal/orchestrator"
	"github.com/wanderwise-ai/orchestrator/internal/ratecontrol"
	"github.com/wanderwise-ai/orchestrator/internal/session"
	"github.com/wanderwise-ai/orchestrator/internal/tracing"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	path := resolveConfigPath(*configPath)
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, logLevel, err := buildLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	watcher, err := config.NewWatcher(path, logger)
	if err != nil {
		logger.Fatal("Failed to watch configuration", zap.Error(err))
	}
	defer watcher.Stop()

	// Log level follows config file edits without a restart.
	watcher.OnChange(func(updated *config.Config) error {
		if lvl, err := zapcore.ParseLevel(updated.Logging.Level); err == nil {
			logLevel.SetLevel(lvl)
		}
		return nil
	})

	if err := tracing.Initialize(tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  cfg.Tracing.ServiceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
	}, logger); err != nil {
		logger.Warn("Tracing initialization failed, continuing without export", zap.Error(err))
	}

	// Model provider
	provider := llm.NewClient(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	}, llm.DefaultRetryPolicy(), logger)

	// Planning pipeline
	planner := orchestrator.New(provider, orchestrator.Config{
		ConcurrentAgents: cfg.Orchestrator.ConcurrentAgents,
		RequestTimeout:   cfg.Orchestrator.RequestTimeout,
	}, logger)

	// Sessions (Redis)
	sessions, err := session.NewManager(cfg.Redis.Addr, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer sessions.Close()

	// Trip history (Postgres). Optional: planning still works without it.
	var dbClient *db.Client
	var authHandler *httpapi.AuthHandler
	// Without a database there are no accounts; requests stay anonymous.
	authMW := auth.NewMiddleware(nil, false)
	if cfg.Database.Enabled {
		dbClient, err = db.NewClient(&db.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.Database,
			SSLMode:         cfg.Database.SSLMode,
			MaxConnections:  cfg.Database.MaxConnections,
			IdleConnections: cfg.Database.IdleConnections,
			MaxLifetime:     cfg.Database.MaxLifetime,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer dbClient.Close()

		jwtManager := auth.NewJWTManager(
			cfg.Auth.JWTSecret,
			cfg.Auth.AccessTokenTTL,
			cfg.Auth.RefreshTokenTTL,
		)
		authService := auth.NewService(dbClient.Wrapper(), logger, jwtManager)
		authMW = auth.NewMiddleware(jwtManager, cfg.Auth.SkipAuth)
		authHandler = httpapi.NewAuthHandler(authService, logger)
	} else {
		logger.Warn("Database disabled, running without accounts or trip history")
	}

	chatService := chat.NewService(provider, sessions, logger)

	// HTTP API
	mux := http.NewServeMux()

	planHandler := httpapi.NewPlanHandler(planner, tripStore(dbClient), sessions, logger)
	planHandler.RegisterRoutes(mux, authMW)

	chatHandler := httpapi.NewChatHandler(chatService, sessions, logger)
	chatHandler.RegisterRoutes(mux, authMW)

	if authHandler != nil {
		authHandler.RegisterRoutes(mux, authMW)
		tripsHandler := httpapi.NewTripsHandler(dbClient, logger)
		tripsHandler.RegisterRoutes(mux, authMW)
	}

	// Health checks
	healthMgr := health.NewManager(logger)
	healthMgr.Register(health.NewRedisChecker(sessions.Redis().Client(), sessions.Redis()))
	if dbClient != nil {
		healthMgr.Register(health.NewDatabaseChecker(dbClient.DB(), dbClient.Wrapper()))
	}
	healthMgr.Register(health.NewModelProviderChecker(cfg.LLM.BaseURL, cfg.LLM.APIKey))
	healthMgr.Start()
	defer healthMgr.Stop()
	healthMgr.RegisterRoutes(mux)

	// Rate limit, then logging/metrics, then CORS on the outside.
	limiter := ratecontrol.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	handler := httpapi.CORS(httpapi.Instrument(logger, limiter.Middleware(nil)(mux)))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  300 * time.Second,
	}

	// Metrics on a separate listener
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: promhttp.Handler(),
	}
	go func() {
		logger.Info("Metrics server starting", zap.Int("port", cfg.Server.MetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("Server stopped")
}

// tripStore adapts the nilable concrete client to the handler interface.
// A typed nil inside a non-nil interface would defeat the handler's nil
// check.
func tripStore(client *db.Client) httpapi.TripStore {
	if client == nil {
		return nil
	}
	return client
}

func resolveConfigPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return "config/wanderwise.yaml"
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, zap.AtomicLevel, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	atomicLevel := zap.NewAtomicLevelAt(level)

	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = atomicLevel

	logger, err := zapCfg.Build()
	return logger, atomicLevel, err
}
