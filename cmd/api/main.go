// Command api runs the public newsroom content API.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/northpine/newsroom-api/internal/api"
	"github.com/northpine/newsroom-api/internal/config"
	"github.com/northpine/newsroom-api/internal/cursor"
	"github.com/northpine/newsroom-api/internal/database"
	"github.com/northpine/newsroom-api/internal/feeds"
	"github.com/northpine/newsroom-api/internal/logger"
	"github.com/northpine/newsroom-api/internal/metrics"
	"github.com/northpine/newsroom-api/internal/redis"
	"github.com/northpine/newsroom-api/internal/urls"
)

const (
	defaultIdleTimeout = 60 * time.Second
	shutdownTimeout    = 30 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	if err := run(cfg, appLogger); err != nil {
		appLogger.Error("server exited with error", logger.Error(err))
		_ = appLogger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, appLogger logger.Logger) error {
	// Database
	db, err := database.NewPostgresConnection(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()
	appLogger.Info("database connection established",
		logger.String("host", cfg.Database.Host),
		logger.String("dbname", cfg.Database.DBName),
	)

	// Redis is optional: without it serve counters become no-ops.
	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("redis unavailable, serve counters disabled", logger.Error(err))
		} else {
			defer func() { _ = redisClient.Close() }()
			appLogger.Info("redis connection established", logger.String("addr", cfg.Redis.Addr))
		}
	} else {
		appLogger.Warn("redis not configured, serve counters disabled")
	}

	// Wiring
	contentRepo := database.NewContentRepository(db)
	mediaRepo := database.NewMediaRepository(db)
	resolver := urls.NewResolver(cfg.API.PublicBaseURL)
	cursors := cursor.NewCodec(cfg.API.CursorSecret)
	svc := feeds.NewService(contentRepo, mediaRepo, resolver, cursors, appLogger)

	var trackerClient goredis.UniversalClient
	if redisClient != nil {
		trackerClient = redisClient
	}
	tracker := metrics.NewTracker(trackerClient, appLogger)
	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	router := api.NewRouter(svc, tracker, httpMetrics, contentRepo, trackerClient, cfg, appLogger)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		appLogger.Info("API server listening", logger.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return err
	case sig := <-quit:
		appLogger.Info("shutting down", logger.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	appLogger.Info("server stopped")
	return nil
}
