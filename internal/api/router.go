// Package api exposes the read-only content endpoints over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/northpine/newsroom-api/internal/config"
	"github.com/northpine/newsroom-api/internal/database"
	"github.com/northpine/newsroom-api/internal/feeds"
	"github.com/northpine/newsroom-api/internal/logger"
	"github.com/northpine/newsroom-api/internal/metrics"
)

const (
	healthStatusHealthy  = "healthy"
	healthStatusDegraded = "degraded"
	healthCheckTimeout   = 2 * time.Second
	serviceVersion       = "1.0.0"
)

// Router holds the API dependencies
type Router struct {
	svc         *feeds.Service
	tracker     *metrics.Tracker
	httpMetrics *metrics.HTTPMetrics
	repo        *database.ContentRepository
	redisClient redis.UniversalClient
	cfg         *config.Config
	logger      logger.Logger
}

// NewRouter creates a new API router
func NewRouter(
	svc *feeds.Service,
	tracker *metrics.Tracker,
	httpMetrics *metrics.HTTPMetrics,
	repo *database.ContentRepository,
	redisClient redis.UniversalClient,
	cfg *config.Config,
	log logger.Logger,
) *Router {
	return &Router{
		svc:         svc,
		tracker:     tracker,
		httpMetrics: httpMetrics,
		repo:        repo,
		redisClient: redisClient,
		cfg:         cfg,
		logger:      log,
	}
}

// SetupRoutes builds the gin engine with middleware and all routes.
func (r *Router) SetupRoutes() *gin.Engine {
	// Set Gin mode based on config
	if !r.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(requestLogger(r.logger))
	router.Use(corsMiddleware(r.cfg.Server.CORSOrigins))
	if r.httpMetrics != nil {
		router.Use(r.httpMetrics.Middleware())
	}

	// Operational endpoints (no auth)
	router.GET("/health", r.healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.GET("/home", r.getHome)
	v1.GET("/sections/:slug", r.getSectionFeed)
	v1.GET("/articles/:slug", r.getArticle)
	v1.GET("/stats/overview", r.getStatsOverview)

	return router
}

// healthCheck returns the service health status
func (r *Router) healthCheck(c *gin.Context) {
	health := gin.H{
		"status":  healthStatusHealthy,
		"service": "newsroom-api",
		"version": serviceVersion,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	dbConnected := true
	if err := r.repo.Ping(ctx); err != nil {
		dbConnected = false
		health["status"] = healthStatusDegraded
	}
	health["database"] = gin.H{
		"connected": dbConnected,
	}

	health["redis"] = r.checkRedisHealth(ctx)

	c.JSON(http.StatusOK, health)
}

// checkRedisHealth checks Redis connection and returns health info. Redis
// is optional, so a missing client is reported but never degrades status.
func (r *Router) checkRedisHealth(ctx context.Context) gin.H {
	if r.redisClient == nil {
		return gin.H{
			"connected": false,
			"error":     "Redis client not configured",
		}
	}

	if err := r.redisClient.Ping(ctx).Err(); err != nil {
		return gin.H{
			"connected": false,
			"error":     err.Error(),
		}
	}
	return gin.H{"connected": true}
}
