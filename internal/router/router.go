package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/luckypig3400/NEC-Backend/internal/handler/health"
	"github.com/luckypig3400/NEC-Backend/internal/handler/prometheus"
	"github.com/luckypig3400/NEC-Backend/internal/middleware"
	"github.com/luckypig3400/NEC-Backend/pkg/logger"
)

type Handler interface {
	RegisterRoutes(gin.IRouter)
}

type Router struct {
	engine   *gin.Engine
	config   RouterConfig
	health   *health.Handler
	metrics  *prometheus.Handler
	handlers []Handler
}

type RouterConfig struct {
	// Prefix is the mount point of the resource routes, e.g. "/api".
	Prefix      string
	Mode        string
	RateLimit   rate.Limit
	RateBurst   int
	CORSConfig  middleware.CORSConfig
	Timeout     time.Duration
	MaxBodySize int64
	MetricsPath string
}

// NewRouter builds the engine and its global middleware. metrics may be nil to
// disable request metrics and the exposition route.
func NewRouter(
	log *logger.Logger,
	config RouterConfig,
	healthH *health.Handler,
	metrics *prometheus.Handler,
	handlers ...Handler,
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	middleware.RegisterValidation()

	engine := gin.New() // Use New() instead of Default() for more control

	r := &Router{
		engine:   engine,
		config:   config,
		health:   healthH,
		metrics:  metrics,
		handlers: handlers,
	}

	// Add core middlewares
	engine.Use(
		middleware.RequestID(log),
		middleware.Logger(log),
		middleware.Recovery(log),
	)
	if metrics != nil {
		engine.Use(metrics.Middleware())
	}
	engine.Use(
		middleware.CORS(config.CORSConfig),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
		middleware.SizeLimit(middleware.SizeLimitConfig{MaxBodySize: config.MaxBodySize}),
	)

	// Configure rate limiter
	if config.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	if r.health != nil {
		r.health.RegisterRoutes(r.engine)
	}
	if r.metrics != nil {
		path := r.config.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.engine.GET(path, r.metrics.Handler())
	}

	api := r.engine.Group(r.config.Prefix)
	for _, h := range r.handlers {
		h.RegisterRoutes(api)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
