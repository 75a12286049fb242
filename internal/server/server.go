// Package server is the HTTP surface of the shop. It translates JSON requests
// into service calls and maps the service error kinds to responses.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"license-shop/internal/infrastructure/mailer"
	"license-shop/internal/infrastructure/payment"
	"license-shop/internal/logger"
	"license-shop/internal/metrics"
	"license-shop/internal/service"
)

type Config struct {
	AdminPassword  string
	AllowedOrigins []string
	ValidateRPS    float64
	ValidateBurst  int
}

type Deps struct {
	Orders   service.OrderService
	Licenses service.LicenseService
	Stats    service.StatsService
	Gateway  payment.PaymentGateway
	Mailer   mailer.Mailer
	Journal  *logger.Journal
	Metrics  *metrics.Metrics
	Logger   log.FieldLogger
	// Health reports extra component status on /healthz, e.g. the archive database.
	Health func(ctx context.Context) map[string]string
}

type Server struct {
	Deps
	cfg     Config
	admin   *adminSession
	limiter *clientLimiter
}

func New(cfg Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.StandardLogger()
	}
	return &Server{
		Deps:    deps,
		cfg:     cfg,
		admin:   &adminSession{},
		limiter: newClientLimiter(cfg.ValidateRPS, cfg.ValidateBurst),
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.Logger), cors.New(corsConfig(s.cfg.AllowedOrigins)))

	r.GET("/healthz", s.healthz)
	if s.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.Metrics.Handler()))
	}

	api := r.Group("/api")
	api.GET("/catalog", s.catalog)
	api.POST("/create-order", s.createOrder)
	api.POST("/confirm-payment/:orderId", s.confirmPayment)
	api.POST("/cancel-order/:orderId", s.cancelOrder)
	api.POST("/search-order", s.searchOrder)
	api.POST("/validate", s.limiter.middleware(), s.validate)
	api.POST("/activate", s.limiter.middleware(), s.activate)

	admin := api.Group("/admin")
	admin.POST("/login", s.adminLogin)
	admin.GET("/stats", s.requireAdmin, s.adminStats)

	return r
}

// HTTPServer wraps the router with the timeouts used in production.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", adminTokenHeader},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

func (s *Server) healthz(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if s.Health != nil {
		h := s.Health(c.Request.Context())
		body["database"] = h
		if h["status"] == "down" {
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
	}
	c.JSON(http.StatusOK, body)
}

func requestLogger(l log.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		l.WithFields(log.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency":    time.Since(started).String(),
			"remoteAddr": c.ClientIP(),
		}).Debug("request served")
	}
}
