package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/shahanursiam/sampletrack/config"
	"github.com/shahanursiam/sampletrack/internal/api/handlers"
	"github.com/shahanursiam/sampletrack/internal/metrics"
	"github.com/shahanursiam/sampletrack/internal/services"
	"github.com/shahanursiam/sampletrack/internal/tracing"
)

// Services bundles the service layer the API serves.
type Services struct {
	Samples    *services.SampleService
	Invoices   *services.InvoiceService
	Containers *services.ContainerService
	Approvals  *services.ApprovalService
	Settings   *services.SettingService
	Locations  *services.LocationService
}

// Server represents the HTTP server
type Server struct {
	config     config.Config
	router     *gin.Engine
	httpServer *http.Server
	svc        Services
	metrics    *metrics.Metrics
	tracer     tracing.Tracer
}

// NewServer creates a new HTTP server
func NewServer(cfg config.Config, svc Services, m *metrics.Metrics, tracer tracing.Tracer) *Server {
	server := &Server{
		config:  cfg,
		svc:     svc,
		metrics: m,
		tracer:  tracer,
	}

	router := server.setupRouter()
	server.router = router

	httpServer := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: router,
	}
	server.httpServer = httpServer

	return server
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() *gin.Engine {
	router := gin.Default()

	// Recovery middleware
	router.Use(gin.Recovery())
	router.Use(requestLogger())
	router.Use(s.requestMetrics())

	// Health check endpoint, outside the authenticated group
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.metrics.GetAllMetrics())
	})

	v1 := router.Group("/api/v1")
	v1.Use(handlers.IdentityMiddleware())

	handlers.NewSampleHandler(s.svc.Samples, s.tracer).RegisterRoutes(v1)
	handlers.NewInvoiceHandler(s.svc.Invoices, s.tracer).RegisterRoutes(v1)
	handlers.NewContainerHandler(s.svc.Containers, s.tracer).RegisterRoutes(v1)
	handlers.NewAdminHandler(s.svc.Approvals, s.svc.Settings, s.svc.Locations).RegisterRoutes(v1)

	return router
}

// requestLogger logs every request with status, latency and client details.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		event := log.Info()
		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}
		event.
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Str("method", c.Request.Method).
			Str("path", path).
			Msg("Request processed")
	}
}

// requestMetrics times every request and counts error responses.
func (s *Server) requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.metrics.RecordTimer("http_request_ms", time.Since(start).Milliseconds())
		s.metrics.IncrementCounter("http_requests_total")
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.metrics.IncrementCounter("http_requests_failed")
		}
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.ServerAddress).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
