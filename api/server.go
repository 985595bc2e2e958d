package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fanpool/infrastructure/observability"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

// NewRouter builds the gin engine with every route registered
func NewRouter(h *Handler, health HealthCheck) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), observability.GinMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		if health != nil {
			if err := health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", observability.Handler())

	v1 := router.Group("/api/v1")
	{
		v1.POST("/stakes", h.CreateStake)
		v1.GET("/events/:id", h.GetEvent)
		v1.GET("/events/:id/pool", h.GetPool)
		v1.GET("/events/:id/stakes/:user_id", h.GetStakeStatus)
		v1.DELETE("/events/:id/stakes/:user_id", h.CancelStake)

		v1.POST("/scans", h.Scan)
		v1.GET("/tokens/:token", h.GetTokenInfo)

		v1.POST("/accounts", h.OpenAccount)
		v1.GET("/accounts/:user_id", h.GetAccount)
		v1.GET("/accounts/:user_id/history", h.GetHistory)
	}

	admin := v1.Group("/admin")
	{
		admin.POST("/events", h.RegisterEvent)
		admin.POST("/events/:id/approve", h.ApproveEvent)
		admin.POST("/events/:id/result", h.ReportResult)
		admin.POST("/events/:id/tokens", h.IssueToken)
		admin.POST("/events/:id/settle", h.Settle)
		admin.POST("/tokens/:token/deactivate", h.DeactivateToken)
		admin.POST("/pools", h.InjectPool)
	}

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
			"clientIP": c.ClientIP(),
		}).Debug("HTTP request")
	}
}

// Server is the HTTP server lifecycle
type Server struct {
	httpServer *http.Server
}

// NewServer creates a server listening on addr
func NewServer(addr string, router *gin.Engine) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start serves until Shutdown is called. It returns nil on graceful shutdown.
func (s *Server) Start() error {
	log.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
