package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Server wraps the HTTP server for the settlement API
type Server struct {
	httpServer *http.Server
}

// NewRouter builds the gin engine with all settlement routes registered
func NewRouter(h *Handlers, defaultCommissionRate decimal.Decimal, environment string) *gin.Engine {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/api/auth/login", h.Login)

	authed := r.Group("/api", AuthRequired(h.auth))
	{
		revenue := authed.Group("/revenue")
		{
			revenue.POST("/earnings", h.RecordEarning)
			revenue.GET("/unpaid", h.QueryUnpaid)
			revenue.POST("/batch/create", h.CreateBatch)
			revenue.POST("/batch/:batchId/process", h.ProcessBatch)
			revenue.GET("/batch/:batchId", h.GetBatch)
		}

		shops := authed.Group("/shops")
		{
			shops.POST("", h.CreateShop(defaultCommissionRate))
			shops.GET("/:id", h.GetShop)
		}
	}

	return r
}

// NewServer creates the HTTP server around a router
func NewServer(addr string, router *gin.Engine) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start runs the server until it fails or is shut down
func (s *Server) Start() error {
	log.WithField("addr", s.httpServer.Addr).Info("Starting HTTP server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
