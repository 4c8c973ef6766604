// Package http provides the HTTP adapter over the workflow orchestrators.
// It is a thin layer: request parsing, actor extraction, and error-to-status
// mapping; all workflow rules live below it.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     *zap.Logger
}

// NewServer creates a new HTTP server with the given handlers
func NewServer(config ServerConfig, handlers *Handlers, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: handlers,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.String("latency", time.Since(start).String()),
			zap.String("client_ip", c.ClientIP()))
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.HealthCheck)

	api := s.router.Group("/api/v1")
	{
		api.GET("/entities/:id", s.handlers.GetEntity)
		api.GET("/entities/:id/history", s.handlers.GetEntityHistory)
		api.GET("/entities/:id/replay", s.handlers.ReplayEntity)

		req := api.Group("/requisitions")
		{
			req.POST("", s.handlers.CreateRequisition)
			req.GET("/pending", s.handlers.ListPendingRequisitions)
			req.POST("/:id/approve", s.handlers.ApproveRequisition)
			req.POST("/:id/reject", s.handlers.RejectRequisition)
			req.POST("/:id/cancel", s.handlers.CancelRequisition)
		}

		travel := api.Group("/travel-requests")
		{
			travel.POST("", s.handlers.CreateTravelRequest)
			travel.GET("", s.handlers.ListTravelRequests)
			travel.POST("/:id/supervisor-approve", s.handlers.TravelSupervisorApprove)
			travel.POST("/:id/supervisor-reject", s.handlers.TravelSupervisorReject)
			travel.POST("/:id/final-approve", s.handlers.TravelFinalApprove)
			travel.POST("/:id/final-reject", s.handlers.TravelFinalReject)
			travel.POST("/:id/submit-to-finance", s.handlers.TravelSubmitToFinance)
			travel.POST("/:id/finance-clear", s.handlers.TravelFinanceClear)
			travel.POST("/:id/request-driver", s.handlers.TravelRequestDriver)
			travel.POST("/:id/assign-driver", s.handlers.TravelAssignDriver)
			travel.POST("/:id/request-flight", s.handlers.TravelRequestFlight)
			travel.POST("/:id/book-flight", s.handlers.TravelBookFlight)
			travel.POST("/:id/begin-notifications", s.handlers.TravelBeginNotifications)
			travel.POST("/:id/cancel", s.handlers.TravelCancel)
		}

		tenders := api.Group("/tenders")
		{
			tenders.POST("", s.handlers.CreateTender)
			tenders.GET("/open", s.handlers.ListOpenTenders)
			tenders.POST("/:id/open", s.handlers.OpenTender)
			tenders.POST("/:id/close", s.handlers.CloseTender)
			tenders.POST("/:id/start-review", s.handlers.StartTenderReview)
			tenders.POST("/:id/award", s.handlers.AwardTender)
			tenders.POST("/:id/cancel", s.handlers.CancelTender)
		}

		pos := api.Group("/purchase-orders")
		{
			pos.POST("", s.handlers.IssuePurchaseOrder)
			pos.GET("", s.handlers.ListPurchaseOrders)
			pos.POST("/:id/mark-delivered", s.handlers.MarkPODelivered)
			pos.POST("/:id/confirm-delivery", s.handlers.ConfirmPODelivery)
			pos.POST("/:id/cancel", s.handlers.CancelPurchaseOrder)
		}

		invoices := api.Group("/invoices")
		{
			invoices.POST("", s.handlers.SubmitInvoice)
			invoices.GET("", s.handlers.ListInvoices)
			invoices.POST("/:id/approve", s.handlers.ApproveInvoice)
			invoices.POST("/:id/reject", s.handlers.RejectInvoice)
			invoices.POST("/:id/mark-paid", s.handlers.MarkInvoicePaid)
		}

		vendors := api.Group("/vendors")
		{
			vendors.POST("", s.handlers.RegisterVendor)
			vendors.GET("/pending", s.handlers.ListPendingVendors)
			vendors.POST("/:id/approve", s.handlers.ApproveVendor)
			vendors.POST("/:id/reject", s.handlers.RejectVendor)
		}
	}
}

// Start starts the HTTP server and blocks until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", zap.Error(err))
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
