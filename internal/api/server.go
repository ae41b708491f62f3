package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/codemint/internal/codes"
	"github.com/codemint/internal/payment"
)

const serviceName = "codemint"

// Server represents the API server
type Server struct {
	echo  *echo.Echo
	port  int
	store codes.Store
}

// Options configures a Server.
type Options struct {
	Port    int
	Store   codes.Store
	Webhook *payment.RazorpayWebhookHandler

	// ExposeCodes enables GET /_debug/codes, which dumps every
	// stored code and payer email. Development only.
	ExposeCodes bool
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	e := echo.New()

	// Middleware. CORS stays wide open so browser frontends can call
	// verify-code directly.
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	server := &Server{
		echo:  e,
		port:  opts.Port,
		store: opts.Store,
	}

	server.setupRoutes(opts.Webhook, opts.ExposeCodes)

	return server
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes(webhook *payment.RazorpayWebhookHandler, exposeCodes bool) {
	s.echo.GET("/", s.health)
	s.echo.POST("/razorpay/webhook", webhook.HandleWebhook)
	s.echo.POST("/verify-code", s.verifyCode)

	if exposeCodes {
		s.echo.GET("/_debug/codes", s.debugCodes)
	}
}

// Start begins the API server
func (s *Server) Start() error {
	// Start server in a goroutine
	go func() {
		if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && err != http.ErrServerClosed {
			s.echo.Logger.Fatal("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}
