// Package server exposes the HTTP API: chat and profile CRUD plus the
// message endpoint that drives the attachment pipeline and the completion
// backend.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wraps the Echo server
type Server struct {
	echo    *echo.Echo
	handler *Handler
}

// Config holds server configuration options
type Config struct {
	MasterKey      string // Optional: Master key for authentication
	MetricsEnabled bool   // Whether to expose Prometheus metrics endpoint
	BodyLimit      string // Max request body size (echo format, e.g. "10M")
}

// New creates a new HTTP server
func New(handler *Handler, cfg *Config) *Server {
	e := echo.New()
	e.HideBanner = true

	// Paths that skip authentication
	authSkipPaths := []string{"/health"}
	if cfg != nil && cfg.MetricsEnabled {
		authSkipPaths = append(authSkipPaths, "/metrics")
	}

	// Global middleware stack (order matters)
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	bodyLimit := "10M"
	if cfg != nil && cfg.BodyLimit != "" {
		bodyLimit = cfg.BodyLimit
	}
	e.Use(middleware.BodyLimit(bodyLimit))

	// Authentication (skips public paths)
	if cfg != nil && cfg.MasterKey != "" {
		e.Use(AuthMiddleware(cfg.MasterKey, authSkipPaths))
	}

	// Public routes
	e.GET("/health", handler.Health)
	if cfg != nil && cfg.MetricsEnabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	// API routes
	e.POST("/v1/chats", handler.CreateChat)
	e.GET("/v1/chats", handler.ListChats)
	e.GET("/v1/chats/:id", handler.GetChat)
	e.DELETE("/v1/chats/:id", handler.DeleteChat)
	e.GET("/v1/chats/:id/messages", handler.GetMessages)
	e.POST("/v1/chats/:id/messages", handler.SendMessage)
	e.PUT("/v1/profiles/:userID", handler.UpsertProfile)
	e.GET("/v1/profiles/:userID", handler.GetProfile)
	e.DELETE("/v1/profiles/:userID", handler.DeleteProfile)

	return &Server{
		echo:    e,
		handler: handler,
	}
}

// Start starts the HTTP server on the given address
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP implements the http.Handler interface, allowing Server to be used with httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
