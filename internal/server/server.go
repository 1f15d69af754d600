// Package server assembles the HTTP surface: middleware, route groups and
// the http.Server itself.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"medialist/internal/auth"
	"medialist/internal/config"

	"github.com/gin-gonic/gin"
)

// ServiceName is reported by the health endpoint
const ServiceName = "medialist-api"

// RouteRegistrar is implemented by every feature handler
type RouteRegistrar interface {
	RegisterRoutes(r gin.IRouter)
}

// HealthChecker reports the state of a backing dependency
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

// SessionCounter reports how many sessions are held
type SessionCounter interface {
	Len() int
}

// Server holds the dependencies for the HTTP server
type Server struct {
	allowedOrigins []string

	resolver auth.Resolver
	db       HealthChecker
	sessions SessionCounter
	handlers []RouteRegistrar
	logger   *slog.Logger
}

// Deps are the collaborators the routes are built from
type Deps struct {
	Resolver auth.Resolver
	DB       HealthChecker
	Sessions SessionCounter
	Handlers []RouteRegistrar
	Logger   *slog.Logger
}

// New creates a server for the given dependencies
func New(allowedOrigins []string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173"}
	}
	return &Server{
		allowedOrigins: allowedOrigins,
		resolver:       deps.Resolver,
		db:             deps.DB,
		sessions:       deps.Sessions,
		handlers:       deps.Handlers,
		logger:         logger,
	}
}

// NewHTTPServer configures an http.Server for handler with the timeouts from cfg
func NewHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}
