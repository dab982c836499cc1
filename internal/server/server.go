// Package server exposes the data lake operations over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/user/datalake/internal/scheduler"
	"github.com/user/datalake/internal/types"
)

// JobTrigger runs a configured job by name.
type JobTrigger interface {
	Trigger(ctx context.Context, name, input string) (scheduler.Outcome, bool)
}

// Services are the operations served by the API. A nil service answers 503.
type Services struct {
	Query   types.QueryService
	Search  types.SearchService
	Context types.ContextService
	Actions types.ActionService
	Jobs    JobTrigger
}

// Server serves the JSON API.
type Server struct {
	services Services
	logger   *slog.Logger
	handler  http.Handler
}

// New builds the router. Every response carries an X-Request-ID header.
func New(services Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{services: services, logger: logger}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger(logger))
	registerRoutes(router, s)

	s.handler = otelhttp.NewHandler(router, "datalake.http")
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Start listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("http server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
