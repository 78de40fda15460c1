// Package server exposes a notebook Service over HTTP for the rendering
// layer.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/morozRed/notegraph/internal/notebook"
)

const shutdownTimeout = 5 * time.Second

type Options struct {
	Version string
	Logger  *slog.Logger
}

// Server routes HTTP requests to a notebook Service.
type Server struct {
	svc     *notebook.Service
	engine  *gin.Engine
	version string
	logger  *slog.Logger
}

// New builds the router. File routes are registered only when svc accepts
// writes.
func New(svc *notebook.Service, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:     svc,
		engine:  gin.New(),
		version: opts.Version,
		logger:  logger,
	}
	s.engine.Use(gin.Recovery(), s.requestContext())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/v1")
	v1.GET("/graph", s.handleGraph)
	v1.POST("/regions/collapse", s.handleCollapse)
	v1.POST("/regions/expand", s.handleExpand)
	v1.GET("/resolve", s.handleResolve)
	v1.GET("/search", s.handleSearch)
	v1.GET("/links", s.handleLinks)
	v1.POST("/scan", s.handleScan)
	v1.POST("/actions/:name", s.handleAction)
	v1.GET("/events", s.handleEvents)

	if paths, ok := s.svc.PathEditing(); ok {
		h := pathHandlers{paths: paths}
		v1.POST("/files", h.createFile)
		v1.POST("/directories", h.createDirectory)
		v1.POST("/paths/rename", h.rename)
		v1.DELETE("/paths", h.delete)
	}
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
