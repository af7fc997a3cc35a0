// Package server mounts the GraphQL schema on an HTTP listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hmans/todograph/internal/graph"
)

// Options configures the HTTP surface.
type Options struct {
	// Path is where GraphQL is served, e.g. "/graphql".
	Path string
	// CORSOrigins lists allowed origins. "*" allows any origin.
	CORSOrigins []string
	// Playground serves the GraphQL Playground on GET requests to Path.
	Playground bool
}

// Request is the GraphQL-over-HTTP request envelope.
type Request struct {
	Query         string         `json:"query" binding:"required"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// Server serves a graph.Schema over HTTP.
type Server struct {
	schema *graph.Schema
	opts   Options
	log    logrus.FieldLogger
	engine *gin.Engine
}

// New builds the gin engine and routes.
func New(schema *graph.Schema, opts Options, log logrus.FieldLogger) *Server {
	if opts.Path == "" {
		opts.Path = "/graphql"
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &Server{schema: schema, opts: opts, log: log}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(log), cors.New(corsConfig(opts.CORSOrigins)))

	engine.GET("/health", s.handleHealth)
	engine.POST(opts.Path, s.handleGraphQL)
	if opts.Playground {
		engine.GET(opts.Path, gin.WrapH(playground.Handler("todograph", opts.Path)))
	}

	s.engine = engine
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve accepts connections on l until ctx is cancelled, then shuts down
// gracefully. A listener failure is returned as an error.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	server := &http.Server{
		Handler:     s.engine,
		IdleTimeout: 60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Serve(l)
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.log.Info("server stopped")
		return nil
	}
}

// ListenAndServe binds addr and serves until ctx is cancelled.
// Failing to bind is returned immediately.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.log.WithFields(logrus.Fields{
		"address": l.Addr().String(),
		"path":    s.opts.Path,
	}).Info("server listening")
	return s.Serve(ctx, l)
}

func (s *Server) handleGraphQL(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": []gin.H{{"message": fmt.Sprintf("invalid request body: %v", err)}},
		})
		return
	}

	resp := s.schema.Exec(c.Request.Context(), req.Query, req.OperationName, req.Variables)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       time.Hour,
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

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("request")
	}
}
