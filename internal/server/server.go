package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tim10002/mcp-azresource/internal/logger"
	"github.com/tim10002/mcp-azresource/internal/version"
)

// HTTP server timeout constants
const (
	DefaultReadTimeout  = 15 * time.Second // Maximum duration for reading the entire request
	DefaultWriteTimeout = 15 * time.Second // Maximum duration before timing out writes of the response
	DefaultIdleTimeout  = 60 * time.Second // Maximum amount of time to wait for the next request
)

// ReadinessChecker reports whether Azure credentials currently work
type ReadinessChecker interface {
	IsReady() bool
	LastError() error
}

// status is the body of /health and /ready
type status struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// index is the body of /
type index struct {
	Service   string            `json:"service"`
	Build     map[string]string `json:"build"`
	Ready     bool              `json:"ready"`
	Endpoints []string          `json:"endpoints"`
}

// Server is the ops HTTP listener. MCP traffic never passes through it.
type Server struct {
	server *http.Server
	health ReadinessChecker
	logger *logger.Logger

	mu   sync.Mutex
	addr net.Addr
}

// NewServer creates a server listening on addr (":9090", "127.0.0.1:0").
// Metrics are served from gatherer.
func NewServer(addr string, health ReadinessChecker, gatherer prometheus.Gatherer, log *logger.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		server: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
			IdleTimeout:  DefaultIdleTimeout,
		},
		health: health,
		logger: log,
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return s
}

// Start binds the listener and serves until Shutdown. It returns nil after a
// clean shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.logger.Info("Ops HTTP server listening", "address", ln.Addr().String())
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ops server stopped: %w", err)
	}
	return nil
}

// Addr returns the bound address, or nil before Start has listened
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down ops HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, index{
		Service:   version.Name,
		Build:     version.Info(),
		Ready:     s.health.IsReady(),
		Endpoints: []string{"/health", "/ready", "/metrics"},
	})
}

// handleHealth is the liveness probe and always answers 200
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, status{Status: "healthy"})
}

// handleReady returns 200 only after a token has been minted and the latest
// mint succeeded
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.health.LastError(); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, status{Status: "not ready", Error: err.Error()})
		return
	}
	if !s.health.IsReady() {
		s.writeJSON(w, http.StatusServiceUnavailable, status{Status: "not ready", Message: "waiting for the first access token"})
		return
	}
	s.writeJSON(w, http.StatusOK, status{Status: "ready"})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", "status", code, "error", err)
	}
}
