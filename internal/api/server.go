package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/r-dev-asia/rims-gateway/internal/device"
	"github.com/r-dev-asia/rims-gateway/internal/infrastructure/config"
	"github.com/r-dev-asia/rims-gateway/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is how long Close waits for in-flight
// requests to finish.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Registry *device.Registry

	// Hub receives gateway events and feeds the websocket stream.
	// Optional; New creates one when nil. Pass a pre-built hub when
	// it must be wired into the gateway before the server starts.
	Hub *Hub

	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler

	Version string
}

// Server is the HTTP API server.
type Server struct {
	cfg      config.APIConfig
	logger   *logging.Logger
	registry *device.Registry
	hub      *Hub
	metrics  http.Handler
	version  string

	server *http.Server
}

// New creates an API server from its dependencies.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, errors.New("api: logger is required")
	}
	if deps.Registry == nil {
		return nil, errors.New("api: device registry is required")
	}

	hub := deps.Hub
	if hub == nil {
		hub = NewHub(deps.Logger)
	}

	return &Server{
		cfg:      deps.Config,
		logger:   deps.Logger,
		registry: deps.Registry,
		hub:      hub,
		metrics:  deps.Metrics,
		version:  deps.Version,
	}, nil
}

// Hub returns the server's event hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins serving HTTP requests in the background.
func (s *Server) Start() error {
	if s.server != nil {
		return errors.New("api: server already started")
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("api server listening", "addr", addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", err)
		}
	}()

	return nil
}

// Close shuts the server down gracefully and disconnects all
// websocket clients.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	err := s.server.Shutdown(ctx)
	s.hub.closeAll()
	s.logger.Info("api server stopped")
	return err
}
