// Package api provides the HTTP REST API and WebSocket server for the land
// area converter.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/nerrad567/landarea-core/internal/conversion"
	"github.com/nerrad567/landarea-core/internal/infrastructure/config"
	"github.com/nerrad567/landarea-core/internal/infrastructure/logging"
	"github.com/nerrad567/landarea-core/internal/session"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Surfaces reported with each conversion.
const (
	surfaceHTTP      = "http"
	surfaceWebSocket = "websocket"
)

// ConversionRecorder receives one call per answered conversion.
// *influxdb.Client satisfies it.
type ConversionRecorder interface {
	RecordConversion(surface, from, to, region string, valid bool)
}

// ConnectionStatus reports whether an optional connection is up.
// *mqtt.Client satisfies it.
type ConnectionStatus interface {
	IsConnected() bool
}

// DBStatser exposes connection pool statistics. *database.DB satisfies it.
type DBStatser interface {
	Stats() sql.DBStats
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Panel    config.PanelConfig
	Logger   *logging.Logger
	Registry *conversion.Registry
	Sessions *session.Manager

	// Optional.
	Recorder ConversionRecorder
	MQTT     ConnectionStatus
	DB       DBStatser

	Version string
}

// Server is the HTTP API server.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	panelCfg  config.PanelConfig
	logger    *logging.Logger
	registry  *conversion.Registry
	sessions  *session.Manager
	recorder  ConversionRecorder
	mqtt      ConnectionStatus
	db        DBStatser
	version   string
	startTime time.Time
	server    *http.Server
	addr      string
	hub       *Hub
	cancel    context.CancelFunc // stops the hub on Close

	conversions atomic.Uint64
	invalid     atomic.Uint64
}

// New creates a server from deps. It does not listen until Start.
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Logger == nil:
		return nil, errors.New("logger is required")
	case deps.Registry == nil:
		return nil, errors.New("conversion registry is required")
	case deps.Sessions == nil:
		return nil, errors.New("session manager is required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		panelCfg:  deps.Panel,
		logger:    deps.Logger,
		registry:  deps.Registry,
		sessions:  deps.Sessions,
		recorder:  deps.Recorder,
		mqtt:      deps.MQTT,
		db:        deps.DB,
		version:   deps.Version,
		startTime: time.Now(),
	}
	s.hub = NewHub(s.logger)

	return s, nil
}

// Start binds the listener and serves in the background until Close.
// A bind failure, such as the port being taken, is returned directly.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	var hubCtx context.Context
	hubCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(hubCtx)

	timeouts := s.cfg.Timeouts
	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       timeouts.ReadTimeout(),
		ReadHeaderTimeout: timeouts.ReadTimeout(),
		WriteTimeout:      timeouts.WriteTimeout(),
		IdleTimeout:       timeouts.IdleTimeout(),
	}
	s.addr = ln.Addr().String()

	tls := s.cfg.TLS
	s.logger.Info("API server starting", "address", s.addr, "tls", tls.Enabled)
	go func() {
		var err error
		if tls.Enabled {
			err = s.server.ServeTLS(ln, tls.CertFile, tls.KeyFile)
		} else {
			err = s.server.Serve(ln)
		}
		if !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	return s.addr
}

// Close stops the hub and shuts the listener down, giving in-flight
// requests up to gracefulShutdownTimeout to finish.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("api health check: %w", err)
	}
	if s.server == nil {
		return errors.New("api server not started")
	}
	return nil
}

// recordConversion counts a conversion and forwards it to the optional recorder.
func (s *Server) recordConversion(surface string, req conversion.Request, valid bool) {
	s.conversions.Add(1)
	if !valid {
		s.invalid.Add(1)
	}
	if s.recorder != nil {
		s.recorder.RecordConversion(surface, string(req.From), string(req.To), string(req.Region), valid)
	}
}
