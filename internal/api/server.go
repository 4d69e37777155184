// Package api provides the HTTP REST API for the bridge.
//
// It exposes the entity registry, state history, telemetry queries, and
// the control event audit trail behind a single config-backed account.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/elaw611/isy-bridge/internal/audit"
	"github.com/elaw611/isy-bridge/internal/classify"
	"github.com/elaw611/isy-bridge/internal/entity"
	"github.com/elaw611/isy-bridge/internal/infrastructure/config"
	"github.com/elaw611/isy-bridge/internal/infrastructure/influxdb"
	"github.com/elaw611/isy-bridge/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// MetricsQuerier reads entity telemetry from the time-series database.
// Satisfied by *influxdb.Client. Optional — when nil the metrics
// endpoint reports 503.
type MetricsQuerier interface {
	QueryEntityMetrics(ctx context.Context, entityID string, start, end time.Time) ([]influxdb.MetricPoint, error)
	IsConnected() bool
}

// ConnectionChecker reports broker or controller connectivity for the
// status endpoint.
type ConnectionChecker interface {
	IsConnected() bool
}

// ControllerChecker reports controller connectivity for the status
// endpoint. Satisfied by *isy.Client.
type ControllerChecker interface {
	Connected() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Registry *entity.Registry

	// History serves the per-entity history endpoint. May be nil.
	History entity.StateHistoryRepository

	// Metrics serves the per-entity metrics endpoint. May be nil.
	Metrics MetricsQuerier

	// Audit serves the control event listing. May be nil.
	Audit audit.Repository

	// Weather holds the classified weather measurements. May be empty.
	Weather []classify.WeatherEntry

	// MQTT reports broker connectivity on the status endpoint. May be nil.
	MQTT ConnectionChecker

	// Controller reports controller connectivity on the status endpoint. May be nil.
	Controller ControllerChecker

	Version string
}

// Server is the bridge HTTP API server.
//
// It manages the HTTP listener, routes, and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	secCfg     config.SecurityConfig
	logger     *logging.Logger
	registry   *entity.Registry
	history    entity.StateHistoryRepository
	metrics    MetricsQuerier
	auditRepo  audit.Repository
	weather    []classify.WeatherEntry
	mqtt       ConnectionChecker
	controller ControllerChecker
	version    string
	started    time.Time
	server     *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, registry)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("entity registry is required")
	}

	return &Server{
		cfg:        deps.Config,
		secCfg:     deps.Security,
		logger:     deps.Logger,
		registry:   deps.Registry,
		history:    deps.History,
		metrics:    deps.Metrics,
		auditRepo:  deps.Audit,
		weather:    deps.Weather,
		mqtt:       deps.MQTT,
		controller: deps.Controller,
		version:    deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router and launches the HTTP listener in a background
// goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(_ context.Context) error {
	s.started = time.Now().UTC()

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
