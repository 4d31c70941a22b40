package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-gree/internal/bridges/gree"
	"github.com/nerrad567/gray-logic-gree/internal/climate"
	"github.com/nerrad567/gray-logic-gree/internal/device"
	"github.com/nerrad567/gray-logic-gree/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-gree/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// EventClimateStateChanged is the WebSocket channel carrying unit state.
const EventClimateStateChanged = "climate.state_changed"

// ClimateBridge is the subset of the Gree bridge used by the API.
type ClimateBridge interface {
	Devices() []gree.DeviceView
	Device(id string) (gree.DeviceView, error)
	Execute(cmd gree.CommandMessage) gree.AckMessage
	RequestStatus(id string) error
	GetMetrics() gree.BridgeMetrics
}

// HistoryReader reads recorded climate states.
type HistoryReader interface {
	GetHistory(ctx context.Context, deviceID string, limit int) ([]device.StateHistoryEntry, error)
}

// HealthChecker is implemented by dependencies reported on /health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Registry *device.Registry
	Bridge   ClimateBridge // optional: without it commands return 503
	History  HistoryReader // optional
	Database HealthChecker // optional
	Version  string
}

// Server is the HTTP API server.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg      config.APIConfig
	wsCfg    config.WebSocketConfig
	secCfg   config.SecurityConfig
	logger   *logging.Logger
	registry *device.Registry
	bridge   ClimateBridge
	history  HistoryReader
	database HealthChecker
	version  string
	server   *http.Server
	listener net.Listener
	hub      *Hub
	tickets  *ticketStore
	cancel   context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if deps.Security.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	var current func() []gree.DeviceView
	if deps.Bridge != nil {
		current = deps.Bridge.Devices
	}

	return &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		secCfg:   deps.Security,
		logger:   deps.Logger,
		registry: deps.Registry,
		bridge:   deps.Bridge,
		history:  deps.History,
		database: deps.Database,
		version:  deps.Version,
		hub:      NewHub(deps.Logger, current),
		tickets:  newTicketStore(),
	}, nil
}

// PublishClimateState broadcasts a unit's state to WebSocket subscribers.
// It matches gree.StateListener and is registered on the bridge.
func (s *Server) PublishClimateState(deviceID string, snap climate.Snapshot) {
	s.hub.BroadcastState(gree.DeviceView{ID: deviceID, Snapshot: snap})
}

// Start begins listening for HTTP connections.
//
// The listener is bound synchronously so address errors are returned to the
// caller; serving continues in a background goroutine until Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)
	go s.cleanTicketsLoop(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		s.cancel()
		return fmt.Errorf("listening on %s: %w", s.server.Addr, err)
	}
	s.listener = ln

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", ln.Addr().String(),
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ServeTLS(ln, s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", ln.Addr().String())
			err = s.server.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	srv := s.server
	s.server = nil
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
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
