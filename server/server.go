package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/mediagraph/events"
	"github.com/kbukum/mediagraph/logger"
	"github.com/kbukum/mediagraph/server/endpoint"
	"github.com/kbukum/mediagraph/server/middleware"
)

// Server is the read-only status surface of one playback process.
type Server struct {
	cfg    Config
	log    *logger.Logger
	engine *gin.Engine
	http   *http.Server

	mu       sync.Mutex
	listener net.Listener
}

// New builds the router and middleware. Routes are added with
// RegisterEndpoints and RegisterEvents before Start.
func New(cfg Config, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	log = log.WithComponent("server")

	engine := gin.New()
	engine.Use(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.CORS(cfg.CORS),
		middleware.RequestLogger(log),
	)

	return &Server{
		cfg:    cfg,
		log:    log,
		engine: engine,
		http: &http.Server{
			Addr:         cfg.addr(),
			Handler:      h2c.NewHandler(engine, &http2.Server{MaxConcurrentStreams: 64, IdleTimeout: cfg.IdleTimeout}),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

// Handler serves the routes over HTTP/1.1 and cleartext HTTP/2.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// RegisterEndpoints adds the probe endpoints, /version and /status.
func (s *Server) RegisterEndpoints(serviceName string, checker endpoint.HealthChecker, status endpoint.SnapshotSource) {
	s.engine.GET("/health", endpoint.Health(serviceName, checker))
	s.engine.GET("/livez", endpoint.Liveness(serviceName))
	s.engine.GET("/readyz", endpoint.Readiness(serviceName, status))
	s.engine.GET("/version", endpoint.Version(serviceName))
	s.engine.GET("/status", endpoint.Status(status))
}

// RegisterEvents streams hub events on /events.
func (s *Server) RegisterEvents(hub *events.Hub) {
	s.engine.GET("/events", endpoint.Events(hub))
}

// Start binds the listener and serves in the background. A port already in
// use is reported here, not later.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.http.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("status server stopped", logger.ErrorFields("serve", err))
		}
	}()
	return nil
}

// Stop drains in-flight requests for at most ShutdownTimeout.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown status server: %w", err)
	}
	return nil
}

// Addr is the bound address once started, the configured one before.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.http.Addr
}

func (s *Server) listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener != nil
}
