// Package dashboard serves the live job view over HTTP: a browser page that
// follows the job through a websocket, the latest view as JSON or YAML, a
// static report, and the health and metrics endpoints.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/dendrotime/pkg/observability"
	"github.com/Sumatoshi-tech/dendrotime/pkg/plotpage"
	"github.com/Sumatoshi-tech/dendrotime/pkg/view"
)

const (
	tracerName = "dendrotime/dashboard"

	// MessageView carries a view.View.
	MessageView = "view"

	defaultMaxClients      = 100
	defaultShutdownTimeout = 5 * time.Second
	readHeaderTimeout      = 5 * time.Second
	socketBufferSize       = 4096
)

// ErrNoView is reported while no view has been published.
var ErrNoView = errors.New("no view published yet")

// Config configures the dashboard server.
type Config struct {
	Addr            string
	Theme           plotpage.Theme
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxClients      int
}

// Server is the dashboard HTTP server.
type Server struct {
	logger         *slog.Logger
	tracer         trace.Tracer
	red            *observability.REDMetrics
	derive         *observability.DeriveMetrics
	metricsHandler http.Handler
	hub            *hub
	latest         *view.View
	stop           chan struct{}
	readyChecks    []observability.ReadyCheck
	upgrader       websocket.Upgrader
	cfg            Config
	mu             sync.RWMutex
	stopOnce       sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithTracer sets the tracer used by the request middleware.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Server) {
		s.tracer = tracer
	}
}

// WithREDMetrics records request metrics.
func WithREDMetrics(red *observability.REDMetrics) Option {
	return func(s *Server) {
		s.red = red
	}
}

// WithDeriveMetrics tracks connected clients.
func WithDeriveMetrics(dm *observability.DeriveMetrics) Option {
	return func(s *Server) {
		s.derive = dm
	}
}

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metricsHandler = h
	}
}

// WithReadyChecks adds readiness checks to /readyz.
func WithReadyChecks(checks ...observability.ReadyCheck) Option {
	return func(s *Server) {
		s.readyChecks = append(s.readyChecks, checks...)
	}
}

// New creates a dashboard server.
func New(cfg Config, opts ...Option) *Server {
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = defaultMaxClients
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	s := &Server{
		cfg:    cfg,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
		stop:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  socketBufferSize,
			WriteBufferSize: socketBufferSize,
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.hub = newHub(cfg.MaxClients, s.logger)

	return s
}

// Handler returns the dashboard routes wrapped in the request middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /api/view", s.handleView)
	mux.HandleFunc("GET /api/report", s.handleReport)
	mux.Handle("GET /healthz", observability.HealthHandler())
	mux.Handle("GET /readyz", observability.ReadyHandler(s.readyChecks...))

	if s.metricsHandler != nil {
		mux.Handle("GET /metrics", s.metricsHandler)
	}

	return observability.HTTPMiddleware(s.tracer, s.red, mux)
}

// Publish stores v as the latest view and pushes it to every client.
func (s *Server) Publish(v view.View) {
	s.mu.Lock()
	s.latest = &v
	s.mu.Unlock()

	s.hub.broadcast(Message{Type: MessageView, Data: v})
}

// Latest returns the most recently published view.
func (s *Server) Latest() (view.View, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return view.View{}, false
	}

	return *s.latest, true
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	return s.hub.count()
}

// Ready is a readiness check that fails until a view has been published.
func (s *Server) Ready(context.Context) error {
	if _, ok := s.Latest(); !ok {
		return ErrNoView
	}

	return nil
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig

	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then closes websocket clients and
// shuts the server down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.InfoContext(ctx, "dashboard listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve dashboard: %w", err)
	case <-ctx.Done():
	}

	s.Close()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("shutdown dashboard: %w", err)
	}

	return nil
}

// Close disconnects all websocket clients. It is safe to call more than once.
func (s *Server) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.hub.closeAll()
	})
}

func (s *Server) handleView(rw http.ResponseWriter, hr *http.Request) {
	v, ok := s.Latest()
	if !ok {
		writeError(rw, http.StatusNotFound, ErrNoView)

		return
	}

	if hr.URL.Query().Get("format") == "yaml" {
		rw.Header().Set("Content-Type", "application/yaml")

		enc := yaml.NewEncoder(rw)
		defer enc.Close()

		err := enc.Encode(v)
		if err != nil {
			s.logger.ErrorContext(hr.Context(), "encode view", "format", "yaml", "error", err)
		}

		return
	}

	writeJSON(rw, http.StatusOK, v)
}

func (s *Server) handleReport(rw http.ResponseWriter, hr *http.Request) {
	v, ok := s.Latest()
	if !ok {
		writeError(rw, http.StatusNotFound, ErrNoView)

		return
	}

	theme := s.cfg.Theme
	if t := hr.URL.Query().Get("theme"); t != "" {
		theme = plotpage.ParseTheme(t)
	}

	rw.Header().Set("Content-Type", "text/html; charset=utf-8")

	err := plotpage.Report(v, theme).Render(rw)
	if err != nil {
		s.logger.ErrorContext(hr.Context(), "render report", "error", err)
	}
}

func (s *Server) handleWebSocket(rw http.ResponseWriter, hr *http.Request) {
	ctx := hr.Context()

	if s.hub.full() {
		http.Error(rw, ErrTooManyClients.Error(), http.StatusServiceUnavailable)

		return
	}

	conn, err := s.upgrader.Upgrade(rw, hr, nil)
	if err != nil {
		s.logger.DebugContext(ctx, "websocket upgrade", "error", err)

		return
	}
	defer conn.Close()

	c, err := s.hub.add(conn)
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(writeWait))

		return
	}
	defer s.hub.remove(c)

	if s.derive != nil {
		disconnect := s.derive.ClientConnected(ctx)
		defer disconnect()
	}

	if v, ok := s.Latest(); ok {
		data, marshalErr := json.Marshal(Message{Type: MessageView, Data: v})
		if marshalErr == nil && c.write(websocket.TextMessage, data) != nil {
			return
		}
	}

	s.keepAlive(ctx, c)
}

// keepAlive pings c until the client goes away or the server stops. Reading
// is required to process pongs and detect disconnects.
func (s *Server) keepAlive(ctx context.Context, c *client) {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	readDone := make(chan struct{})

	go func() {
		defer close(readDone)

		for {
			_, _, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.DebugContext(ctx, "websocket read", "error", err)
				}

				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if c.write(websocket.PingMessage, nil) != nil {
				return
			}
		case <-readDone:
			return
		case <-s.stop:
			return
		}
	}
}

func writeJSON(rw http.ResponseWriter, code int, body any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	_ = json.NewEncoder(rw).Encode(body)
}

func writeError(rw http.ResponseWriter, code int, err error) {
	writeJSON(rw, code, map[string]string{"error": err.Error()})
}
