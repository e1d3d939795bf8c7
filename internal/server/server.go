package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/websocket"

	"github.com/imamik/stackpilot/internal/metrics"
	"github.com/imamik/stackpilot/internal/router"
)

// SessionHeader carries the runtime session id on invocations.
const SessionHeader = "X-Amzn-Bedrock-AgentCore-Runtime-Session-Id"

// DefaultSessionID is used when neither the header nor the body names one.
const DefaultSessionID = "default"

const (
	defaultShutdownGrace = 10 * time.Second
	wsWriteTimeout       = 10 * time.Second
	readHeaderTimeout    = 10 * time.Second
	maxRequestBytes      = 1 << 20
)

// Runner executes requests. *router.Router implements it.
type Runner interface {
	Run(ctx context.Context, req router.Request) <-chan router.Fragment
}

// Server serves a Runner over HTTP.
type Server struct {
	runner        Runner
	log           logr.Logger
	shutdownGrace time.Duration
	upgrader      websocket.Upgrader
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithShutdownGrace sets how long in-flight requests may run after shutdown
// begins.
func WithShutdownGrace(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownGrace = d
		}
	}
}

// WithCheckOrigin overrides the websocket origin check.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = fn
	}
}

// New creates a Server.
func New(runner Runner, opts ...Option) *Server {
	s := &Server{
		runner:        runner,
		log:           logr.Discard(),
		shutdownGrace: defaultShutdownGrace,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routing handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", s.handlePing)
	mux.HandleFunc("POST /invocations", s.handleInvocations)
	mux.HandleFunc("GET /ws", s.handleWebsocket)
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down", "grace", s.shutdownGrace.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// sessionID picks the session id: header first, then the body, then the
// default.
func sessionID(r *http.Request, fromBody string) string {
	if v := r.Header.Get(SessionHeader); v != "" {
		return v
	}
	if fromBody != "" {
		return fromBody
	}
	return DefaultSessionID
}
