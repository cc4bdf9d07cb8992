// Package devserver is a local chat backend for developing against the widget.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/diogo/chatwidget/internal/models"
)

const shutdownTimeout = 5 * time.Second

// Server routes chat requests to a Responder
type Server struct {
	responder Responder
	staticDir string
	accessLog io.Writer
}

// Option configures a Server
type Option func(*Server)

// WithResponder replaces the default EchoResponder
func WithResponder(r Responder) Option {
	return func(s *Server) {
		if r != nil {
			s.responder = r
		}
	}
}

// WithStaticDir serves files from dir at /
func WithStaticDir(dir string) Option {
	return func(s *Server) {
		s.staticDir = dir
	}
}

// WithAccessLog sets where combined access log lines go
func WithAccessLog(w io.Writer) Option {
	return func(s *Server) {
		if w != nil {
			s.accessLog = w
		}
	}
}

// New creates a Server. Access lines go to the global zerolog logger unless overridden.
func New(opts ...Option) *Server {
	access := log.Logger.With().Str("component", "access").Logger().Level(zerolog.InfoLevel)
	s := &Server{
		responder: EchoResponder{},
		accessLog: &access,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// recoveryLogger routes recovered panics to zerolog
type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	log.Error().Msg(fmt.Sprint(v...))
}

// Handler returns the routed handler wrapped in logging, recovery and compression
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.Path(models.EndpointChat).Methods(http.MethodPost).Handler(jsonMiddleware(s.handleChat))
	r.Path("/healthz").Methods(http.MethodGet).Handler(jsonMiddleware(handleHealth))

	if s.staticDir != "" {
		r.PathPrefix("/").Methods(http.MethodGet, http.MethodHead).Handler(http.FileServer(http.Dir(s.staticDir)))
	}
	r.NotFoundHandler = jsonMiddleware(handleNotFound)

	// Recovery sits inside compression so a panic is answered before the gzip stream closes
	var chain http.Handler = r
	chain = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}))(chain)
	chain = handlers.CompressHandler(chain)
	chain = handlers.CombinedLoggingHandler(s.accessLog, chain)
	return chain
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("static", s.staticDir).Msg("dev server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dev server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("dev server shutdown: %w", err)
		}
		log.Info().Msg("dev server stopped")
		return nil
	}
}
