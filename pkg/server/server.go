// Package server exposes the editmine engines as an HTTP JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/Sumatoshi-tech/editmine/pkg/config"
	"github.com/Sumatoshi-tech/editmine/pkg/detector"
	"github.com/Sumatoshi-tech/editmine/pkg/lang"
	"github.com/Sumatoshi-tech/editmine/pkg/observability"
)

// shutdownTimeout bounds the graceful drain of in-flight requests.
const shutdownTimeout = 10 * time.Second

// Deps holds injectable dependencies. Zero-value fields use defaults.
type Deps struct {
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *observability.REDMetrics

	// MetricsHandler serves GET /metrics when set.
	MetricsHandler http.Handler

	// Detectors supplies per-language detectors.
	Detectors *detector.Registry

	// Language is used when a request names none.
	Language lang.Language

	// BodyLimit caps request bodies in bytes; 0 means 1 MiB.
	BodyLimit int64
}

// Server is the HTTP API.
type Server struct {
	cfg       config.ServerConfig
	logger    *slog.Logger
	detectors *detector.Registry
	language  lang.Language
	bodyLimit int64
	handler   http.Handler
}

// New builds the server and its routes.
func New(cfg config.ServerConfig, deps Deps) *Server {
	s := &Server{
		cfg:       cfg,
		logger:    deps.Logger,
		detectors: deps.Detectors,
		language:  deps.Language,
		bodyLimit: deps.BodyLimit,
	}

	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}

	if s.detectors == nil {
		s.detectors = detector.NewRegistry()
	}

	if s.language == 0 {
		s.language = lang.Python
	}

	if s.bodyLimit <= 0 {
		s.bodyLimit = 1 << 20
	}

	tracer := deps.Tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer("server")
	}

	s.handler = observability.HTTPMiddleware(tracer, deps.Metrics, s.routes(deps.MetricsHandler))

	return s
}

// Handler returns the instrumented route handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes(metrics http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/compare", s.handleCompare)
	mux.HandleFunc("POST /api/abstract", s.handleAbstract)
	mux.HandleFunc("POST /api/tokenize", s.handleTokenize)
	mux.HandleFunc("POST /api/lines", s.handleLines)

	mux.Handle("GET /healthz", observability.HealthHandler())
	mux.Handle("GET /readyz", observability.ReadyHandler(s.ready))

	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	return mux
}

func (s *Server) ready(context.Context) error {
	_, err := s.detectors.For(s.language)

	return err
}

// ListenAndServe serves on ln, or on the configured address when ln is nil,
// until ctx is done, then drains in-flight requests. HTTP/2 is accepted
// without TLS.
func (s *Server) ListenAndServe(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      h2c.NewHandler(s.handler, &http2.Server{}),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	if ln == nil {
		var err error

		ln, err = net.Listen("tcp", srv.Addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", srv.Addr, err)
		}
	}

	s.logger.InfoContext(ctx, "http api listening", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http api: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http api shutdown: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http api: %w", err)
	}

	return nil
}
