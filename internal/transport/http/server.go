package http

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fleshka4/smart-router/internal/config"
	"github.com/fleshka4/smart-router/internal/service"
	"github.com/fleshka4/smart-router/internal/session"
	"github.com/fleshka4/smart-router/internal/transport/http/validate"
)

const defaultRequestTimeout = 30 * time.Second

// Server represents the HTTP transport layer.
type Server struct {
	svc    service.Service
	mux    *http.ServeMux
	logger *zap.Logger

	defaults validate.Defaults

	graceTimeout        time.Duration
	readHeaderTimeout   time.Duration
	requestTimeout      time.Duration
	revalidateInterval  time.Duration
	revalidateThreshold time.Duration
}

// NewServer creates a new HTTP server with registered routes.
func NewServer(svc service.Service, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		svc:    svc,
		mux:    http.NewServeMux(),
		logger: logger,

		defaults: validate.Defaults{
			ChainID:     cfg.ChainID,
			MaxHops:     cfg.Quote.DefaultMaxHops,
			MaxSplits:   cfg.Quote.DefaultMaxSplits,
			SlippageBps: cfg.Quote.DefaultSlippageBps,
		},

		graceTimeout:        cfg.GraceTimeout,
		readHeaderTimeout:   cfg.ReadHeaderTimeout,
		requestTimeout:      cfg.RequestTimeout,
		revalidateInterval:  cfg.Quote.RevalidateInterval,
		revalidateThreshold: cfg.Quote.RevalidateThreshold,
	}
	if s.requestTimeout <= 0 {
		s.requestTimeout = defaultRequestTimeout
	}
	if s.revalidateInterval <= 0 {
		s.revalidateInterval = session.DefaultInterval
	}
	if s.revalidateThreshold <= 0 {
		s.revalidateThreshold = session.DefaultThreshold
	}

	s.mux.HandleFunc("/quote", s.handleQuote)
	s.mux.HandleFunc("/quote/stream", s.handleQuoteStream)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("pong")); err != nil {
			s.logger.Warn("ping write error", zap.Error(err))
		}
	})

	return s, nil
}

// ListenAndServe starts the HTTP server and shuts it down gracefully once
// ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.logMiddleware(s.mux),
		ReadHeaderTimeout: s.readHeaderTimeout,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			return errors.Wrap(err, "srv.ListenAndServe")
		}
	}
	s.logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.graceTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "srv.Shutdown")
	}
	s.logger.Info("server stopped gracefully")
	return nil
}

// logMiddleware logs each HTTP request and the time taken to process it.
func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("url", r.URL.String()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		s.logger.Error("response marshal error", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.logger.Warn("response write error", zap.Error(err))
	}
}
