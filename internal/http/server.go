// Package http exposes the confirm pipeline, budget progress and streak
// state as a JSON API for app clients.
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"finflow/internal/log"
	"finflow/internal/middleware/ratelimit"
	"finflow/internal/middleware/security"
	"finflow/internal/middleware/trace"
	"finflow/internal/ports"
	"finflow/internal/services"
)

// Options tune a Server. Zero values select defaults.
type Options struct {
	RequestsPerMinute int
	Clock             ports.Clock
}

type Server struct {
	http.Server
	svc      *services.TransactionService
	ledger   ports.LedgerStore
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	logger   *log.Logger
	now      ports.Clock

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc *services.TransactionService, ledger ports.LedgerStore, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	detector := security.NewDetector()
	s := &Server{
		svc:      svc,
		ledger:   ledger,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		detector: detector,
		tracer:   trace.NewMiddleware(logger, detector.ExtractClientIP),
		logger:   logger,
		now:      opts.Clock,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/parse", s.handleParse)
	mux.HandleFunc("POST /api/transactions", s.handleConfirm)
	mux.HandleFunc("GET /api/transactions", s.handleHistory)
	mux.HandleFunc("POST /api/import", s.handleImport)
	mux.HandleFunc("GET /api/budget", s.handleBudget)
	mux.HandleFunc("PUT /api/budget", s.handleSaveBudget)
	mux.HandleFunc("GET /api/budget/suggestion", s.handleSuggestion)
	mux.HandleFunc("GET /api/streak", s.handleStreak)
	mux.HandleFunc("GET /api/rewards", s.handleRewards)
	mux.HandleFunc("POST /api/rewards/{code}/redeem", s.handleRedeem)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusTooManyRequests, errors.New("rate limit exceeded, try again later"))
	})(handler)
	handler = detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
		metrics := s.tracer.GetMetrics()
		s.logger.InfoContext(ctx, "HTTP server stopped",
			log.FieldOperation, log.OpShutdown,
			"requests", metrics.TotalRequests,
			"failed", metrics.FailedRequests,
			"rate_limited", s.limiter.Rejected(),
			"suspicious", s.detector.SuspiciousRequests())
	})
	return err
}
