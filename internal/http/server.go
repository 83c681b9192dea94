// Package http exposes the finance API over JSON.
package http

import (
	"context"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/log"
)

// TransactionAPI is the transaction-and-views surface the server needs.
type TransactionAPI interface {
	Create(ctx context.Context, t core.Transaction) (core.Transaction, error)
	Get(ctx context.Context, ownerID, id string) (core.Transaction, error)
	List(ctx context.Context, ownerID string, period core.FilterPeriod, custom core.CustomDateRange) ([]core.Transaction, error)
	Update(ctx context.Context, t core.Transaction) (core.Transaction, error)
	Delete(ctx context.Context, ownerID, id string) error
	Summary(ctx context.Context, ownerID string, period core.FilterPeriod, custom core.CustomDateRange) (core.FinancialSummary, error)
	MonthlyFlow(ctx context.Context, ownerID string) ([]core.FlowPoint, error)
	BalanceEvolution(ctx context.Context, ownerID string) ([]core.BalancePoint, error)
	CategoryBreakdown(ctx context.Context, ownerID string, period core.FilterPeriod, custom core.CustomDateRange, txType core.TransactionType) ([]core.CategorySlice, error)
	ExchangeRate(ctx context.Context, ownerID string) (float64, error)
	SaveExchangeRate(ctx context.Context, ownerID string, rate float64) error
}

// AnalysisAPI queues and reads AI analyses.
type AnalysisAPI interface {
	Request(ctx context.Context, ownerID string, analysisType core.AnalysisType, customPrompt string) (core.Analysis, error)
	Get(ctx context.Context, ownerID, id string) (core.Analysis, error)
	List(ctx context.Context, ownerID string, limit int) ([]core.Analysis, error)
}

type Server struct {
	http.Server
	transactions TransactionAPI
	analyses     AnalysisAPI
	catalog      *core.Catalog

	logger         *log.Logger
	rateLimiter    *rateLimiter
	trustedProxies []*net.IPNet
	metrics        *securityMetrics
	requestCount   int64
	shutdownOnce   sync.Once
}

// Options tunes the hardening middleware. Zero values fall back to the
// defaults (60 mutations per minute, 5 minute sweeps, private-range
// proxies).
type Options struct {
	RateLimitPerMinute int
	RateLimitCleanup   time.Duration
	TrustedProxies     []string
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, transactions TransactionAPI, analyses AnalysisAPI, catalog *core.Catalog, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	mux := http.NewServeMux()

	httpLogger := logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		Server: http.Server{
			Addr: addr,
		},
		transactions:   transactions,
		analyses:       analyses,
		catalog:        catalog,
		logger:         httpLogger,
		rateLimiter:    newRateLimiter(opts.RateLimitPerMinute, opts.RateLimitCleanup),
		trustedProxies: parseProxyCIDRs(opts.TrustedProxies),
		metrics:        &securityMetrics{},
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/transactions", s.withSecurityHeaders(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions", s.withSecurityHeaders(s.handleListTransactions))
	mux.HandleFunc("GET /api/transactions/{id}", s.withSecurityHeaders(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withSecurityHeaders(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withSecurityHeaders(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/payment-methods", s.withSecurityHeaders(s.handlePaymentMethods))

	mux.HandleFunc("GET /api/summary", s.withSecurityHeaders(s.handleSummary))
	mux.HandleFunc("GET /api/charts/monthly-flow", s.withSecurityHeaders(s.handleMonthlyFlow))
	mux.HandleFunc("GET /api/charts/balance-evolution", s.withSecurityHeaders(s.handleBalanceEvolution))
	mux.HandleFunc("GET /api/charts/categories", s.withSecurityHeaders(s.handleCategoryBreakdown))

	mux.HandleFunc("GET /api/exchange-rate", s.withSecurityHeaders(s.handleGetExchangeRate))
	mux.HandleFunc("PUT /api/exchange-rate", s.withSecurityHeaders(s.handleSaveExchangeRate))

	mux.HandleFunc("POST /api/analyses", s.withSecurityHeaders(s.handleRequestAnalysis))
	mux.HandleFunc("GET /api/analyses", s.withSecurityHeaders(s.handleListAnalyses))
	mux.HandleFunc("GET /api/analyses/{id}", s.withSecurityHeaders(s.handleGetAnalysis))

	mux.HandleFunc("GET /api/report", s.withSecurityHeaders(s.handleReport))

	handler := log.RequestIDMiddleware(requestIDFrom)(mux)
	s.Server.Handler = log.Middleware(httpLogger)(handler)

	return s
}

// requestIDFrom returns the inbound X-Request-ID, generating and stamping
// one when the client did not send it so every log line for the request
// shares the same id.
func requestIDFrom(r *http.Request) string {
	id := sanitizeInput(r.Header.Get("X-Request-ID"))
	if id == "" {
		id = generateRequestID()
		r.Header.Set("X-Request-ID", id)
	}
	return id
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.InfoContext(ctx, "HTTP server shutting down")
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		atomic.AddInt64(&s.requestCount, 1)

		ctx := r.Context()
		clientIP := s.clientIP(r)
		reqLogger := log.FromContext(ctx)
		structured := log.NewStructuredLogger(reqLogger)

		structured.LogHTTPStart(ctx, r, clientIP)

		if detectSuspiciousRequest(r, s.metrics) {
			reqLogger.WarnContext(ctx, "Suspicious request detected",
				log.FieldClientIP, clientIP, log.FieldPath, r.URL.Path)
		}

		// Mutating requests are rate limited per client IP.
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			if !s.rateLimiter.allow(clientIP, s.metrics) {
				reqLogger.WarnContext(ctx, "Rate limit exceeded",
					log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
				return
			}
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		structured.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
