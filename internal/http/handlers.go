package http

import (
	"net/http"
	"sync/atomic"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int64{
		"requests_total":      atomic.LoadInt64(&s.requestCount),
		"rate_limit_hits":     atomic.LoadInt64(&s.metrics.rateLimitHits),
		"invalid_ip_attempts": atomic.LoadInt64(&s.metrics.invalidIPAttempts),
		"suspicious_requests": atomic.LoadInt64(&s.metrics.suspiciousRequests),
	})
}

type paymentMethodResponse struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Currency    string `json:"currency"`
	AccountType string `json:"account_type"`
}

func (s *Server) handlePaymentMethods(w http.ResponseWriter, r *http.Request) {
	options := s.catalog.Options()
	out := make([]paymentMethodResponse, 0, len(options))
	for _, opt := range options {
		out = append(out, paymentMethodResponse{
			ID:          string(opt.ID),
			Label:       opt.Label,
			Currency:    string(opt.Currency),
			AccountType: string(opt.AccountType),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"payment_methods": out})
}
