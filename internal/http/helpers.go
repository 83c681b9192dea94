package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"finanzas/internal/core"
)

// defaultOwnerID is used when the client does not identify itself. The
// service is single-user by default; multi-user deployments set X-User-ID.
const defaultOwnerID = "default"

// ownerID extracts the owner from the X-User-ID header.
func ownerID(r *http.Request) string {
	owner := sanitizeInput(r.Header.Get("X-User-ID"))
	if owner == "" {
		return defaultOwnerID
	}
	return owner
}

// parsePeriod reads the period and custom-range query parameters. An absent
// period means all history. Unknown period names are rejected here even
// though core.FilterByPeriod treats them as all: failing open at the API
// boundary would silently widen the window on a client typo.
func parsePeriod(r *http.Request) (core.FilterPeriod, core.CustomDateRange, error) {
	q := r.URL.Query()
	period := core.FilterPeriod(sanitizeInput(q.Get("period")))
	if period == "" {
		period = core.PeriodAll
	}
	if !period.Valid() {
		return "", core.CustomDateRange{}, fmt.Errorf("unknown period %q", period)
	}

	custom := core.CustomDateRange{
		StartDate: sanitizeInput(q.Get("start_date")),
		EndDate:   sanitizeInput(q.Get("end_date")),
	}
	if period == core.PeriodCustom {
		if _, err := core.ParseDate(custom.StartDate); err != nil {
			return "", core.CustomDateRange{}, fmt.Errorf("invalid start_date: %w", err)
		}
		if _, err := core.ParseDate(custom.EndDate); err != nil {
			return "", core.CustomDateRange{}, fmt.Errorf("invalid end_date: %w", err)
		}
	}
	return period, custom, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
