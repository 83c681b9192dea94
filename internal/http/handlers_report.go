package http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/report"
)

var periodLabels = map[core.FilterPeriod]string{
	core.PeriodAll:   "Todo el historial",
	core.PeriodToday: "Hoy",
	core.PeriodWeek:  "Esta semana",
	core.PeriodMonth: "Este mes",
}

func reportPeriodLabel(period core.FilterPeriod, custom core.CustomDateRange) string {
	if period == core.PeriodCustom {
		return custom.StartDate + " a " + custom.EndDate
	}
	return periodLabels[period]
}

// handleReport renders the owner's PDF report for the requested period.
// The PDF is built in memory first so a render failure never sends a
// half-written body.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	period, custom, err := parsePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	owner := ownerID(r)

	summary, err := s.transactions.Summary(r.Context(), owner, period, custom)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	txs, err := s.transactions.List(r.Context(), owner, period, custom)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	rate, err := s.transactions.ExchangeRate(r.Context(), owner)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	err = report.Generate(&buf, report.Data{
		OwnerID:      owner,
		PeriodLabel:  reportPeriodLabel(period, custom),
		GeneratedAt:  time.Now().In(core.ReferenceLocation()),
		Summary:      summary,
		ExchangeRate: rate,
		Transactions: txs,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	filename := fmt.Sprintf("reporte-%s.pdf", time.Now().In(core.ReferenceLocation()).Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
