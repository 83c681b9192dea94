package http

import (
	"net/http"

	"finanzas/internal/core"
)

type currencySummaryResponse struct {
	PeriodIncomeCents   int64  `json:"period_income_cents"`
	PeriodExpensesCents int64  `json:"period_expenses_cents"`
	CashBalanceCents    int64  `json:"cash_balance_cents"`
	BankBalanceCents    int64  `json:"bank_balance_cents,omitempty"`
	USDTBalanceCents    int64  `json:"usdt_balance_cents,omitempty"`
	TotalBalanceCents   int64  `json:"total_balance_cents"`
	TotalBalance        string `json:"total_balance"`
}

type summaryResponse struct {
	Bs           currencySummaryResponse `json:"bs"`
	USD          currencySummaryResponse `json:"usd"`
	ExchangeRate float64                 `json:"exchange_rate"`
}

func toSummaryResponse(s core.FinancialSummary, rate float64) summaryResponse {
	return summaryResponse{
		Bs: currencySummaryResponse{
			PeriodIncomeCents:   s.Bs.PeriodIncome.Cents,
			PeriodExpensesCents: s.Bs.PeriodExpenses.Cents,
			CashBalanceCents:    s.Bs.CashBalance.Cents,
			BankBalanceCents:    s.Bs.BankBalance.Cents,
			TotalBalanceCents:   s.Bs.TotalBalance.Cents,
			TotalBalance:        s.Bs.TotalBalance.Format(core.CurrencyBs),
		},
		USD: currencySummaryResponse{
			PeriodIncomeCents:   s.USD.PeriodIncome.Cents,
			PeriodExpensesCents: s.USD.PeriodExpenses.Cents,
			CashBalanceCents:    s.USD.CashBalance.Cents,
			USDTBalanceCents:    s.USD.USDTBalance.Cents,
			TotalBalanceCents:   s.USD.TotalBalance.Cents,
			TotalBalance:        s.USD.TotalBalance.Format(core.CurrencyUSD),
		},
		ExchangeRate: rate,
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
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
	rate, err := s.transactions.ExchangeRate(r.Context(), owner)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryResponse(summary, rate))
}

func (s *Server) handleMonthlyFlow(w http.ResponseWriter, r *http.Request) {
	points, err := s.transactions.MonthlyFlow(r.Context(), ownerID(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"points": points})
}

func (s *Server) handleBalanceEvolution(w http.ResponseWriter, r *http.Request) {
	points, err := s.transactions.BalanceEvolution(r.Context(), ownerID(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"points": points})
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	period, custom, err := parsePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var txType core.TransactionType
	switch subset := sanitizeInput(r.URL.Query().Get("subset")); subset {
	case "", "expenses":
		txType = core.TypeExpense
	case "income":
		txType = core.TypeIncome
	default:
		writeError(w, http.StatusBadRequest, "subset must be expenses or income")
		return
	}

	slices, err := s.transactions.CategoryBreakdown(r.Context(), ownerID(r), period, custom, txType)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": slices})
}

type exchangeRateRequest struct {
	Rate float64 `json:"rate"`
}

type exchangeRateResponse struct {
	Rate float64 `json:"rate"`
}

func (s *Server) handleGetExchangeRate(w http.ResponseWriter, r *http.Request) {
	rate, err := s.transactions.ExchangeRate(r.Context(), ownerID(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exchangeRateResponse{Rate: rate})
}

func (s *Server) handleSaveExchangeRate(w http.ResponseWriter, r *http.Request) {
	var req exchangeRateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.transactions.SaveExchangeRate(r.Context(), ownerID(r), req.Rate); err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exchangeRateResponse{Rate: req.Rate})
}
