package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/services"
	"finanzas/internal/storage"
)

const maxRequestBody = 64 * 1024

type paymentPartRequest struct {
	Method string `json:"method"`
	Amount string `json:"amount"`
}

type transactionRequest struct {
	Description string               `json:"description"`
	Type        string               `json:"type"`
	Currency    string               `json:"currency"`
	Amount      string               `json:"amount"`
	UnitPrice   string               `json:"unit_price,omitempty"`
	Quantity    int64                `json:"quantity,omitempty"`
	Date        string               `json:"date"`
	Payments    []paymentPartRequest `json:"payments"`
	Category    string               `json:"category,omitempty"`
	Notes       string               `json:"notes,omitempty"`
}

type paymentPartResponse struct {
	Method      string `json:"method"`
	AmountCents int64  `json:"amount_cents"`
}

type transactionResponse struct {
	ID             string                `json:"id"`
	Description    string                `json:"description"`
	Type           string                `json:"type"`
	Currency       string                `json:"currency"`
	AmountCents    int64                 `json:"amount_cents"`
	UnitPriceCents int64                 `json:"unit_price_cents,omitempty"`
	Quantity       int64                 `json:"quantity,omitempty"`
	Date           string                `json:"date"`
	Payments       []paymentPartResponse `json:"payments"`
	Category       string                `json:"category,omitempty"`
	Notes          string                `json:"notes,omitempty"`
	CreatedAt      string                `json:"created_at"`
	UpdatedAt      string                `json:"updated_at"`
}

// toTransaction converts the request body into a domain transaction. Amounts
// arrive as decimal strings and are stored as cents; full validation happens
// in the service.
func (req transactionRequest) toTransaction(owner string) (core.Transaction, error) {
	amount, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}

	var unitPrice int64
	if req.UnitPrice != "" {
		unitPrice, err = core.ParseDecimalToCents(req.UnitPrice)
		if err != nil {
			return core.Transaction{}, err
		}
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}

	payments := make([]core.PaymentDetail, 0, len(req.Payments))
	for _, p := range req.Payments {
		cents, err := core.ParseDecimalToCents(p.Amount)
		if err != nil {
			return core.Transaction{}, err
		}
		payments = append(payments, core.PaymentDetail{
			Method: core.PaymentMethodID(sanitizeInput(p.Method)),
			Amount: core.Money{Cents: cents},
		})
	}

	return core.Transaction{
		OwnerID:     owner,
		Description: sanitizeInput(req.Description),
		Type:        core.TransactionType(sanitizeInput(req.Type)),
		Currency:    core.Currency(sanitizeInput(req.Currency)),
		Amount:      core.Money{Cents: amount},
		UnitPrice:   core.Money{Cents: unitPrice},
		Quantity:    req.Quantity,
		Date:        date,
		Payments:    payments,
		Category:    sanitizeInput(req.Category),
		Notes:       sanitizeInput(req.Notes),
	}, nil
}

// transactionPatch is the update body. Pointer fields distinguish "not
// sent" from a zero value so updates replace only what the client sent.
type transactionPatch struct {
	Description *string              `json:"description"`
	Type        *string              `json:"type"`
	Currency    *string              `json:"currency"`
	Amount      *string              `json:"amount"`
	UnitPrice   *string              `json:"unit_price"`
	Quantity    *int64               `json:"quantity"`
	Date        *string              `json:"date"`
	Payments    []paymentPartRequest `json:"payments"`
	Category    *string              `json:"category"`
	Notes       *string              `json:"notes"`
}

// applyTo overlays the provided fields on a stored transaction. Absent
// fields keep their stored values; the merged result is validated as a
// whole by the service.
func (p transactionPatch) applyTo(t core.Transaction) (core.Transaction, error) {
	if p.Description != nil {
		t.Description = sanitizeInput(*p.Description)
	}
	if p.Type != nil {
		t.Type = core.TransactionType(sanitizeInput(*p.Type))
	}
	if p.Currency != nil {
		t.Currency = core.Currency(sanitizeInput(*p.Currency))
	}
	if p.Amount != nil {
		cents, err := core.ParseDecimalToCents(*p.Amount)
		if err != nil {
			return core.Transaction{}, err
		}
		t.Amount = core.Money{Cents: cents}
	}
	if p.UnitPrice != nil {
		cents, err := core.ParseDecimalToCents(*p.UnitPrice)
		if err != nil {
			return core.Transaction{}, err
		}
		t.UnitPrice = core.Money{Cents: cents}
	}
	if p.Quantity != nil {
		t.Quantity = *p.Quantity
	}
	if p.Date != nil {
		date, err := core.ParseDate(*p.Date)
		if err != nil {
			return core.Transaction{}, err
		}
		t.Date = date
	}
	if p.Payments != nil {
		payments := make([]core.PaymentDetail, 0, len(p.Payments))
		for _, part := range p.Payments {
			cents, err := core.ParseDecimalToCents(part.Amount)
			if err != nil {
				return core.Transaction{}, err
			}
			payments = append(payments, core.PaymentDetail{
				Method: core.PaymentMethodID(sanitizeInput(part.Method)),
				Amount: core.Money{Cents: cents},
			})
		}
		t.Payments = payments
	}
	if p.Category != nil {
		t.Category = sanitizeInput(*p.Category)
	}
	if p.Notes != nil {
		t.Notes = sanitizeInput(*p.Notes)
	}
	return t, nil
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	payments := make([]paymentPartResponse, 0, len(t.Payments))
	for _, p := range t.Payments {
		payments = append(payments, paymentPartResponse{
			Method:      string(p.Method),
			AmountCents: p.Amount.Cents,
		})
	}
	return transactionResponse{
		ID:             t.ID,
		Description:    t.Description,
		Type:           string(t.Type),
		Currency:       string(t.Currency),
		AmountCents:    t.Amount.Cents,
		UnitPriceCents: t.UnitPrice.Cents,
		Quantity:       t.Quantity,
		Date:           t.Date.String(),
		Payments:       payments,
		Category:       t.Category,
		Notes:          t.Notes,
		CreatedAt:      t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:      t.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// validationErrors are the domain errors reported back to the client as
// unprocessable input rather than server failures.
var validationErrors = []error{
	core.ErrEmptyDescription,
	core.ErrDescriptionTooLong,
	core.ErrInvalidAmount,
	core.ErrInvalidCurrency,
	core.ErrInvalidType,
	core.ErrInvalidDate,
	core.ErrInvalidQuantity,
	core.ErrNoPaymentParts,
	core.ErrUnknownMethod,
	core.ErrMethodCurrency,
	core.ErrPartsSumMismatch,
	core.ErrItemizedMismatch,
	core.ErrInvalidAnalysisType,
	core.ErrEmptyCustomPrompt,
	services.ErrInvalidExchangeRate,
}

// respondServiceError maps service errors onto HTTP statuses. Unrecognized
// errors are logged and reported as a generic 500 so internals never leak.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	for _, sentinel := range validationErrors {
		if errors.Is(err, sentinel) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}
	log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
		log.FieldMethod, r.Method, log.FieldPath, r.URL.Path, log.FieldError, err.Error())
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	t, err := req.toTransaction(ownerID(r))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.transactions.Create(r.Context(), t)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogTransactionCreated(r.Context(), created.ID, created.OwnerID, created.Amount.Cents)
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	period, custom, err := parsePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := s.transactions.List(r.Context(), ownerID(r), period, custom)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": out,
		"count":        len(out),
	})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.transactions.Get(r.Context(), ownerID(r), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	existing, err := s.transactions.Get(r.Context(), ownerID(r), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	var patch transactionPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	t, err := patch.applyTo(existing)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := s.transactions.Update(r.Context(), t)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.transactions.Delete(r.Context(), ownerID(r), r.PathValue("id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
