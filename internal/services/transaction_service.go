package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"finanzas/internal/core"
)

var ErrInvalidExchangeRate = errors.New("exchange rate must be positive")

// TransactionStore is the persistence surface the service needs.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) error
	GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, ownerID, id string) error
	GetExchangeRate(ctx context.Context, ownerID string) (float64, bool, error)
	SaveExchangeRate(ctx context.Context, ownerID string, rate float64) error
}

// TransactionService validates and stores transactions and computes the
// derived financial views.
type TransactionService struct {
	store   TransactionStore
	catalog *core.Catalog

	defaultRate       float64
	adjustmentsInFlow bool
	logger            *slog.Logger
}

type TransactionServiceConfig struct {
	DefaultExchangeRate     float64
	AdjustmentsInPeriodFlow bool
	Logger                  *slog.Logger
}

func NewTransactionService(store TransactionStore, catalog *core.Catalog, cfg TransactionServiceConfig) *TransactionService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionService{
		store:             store,
		catalog:           catalog,
		defaultRate:       cfg.DefaultExchangeRate,
		adjustmentsInFlow: cfg.AdjustmentsInPeriodFlow,
		logger:            logger,
	}
}

// Create validates the transaction, assigns identity and timestamps,
// and persists it.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	now := time.Now().UTC()
	t.ID = uuid.NewString()
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := t.Validate(s.catalog); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}

	if err := s.store.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	return t, nil
}

// Get returns one of the owner's transactions.
func (s *TransactionService) Get(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, ownerID, id)
}

// List returns the owner's transactions, optionally narrowed to a period.
func (s *TransactionService) List(ctx context.Context, ownerID string, period core.FilterPeriod, custom core.CustomDateRange) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if period == "" || period == core.PeriodAll {
		return txs, nil
	}
	return core.FilterByPeriod(txs, period, custom, time.Now()), nil
}

// Update validates and replaces an existing transaction. The stored
// creation time is preserved.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	existing, err := s.store.GetTransaction(ctx, t.OwnerID, t.ID)
	if err != nil {
		return core.Transaction{}, err
	}

	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = time.Now().UTC()

	if err := t.Validate(s.catalog); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}

	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	return t, nil
}

// Delete removes one of the owner's transactions.
func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	return s.store.DeleteTransaction(ctx, ownerID, id)
}

// Summary computes the owner's financial summary. Balances always cover
// all transactions; period income and expenses cover the filtered set.
func (s *TransactionService) Summary(ctx context.Context, ownerID string, period core.FilterPeriod, custom core.CustomDateRange) (core.FinancialSummary, error) {
	all, err := s.store.ListTransactions(ctx, ownerID)
	if err != nil {
		return core.FinancialSummary{}, fmt.Errorf("list transactions: %w", err)
	}

	filtered := core.FilterByPeriod(all, period, custom, time.Now())

	return core.Aggregate(all, filtered, s.catalog, core.AggregateOptions{
		AdjustmentsInPeriodFlow: s.adjustmentsInFlow,
		Logger:                  s.logger,
	}), nil
}

// MonthlyFlow returns the trailing twelve months of income and expenses
// in USD equivalents.
func (s *TransactionService) MonthlyFlow(ctx context.Context, ownerID string) ([]core.FlowPoint, error) {
	all, err := s.store.ListTransactions(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	rate, err := s.ExchangeRate(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return core.MonthlyFlow(all, rate, time.Now()), nil
}

// BalanceEvolution returns the trailing twelve months of cumulative
// balance in USD equivalents.
func (s *TransactionService) BalanceEvolution(ctx context.Context, ownerID string) ([]core.BalancePoint, error) {
	all, err := s.store.ListTransactions(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	rate, err := s.ExchangeRate(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return core.BalanceEvolution(all, rate, time.Now()), nil
}

// CategoryBreakdown returns per-category totals for one transaction type
// over the filtered period, in USD equivalents. Expense is the default
// subset when txType is blank.
func (s *TransactionService) CategoryBreakdown(ctx context.Context, ownerID string, period core.FilterPeriod, custom core.CustomDateRange, txType core.TransactionType) ([]core.CategorySlice, error) {
	if txType == "" {
		txType = core.TypeExpense
	}
	all, err := s.store.ListTransactions(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	rate, err := s.ExchangeRate(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	filtered := core.FilterByPeriod(all, period, custom, time.Now())
	subset := make([]core.Transaction, 0, len(filtered))
	for _, t := range filtered {
		if t.Type == txType {
			subset = append(subset, t)
		}
	}
	return core.CategoryBreakdown(subset, rate), nil
}

// ExchangeRate returns the owner's saved Bs. per USD rate, or the
// configured default when none has been saved.
func (s *TransactionService) ExchangeRate(ctx context.Context, ownerID string) (float64, error) {
	rate, found, err := s.store.GetExchangeRate(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("get exchange rate: %w", err)
	}
	if !found {
		return s.defaultRate, nil
	}
	return rate, nil
}

// SaveExchangeRate validates and stores the owner's rate.
func (s *TransactionService) SaveExchangeRate(ctx context.Context, ownerID string, rate float64) error {
	if rate <= 0 {
		return ErrInvalidExchangeRate
	}
	if err := s.store.SaveExchangeRate(ctx, ownerID, rate); err != nil {
		return fmt.Errorf("save exchange rate: %w", err)
	}
	return nil
}
