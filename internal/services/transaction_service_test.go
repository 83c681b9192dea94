package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"finanzas/internal/core"
)

type fakeStore struct {
	txs   map[string]core.Transaction
	rates map[string]float64

	failList bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		txs:   make(map[string]core.Transaction),
		rates: make(map[string]float64),
	}
}

var errStoreDown = errors.New("store down")

func (f *fakeStore) CreateTransaction(ctx context.Context, t core.Transaction) error {
	f.txs[t.ID] = t
	return nil
}

func (f *fakeStore) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	t, ok := f.txs[id]
	if !ok || t.OwnerID != ownerID {
		return core.Transaction{}, errors.New("not found")
	}
	return t, nil
}

func (f *fakeStore) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	if f.failList {
		return nil, errStoreDown
	}
	var out []core.Transaction
	for _, t := range f.txs {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	existing, ok := f.txs[t.ID]
	if !ok || existing.OwnerID != t.OwnerID {
		return errors.New("not found")
	}
	f.txs[t.ID] = t
	return nil
}

func (f *fakeStore) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	t, ok := f.txs[id]
	if !ok || t.OwnerID != ownerID {
		return errors.New("not found")
	}
	delete(f.txs, id)
	return nil
}

func (f *fakeStore) GetExchangeRate(ctx context.Context, ownerID string) (float64, bool, error) {
	rate, ok := f.rates[ownerID]
	return rate, ok, nil
}

func (f *fakeStore) SaveExchangeRate(ctx context.Context, ownerID string, rate float64) error {
	f.rates[ownerID] = rate
	return nil
}

func newTestService(store *fakeStore) *TransactionService {
	return NewTransactionService(store, core.DefaultCatalog(), TransactionServiceConfig{
		DefaultExchangeRate: 36.5,
	})
}

func inputTx(ownerID string) core.Transaction {
	return core.Transaction{
		OwnerID:     ownerID,
		Description: "Almuerzo",
		Type:        core.TypeExpense,
		Currency:    core.CurrencyBs,
		Amount:      core.Money{Cents: 5000},
		Date:        core.NewDate(2026, 8, 15),
		Payments: []core.PaymentDetail{
			{Method: core.EfectivoBs, Amount: core.Money{Cents: 5000}},
		},
	}
}

func TestCreateAssignsIdentity(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	created, err := svc.Create(context.Background(), inputTx("user-1"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Error("expected generated ID")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
	if _, ok := store.txs[created.ID]; !ok {
		t.Error("transaction not stored")
	}
}

func TestCreateRejectsInvalid(t *testing.T) {
	svc := newTestService(newFakeStore())

	bad := inputTx("user-1")
	bad.Payments[0].Amount = core.Money{Cents: 4000} // parts no longer sum

	_, err := svc.Create(context.Background(), bad)
	if !errors.Is(err, core.ErrPartsSumMismatch) {
		t.Fatalf("expected ErrPartsSumMismatch, got %v", err)
	}
}

func TestUpdatePreservesCreatedAt(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	created, err := svc.Create(context.Background(), inputTx("user-1"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	update := created
	update.Description = "Cena"
	updated, err := svc.Update(context.Background(), update)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt changed: %v != %v", updated.CreatedAt, created.CreatedAt)
	}
	if updated.Description != "Cena" {
		t.Errorf("Description = %q", updated.Description)
	}
}

func TestSummaryPeriodVsBalances(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	old := inputTx("user-1")
	old.Type = core.TypeIncome
	old.Amount = core.Money{Cents: 100000}
	old.Payments = []core.PaymentDetail{{Method: core.PagoMovilBs, Amount: core.Money{Cents: 100000}}}
	old.Date = core.NewDate(2020, 1, 1)
	if _, err := svc.Create(ctx, old); err != nil {
		t.Fatalf("Create old: %v", err)
	}

	today := inputTx("user-1")
	y, m, d := time.Now().In(core.ReferenceLocation()).Date()
	today.Date = core.NewDate(y, int(m), d)
	if _, err := svc.Create(ctx, today); err != nil {
		t.Fatalf("Create today: %v", err)
	}

	summary, err := svc.Summary(ctx, "user-1", core.PeriodToday, core.CustomDateRange{})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	// Balances cover all history, period flow only today.
	if summary.Bs.TotalBalance.Cents != 100000-5000 {
		t.Errorf("TotalBalance = %d, want 95000", summary.Bs.TotalBalance.Cents)
	}
	if summary.Bs.PeriodIncome.Cents != 0 {
		t.Errorf("PeriodIncome = %d, want 0", summary.Bs.PeriodIncome.Cents)
	}
	if summary.Bs.PeriodExpenses.Cents != 5000 {
		t.Errorf("PeriodExpenses = %d, want 5000", summary.Bs.PeriodExpenses.Cents)
	}
}

func TestSummaryStoreError(t *testing.T) {
	store := newFakeStore()
	store.failList = true
	svc := newTestService(store)

	if _, err := svc.Summary(context.Background(), "user-1", core.PeriodAll, core.CustomDateRange{}); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestExchangeRateDefault(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	rate, err := svc.ExchangeRate(ctx, "user-1")
	if err != nil {
		t.Fatalf("ExchangeRate: %v", err)
	}
	if rate != 36.5 {
		t.Errorf("rate = %v, want default 36.5", rate)
	}

	if err := svc.SaveExchangeRate(ctx, "user-1", 40); err != nil {
		t.Fatalf("SaveExchangeRate: %v", err)
	}
	rate, _ = svc.ExchangeRate(ctx, "user-1")
	if rate != 40 {
		t.Errorf("rate = %v, want 40", rate)
	}
}

func TestSaveExchangeRateRejectsNonPositive(t *testing.T) {
	svc := newTestService(newFakeStore())

	for _, rate := range []float64{0, -1} {
		if err := svc.SaveExchangeRate(context.Background(), "user-1", rate); !errors.Is(err, ErrInvalidExchangeRate) {
			t.Errorf("SaveExchangeRate(%v) = %v, want ErrInvalidExchangeRate", rate, err)
		}
	}
}

func TestCategoryBreakdownUsesSavedRate(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	tx := inputTx("user-1")
	tx.Amount = core.Money{Cents: 40000} // 400 Bs.
	tx.Payments = []core.PaymentDetail{{Method: core.EfectivoBs, Amount: core.Money{Cents: 40000}}}
	tx.Category = "Comida"
	if _, err := svc.Create(ctx, tx); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.SaveExchangeRate(ctx, "user-1", 40); err != nil {
		t.Fatalf("SaveExchangeRate: %v", err)
	}

	slices, err := svc.CategoryBreakdown(ctx, "user-1", core.PeriodAll, core.CustomDateRange{}, core.TypeExpense)
	if err != nil {
		t.Fatalf("CategoryBreakdown: %v", err)
	}
	if len(slices) != 1 {
		t.Fatalf("len = %d, want 1", len(slices))
	}
	if slices[0].Category != "Comida" || slices[0].Amount != 10 {
		t.Errorf("slice = %+v, want Comida / 10 USD", slices[0])
	}
}

func TestCategoryBreakdownSubset(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	expense := inputTx("user-1")
	expense.Category = "Comida"
	if _, err := svc.Create(ctx, expense); err != nil {
		t.Fatalf("Create expense: %v", err)
	}

	income := inputTx("user-1")
	income.Type = core.TypeIncome
	income.Category = "Sueldo"
	if _, err := svc.Create(ctx, income); err != nil {
		t.Fatalf("Create income: %v", err)
	}

	expenses, err := svc.CategoryBreakdown(ctx, "user-1", core.PeriodAll, core.CustomDateRange{}, "")
	if err != nil {
		t.Fatalf("CategoryBreakdown: %v", err)
	}
	if len(expenses) != 1 || expenses[0].Category != "Comida" {
		t.Errorf("default subset = %+v, want only Comida", expenses)
	}

	incomes, err := svc.CategoryBreakdown(ctx, "user-1", core.PeriodAll, core.CustomDateRange{}, core.TypeIncome)
	if err != nil {
		t.Fatalf("CategoryBreakdown income: %v", err)
	}
	if len(incomes) != 1 || incomes[0].Category != "Sueldo" {
		t.Errorf("income subset = %+v, want only Sueldo", incomes)
	}
}
