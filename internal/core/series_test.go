package core

import (
	"testing"
	"time"
)

var seriesNow = time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)

func datedTx(typ TransactionType, currency Currency, cents int64, date Date) Transaction {
	method := EfectivoBs
	if currency == CurrencyUSD {
		method = EfectivoUSD
	}
	return Transaction{
		ID: "tx-" + date.String(), Description: "test", Type: typ, Currency: currency,
		Amount: Money{Cents: cents}, Date: date,
		Payments: []PaymentDetail{{Method: method, Amount: Money{Cents: cents}}},
	}
}

func TestMonthlyFlowDenseWindow(t *testing.T) {
	points := MonthlyFlow(nil, 40, seriesNow)
	if len(points) != 12 {
		t.Fatalf("expected 12 months, got %d", len(points))
	}
	if points[0].Month != "2025-10" || points[11].Month != "2026-09" {
		t.Fatalf("window = %s..%s, want 2025-10..2026-09", points[0].Month, points[11].Month)
	}
	for _, p := range points {
		if p.Income != 0 || p.Expense != 0 {
			t.Fatalf("empty input must produce zero-valued months, got %+v", p)
		}
	}
}

func TestMonthlyFlowConversion(t *testing.T) {
	all := []Transaction{
		// 10 USD income stays 10 in the USD-denominated series
		datedTx(TypeIncome, CurrencyUSD, 1000, NewDate(2026, 9, 1)),
		// 400 Bs. expense at rate 40 converts to 10 USD
		datedTx(TypeExpense, CurrencyBs, 40000, NewDate(2026, 9, 2)),
		// adjustments count toward chart income
		datedTx(TypeAdjustment, CurrencyUSD, 500, NewDate(2026, 9, 3)),
		// outside the trailing window, ignored
		datedTx(TypeIncome, CurrencyUSD, 99900, NewDate(2024, 1, 1)),
	}
	points := MonthlyFlow(all, 40, seriesNow)
	last := points[11]
	if last.Income != 15 {
		t.Fatalf("september income = %v, want 15", last.Income)
	}
	if last.Expense != 10 {
		t.Fatalf("september expense = %v, want 10", last.Expense)
	}
}

func TestMonthlyFlowZeroRate(t *testing.T) {
	all := []Transaction{
		datedTx(TypeIncome, CurrencyBs, 40000, NewDate(2026, 9, 1)),
		datedTx(TypeIncome, CurrencyUSD, 1000, NewDate(2026, 9, 1)),
	}
	points := MonthlyFlow(all, 0, seriesNow)
	// no rate: bolívares cannot convert and contribute zero, USD passes through
	if points[11].Income != 10 {
		t.Fatalf("zero-rate income = %v, want 10", points[11].Income)
	}
}

func TestBalanceEvolutionSeedsHistory(t *testing.T) {
	all := []Transaction{
		// long before the window: folded into the seed
		datedTx(TypeIncome, CurrencyUSD, 10000, NewDate(2023, 5, 1)),
		datedTx(TypeExpense, CurrencyUSD, 2000, NewDate(2023, 6, 1)),
		// inside the window
		datedTx(TypeExpense, CurrencyUSD, 1000, NewDate(2026, 9, 1)),
	}
	points := BalanceEvolution(all, 40, seriesNow)
	if len(points) != 12 {
		t.Fatalf("expected 12 points, got %d", len(points))
	}
	if points[0].Balance != 80 {
		t.Fatalf("first point must carry the historical seed, got %v", points[0].Balance)
	}
	if points[11].Balance != 70 {
		t.Fatalf("last point = %v, want 70", points[11].Balance)
	}
	// running totals never decrease without activity
	for i := 1; i < 11; i++ {
		if points[i].Balance != 80 {
			t.Fatalf("months without activity must carry the balance forward, got %v at %s",
				points[i].Balance, points[i].Month)
		}
	}
}

func TestBalanceEvolutionEmpty(t *testing.T) {
	points := BalanceEvolution(nil, 40, seriesNow)
	if len(points) != 12 {
		t.Fatalf("expected 12 points, got %d", len(points))
	}
	for _, p := range points {
		if p.Balance != 0 {
			t.Fatalf("empty input must produce zero balances, got %+v", p)
		}
	}
}

func TestCategoryBreakdown(t *testing.T) {
	groceries := datedTx(TypeExpense, CurrencyUSD, 3000, NewDate(2026, 9, 1))
	groceries.Category = "Mercado"
	rent := datedTx(TypeExpense, CurrencyUSD, 10000, NewDate(2026, 9, 2))
	rent.Category = "Alquiler"
	uncategorized := datedTx(TypeExpense, CurrencyBs, 40000, NewDate(2026, 9, 3))

	slices := CategoryBreakdown([]Transaction{groceries, rent, uncategorized}, 40)
	if len(slices) != 3 {
		t.Fatalf("expected 3 slices, got %d", len(slices))
	}
	if slices[0].Category != "Alquiler" || slices[0].Amount != 100 {
		t.Fatalf("largest first: got %+v", slices[0])
	}
	found := false
	for _, s := range slices {
		if s.Category == Uncategorized {
			found = true
			if s.Amount != 10 {
				t.Fatalf("uncategorized slice = %v, want 10", s.Amount)
			}
		}
	}
	if !found {
		t.Fatal("transactions without a category must appear under Uncategorized")
	}
}

func TestCategoryBreakdownEmpty(t *testing.T) {
	slices := CategoryBreakdown(nil, 40)
	if slices == nil || len(slices) != 0 {
		t.Fatalf("empty subset must yield an empty series, got %v", slices)
	}
}
