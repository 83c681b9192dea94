package core

import (
	"reflect"
	"testing"
)

func bsTx(typ TransactionType, cents int64, method PaymentMethodID) Transaction {
	return Transaction{
		ID:          "tx",
		OwnerID:     "user-1",
		Description: "test",
		Type:        typ,
		Currency:    CurrencyBs,
		Amount:      Money{Cents: cents},
		Date:        NewDate(2026, 9, 1),
		Payments:    []PaymentDetail{{Method: method, Amount: Money{Cents: cents}}},
	}
}

func usdTx(typ TransactionType, cents int64, method PaymentMethodID) Transaction {
	tx := bsTx(typ, cents, method)
	tx.Currency = CurrencyUSD
	return tx
}

func TestAggregateBasicRollup(t *testing.T) {
	// income of 100 Bs. via bank, expense of 30 Bs. via cash
	all := []Transaction{
		bsTx(TypeIncome, 10000, PagoMovilBs),
		bsTx(TypeExpense, 3000, EfectivoBs),
	}
	s := Aggregate(all, all, DefaultCatalog(), AggregateOptions{})

	if s.Bs.BankBalance.Cents != 10000 {
		t.Fatalf("bank balance = %d, want 10000", s.Bs.BankBalance.Cents)
	}
	if s.Bs.CashBalance.Cents != -3000 {
		t.Fatalf("cash balance = %d, want -3000", s.Bs.CashBalance.Cents)
	}
	if s.Bs.TotalBalance.Cents != 7000 {
		t.Fatalf("total balance = %d, want 7000", s.Bs.TotalBalance.Cents)
	}
	if s.Bs.PeriodIncome.Cents != 10000 || s.Bs.PeriodExpenses.Cents != 3000 {
		t.Fatalf("period flow = %d/%d, want 10000/3000",
			s.Bs.PeriodIncome.Cents, s.Bs.PeriodExpenses.Cents)
	}
}

func TestAggregateMultiPartPayment(t *testing.T) {
	// one expense of 90 Bs. split 40 cash / 50 bank
	tx := Transaction{
		ID: "split", Description: "compra", Type: TypeExpense, Currency: CurrencyBs,
		Amount: Money{Cents: 9000}, Date: NewDate(2026, 9, 1),
		Payments: []PaymentDetail{
			{Method: EfectivoBs, Amount: Money{Cents: 4000}},
			{Method: PagoMovilBs, Amount: Money{Cents: 5000}},
		},
	}
	s := Aggregate([]Transaction{tx}, []Transaction{tx}, DefaultCatalog(), AggregateOptions{})

	if s.Bs.CashBalance.Cents != -4000 || s.Bs.BankBalance.Cents != -5000 {
		t.Fatalf("split balances = %d/%d, want -4000/-5000",
			s.Bs.CashBalance.Cents, s.Bs.BankBalance.Cents)
	}
	if s.Bs.TotalBalance.Cents != -9000 {
		t.Fatalf("total = %d, want -9000", s.Bs.TotalBalance.Cents)
	}
}

func TestAggregateTotalIsSumOfAccounts(t *testing.T) {
	all := []Transaction{
		bsTx(TypeIncome, 12345, PagoMovilBs),
		bsTx(TypeExpense, 678, EfectivoBs),
		usdTx(TypeIncome, 999, EfectivoUSD),
		usdTx(TypeAdjustment, 501, USDT),
		usdTx(TypeExpense, 1500, USDT),
	}
	s := Aggregate(all, all, DefaultCatalog(), AggregateOptions{})

	if s.Bs.TotalBalance.Cents != s.Bs.CashBalance.Cents+s.Bs.BankBalance.Cents {
		t.Fatal("Bs. total must equal cash+bank exactly")
	}
	if s.USD.TotalBalance.Cents != s.USD.CashBalance.Cents+s.USD.USDTBalance.Cents {
		t.Fatal("USD total must equal cash+usdt exactly")
	}
}

func TestAggregateTypeReversalNegates(t *testing.T) {
	catalog := DefaultCatalog()
	income := []Transaction{bsTx(TypeIncome, 4200, EfectivoBs)}
	expense := []Transaction{bsTx(TypeExpense, 4200, EfectivoBs)}

	si := Aggregate(income, nil, catalog, AggregateOptions{})
	se := Aggregate(expense, nil, catalog, AggregateOptions{})

	if si.Bs.CashBalance.Cents != -se.Bs.CashBalance.Cents {
		t.Fatalf("reversal: %d vs %d", si.Bs.CashBalance.Cents, se.Bs.CashBalance.Cents)
	}
	if si.Bs.TotalBalance.Cents != -se.Bs.TotalBalance.Cents {
		t.Fatal("reversal must negate the total too")
	}
}

func TestAggregateIdempotent(t *testing.T) {
	all := []Transaction{
		bsTx(TypeIncome, 100, PagoMovilBs),
		usdTx(TypeExpense, 250, USDT),
	}
	first := Aggregate(all, all, DefaultCatalog(), AggregateOptions{})
	second := Aggregate(all, all, DefaultCatalog(), AggregateOptions{})
	if !reflect.DeepEqual(first, second) {
		t.Fatal("aggregating the same input twice must be identical")
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	s := Aggregate(nil, nil, DefaultCatalog(), AggregateOptions{})
	if s != (FinancialSummary{}) {
		t.Fatalf("empty input must yield all-zero summary, got %+v", s)
	}
}

func TestAggregateAdjustmentPolicy(t *testing.T) {
	adj := bsTx(TypeAdjustment, 5000, EfectivoBs)
	all := []Transaction{adj}

	// default: adjustments move balances but not period income
	s := Aggregate(all, all, DefaultCatalog(), AggregateOptions{})
	if s.Bs.CashBalance.Cents != 5000 {
		t.Fatalf("adjustment must move the balance, got %d", s.Bs.CashBalance.Cents)
	}
	if s.Bs.PeriodIncome.Cents != 0 {
		t.Fatalf("adjustment must not count as period income by default, got %d", s.Bs.PeriodIncome.Cents)
	}

	// opt-in keeps the old behavior
	s = Aggregate(all, all, DefaultCatalog(), AggregateOptions{AdjustmentsInPeriodFlow: true})
	if s.Bs.PeriodIncome.Cents != 5000 {
		t.Fatalf("opt-in adjustment flow: got %d, want 5000", s.Bs.PeriodIncome.Cents)
	}
}

func TestAggregatePeriodUsesFilteredSetOnly(t *testing.T) {
	old := bsTx(TypeIncome, 10000, PagoMovilBs)
	recent := bsTx(TypeIncome, 2000, PagoMovilBs)
	all := []Transaction{old, recent}

	s := Aggregate(all, []Transaction{recent}, DefaultCatalog(), AggregateOptions{})
	if s.Bs.PeriodIncome.Cents != 2000 {
		t.Fatalf("period income = %d, want 2000", s.Bs.PeriodIncome.Cents)
	}
	// balances still see everything
	if s.Bs.BankBalance.Cents != 12000 {
		t.Fatalf("bank balance = %d, want 12000", s.Bs.BankBalance.Cents)
	}
}

func TestAggregateSkipsMalformedData(t *testing.T) {
	good := bsTx(TypeIncome, 1000, EfectivoBs)
	unknownMethod := bsTx(TypeIncome, 500, "TARJETA")
	unknownType := bsTx("transfer", 700, EfectivoBs)
	badCurrency := bsTx(TypeIncome, 900, EfectivoBs)
	badCurrency.Currency = "EUR"

	all := []Transaction{good, unknownMethod, unknownType, badCurrency}
	s := Aggregate(all, all, DefaultCatalog(), AggregateOptions{})

	// unknown method part skipped, unknown type skipped entirely; the
	// bad-currency transaction still routes its parts by catalog currency
	if s.Bs.CashBalance.Cents != 1900 {
		t.Fatalf("cash balance = %d, want 1900", s.Bs.CashBalance.Cents)
	}
	// bad currency is excluded from period flow
	if s.Bs.PeriodIncome.Cents != 1500 {
		t.Fatalf("period income = %d, want 1500", s.Bs.PeriodIncome.Cents)
	}
}

func TestAggregateNeverClamps(t *testing.T) {
	all := []Transaction{bsTx(TypeExpense, 999999, EfectivoBs)}
	s := Aggregate(all, all, DefaultCatalog(), AggregateOptions{})
	if s.Bs.CashBalance.Cents != -999999 || s.Bs.TotalBalance.Cents != -999999 {
		t.Fatalf("negative balances must be preserved, got %d", s.Bs.CashBalance.Cents)
	}
}
