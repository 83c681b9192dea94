package core

import (
	"log/slog"
)

type (
	// BsSummary is the bolívar half of the financial summary. Cash and bank
	// balances are cumulative over all history; the period figures cover the
	// filtered window only.
	BsSummary struct {
		PeriodIncome   Money
		PeriodExpenses Money
		CashBalance    Money
		BankBalance    Money
		TotalBalance   Money
	}

	// USDSummary mirrors BsSummary for the dollar side, whose account types
	// are cash and digital (USDT).
	USDSummary struct {
		PeriodIncome   Money
		PeriodExpenses Money
		CashBalance    Money
		USDTBalance    Money
		TotalBalance   Money
	}

	// FinancialSummary is recomputed on demand from the transaction snapshot
	// and never persisted.
	FinancialSummary struct {
		Bs  BsSummary
		USD USDSummary
	}

	// AggregateOptions tunes the aggregator. The zero value is the
	// documented default policy.
	AggregateOptions struct {
		// AdjustmentsInPeriodFlow counts adjustment transactions toward
		// period income. Off by default: an adjustment corrects a balance,
		// it is not income the period earned. Historical variants of this
		// application disagreed here, so the policy is explicit.
		AdjustmentsInPeriodFlow bool

		// Logger receives skip diagnostics. nil falls back to slog.Default.
		Logger *slog.Logger
	}
)

// Aggregate walks the full snapshot for cumulative balances and the period
// subset for flow totals, per the single authoritative rollup algorithm.
//
// Data-quality problems (unknown method, unknown currency) skip the
// offending part or transaction with a diagnostic and never abort the batch.
// Balances are never clamped; negative balances are legitimate.
func Aggregate(all, filtered []Transaction, catalog *Catalog, opts AggregateOptions) FinancialSummary {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var s FinancialSummary

	// Cumulative balances: every transaction, routed part by part through
	// the catalog into {currency, account type} buckets.
	for _, t := range all {
		if !t.Type.Valid() {
			logger.Warn("skipping transaction with unknown type",
				"transaction_id", t.ID, "type", string(t.Type))
			continue
		}
		sign := t.Type.Sign()
		for _, p := range t.Payments {
			opt, ok := catalog.Lookup(p.Method)
			if !ok {
				logger.Warn("skipping payment part with unknown method",
					"transaction_id", t.ID, "method", string(p.Method))
				continue
			}
			delta := sign * p.Amount.Cents
			switch opt.Currency {
			case CurrencyBs:
				switch opt.AccountType {
				case AccountCash:
					s.Bs.CashBalance.Cents += delta
				case AccountBank:
					s.Bs.BankBalance.Cents += delta
				}
			case CurrencyUSD:
				switch opt.AccountType {
				case AccountCash:
					s.USD.CashBalance.Cents += delta
				case AccountDigital:
					s.USD.USDTBalance.Cents += delta
				}
			}
		}
	}

	// Period flow: filtered set only, at the transaction level.
	for _, t := range filtered {
		if !t.Currency.Valid() {
			logger.Warn("skipping transaction with unknown currency",
				"transaction_id", t.ID, "currency", string(t.Currency))
			continue
		}
		switch t.Type {
		case TypeIncome:
			s.addPeriodIncome(t.Currency, t.Amount.Cents)
		case TypeAdjustment:
			if opts.AdjustmentsInPeriodFlow {
				s.addPeriodIncome(t.Currency, t.Amount.Cents)
			}
		case TypeExpense:
			if t.Currency == CurrencyBs {
				s.Bs.PeriodExpenses.Cents += t.Amount.Cents
			} else {
				s.USD.PeriodExpenses.Cents += t.Amount.Cents
			}
		}
	}

	s.Bs.TotalBalance.Cents = s.Bs.CashBalance.Cents + s.Bs.BankBalance.Cents
	s.USD.TotalBalance.Cents = s.USD.CashBalance.Cents + s.USD.USDTBalance.Cents
	return s
}

func (s *FinancialSummary) addPeriodIncome(c Currency, cents int64) {
	if c == CurrencyBs {
		s.Bs.PeriodIncome.Cents += cents
	} else {
		s.USD.PeriodIncome.Cents += cents
	}
}
