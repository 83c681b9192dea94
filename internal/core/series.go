package core

import (
	"sort"
	"time"
)

// trailingMonths is how many calendar months the historical chart windows
// cover, current month included.
const trailingMonths = 12

type (
	// FlowPoint is one month of the income-vs-expense series, in USD
	// equivalents.
	FlowPoint struct {
		Month   string  `json:"month"` // YYYY-MM
		Label   string  `json:"label"` // e.g. "sep 2026"
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
	}

	// BalancePoint is one month of the running-balance series, in USD
	// equivalents.
	BalancePoint struct {
		Month   string  `json:"month"`
		Label   string  `json:"label"`
		Balance float64 `json:"balance"`
	}

	// CategorySlice is one slice of a category breakdown, in USD
	// equivalents, ready for a doughnut chart.
	CategorySlice struct {
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
	}
)

// spanish short month names, the locale the application reports in
var monthLabels = [...]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sep", "oct", "nov", "dic"}

func monthLabel(t time.Time) string {
	return monthLabels[int(t.Month())-1] + " " + t.Format("2006")
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}

// usdEquivalent converts a transaction amount to the USD reporting currency.
// Bolívar amounts divide by the rate; if the rate is zero or negative the
// conversion is impossible and the amount contributes nothing (degraded
// behavior, never a division by zero).
func usdEquivalent(amount Money, currency Currency, rate float64) float64 {
	switch currency {
	case CurrencyUSD:
		return amount.Float64()
	case CurrencyBs:
		if rate > 0 {
			return amount.Float64() / rate
		}
	}
	return 0
}

// MonthlyFlow buckets the full snapshot into the trailing twelve calendar
// months anchored at now, summing income (adjustments included, matching the
// balance charts) and expenses in USD equivalents. Months without
// transactions still appear with zero values.
func MonthlyFlow(all []Transaction, rate float64, now time.Time) []FlowPoint {
	months := windowMonths(now)
	index := make(map[string]int, len(months))
	points := make([]FlowPoint, len(months))
	for i, m := range months {
		points[i] = FlowPoint{Month: monthKey(m), Label: monthLabel(m)}
		index[monthKey(m)] = i
	}

	for _, t := range all {
		i, ok := index[monthKey(t.Date.Time)]
		if !ok {
			continue
		}
		v := usdEquivalent(t.Amount, t.Currency, rate)
		switch t.Type {
		case TypeIncome, TypeAdjustment:
			points[i].Income += v
		case TypeExpense:
			points[i].Expense += v
		}
	}
	return points
}

// BalanceEvolution produces one running-balance point per month of the
// trailing window. History before the window is folded into a seed value so
// the first point already carries the full past; the partial current month
// is included.
func BalanceEvolution(all []Transaction, rate float64, now time.Time) []BalancePoint {
	months := windowMonths(now)
	windowStart := months[0]
	index := make(map[string]int, len(months))
	for i, m := range months {
		index[monthKey(m)] = i
	}

	var seed float64
	deltas := make([]float64, len(months))
	for _, t := range all {
		v := usdEquivalent(t.Amount, t.Currency, rate)
		switch t.Type {
		case TypeIncome, TypeAdjustment:
			// keep sign positive
		case TypeExpense:
			v = -v
		default:
			continue
		}
		if t.Date.Before(windowStart) {
			seed += v
			continue
		}
		if i, ok := index[monthKey(t.Date.Time)]; ok {
			deltas[i] += v
		}
	}

	points := make([]BalancePoint, len(months))
	running := seed
	for i, m := range months {
		running += deltas[i]
		points[i] = BalancePoint{Month: monthKey(m), Label: monthLabel(m), Balance: running}
	}
	return points
}

// CategoryBreakdown groups a transaction subset by category in USD
// equivalents. Blank categories land in the Uncategorized bucket. The result
// is ordered largest first (ties alphabetically) and is empty, not nil-derefing
// or erroring, for an empty subset.
func CategoryBreakdown(subset []Transaction, rate float64) []CategorySlice {
	totals := make(map[string]float64)
	for _, t := range subset {
		totals[t.CategoryOrDefault()] += usdEquivalent(t.Amount, t.Currency, rate)
	}

	out := make([]CategorySlice, 0, len(totals))
	for name, amount := range totals {
		out = append(out, CategorySlice{Category: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// windowMonths returns the first day (midnight UTC) of each month in the
// trailing window, oldest first, resolved in the reference timezone.
func windowMonths(now time.Time) []time.Time {
	local := now.In(referenceLocation)
	current := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, time.UTC)
	months := make([]time.Time, trailingMonths)
	for i := 0; i < trailingMonths; i++ {
		months[i] = current.AddDate(0, i-trailingMonths+1, 0)
	}
	return months
}
