package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	CurrencyBs  Currency = "Bs."
	CurrencyUSD Currency = "USD"
)

const (
	TypeIncome     TransactionType = "income"
	TypeExpense    TransactionType = "expense"
	TypeAdjustment TransactionType = "adjustment"
)

type (
	// Currency is one of the two supported monetary units.
	Currency string

	// TransactionType determines the sign a transaction contributes to
	// balances: income and adjustment add, expense subtracts. Amounts are
	// always stored as positive magnitudes.
	TransactionType string

	// Date is a calendar date with no meaningful time component. The wrapped
	// time is always midnight UTC of that day.
	Date struct {
		time.Time
	}

	// Money is an amount in whole cents of its transaction's currency.
	Money struct {
		Cents int64
	}

	// PaymentDetail is one part of a split payment: which method carried it
	// and how much. The parts of a transaction must sum to its total amount.
	PaymentDetail struct {
		Method PaymentMethodID
		Amount Money
	}

	// Transaction is a single financial event. Once created it only changes
	// through explicit owner updates.
	Transaction struct {
		ID          string
		OwnerID     string
		Description string
		Type        TransactionType
		Currency    Currency
		Amount      Money
		UnitPrice   Money // optional; zero means not itemized
		Quantity    int64 // defaults to 1
		Date        Date
		Payments    []PaymentDetail
		Category    string // blank is reported as Uncategorized
		Notes       string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}
)

var (
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidCurrency    = errors.New("invalid currency")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidDate        = errors.New("invalid date")
	ErrNoPaymentParts     = errors.New("at least one payment part is required")
	ErrUnknownMethod      = errors.New("unknown payment method")
	ErrMethodCurrency     = errors.New("payment method does not belong to the transaction currency")
	ErrPartsSumMismatch   = errors.New("payment parts do not sum to the transaction amount")
	ErrItemizedMismatch   = errors.New("unit price times quantity does not equal the amount")
	ErrInvalidQuantity    = errors.New("invalid quantity")
)

// Uncategorized is the bucket label for transactions without a category.
const Uncategorized = "Uncategorized"

// ParseDate parses a YYYY-MM-DD string into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// NewDate builds a Date from year, month and day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// String renders the date back in YYYY-MM-DD form.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (c Currency) Valid() bool {
	return c == CurrencyBs || c == CurrencyUSD
}

func (t TransactionType) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeAdjustment:
		return true
	}
	return false
}

// Sign returns +1 for types that increase balances and -1 for expense.
func (t TransactionType) Sign() int64 {
	if t == TypeExpense {
		return -1
	}
	return 1
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks a transaction against the payment-method catalog.
// Entry time is the only place payment parts are checked; the aggregator
// trusts transactions that passed here.
func (t Transaction) Validate(catalog *Catalog) error {
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t.Type)
	}
	if !t.Currency.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, t.Currency)
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.Quantity < 0 {
		return ErrInvalidQuantity
	}
	if t.UnitPrice.Cents > 0 {
		qty := t.Quantity
		if qty == 0 {
			qty = 1
		}
		if t.UnitPrice.Cents*qty != t.Amount.Cents {
			return ErrItemizedMismatch
		}
	}
	if len(t.Payments) == 0 {
		return ErrNoPaymentParts
	}
	var partsSum int64
	for _, p := range t.Payments {
		opt, ok := catalog.Lookup(p.Method)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownMethod, p.Method)
		}
		if opt.Currency != t.Currency {
			return fmt.Errorf("%w: %q is %s", ErrMethodCurrency, p.Method, opt.Currency)
		}
		if p.Amount.Cents <= 0 {
			return fmt.Errorf("payment part %q: %w", p.Method, ErrInvalidAmount)
		}
		partsSum += p.Amount.Cents
	}
	if partsSum != t.Amount.Cents {
		return ErrPartsSumMismatch
	}
	return nil
}

// CategoryOrDefault returns the trimmed category, or Uncategorized when the
// transaction has none.
func (t Transaction) CategoryOrDefault() string {
	c := strings.TrimSpace(t.Category)
	if c == "" {
		return Uncategorized
	}
	return c
}
