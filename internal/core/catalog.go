package core

import (
	"errors"
	"fmt"
)

const (
	PagoMovilBs PaymentMethodID = "PAGO_MOVIL_BS"
	EfectivoBs  PaymentMethodID = "EFECTIVO_BS"
	EfectivoUSD PaymentMethodID = "EFECTIVO_USD"
	USDT        PaymentMethodID = "USDT"
)

const (
	AccountCash    AccountType = "cash"
	AccountBank    AccountType = "bank"
	AccountDigital AccountType = "digital"
)

type (
	// PaymentMethodID identifies one payment rail in the catalog.
	PaymentMethodID string

	// AccountType is the balance bucket a payment method is permanently
	// bound to within its currency.
	AccountType string

	// PaymentMethodOption is one catalog entry. The catalog is the single
	// authority the aggregator uses to route a payment part into a balance
	// bucket.
	PaymentMethodOption struct {
		ID          PaymentMethodID
		Label       string
		Currency    Currency
		AccountType AccountType
	}

	// Catalog is the fixed payment-method lookup table. It is supplied by
	// configuration and never derived from stored data.
	Catalog struct {
		byID  map[PaymentMethodID]PaymentMethodOption
		order []PaymentMethodID
	}
)

// NewCatalog builds a catalog from an ordered option list. A malformed
// catalog is a programmer error, not a data-quality problem, so this is the
// one place the package returns an error instead of skipping.
func NewCatalog(options []PaymentMethodOption) (*Catalog, error) {
	if len(options) == 0 {
		return nil, errors.New("payment-method catalog is empty")
	}
	c := &Catalog{byID: make(map[PaymentMethodID]PaymentMethodOption, len(options))}
	for _, opt := range options {
		if opt.ID == "" {
			return nil, errors.New("payment method with empty id")
		}
		if !opt.Currency.Valid() {
			return nil, fmt.Errorf("payment method %q: invalid currency %q", opt.ID, opt.Currency)
		}
		switch opt.AccountType {
		case AccountCash, AccountBank, AccountDigital:
		default:
			return nil, fmt.Errorf("payment method %q: invalid account type %q", opt.ID, opt.AccountType)
		}
		if _, dup := c.byID[opt.ID]; dup {
			return nil, fmt.Errorf("duplicate payment method %q", opt.ID)
		}
		c.byID[opt.ID] = opt
		c.order = append(c.order, opt.ID)
	}
	return c, nil
}

// DefaultCatalog returns the four payment rails the application ships with.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog([]PaymentMethodOption{
		{ID: PagoMovilBs, Label: "Pago Móvil (Bs.)", Currency: CurrencyBs, AccountType: AccountBank},
		{ID: EfectivoBs, Label: "Efectivo (Bs.)", Currency: CurrencyBs, AccountType: AccountCash},
		{ID: EfectivoUSD, Label: "Efectivo (USD)", Currency: CurrencyUSD, AccountType: AccountCash},
		{ID: USDT, Label: "USDT (Digital USD)", Currency: CurrencyUSD, AccountType: AccountDigital},
	})
	if err != nil {
		panic(err) // static data, must be well formed
	}
	return c
}

// Lookup resolves a method id to its catalog entry.
func (c *Catalog) Lookup(id PaymentMethodID) (PaymentMethodOption, bool) {
	opt, ok := c.byID[id]
	return opt, ok
}

// Options returns the catalog entries in declaration order.
func (c *Catalog) Options() []PaymentMethodOption {
	out := make([]PaymentMethodOption, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}
