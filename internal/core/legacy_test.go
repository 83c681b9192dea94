package core

import "testing"

func TestMigrateLegacyMethod(t *testing.T) {
	cases := []struct {
		raw  string
		want PaymentMethodID
	}{
		// current ids, any casing
		{"PAGO_MOVIL_BS", PagoMovilBs},
		{"efectivo_bs", EfectivoBs},
		{"Efectivo_USD", EfectivoUSD},
		{"usdt", USDT},

		// every label observed in historical imports
		{"efectivo", EfectivoBs},
		{"cash", EfectivoBs},
		{"banco", PagoMovilBs},
		{"pago móvil", PagoMovilBs},
		{"pago movil", PagoMovilBs},
		{"PM", PagoMovilBs},
		{"transferencia", PagoMovilBs},
		{"bank_transfer", PagoMovilBs},
		{"usd", EfectivoUSD},
		{"EFECTIVO_USDT", USDT},
		{"binance", USDT},
		{"zelle", USDT},
		{"TRANSFERENCIA_BS", PagoMovilBs},

		// whitespace is tolerated
		{"  efectivo  ", EfectivoBs},
	}
	for _, tc := range cases {
		got, ok := MigrateLegacyMethod(tc.raw)
		if !ok {
			t.Fatalf("MigrateLegacyMethod(%q): expected known label", tc.raw)
		}
		if got != tc.want {
			t.Fatalf("MigrateLegacyMethod(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestMigrateLegacyMethodFallback(t *testing.T) {
	got, ok := MigrateLegacyMethod("tarjeta de crédito")
	if ok {
		t.Fatal("unknown label must report the fallback")
	}
	if got != EfectivoBs {
		t.Fatalf("fallback = %s, want EFECTIVO_BS", got)
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	opts := c.Options()
	if len(opts) != 4 {
		t.Fatalf("expected 4 methods, got %d", len(opts))
	}

	// every legacy mapping must land on a real catalog entry
	for raw := range legacyMethods {
		id, _ := MigrateLegacyMethod(raw)
		if _, ok := c.Lookup(id); !ok {
			t.Fatalf("legacy label %q maps to %s which is not in the catalog", raw, id)
		}
	}
}

func TestNewCatalogRejectsMalformed(t *testing.T) {
	cases := []struct {
		name    string
		options []PaymentMethodOption
	}{
		{"empty", nil},
		{"blank id", []PaymentMethodOption{{ID: "", Currency: CurrencyBs, AccountType: AccountCash}}},
		{"bad currency", []PaymentMethodOption{{ID: "X", Currency: "EUR", AccountType: AccountCash}}},
		{"bad account type", []PaymentMethodOption{{ID: "X", Currency: CurrencyBs, AccountType: "vault"}}},
		{"duplicate", []PaymentMethodOption{
			{ID: "X", Currency: CurrencyBs, AccountType: AccountCash},
			{ID: "X", Currency: CurrencyBs, AccountType: AccountBank},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewCatalog(tc.options); err == nil {
				t.Fatal("expected error for malformed catalog")
			}
		})
	}
}
