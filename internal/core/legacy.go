package core

import "strings"

// LegacyMethodVersion identifies the mapping below. Bump it whenever a new
// historical label is added so imported data can record which ruleset
// normalized it.
const LegacyMethodVersion = 2

// legacyMethods maps every payment-method label observed in historical
// imports (lowercased) to the current catalog. The table is total over the
// known history; anything else falls back to EFECTIVO_BS, which is how the
// oldest records were booked.
var legacyMethods = map[string]PaymentMethodID{
	// current ids pass through
	"pago_movil_bs": PagoMovilBs,
	"efectivo_bs":   EfectivoBs,
	"efectivo_usd":  EfectivoUSD,
	"usdt":          USDT,

	// first-generation import labels
	"efectivo":      EfectivoBs,
	"cash":          EfectivoBs,
	"banco":         PagoMovilBs,
	"pago móvil":    PagoMovilBs,
	"pago movil":    PagoMovilBs,
	"pm":            PagoMovilBs,
	"transferencia": PagoMovilBs,
	"bank_transfer": PagoMovilBs,
	"usd":           EfectivoUSD,

	// digital-dollar labels from the exchange era
	"efectivo_usdt": USDT,
	"binance":       USDT,
	"zelle":         USDT,

	// intermediate ids produced by the v1 converter
	"transferencia_bs": PagoMovilBs,
}

// MigrateLegacyMethod normalizes a stored payment-method label to the
// current catalog. The second result is false when the label was not part
// of the known history and the EFECTIVO_BS fallback was applied.
func MigrateLegacyMethod(raw string) (PaymentMethodID, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if id, ok := legacyMethods[key]; ok {
		return id, true
	}
	return EfectivoBs, false
}
