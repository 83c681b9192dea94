package analysis

import (
	"fmt"
	"strings"

	"finanzas/internal/core"
)

// Prompt templates per analysis type. Responses are meant for the app's
// Spanish-speaking users.
var typePrompts = map[core.AnalysisType]string{
	core.AnalysisSummary: "Eres un asesor financiero personal. Resume la situación financiera " +
		"del usuario en un párrafo breve y claro: balances, ingresos y gastos recientes.",
	core.AnalysisInsights: "Eres un asesor financiero personal. Identifica patrones y tendencias " +
		"en las transacciones del usuario: días de mayor gasto, categorías dominantes, cambios notables.",
	core.AnalysisRecommendations: "Eres un asesor financiero personal. Da recomendaciones concretas " +
		"y accionables para mejorar las finanzas del usuario, basadas en sus transacciones.",
	core.AnalysisSpending: "Eres un asesor financiero personal. Analiza los gastos del usuario por " +
		"categoría y método de pago, y señala dónde se concentra el gasto.",
}

const responseRules = "Responde en español, en texto plano.\n" +
	"No uses Markdown ni bloques de código.\n" +
	"Sé conciso: máximo tres párrafos."

// BuildPrompt assembles the model prompt for one analysis over the
// owner's recent transactions and current summary.
func BuildPrompt(a core.Analysis, txs []core.Transaction, summary core.FinancialSummary, rate float64) string {
	var b strings.Builder

	if a.Type == core.AnalysisCustom {
		b.WriteString("Eres un asesor financiero personal. Responde la pregunta del usuario " +
			"usando únicamente los datos siguientes.\n\nPregunta del usuario: ")
		b.WriteString(a.CustomPrompt)
		b.WriteString("\n\n")
	} else {
		b.WriteString(typePrompts[a.Type])
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "Tasa de cambio: %.2f Bs. por USD\n\n", rate)

	b.WriteString("Resumen financiero:\n")
	fmt.Fprintf(&b, "- Bolívares: ingresos %s, gastos %s, balance total %s\n",
		summary.Bs.PeriodIncome.Format(core.CurrencyBs),
		summary.Bs.PeriodExpenses.Format(core.CurrencyBs),
		summary.Bs.TotalBalance.Format(core.CurrencyBs))
	fmt.Fprintf(&b, "- Dólares: ingresos %s, gastos %s, balance total %s\n\n",
		summary.USD.PeriodIncome.Format(core.CurrencyUSD),
		summary.USD.PeriodExpenses.Format(core.CurrencyUSD),
		summary.USD.TotalBalance.Format(core.CurrencyUSD))

	fmt.Fprintf(&b, "Últimas transacciones (%d):\n", len(txs))
	for _, t := range txs {
		fmt.Fprintf(&b, "%s | %s | %s | %s | %s\n",
			t.Date.String(),
			t.Type,
			t.Amount.Format(t.Currency),
			t.CategoryOrDefault(),
			t.Description)
	}

	b.WriteString("\n")
	b.WriteString(responseRules)

	return b.String()
}
