// Package report renders a financial summary and transaction listing
// as a PDF document.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"finanzas/internal/core"
)

// Data is everything a report needs, assembled by the caller.
type Data struct {
	OwnerID      string
	PeriodLabel  string
	GeneratedAt  time.Time
	Summary      core.FinancialSummary
	ExchangeRate float64
	Transactions []core.Transaction
}

// Generate writes the PDF for the given data.
func Generate(w io.Writer, data Data) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Página %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr("Reporte Financiero"), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr("Período: "+data.PeriodLabel), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, "Generado: "+data.GeneratedAt.In(core.ReferenceLocation()).Format("02/01/2006 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	writeSummary(pdf, tr, data)

	var incomes, expenses []core.Transaction
	for _, t := range data.Transactions {
		if t.Type == core.TypeExpense {
			expenses = append(expenses, t)
		} else {
			incomes = append(incomes, t)
		}
	}
	writeTransactionTable(pdf, tr, "Ingresos y ajustes", incomes)
	writeTransactionTable(pdf, tr, "Gastos", expenses)

	return pdf.Output(w)
}

func writeSummary(pdf *fpdf.Fpdf, tr func(string) string, data Data) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, "Resumen", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Tasa de cambio: %.2f Bs. por USD", data.ExchangeRate), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	bs := data.Summary.Bs
	usd := data.Summary.USD

	rows := []struct {
		label string
		bs    string
		usd   string
	}{
		{"Ingresos del período", bs.PeriodIncome.Format(core.CurrencyBs), usd.PeriodIncome.Format(core.CurrencyUSD)},
		{"Gastos del período", bs.PeriodExpenses.Format(core.CurrencyBs), usd.PeriodExpenses.Format(core.CurrencyUSD)},
		{"Balance total", bs.TotalBalance.Format(core.CurrencyBs), usd.TotalBalance.Format(core.CurrencyUSD)},
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(70, 7, "", "1", 0, "L", true, 0, "")
	pdf.CellFormat(60, 7, tr("Bolívares"), "1", 0, "R", true, 0, "")
	pdf.CellFormat(60, 7, tr("Dólares"), "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		pdf.CellFormat(70, 7, tr(row.label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 7, tr(row.bs), "1", 0, "R", false, 0, "")
		pdf.CellFormat(60, 7, tr(row.usd), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(6)
}

func writeTransactionTable(pdf *fpdf.Fpdf, tr func(string) string, title string, txs []core.Transaction) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")

	if len(txs) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 6, tr("Sin movimientos en el período."), "", 1, "L", false, 0, "")
		pdf.Ln(4)
		return
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(24, 7, "Fecha", "1", 0, "L", true, 0, "")
	pdf.CellFormat(70, 7, tr("Descripción"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 7, tr("Categoría"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(22, 7, "Tipo", "1", 0, "L", true, 0, "")
	pdf.CellFormat(44, 7, "Monto", "1", 1, "R", true, 0, "")

	typeLabels := map[core.TransactionType]string{
		core.TypeIncome:     "Ingreso",
		core.TypeExpense:    "Gasto",
		core.TypeAdjustment: "Ajuste",
	}

	var totalBs, totalUSD core.Money
	haveBs, haveUSD := false, false

	pdf.SetFont("Helvetica", "", 9)
	for _, t := range txs {
		desc := t.Description
		if runes := []rune(desc); len(runes) > 45 {
			desc = string(runes[:42]) + "..."
		}
		pdf.CellFormat(24, 6, t.Date.String(), "1", 0, "L", false, 0, "")
		pdf.CellFormat(70, 6, tr(desc), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, tr(t.CategoryOrDefault()), "1", 0, "L", false, 0, "")
		pdf.CellFormat(22, 6, typeLabels[t.Type], "1", 0, "L", false, 0, "")
		pdf.CellFormat(44, 6, tr(t.Amount.Format(t.Currency)), "1", 1, "R", false, 0, "")

		if t.Currency == core.CurrencyUSD {
			totalUSD.Cents += t.Amount.Cents
			haveUSD = true
		} else {
			totalBs.Cents += t.Amount.Cents
			haveBs = true
		}
	}

	totals := ""
	if haveBs {
		totals = totalBs.Format(core.CurrencyBs)
	}
	if haveUSD {
		if totals != "" {
			totals += " / "
		}
		totals += totalUSD.Format(core.CurrencyUSD)
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(146, 7, "Total", "1", 0, "R", true, 0, "")
	pdf.CellFormat(44, 7, tr(totals), "1", 1, "R", false, 0, "")
	pdf.Ln(4)
}
