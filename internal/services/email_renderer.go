package services

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/rocjay1/ledger-analyzer/internal/analysis"
	"github.com/shopspring/decimal"
)

// Digest is the content of the monthly summary email.
type Digest struct {
	Month    string
	Events   analysis.EventsReport
	Cashback map[string]decimal.Decimal
	RoundUp  decimal.Decimal
	RoundTo  int
}

const (
	pageStart = `
		<html>
		<body style="font-family: 'Segoe UI', sans-serif; color: #333; line-height: 1.6; background-color: #f4f4f4; margin: 0; padding: 20px;">
			<div style="max-width: 600px; margin: 0 auto; background: white; border-radius: 8px; overflow: hidden; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">`
	pageEnd = `
			</div>
		</body>
		</html>`
	cellStyle = `style="padding: 6px 8px; border-bottom: 1px solid #eee;"`
)

func renderHeader(title, color string) string {
	return fmt.Sprintf(`
				<div style="background-color: %s; padding: 20px; text-align: center; color: white;">
					<h2 style="margin: 0;">%s</h2>
				</div>`, color, html.EscapeString(title))
}

// RenderErrorSection renders the list of row problems.
func RenderErrorSection(errors []string) string {
	if len(errors) == 0 {
		return ""
	}

	var items strings.Builder
	for _, e := range errors {
		fmt.Fprintf(&items, "<li>%s</li>", html.EscapeString(e))
	}

	return fmt.Sprintf(`
		<div style="background-color: #fff4f4; border-left: 5px solid #d13438; padding: 15px; margin-bottom: 20px;">
			<h3 style="color: #d13438; margin-top: 0; font-size: 18px;">Rows that could not be read</h3>
			<ul style="margin-bottom: 0; padding-left: 20px;">
				%s
			</ul>
		</div>
	`, items.String())
}

// RenderErrorBody renders the full HTML body for a failed upload email.
func RenderErrorBody(filename string, errors []string) string {
	var b strings.Builder
	b.WriteString(pageStart)
	b.WriteString(renderHeader("Upload Failed", "#d13438"))
	fmt.Fprintf(&b, `
				<div style="padding: 20px;">
					<p>The ledger <strong>%s</strong> could not be processed:</p>
					%s
				</div>`, html.EscapeString(filename), RenderErrorSection(errors))
	b.WriteString(pageEnd)
	return b.String()
}

func renderAmountTable(title, total string, rows []analysis.CategoryAmount) string {
	var b strings.Builder
	fmt.Fprintf(&b, `
					<h3 style="margin-bottom: 4px;">%s: %s</h3>`, html.EscapeString(title), total)
	if len(rows) == 0 {
		b.WriteString(`
					<p style="color: #888;">No transactions.</p>`)
		return b.String()
	}
	b.WriteString(`
					<table style="width: 100%; border-collapse: collapse;">`)
	for _, r := range rows {
		fmt.Fprintf(&b, `
						<tr><td %s>%s</td><td %s align="right">%s</td></tr>`,
			cellStyle, html.EscapeString(r.Category), cellStyle, r.Amount.StringFixed(2))
	}
	b.WriteString(`
					</table>`)
	return b.String()
}

// RenderDigestBody renders the monthly digest: expense and income
// breakdowns, cashback per category and round-up savings.
func RenderDigestBody(d Digest) string {
	cashbackRows := make([]analysis.CategoryAmount, 0, len(d.Cashback))
	cashbackTotal := decimal.Zero
	for category, amount := range d.Cashback {
		cashbackRows = append(cashbackRows, analysis.CategoryAmount{Category: category, Amount: amount})
		cashbackTotal = cashbackTotal.Add(amount)
	}
	sort.Slice(cashbackRows, func(i, j int) bool {
		if !cashbackRows[i].Amount.Equal(cashbackRows[j].Amount) {
			return cashbackRows[i].Amount.GreaterThan(cashbackRows[j].Amount)
		}
		return cashbackRows[i].Category < cashbackRows[j].Category
	})

	var b strings.Builder
	b.WriteString(pageStart)
	b.WriteString(renderHeader("Monthly digest "+d.Month, "#0078d4"))
	b.WriteString(`
				<div style="padding: 20px;">`)
	b.WriteString(renderAmountTable("Expenses", d.Events.Expenses.TotalAmount.StringFixed(0), d.Events.Expenses.Main))
	b.WriteString(renderAmountTable("Income", d.Events.Income.TotalAmount.StringFixed(0), d.Events.Income.Main))
	b.WriteString(renderAmountTable("Cashback", cashbackTotal.StringFixed(2), cashbackRows))
	fmt.Fprintf(&b, `
					<p>Rounding every purchase up to %d would have saved <strong>%s</strong>.</p>
				</div>`, d.RoundTo, d.RoundUp.StringFixed(2))
	b.WriteString(pageEnd)
	return b.String()
}
