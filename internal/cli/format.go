package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"finflow/internal/budget"
	"finflow/internal/core"
	"finflow/internal/streak"
)

var printer = message.NewPrinter(language.English)

var (
	colorGreen  = lipgloss.Color("#879A39")
	colorOrange = lipgloss.Color("#DA702C")
	colorRed    = lipgloss.Color("#D14D41")
	colorAccent = lipgloss.Color("#3AA99F")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	okStyle     = lipgloss.NewStyle().Foreground(colorGreen)
	warnStyle   = lipgloss.NewStyle().Foreground(colorOrange)
	overStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
)

// usageStyle colours a wallet line by how much of its limit is used.
func usageStyle(usedPct float64) lipgloss.Style {
	switch {
	case usedPct >= 100:
		return overStyle
	case usedPct >= 80:
		return warnStyle
	}
	return okStyle
}

// FormatNumber groups thousands with commas: 15000000 -> "15,000,000".
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatMoney renders an amount with its currency code.
func FormatMoney(m core.Money) string {
	return FormatNumber(m.Value) + " " + m.Currency
}

// FormatDraft renders one draft as a single confirmation line.
func FormatDraft(d core.TransactionDraft) string {
	sign := "-"
	if d.Type == core.Income {
		sign = "+"
	}
	return fmt.Sprintf("%s%s  %-14s %s  (%s)", sign, FormatMoney(d.Amount), d.Category, d.Description, d.Date.Key())
}

// FormatTransaction renders a stored transaction as a history line.
func FormatTransaction(t core.Transaction) string {
	sign := "-"
	if t.Type == core.Income {
		sign = "+"
	}
	return fmt.Sprintf("#%-5d %s  %s%s  %-14s %s", t.ID, t.Date.Key(), sign, FormatMoney(t.Amount), t.Category, t.Description)
}

// FormatReport renders budget progress, one wallet per line.
func FormatReport(r budget.Report) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Period %s .. %s (%s)", r.Period.Start.Key(), r.Period.End.Key(), r.Budget.Cycle)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Income  %s\n", FormatMoney(core.Money{Value: r.Income, Currency: r.Budget.Currency}))
	fmt.Fprintf(&b, "Expense %s\n", FormatMoney(core.Money{Value: r.Expense, Currency: r.Budget.Currency}))
	fmt.Fprintf(&b, "Grade   %s\n", r.Grade)
	for _, w := range r.Wallets {
		line := fmt.Sprintf("  %-12s %3d%%  %s / %s  (%.1f%%)",
			w.Wallet.Name, w.Wallet.PercentShare,
			FormatNumber(w.Spend), FormatNumber(w.Limit), w.UsedPct)
		b.WriteString(usageStyle(w.UsedPct).Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatCalendar renders the two-week streak strip, oldest day first.
func FormatCalendar(markers []streak.Marker) string {
	var b strings.Builder
	for _, m := range markers {
		switch m.Status {
		case streak.Done:
			b.WriteString("■")
		case streak.Today:
			b.WriteString("◆")
		case streak.Future:
			b.WriteString("·")
		default:
			b.WriteString("□")
		}
	}
	return b.String()
}
