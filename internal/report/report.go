// Package report renders ingest results and format listings for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/jask/expensetracker/internal/service"
)

// maxListed caps how many accepted rows are printed.
const maxListed = 20

// Render summarizes an ingest result, including a partial one returned alongside a batch error.
func Render(filename string, res service.Result) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Import "+filename) + "\n")

	if res.Format != "" {
		b.WriteString(row("Format", valueStyle.Render(res.Format)))
	}
	if res.Account != "" {
		b.WriteString(row("Account", valueStyle.Render(res.Account)))
	}
	b.WriteString(row("Accepted", successStyle.Render(fmt.Sprint(len(res.Accepted)))))
	b.WriteString(row("Duplicates", mutedStyle.Render(fmt.Sprint(res.Duplicates))))
	rejected := fmt.Sprint(res.RejectedCount())
	if res.RejectedCount() > 0 {
		rejected = warnStyle.Render(rejected)
	}
	b.WriteString(row("Rejected", rejected))
	if res.Archived != "" {
		b.WriteString(row("Archived", mutedStyle.Render(res.Archived)))
	}

	if len(res.Accepted) > 0 {
		b.WriteString("\n")
		for i, e := range res.Accepted {
			if i == maxListed {
				b.WriteString(mutedStyle.Render(fmt.Sprintf("  … %d more", len(res.Accepted)-maxListed)) + "\n")
				break
			}
			amount := decimal.New(e.AmountCents, -2).StringFixed(2)
			b.WriteString(fmt.Sprintf("  %s  %10s  %-32s %s\n",
				e.Date, amount, truncate(e.Description, 32), mutedStyle.Render(e.Category+" / "+e.Subcategory)))
		}
	}

	if errs := res.Errors(); len(errs) > 0 {
		b.WriteString("\n")
		for _, e := range errs {
			b.WriteString("  " + warnStyle.Render(e) + "\n")
		}
	}
	return b.String()
}

// RenderError formats a batch-level failure.
func RenderError(err error) string {
	return errorStyle.Render("Error: "+err.Error()) + "\n"
}

// RenderFormats lists known statement formats.
func RenderFormats(infos []service.FormatInfo) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Statement formats") + "\n")
	for _, f := range infos {
		account := f.Account
		if account == "" {
			account = "-"
		}
		name := lipgloss.NewStyle().Width(20).Render(f.Name)
		b.WriteString(fmt.Sprintf("  %s %s %s\n", name, mutedStyle.Render(fmt.Sprintf("%-8s", f.Source)), valueStyle.Render(account)))
		b.WriteString("    " + mutedStyle.Render(strings.Join(f.Headers, ", ")) + "\n")
	}
	return b.String()
}

func row(label, value string) string {
	return labelStyle.Render(label) + value + "\n"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
