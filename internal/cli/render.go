package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wms-platform/checkout-service/internal/application"
	"github.com/wms-platform/checkout-service/internal/validation"
)

var (
	accent  = lipgloss.Color("#0EA5E9")
	dim     = lipgloss.Color("#6B7280")
	success = lipgloss.Color("#22C55E")
	danger  = lipgloss.Color("#EF4444")
	warning = lipgloss.Color("#F59E0B")
	info    = lipgloss.Color("#8B949E")
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 2)

	titleStyle   = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(dim).Width(22)
	dimStyle     = lipgloss.NewStyle().Foreground(dim)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)

	severityColors = map[validation.Severity]lipgloss.Color{
		validation.SeverityInfo:     info,
		validation.SeverityWarning:  warning,
		validation.SeverityError:    danger,
		validation.SeverityCritical: danger,
	}
)

func severityStyle(s validation.Severity) lipgloss.Style {
	style := lipgloss.NewStyle().Foreground(severityColors[s])
	if s == validation.SeverityCritical {
		style = style.Bold(true)
	}
	return style
}

func renderQuote(q *application.ShippingQuoteDTO) string {
	var b strings.Builder

	header := titleStyle.Render(fmt.Sprintf("%s %s", q.Mode, q.TotalFee.StringFixed(0)+" "+q.Currency))
	if q.OrderID != "" {
		header = titleStyle.Render(q.OrderID) + "  " + header
	}
	b.WriteString(boxStyle.Render(header))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString("  " + labelStyle.Render(label) + value + "\n")
	}
	row("Region", string(q.Region))
	row("Actual weight", q.ActualWeightKg.String()+" kg")
	row("Chargeable weight", q.ChargeableWeightKg.String()+" kg")
	row("Base fee", q.BaseFee.StringFixed(0))
	if q.RushEligibleLines > 0 || !q.RushSurcharge.IsZero() {
		row("Rush surcharge", fmt.Sprintf("%s (%d lines)", q.RushSurcharge.StringFixed(0), q.RushEligibleLines))
	}
	row("Total", titleStyle.Render(q.TotalFee.StringFixed(0)))
	return b.String()
}

func renderReport(v validation.ReportView) string {
	var b strings.Builder

	verdict := lipgloss.NewStyle().Bold(true).Foreground(success).Render("VALID")
	if !v.Valid {
		verdict = lipgloss.NewStyle().Bold(true).Foreground(danger).Render("INVALID")
	}
	header := titleStyle.Render(v.OrderID) + "  " + verdict + "  " + severityStyle(v.Severity).Render(v.Severity.String())
	b.WriteString(boxStyle.Render(header + "\n" + dimStyle.Render(v.Summary)))
	b.WriteString("\n")

	for _, s := range v.Sections {
		mark := lipgloss.NewStyle().Foreground(success).Render("✓")
		if !s.Valid {
			mark = severityStyle(s.Severity).Render("✗")
		} else if s.State != validation.StateClean {
			mark = severityStyle(s.Severity).Render("!")
		}
		b.WriteString(fmt.Sprintf("\n  %s %s  %s\n", mark, sectionStyle.Render(s.Name), dimStyle.Render(s.Summary)))

		for _, issue := range s.Issues {
			b.WriteString(fmt.Sprintf("      %s %s  %s\n",
				severityStyle(issue.Severity()).Render(fmt.Sprintf("[%s]", issue.Severity())),
				issue.Field(),
				issue.Message(),
			))
		}
	}

	if len(v.Recommendations) > 0 {
		b.WriteString("\n  " + sectionStyle.Render("Recommendations") + "\n")
		for _, r := range v.Recommendations {
			b.WriteString("    • " + r + "\n")
		}
	}
	if len(v.RecoverySuggestions) > 0 {
		b.WriteString("\n  " + sectionStyle.Render("Suggested fixes") + "\n")
		for _, s := range v.RecoverySuggestions {
			b.WriteString("    • " + s + "\n")
		}
	}
	return b.String()
}
