// Package ui provides terminal styling for tutor command output.
package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"codetutor/internal/sanitize"
)

var (
	// Semantic colors
	successColor = lipgloss.Color("#8BC34A")
	warnColor    = lipgloss.Color("#FFC107")
	errorColor   = lipgloss.Color("#e53935")
	infoColor    = lipgloss.Color("#2196F3")
	mutedColor   = lipgloss.Color("#7a8699")

	headerStyle = lipgloss.NewStyle().Bold(true)
	noteStyle   = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)

	infoStyle     = lipgloss.NewStyle().Foreground(infoColor)
	warnStyle     = lipgloss.NewStyle().Foreground(warnColor)
	rejectedStyle = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	acceptedStyle = lipgloss.NewStyle().Foreground(successColor).Bold(true)
)

// RenderDiagnostic formats one diagnostic with its severity color.
func RenderDiagnostic(d sanitize.Diagnostic) string {
	var style lipgloss.Style
	switch d.Severity {
	case sanitize.SeverityRejected:
		style = rejectedStyle
	case sanitize.SeverityWarning:
		style = warnStyle
	default:
		style = infoStyle
	}
	loc := ""
	if d.Line != sanitize.NoLine {
		loc = fmt.Sprintf(" line %d:", d.Line)
	}
	return fmt.Sprintf("  %s%s %s",
		style.Render(fmt.Sprintf("[%s] %s", d.Severity, d.Code)), loc, d.Message)
}

// Verdict renders the accepted/rejected tail for one input.
func Verdict(name string, accepted bool) string {
	prefix := ""
	if name != "" && name != "<stdin>" {
		prefix = name + ": "
	}
	if accepted {
		return prefix + acceptedStyle.Render("accepted")
	}
	return prefix + rejectedStyle.Render("rejected")
}

// FileHeader renders the per-file banner above sanitized output.
func FileHeader(name string, accepted bool) string {
	mark := acceptedStyle.Render("✓")
	if !accepted {
		mark = rejectedStyle.Render("✗")
	}
	return headerStyle.Render("── "+name+" ") + mark
}

// SectionHeader renders a bold section title.
func SectionHeader(title string) string {
	return headerStyle.Render(title)
}

// Note renders a muted informational line.
func Note(s string) string {
	return noteStyle.Render("(" + s + ")")
}
