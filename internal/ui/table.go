package ui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// NewTable creates a new Bubbles table with default styling.
func NewTable(columns []TableColumn, rows []table.Row) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{
			Title: c.Title,
			Width: c.Width,
		}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1), // +1 for header
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.
		Foreground(ColorPrimary)
	s.Selected = s.Selected.
		Foreground(ColorPrimary).
		Bold(false)

	t.SetStyles(s)
	return t
}

// RenderSimpleTable renders a non-interactive table string.
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}

	t := NewTable(columns, tableRows)
	return t.View()
}

// StatusTableRow is one probe line of the status table.
type StatusTableRow struct {
	State    string // Target state name: success, warning, failed, none
	Target   string // Target address, shown once per target
	Protocol string // Protocol label
	Result   string // Probe result text
	Class    string // Probe classification: succeeded, warned, failed, timed_out, pending
}

// RenderStatusTable renders probe results as a formatted table.
func RenderStatusTable(rows []StatusTableRow) string {
	if len(rows) == 0 {
		return "No targets configured"
	}

	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(ColorMuted)

	var output string
	output += headerStyle.Render("  STATE  "+padRight("TARGET", 32)+padRight("PROTOCOL", 12)+"RESULT") + "\n"

	for _, row := range rows {
		icon := " "
		if row.Target != "" {
			icon = lipgloss.NewStyle().Foreground(StateColor(row.State)).Render(StateSymbol(row.State))
		}

		var result string
		switch row.Class {
		case "succeeded":
			result = mutedStyle.Render(row.Result)
		case "warned":
			result = lipgloss.NewStyle().Foreground(ColorWarning).Render(row.Result)
		case "failed", "timed_out":
			result = lipgloss.NewStyle().Foreground(ColorError).Render(row.Result)
		default:
			result = mutedStyle.Render(SymbolProgress + " " + row.Result)
		}

		output += "  " + icon + "      " +
			padRight(row.Target, 32) +
			padRight(row.Protocol, 12) +
			result + "\n"
	}

	return output
}

// padRight pads a string to the specified width.
func padRight(s string, width int) string {
	// Account for ANSI codes when calculating visible length
	visibleLen := lipgloss.Width(s)
	if visibleLen >= width {
		return s
	}
	padding := width - visibleLen
	for i := 0; i < padding; i++ {
		s += " "
	}
	return s
}
