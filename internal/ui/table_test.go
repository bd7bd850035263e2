package ui

import (
	"testing"

	"github.com/charmbracelet/bubbles/table"
	"github.com/stretchr/testify/assert"
)

func TestNewTable(t *testing.T) {
	columns := []TableColumn{
		{Title: "Name", Width: 20},
		{Title: "Status", Width: 10},
	}
	rows := []table.Row{
		{"item1", "ok"},
		{"item2", "error"},
	}

	view := NewTable(columns, rows).View()
	assert.Contains(t, view, "Name")
	assert.Contains(t, view, "Status")
	assert.Contains(t, view, "item1")
	assert.Contains(t, view, "item2")
}

func TestRenderSimpleTable(t *testing.T) {
	columns := []TableColumn{
		{Title: "Host", Width: 15},
		{Title: "Status", Width: 10},
	}
	output := RenderSimpleTable(columns, [][]string{{"server1", "online"}})
	assert.Contains(t, output, "Host")
	assert.Contains(t, output, "server1")
	assert.Contains(t, output, "online")

	assert.Empty(t, RenderSimpleTable(columns, nil))
}

func TestRenderStatusTable(t *testing.T) {
	rows := []StatusTableRow{
		{State: "warning", Target: "10.0.0.1", Protocol: "ICMP", Result: "180ms", Class: "warned"},
		{State: "warning", Protocol: "HTTP GET", Result: "200", Class: "succeeded"},
		{State: "failed", Target: "db.internal:5432", Protocol: "TCP", Result: "Timeout", Class: "timed_out"},
	}

	output := stripANSI(RenderStatusTable(rows))
	for _, want := range []string{"STATE", "TARGET", "PROTOCOL", "RESULT",
		"10.0.0.1", "ICMP", "180ms", "HTTP GET", "200", "db.internal:5432", "Timeout",
		SymbolWarning, SymbolFail} {
		assert.Contains(t, output, want)
	}
}

func TestRenderStatusTable_Pending(t *testing.T) {
	rows := []StatusTableRow{{State: "none", Target: "a", Protocol: "TCP", Result: "Awaiting", Class: "pending"}}
	output := stripANSI(RenderStatusTable(rows))
	assert.Contains(t, output, SymbolPending)
	assert.Contains(t, output, SymbolProgress+" Awaiting")
}

func TestRenderStatusTable_EmptyRows(t *testing.T) {
	assert.Equal(t, "No targets configured", RenderStatusTable(nil))
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab   ", padRight("ab", 5))
	assert.Equal(t, "abcdef", padRight("abcdef", 3))
}
