package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestStateColor(t *testing.T) {
	tests := []struct {
		state string
		want  lipgloss.Color
	}{
		{"success", ColorSuccess},
		{"warning", ColorWarning},
		{"failed", ColorError},
		{"none", ColorMuted},
		{"", ColorMuted},
	}
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			assert.Equal(t, tt.want, StateColor(tt.state))
		})
	}
}

func TestStateSymbol(t *testing.T) {
	tests := []struct {
		state string
		want  string
	}{
		{"success", SymbolComplete},
		{"warning", SymbolWarning},
		{"failed", SymbolFail},
		{"none", SymbolPending},
	}
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			assert.Equal(t, tt.want, StateSymbol(tt.state))
		})
	}
}

func TestDisableColors(t *testing.T) {
	assert.NotPanics(t, DisableColors)

	rendered := lipgloss.NewStyle().Foreground(ColorSuccess).Render("test")
	assert.Equal(t, "test", rendered)
}
