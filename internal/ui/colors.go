package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Semantic colors for status indication
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorInfo    lipgloss.Color = "6" // Cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "7" // White/default
	ColorSecondary lipgloss.Color = "4" // Blue
	ColorMuted     lipgloss.Color = "8" // Gray (bright black)
)

// StateColor maps an aggregate state name ("success", "warning", "failed",
// anything else) to its color.
func StateColor(state string) lipgloss.Color {
	switch state {
	case "success":
		return ColorSuccess
	case "warning":
		return ColorWarning
	case "failed":
		return ColorError
	default:
		return ColorMuted
	}
}

// StateSymbol maps an aggregate state name to its indicator glyph.
func StateSymbol(state string) string {
	switch state {
	case "success":
		return SymbolComplete
	case "warning":
		return SymbolWarning
	case "failed":
		return SymbolFail
	default:
		return SymbolPending
	}
}

// DisableColors switches lipgloss to the ASCII profile so no escape codes
// are emitted.
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}
