package dashboard

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/lookout/internal/status"
	"github.com/rileyhilliard/lookout/internal/ui"
)

// Dashboard color palette
const (
	ColorDarkBg    = lipgloss.Color("#0A0A0F") // Deep void
	ColorSurfaceBg = lipgloss.Color("#12121A") // Dark surface
	ColorBorder    = lipgloss.Color("#2A2A4A") // Glass border (purple tint)

	ColorHealthy  = lipgloss.Color("#39FF14") // Neon green
	ColorWarning  = lipgloss.Color("#FFAA00") // Electric amber
	ColorCritical = lipgloss.Color("#FF0055") // Hot red-pink

	ColorTextPrimary   = lipgloss.Color("#FFFFFF") // Pure white
	ColorTextSecondary = lipgloss.Color("#B4B4D0") // Lavender gray
	ColorTextMuted     = lipgloss.Color("#6B6B8D") // Purple-gray

	ColorAccent    = lipgloss.Color("#FF2E97") // Neon pink
	ColorAccentDim = lipgloss.Color("#BF40FF") // Neon purple
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	GroupStyle = lipgloss.NewStyle().
			Foreground(ColorAccentDim).
			Bold(true)

	HostNameStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	LostBannerStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorCritical).
			Bold(true).
			Padding(0, 1)

	RestoredBannerStyle = lipgloss.NewStyle().
				Foreground(ColorDarkBg).
				Background(ColorHealthy).
				Bold(true).
				Padding(0, 1)

	DetailBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
)

// Tree glyphs
const (
	GroupExpanded = "▾"
	SelectMarker  = "›"
)

// StateStyle returns the foreground style for an aggregate state.
func StateStyle(s status.State) lipgloss.Style {
	switch s {
	case status.Success:
		return lipgloss.NewStyle().Foreground(ColorHealthy)
	case status.Warning:
		return lipgloss.NewStyle().Foreground(ColorWarning)
	case status.Failed:
		return lipgloss.NewStyle().Foreground(ColorCritical)
	default:
		return MutedStyle
	}
}

// StateIndicator renders the colored glyph for a state.
func StateIndicator(s status.State) string {
	return StateStyle(s).Render(ui.StateSymbol(s.String()))
}

// ClassificationStyle colors probe result text.
func ClassificationStyle(class string) lipgloss.Style {
	switch class {
	case "succeeded":
		return ValueStyle
	case "warned":
		return lipgloss.NewStyle().Foreground(ColorWarning)
	case "failed", "timed_out":
		return lipgloss.NewStyle().Foreground(ColorCritical)
	default:
		return MutedStyle
	}
}
