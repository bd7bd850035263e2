package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline block characters representing 8 vertical levels (lowest to highest).
const sparklineBlocks = "▁▂▃▄▅▆▇█"

// sparklineBlockRunes provides indexed access to block characters.
var sparklineBlockRunes = []rune(sparklineBlocks)

// RenderSparkline draws the most recent width samples of a probe history.
// Replies are scaled from zero to the largest reply in view. Negative
// samples have no reply and render as SymbolNoReply.
//
// Each slot is colored on its own:
//   - no reply: red (error)
//   - above warn: yellow (warning), only when warn > 0
//   - otherwise: green (success)
func RenderSparkline(data []float64, width int, warn float64) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}

	// Use only the most recent 'width' data points
	if len(data) > width {
		data = data[len(data)-width:]
	}

	var maxVal float64
	for _, v := range data {
		if v > maxVal {
			maxVal = v
		}
	}

	numLevels := len(sparklineBlockRunes)
	success := lipgloss.NewStyle().Foreground(ColorSuccess)
	warning := lipgloss.NewStyle().Foreground(ColorWarning)
	failed := lipgloss.NewStyle().Foreground(ColorError)

	var sb strings.Builder
	sb.Grow(len(data) * 16)
	for _, v := range data {
		if v < 0 {
			sb.WriteString(failed.Render(SymbolNoReply))
			continue
		}

		level := 0
		if maxVal > 0 {
			level = int(v / maxVal * float64(numLevels-1))
			if level >= numLevels {
				level = numLevels - 1
			}
		}

		block := string(sparklineBlockRunes[level])
		if warn > 0 && v > warn {
			sb.WriteString(warning.Render(block))
		} else {
			sb.WriteString(success.Render(block))
		}
	}
	return sb.String()
}
