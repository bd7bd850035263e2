package dashboard

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/lookout/internal/engine"
	"github.com/rileyhilliard/lookout/internal/status"
	"github.com/rileyhilliard/lookout/internal/ui"
	"github.com/rileyhilliard/lookout/internal/util"
)

// Column widths of a protocol line.
const (
	labelWidth     = 10
	textWidth      = 14
	minSparkWidth  = 8
	maxSparkWidth  = 60
	addressWidth   = 30
	defaultColumns = 80
)

// renderDashboard renders the complete list view.
func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	if banner := m.renderBanner(); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.renderTree())

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader renders the title with the global summary.
func (m Model) renderHeader() string {
	title := TitleStyle.Render("lookout")
	if m.snap == nil || !m.snap.Configured {
		msg := engine.MessageUnconfigured
		if m.snap != nil && m.snap.Global.Message != "" {
			msg = m.snap.Global.Message
		}
		return HeaderStyle.Render(title + LabelStyle.Render(" | "+msg))
	}

	g := m.snap.Global
	stats := LabelStyle.Render(" | "+util.Count(g.Total, "target", "targets"))
	if g.Failed > 0 {
		stats += StateStyle(status.Failed).Render(fmt.Sprintf(" | %d failed", g.Failed))
	}
	if g.Warning > 0 {
		stats += StateStyle(status.Warning).Render(fmt.Sprintf(" | %d warning", g.Warning))
	}
	state := g.State
	if g.Awaiting && g.Pending == g.Total {
		state = status.None
	}
	stats += LabelStyle.Render(" | ") + StateStyle(state).Render(g.Message)

	return HeaderStyle.Render(title + stats)
}

// renderBanner renders the active transition banner, if any.
func (m Model) renderBanner() string {
	if m.snap == nil || m.snap.Banner == nil {
		return ""
	}
	ev := m.snap.Banner
	switch ev.Kind {
	case status.ConnectionLost:
		return LostBannerStyle.Render(ui.SymbolFail + " Connection lost: " + ev.Message)
	case status.ConnectionRestored:
		return RestoredBannerStyle.Render(ui.SymbolSuccess + " Connection restored: " + ev.Message)
	default:
		return ""
	}
}

// renderTree renders every group and target.
func (m Model) renderTree() string {
	if m.snap == nil || !m.snap.Configured || m.snap.Root == nil {
		hint := "Pass --config or create lookout.yaml"
		if m.reloadErr != "" {
			hint = m.reloadErr
		}
		return MutedStyle.Render(hint) + "\n"
	}
	if len(m.order) == 0 {
		return LabelStyle.Render("No targets configured") + "\n"
	}

	var b strings.Builder
	m.renderGroup(&b, m.snap.Root, 0)
	return b.String()
}

func (m Model) renderGroup(b *strings.Builder, g *engine.GroupView, depth int) {
	indent := strings.Repeat("  ", depth)
	if g.Caption != "" {
		b.WriteString(indent)
		b.WriteString(MutedStyle.Render(GroupExpanded) + " ")
		b.WriteString(GroupStyle.Render(g.Caption) + " ")
		b.WriteString(StateIndicator(g.Flag))
		b.WriteString("\n")
		depth++
		indent = strings.Repeat("  ", depth)
	}

	for _, id := range g.Targets {
		tv, ok := m.snap.Target(id)
		if !ok {
			continue
		}
		m.renderTarget(b, tv, indent, id == m.SelectedID())
	}
	for _, child := range g.Groups {
		m.renderGroup(b, child, depth)
	}
}

func (m Model) renderTarget(b *strings.Builder, tv engine.TargetView, indent string, selected bool) {
	marker := " "
	name := HostNameStyle.Render(padRight(tv.Address, addressWidth))
	if selected {
		marker = SelectedStyle.Render(SelectMarker)
		name = SelectedStyle.Render(padRight(tv.Address, addressWidth))
	}

	b.WriteString(indent + marker + StateIndicator(tv.State) + " " + name)
	if tv.Description != "" {
		b.WriteString(" " + LabelStyle.Render(tv.Description))
	}
	b.WriteString("\n")

	sparkWidth := m.sparklineWidth(len(indent))
	for _, pv := range tv.Protocols {
		b.WriteString(indent + "    ")
		b.WriteString(renderProtocolLine(pv, sparkWidth))
		b.WriteString("\n")
	}
}

// renderProtocolLine renders label, result text and a history sparkline.
func renderProtocolLine(pv engine.ProtocolView, sparkWidth int) string {
	label := LabelStyle.Render(padRight(pv.Protocol, labelWidth))

	text := pv.Text
	if text == "" {
		text = "Awaiting"
	}
	if pv.Pending {
		text = ui.SymbolProgress + " " + text
	}
	result := ClassificationStyle(pv.Classification).Render(padRight(text, textWidth))

	return label + result + ui.RenderSparkline(pv.History, sparkWidth, float64(pv.WarningMS))
}

// sparklineWidth is what's left of the terminal after the fixed columns.
func (m Model) sparklineWidth(indent int) int {
	width := m.width
	if width <= 0 {
		width = defaultColumns
	}
	w := width - indent - 4 - labelWidth - textWidth - 2
	if w < minSparkWidth {
		return minSparkWidth
	}
	if w > maxSparkWidth {
		return maxSparkWidth
	}
	return w
}

// renderFooter renders the keyboard help footer.
func (m Model) renderFooter() string {
	hints := []string{"q quit"}
	if m.reload != nil {
		hints = append(hints, "r reload")
	}
	hints = append(hints, "↑↓ select", "enter details", "? help")

	footer := FooterStyle.Render(strings.Join(hints, " | "))
	if m.reloadErr != "" && m.snap != nil && m.snap.Configured {
		footer += "\n" + StateStyle(status.Failed).Render(" reload failed: "+m.reloadErr)
	}
	return footer
}

// padRight pads s with spaces to width visible cells.
func padRight(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
