package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/lookout/internal/engine"
	"github.com/rileyhilliard/lookout/internal/lookup"
	"github.com/rileyhilliard/lookout/internal/ui"
	"github.com/rileyhilliard/lookout/internal/util"
)

var (
	detailContainerStyle = lipgloss.NewStyle().
				Padding(0, 2)

	detailKeyStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary).
			Width(12)
)

// updateDetailViewportContent refreshes the scrollable detail body for the
// selected target.
func (m *Model) updateDetailViewportContent() {
	if !m.viewportReady || m.viewMode != ViewDetail {
		return
	}
	m.detailViewport.SetContent(m.renderDetailBody())
}

// renderDetailView renders the expanded single-target view.
func (m Model) renderDetailView() string {
	tv, ok := m.selectedTarget()
	if !ok {
		return LabelStyle.Render("No target selected")
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render(TitleStyle.Render("lookout") + " " + StateIndicator(tv.State) + " " + HostNameStyle.Render(tv.Address)))
	b.WriteString("\n")
	if banner := m.renderBanner(); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.viewportReady {
		b.WriteString(m.detailViewport.View())
	} else {
		b.WriteString(m.renderDetailBody())
	}

	b.WriteString("\n")
	b.WriteString(FooterStyle.Render("esc back | ↑↓ switch target | ? help"))
	return b.String()
}

func (m Model) selectedTarget() (engine.TargetView, bool) {
	if m.snap == nil {
		return engine.TargetView{}, false
	}
	return m.snap.Target(m.SelectedID())
}

// renderDetailBody renders settings, history and lookups of the selected
// target.
func (m Model) renderDetailBody() string {
	tv, ok := m.selectedTarget()
	if !ok {
		return LabelStyle.Render("No target selected")
	}

	contentWidth := m.width - 6
	if contentWidth < 40 {
		contentWidth = 40
	}

	var b strings.Builder
	b.WriteString(detailRow("Host", tv.Host))
	b.WriteString(detailRow("Address", tv.Address))
	if tv.Description != "" {
		b.WriteString(detailRow("Description", tv.Description))
	}
	if len(tv.GroupPath) > 0 {
		b.WriteString(detailRow("Group", strings.Join(tv.GroupPath, " / ")))
	}
	b.WriteString(detailKeyStyle.Render("State") + StateStyle(tv.State).Render(tv.State.String()) + "\n")
	b.WriteString("\n")

	sparkWidth := contentWidth - 4
	if sparkWidth > maxSparkWidth {
		sparkWidth = maxSparkWidth
	}
	for _, pv := range tv.Protocols {
		b.WriteString(DetailBoxStyle.Width(contentWidth).Render(renderProtocolDetail(pv, sparkWidth)))
		b.WriteString("\n")
	}

	if tv.Location != nil {
		b.WriteString(GroupStyle.Render("Location") + "\n")
		b.WriteString("  " + formatGeo(*tv.Location) + "\n\n")
	}
	if len(tv.Route) > 0 {
		b.WriteString(GroupStyle.Render("Route") + "\n")
		for i, hop := range tv.Route {
			b.WriteString(fmt.Sprintf("  %2d  %-16s %s\n", i+1, hop.IP, formatGeo(hop.Geo)))
		}
	}

	return detailContainerStyle.Render(b.String())
}

func renderProtocolDetail(pv engine.ProtocolView, sparkWidth int) string {
	var b strings.Builder
	b.WriteString(HostNameStyle.Render(pv.Protocol) + " " + MutedStyle.Render("("+pv.Kind+")") + "\n")

	text := pv.Text
	if text == "" {
		text = "Awaiting"
	}
	b.WriteString(detailKeyStyle.Render("Result") + ClassificationStyle(pv.Classification).Render(text+" ("+pv.Classification+")"))
	if pv.Pending {
		b.WriteString(MutedStyle.Render(" " + ui.SymbolProgress + " in flight"))
	}
	b.WriteString("\n")

	settings := fmt.Sprintf("refresh %s, timeout %s", msDuration(pv.RefreshMS), msDuration(pv.TimeoutMS))
	if pv.WarningMS > 0 {
		settings += fmt.Sprintf(", warn above %dms", pv.WarningMS)
	}
	b.WriteString(detailKeyStyle.Render("Settings") + ValueStyle.Render(settings) + "\n")

	if len(pv.History) > 0 {
		b.WriteString(detailKeyStyle.Render("History") + ui.RenderSparkline(pv.History, sparkWidth, float64(pv.WarningMS)))
	} else {
		b.WriteString(detailKeyStyle.Render("History") + MutedStyle.Render("none"))
	}
	return b.String()
}

func detailRow(key, value string) string {
	return detailKeyStyle.Render(key) + ValueStyle.Render(value) + "\n"
}

func msDuration(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}

// formatGeo renders a record as "City, Region, Country (AS)".
func formatGeo(g lookup.GeoRecord) string {
	if g.Private {
		return MutedStyle.Render("private network")
	}
	place := util.JoinNonEmpty(", ", g.City, g.Region, g.Country)
	if place == "" {
		place = fmt.Sprintf("%.2f, %.2f", g.Lat, g.Lon)
	}
	if g.AS != "" {
		place += " " + MutedStyle.Render("("+g.AS+")")
	}
	return ValueStyle.Render(place)
}
