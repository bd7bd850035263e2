package dashboard

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/rileyhilliard/lookout/internal/engine"
	"github.com/rileyhilliard/lookout/internal/lookup"
	"github.com/rileyhilliard/lookout/internal/probe"
	"github.com/rileyhilliard/lookout/internal/status"
	"github.com/rileyhilliard/lookout/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func plain(s string) string {
	return ansi.ReplaceAllString(s, "")
}

func TestView_Unconfigured(t *testing.T) {
	f := newFixture(t)
	m := NewModel(f.e, Options{})

	out := plain(m.View())
	assert.Contains(t, out, "lookout")
	assert.Contains(t, out, engine.MessageUnconfigured)
	assert.Contains(t, out, "Pass --config")

	m.reloadErr = "config not found"
	assert.Contains(t, plain(m.View()), "config not found")
}

func TestView_Tree(t *testing.T) {
	f := newFixture(t)
	f.load(t)
	m := NewModel(f.e, Options{Reload: func() error { return nil }})
	m.width = 100

	out := plain(m.View())
	for _, want := range []string{
		"3 targets",
		status.MessageOK,
		"10.0.0.1:22",
		"Gateway",
		GroupExpanded + " Backend",
		"api.internal:443",
		"db.internal:5432",
		"GET",
		"200",
		"Tcp",
		"Connected",
		SelectMarker,
		"r reload",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Connection lost")
}

func TestView_FooterWithoutReload(t *testing.T) {
	f := newFixture(t)
	m := NewModel(f.e, Options{})
	assert.NotContains(t, plain(m.renderFooter()), "r reload")
}

func TestView_LostBanner(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	f.tcp.set(probe.Outcome{Err: errors.New("connection refused")})
	f.e.Tick(time.Second)
	require.Eventually(t, func() bool {
		f.e.Tick(0)
		return f.e.Snapshot().Global.State == status.Failed
	}, 2*time.Second, time.Millisecond)

	m := NewModel(f.e, Options{})
	out := plain(m.View())
	assert.Contains(t, out, "Connection lost")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, status.MessageFailing)
	assert.Contains(t, out, ui.SymbolFail)
}

func TestView_HelpOverlay(t *testing.T) {
	f := newFixture(t)
	m := NewModel(f.e, Options{})
	m.showHelp = true

	out := plain(m.View())
	assert.Contains(t, out, "Keyboard Shortcuts")
	for _, b := range helpBindings {
		assert.Contains(t, out, b.Desc)
	}
}

func TestView_Detail(t *testing.T) {
	f := newFixture(t)
	f.load(t)
	m := NewModel(f.e, Options{})
	m.selected = 1
	m.viewMode = ViewDetail

	out := plain(m.View())
	assert.Contains(t, out, "api.internal:443")
	assert.Contains(t, out, "Backend")
	assert.Contains(t, out, "refresh 1s, timeout 2s")
	assert.Contains(t, out, "200 (succeeded)")
	assert.Contains(t, out, "esc back")
}

func TestRenderProtocolLine(t *testing.T) {
	tests := []struct {
		name string
		pv   engine.ProtocolView
		want []string
	}{
		{
			name: "done",
			pv:   engine.ProtocolView{Protocol: "Ping", Classification: "succeeded", Text: "12ms", History: []float64{12, 14}},
			want: []string{"Ping", "12ms", "▇█"},
		},
		{
			name: "awaiting first result",
			pv:   engine.ProtocolView{Protocol: "Tcp", Classification: "pending", Pending: true},
			want: []string{"Tcp", ui.SymbolProgress + " Awaiting"},
		},
		{
			name: "no reply",
			pv:   engine.ProtocolView{Protocol: "Ping", Classification: "failed", Text: "Request timeout", History: []float64{-1}},
			want: []string{"Request timeout", ui.SymbolNoReply},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := plain(renderProtocolLine(tt.pv, 10))
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestSparklineWidth(t *testing.T) {
	tests := []struct {
		width int
		want  int
	}{
		{0, 80 - 4 - labelWidth - textWidth - 2},
		{30, minSparkWidth},
		{300, maxSparkWidth},
	}
	for _, tt := range tests {
		m := Model{width: tt.width}
		assert.Equal(t, tt.want, m.sparklineWidth(0))
	}
}

func TestFormatGeo(t *testing.T) {
	tests := []struct {
		name string
		geo  lookup.GeoRecord
		want string
	}{
		{"private", lookup.GeoRecord{Private: true}, "private network"},
		{"place", lookup.GeoRecord{City: "Amsterdam", Country: "Netherlands", AS: "AS1136"}, "Amsterdam, Netherlands (AS1136)"},
		{"coordinates only", lookup.GeoRecord{Lat: 52.37, Lon: 4.9}, "52.37, 4.90"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, plain(formatGeo(tt.geo)))
		})
	}
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "Tcp   ", padRight("Tcp", 6))
	assert.Equal(t, "toolong", padRight("toolong", 3))
}
