package dashboard

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "home":
		return tea.KeyMsg{Type: tea.KeyHome}
	case "end":
		return tea.KeyMsg{Type: tea.KeyEnd}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}

func TestViewMode_Constants(t *testing.T) {
	assert.Equal(t, ViewMode(0), ViewList)
	assert.Equal(t, ViewMode(1), ViewDetail)
}

func TestHandleKeyMsg_Navigation(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	tests := []struct {
		name  string
		start int
		keys  []string
		want  int
	}{
		{"down", 0, []string{"down"}, 1},
		{"j", 0, []string{"j", "j"}, 2},
		{"stops at last", 2, []string{"j"}, 2},
		{"up", 2, []string{"up"}, 1},
		{"k stops at first", 0, []string{"k"}, 0},
		{"end", 0, []string{"end"}, 2},
		{"home", 2, []string{"home"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel(f.e, Options{})
			m.selected = tt.start
			for _, k := range tt.keys {
				handled, _ := m.HandleKeyMsg(keyMsg(k))
				require.True(t, handled, k)
			}
			assert.Equal(t, tt.want, m.selected)
		})
	}
}

func TestHandleKeyMsg_Quit(t *testing.T) {
	f := newFixture(t)
	for _, k := range []string{KeyQuit, KeyQuitAlt} {
		t.Run(k, func(t *testing.T) {
			m := NewModel(f.e, Options{})
			handled, cmd := m.HandleKeyMsg(keyMsg(k))
			assert.True(t, handled)
			assert.True(t, m.quitting)
			require.NotNil(t, cmd)
			assert.Equal(t, tea.Quit(), cmd())
		})
	}
}

func TestHandleKeyMsg_Help(t *testing.T) {
	f := newFixture(t)
	m := NewModel(f.e, Options{})

	m.HandleKeyMsg(keyMsg(KeyToggleHelp))
	assert.True(t, m.showHelp)
	m.HandleKeyMsg(keyMsg(KeyCollapse))
	assert.False(t, m.showHelp)

	m.HandleKeyMsg(keyMsg(KeyToggleHelp))
	m.HandleKeyMsg(keyMsg(KeyToggleHelp))
	assert.False(t, m.showHelp)
}

func TestHandleKeyMsg_DetailView(t *testing.T) {
	f := newFixture(t)
	m := NewModel(f.e, Options{})

	m.HandleKeyMsg(keyMsg(KeyExpand))
	assert.Equal(t, ViewList, m.viewMode, "no targets, nothing to expand")

	f.load(t)
	m = NewModel(f.e, Options{})
	m.HandleKeyMsg(keyMsg(KeyExpand))
	assert.Equal(t, ViewDetail, m.viewMode)
	m.HandleKeyMsg(keyMsg(KeyCollapse))
	assert.Equal(t, ViewList, m.viewMode)
}

func TestHandleKeyMsg_Unhandled(t *testing.T) {
	f := newFixture(t)
	m := NewModel(f.e, Options{})
	handled, cmd := m.HandleKeyMsg(keyMsg("x"))
	assert.False(t, handled)
	assert.Nil(t, cmd)
}
