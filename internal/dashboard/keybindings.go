package dashboard

import tea "github.com/charmbracelet/bubbletea"

// ViewMode defines the current display mode of the dashboard.
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
)

// Key bindings as constants for consistency.
const (
	KeyQuit        = "q"
	KeyQuitAlt     = "ctrl+c"
	KeyReload      = "r"
	KeySelectPrev  = "up"
	KeySelectPrevK = "k"
	KeySelectNext  = "down"
	KeySelectNextJ = "j"
	KeySelectFirst = "home"
	KeySelectLast  = "end"
	KeyExpand      = "enter"
	KeyCollapse    = "esc"
	KeyToggleHelp  = "?"
)

// HandleKeyMsg processes keyboard input and returns updated model state and command.
// Returns true if the key was handled, false otherwise.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}

	if m.showHelp && key == KeyCollapse {
		m.showHelp = false
		return true, nil
	}

	switch key {
	case KeyQuit, KeyQuitAlt:
		m.quitting = true
		return true, tea.Quit

	case KeyReload:
		return true, m.reloadCmd()

	case KeySelectPrev, KeySelectPrevK:
		if m.selected > 0 {
			m.selected--
			m.updateDetailViewportContent()
		}
		return true, nil

	case KeySelectNext, KeySelectNextJ:
		if m.selected < len(m.order)-1 {
			m.selected++
			m.updateDetailViewportContent()
		}
		return true, nil

	case KeySelectFirst:
		if len(m.order) > 0 {
			m.selected = 0
			m.updateDetailViewportContent()
		}
		return true, nil

	case KeySelectLast:
		if len(m.order) > 0 {
			m.selected = len(m.order) - 1
			m.updateDetailViewportContent()
		}
		return true, nil

	case KeyExpand:
		if m.viewMode == ViewList && len(m.order) > 0 {
			m.viewMode = ViewDetail
			m.updateDetailViewportContent()
		}
		return true, nil

	case KeyCollapse:
		m.viewMode = ViewList
		return true, nil
	}

	return false, nil
}
