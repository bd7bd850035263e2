// Package dashboard implements the interactive terminal view of a running
// engine.
//
// The dashboard is a Bubble Tea model. A tea.Tick drives the engine: every
// frame it advances the engine by the wall time since the previous frame and
// renders the published snapshot, so the engine has no goroutine of its own
// while the dashboard owns it.
//
// # Layout
//
// The view is a header with the global state, an optional banner for
// connection lost/restored transitions, the group tree and a footer:
//
//	lookout | 4 targets | 1 failed | Attention needed
//	✗ Connection lost: 1 of 4 targets failing
//
//	● 10.0.0.1                     Gateway
//	    Ping      12ms          ▁▁▂▁▁▃▁▁
//	▾ Backend ◆
//	  ◆ api.internal:443           Public API
//	    GET       200           ▁▁▁▁▁▁▁▁
//	    Tcp       Connected     ▁▁▁▁▁▁▁▁
//
//	q quit | r reload | ↑↓ select | enter details | ? help
//
// Enter opens a detail view for the selected target with per-protocol
// settings, the full history and geo/route lookups when enabled.
//
// # Keyboard Shortcuts
//
//	q, Ctrl+C  Quit
//	r          Reload configuration
//	↑/k, ↓/j   Navigate targets
//	Home, End  First / last target
//	Enter      Target details
//	Esc        Back / close
//	?          Toggle help
package dashboard
