package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓"
	SymbolFail     = "✗"
	SymbolPending  = "○" // No result yet
	SymbolProgress = "◐" // Probe in flight
	SymbolComplete = "●"
	SymbolWarning  = "◆"
	SymbolNoReply  = "·" // Sparkline slot without a reply
)
