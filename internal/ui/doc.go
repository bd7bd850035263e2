// Package ui provides the shared terminal styling for lookout's CLI output
// and dashboard.
//
// # Color Scheme
//
// Colors are defined as ANSI codes for broad terminal compatibility:
//
//	ColorSuccess   (green)  - Targets and groups in the success state
//	ColorError     (red)    - Failed and timed out probes
//	ColorWarning   (yellow) - Slow replies and attention states
//	ColorInfo      (cyan)   - Informational messages
//	ColorMuted     (gray)   - Pending probes, secondary text
//
// Use DisableColors() to switch to monochrome output (for --no-color flag).
//
// # Sparklines
//
// RenderSparkline draws a probe history with one block per sample. Negative
// samples mean "no reply" and render as a dot in the error color.
package ui
