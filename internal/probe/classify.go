package probe

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Request probes succeed on any status in [SuccessMin, SuccessMax].
const (
	SuccessMin = 200
	SuccessMax = 399
)

// classify maps a completed transport outcome to a verdict, one branch per
// probe kind. Request verdicts are binary: there is no Warned request.
func classify(k Kind, out Outcome, opts Options) Classification {
	if out.Err != nil {
		return Failed
	}
	switch k {
	case Reachability:
		if !out.Replied {
			return Failed
		}
		if out.Latency.Milliseconds() > opts.Warning.Milliseconds() {
			return Warned
		}
		return Succeeded
	case Connection:
		// A peer that closed right after the connect still counts.
		if out.Connected || out.Disconnected {
			return Succeeded
		}
		return Failed
	case Request:
		if out.StatusCode >= SuccessMin && out.StatusCode <= SuccessMax {
			return Succeeded
		}
		return Failed
	}
	return Failed
}

// describe renders the short status text shown next to a protocol.
func describe(k Kind, out Outcome) string {
	if out.Err != nil {
		switch ReasonOf(out.Err) {
		case FailTimeout:
			return "Timeout"
		case FailAborted:
			return "Aborted"
		default:
			return capitalize(ReasonOf(out.Err).String())
		}
	}
	switch k {
	case Reachability:
		if !out.Replied {
			return "Request timeout"
		}
		return FormatLatency(out.Latency)
	case Connection:
		switch {
		case out.Connected:
			return "Connected"
		case out.Disconnected:
			return "Disconnected"
		}
		return "Failed"
	case Request:
		return strconv.Itoa(out.StatusCode)
	}
	return ""
}

// FormatLatency renders a round-trip time in whole milliseconds.
func FormatLatency(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
