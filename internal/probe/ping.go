package probe

import (
	"context"
	"fmt"

	probing "github.com/prometheus-community/pro-bing"
)

// PingTransport sends a single ICMP echo.
type PingTransport struct {
	Names HostResolver
	// Privileged uses raw sockets; unprivileged mode needs
	// net.ipv4.ping_group_range on Linux.
	Privileged bool
}

// Run implements Transport.
func (t *PingTransport) Run(ctx context.Context, a Attempt) Outcome {
	addr, err := resolveOne(ctx, t.Names, a.Target.Host)
	if err != nil {
		return Outcome{Err: err}
	}

	pinger, err := probing.NewPinger(addr.String())
	if err != nil {
		return Outcome{Err: fmt.Errorf("create pinger: %w", err)}
	}
	pinger.Count = 1
	pinger.Timeout = a.Timeout
	pinger.SetPrivileged(t.Privileged)

	if err := pinger.RunWithContext(ctx); err != nil {
		return Outcome{Err: err}
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv > 0 {
		return Outcome{Replied: true, Latency: stats.AvgRtt}
	}
	return Outcome{Replied: false}
}
