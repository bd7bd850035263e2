package probe

import (
	"context"
	"errors"
	"io"
	"net"
	"net/netip"
	"strconv"
	"time"
)

// DefaultReadCheck is how long a fresh connection is watched for a close.
const DefaultReadCheck = 50 * time.Millisecond

// DialTransport opens a TCP connection and checks whether the peer keeps it.
type DialTransport struct {
	Names HostResolver
	// ReadCheck overrides DefaultReadCheck.
	ReadCheck time.Duration
}

// Run implements Transport.
func (t *DialTransport) Run(ctx context.Context, a Attempt) Outcome {
	addr, err := resolveOne(ctx, t.Names, a.Target.Host)
	if err != nil {
		return Outcome{Err: err}
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(addr.String(), strconv.Itoa(a.Target.Port)))
	if err != nil {
		return Outcome{Err: err}
	}
	defer conn.Close()

	wait := t.ReadCheck
	if wait <= 0 {
		wait = DefaultReadCheck
	}
	if err := conn.SetReadDeadline(time.Now().Add(wait)); err != nil {
		return Outcome{Connected: true}
	}

	var buf [1]byte
	_, err = conn.Read(buf[:])
	var netErr net.Error
	switch {
	case err == nil:
		// Banner or early data: the peer is alive.
		return Outcome{Connected: true}
	case errors.As(err, &netErr) && netErr.Timeout():
		return Outcome{Connected: true}
	case errors.Is(err, io.EOF):
		return Outcome{Disconnected: true}
	default:
		if ctx.Err() != nil {
			return Outcome{Err: ctx.Err()}
		}
		return Outcome{Disconnected: true}
	}
}

// resolveOne returns the address to probe. IP literals never reach names.
func resolveOne(ctx context.Context, names HostResolver, host string) (netip.Addr, error) {
	if a, err := netip.ParseAddr(host); err == nil {
		return a, nil
	}
	if names == nil {
		return netip.Addr{}, errors.New("no name resolver configured")
	}
	addrs, err := names.Resolve(ctx, host)
	if err != nil {
		return netip.Addr{}, err
	}
	for _, a := range addrs {
		if a.Is4() {
			return a, nil
		}
	}
	if len(addrs) == 0 {
		return netip.Addr{}, errors.New("no addresses for " + host)
	}
	return addrs[0], nil
}
