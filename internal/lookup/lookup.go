// Package lookup holds the process-wide memoized lookups shared by probes
// and route tracking: host name resolution, geo-IP records and traceroute
// hops. Each cache stores successful answers only, so a failed lookup is
// retried by the next caller. Concurrent misses for the same key share a
// single in-flight lookup.
package lookup

//go:generate mockgen -source=lookup.go -destination=mocks_test.go -package=lookup

import (
	"context"
	"net"
	"net/netip"
)

// Resolver is the DNS backend. *net.Resolver satisfies it.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Locator answers geo-IP queries for a single address.
type Locator interface {
	Locate(ctx context.Context, ip netip.Addr) (GeoRecord, error)
}

// Tracer returns the ordered hop addresses towards host.
type Tracer interface {
	Trace(ctx context.Context, host string) ([]string, error)
}
