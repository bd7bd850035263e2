package lookup

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/rileyhilliard/lookout/internal/errors"
)

// DefaultNameTimeout bounds one DNS lookup.
const DefaultNameTimeout = 10 * time.Second

// NameCache memoizes host name resolution for the life of the process.
type NameCache struct {
	resolver Resolver
	memo     *memo[[]netip.Addr]
}

// NewNameCache creates a cache over r. A nil r uses net.DefaultResolver.
func NewNameCache(r Resolver) *NameCache {
	if r == nil {
		r = net.DefaultResolver
	}
	return &NameCache{
		resolver: r,
		memo:     newMemo[[]netip.Addr](DefaultNameTimeout),
	}
}

// Resolve returns the addresses of host. IP literals are returned as is
// without touching the cache. The returned slice must not be modified.
func (c *NameCache) Resolve(ctx context.Context, host string) ([]netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return []netip.Addr{addr.Unmap()}, nil
	}

	return c.memo.resolve(ctx, host, func(ctx context.Context) ([]netip.Addr, error) {
		ips, err := c.resolver.LookupIPAddr(ctx, host)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrResolve,
				fmt.Sprintf("Could not resolve %s", host),
				"Check the host name and your DNS settings")
		}
		addrs := make([]netip.Addr, 0, len(ips))
		for _, ip := range ips {
			if a, ok := netip.AddrFromSlice(ip.IP); ok {
				addrs = append(addrs, a.Unmap())
			}
		}
		if len(addrs) == 0 {
			return nil, errors.New(errors.ErrResolve,
				fmt.Sprintf("No addresses found for %s", host),
				"Check the host has an A or AAAA record")
		}
		return addrs, nil
	})
}

// Size returns the number of cached host names.
func (c *NameCache) Size() int {
	return c.memo.size()
}

// Clear drops every cached entry.
func (c *NameCache) Clear() {
	c.memo.clear()
}

// Preferred picks the first IPv4 address, falling back to the first address.
func Preferred(addrs []netip.Addr) (netip.Addr, bool) {
	for _, a := range addrs {
		if a.Is4() {
			return a, true
		}
	}
	if len(addrs) > 0 {
		return addrs[0], true
	}
	return netip.Addr{}, false
}
