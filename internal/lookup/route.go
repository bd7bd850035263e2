package lookup

import (
	"context"
	"net/netip"
	"sync"
)

// RouteHop is one geo-located hop of a route.
type RouteHop struct {
	IP  string    `json:"ip"`
	Geo GeoRecord `json:"geo"`
}

// RouteTracker resolves the geographic route to one host out of band.
// The tick loop polls it; Poll never blocks.
type RouteTracker struct {
	host   string
	cancel context.CancelFunc
	done   chan struct{}

	mu   sync.Mutex
	hops []RouteHop
	err  error
}

// StartRoute begins tracing host and geo-locating each hop. Private hops
// are dropped and hops sharing coordinates with an earlier hop collapse
// into the earlier one.
func StartRoute(ctx context.Context, host string, traces *TraceCache, geo *GeoCache) *RouteTracker {
	ctx, cancel := context.WithCancel(ctx)
	r := &RouteTracker{
		host:   host,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go r.run(ctx, traces, geo)
	return r
}

// StartLocation geo-locates host itself as a single-hop route. A private
// address completes with no hops.
func StartLocation(ctx context.Context, host string, names *NameCache, geo *GeoCache) *RouteTracker {
	ctx, cancel := context.WithCancel(ctx)
	r := &RouteTracker{
		host:   host,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go r.locate(ctx, names, geo)
	return r
}

func (r *RouteTracker) locate(ctx context.Context, names *NameCache, geo *GeoCache) {
	defer close(r.done)

	addrs, err := names.Resolve(ctx, r.host)
	if err != nil {
		r.finish(nil, err)
		return
	}
	ip, _ := Preferred(addrs)
	rec, err := geo.Resolve(ctx, ip)
	if err != nil {
		r.finish(nil, err)
		return
	}
	if rec.Private {
		r.finish(nil, nil)
		return
	}
	r.finish([]RouteHop{{IP: ip.String(), Geo: rec}}, nil)
}

func (r *RouteTracker) run(ctx context.Context, traces *TraceCache, geo *GeoCache) {
	defer close(r.done)

	ips, err := traces.Trace(ctx, r.host)
	if err != nil {
		r.finish(nil, err)
		return
	}

	type coord struct{ lat, lon float64 }
	seen := make(map[coord]bool)
	var hops []RouteHop
	for _, s := range ips {
		ip, err := netip.ParseAddr(s)
		if err != nil {
			continue
		}
		rec, err := geo.Resolve(ctx, ip)
		if err != nil {
			if ctx.Err() != nil {
				r.finish(hops, ctx.Err())
				return
			}
			continue
		}
		if rec.Private {
			continue
		}
		c := coord{rec.Lat, rec.Lon}
		if seen[c] {
			continue
		}
		seen[c] = true
		hops = append(hops, RouteHop{IP: s, Geo: rec})
	}
	r.finish(hops, nil)
}

func (r *RouteTracker) finish(hops []RouteHop, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hops = hops
	r.err = err
}

// Host is the traced host.
func (r *RouteTracker) Host() string {
	return r.host
}

// Poll reports whether the route is complete and, if so, its hops.
func (r *RouteTracker) Poll() ([]RouteHop, bool, error) {
	select {
	case <-r.done:
	default:
		return nil, false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RouteHop(nil), r.hops...), true, r.err
}

// Cancel stops the trace and waits for the worker to exit.
func (r *RouteTracker) Cancel() {
	r.cancel()
	<-r.done
}
