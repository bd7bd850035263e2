package engine

import (
	"context"
	"fmt"

	"github.com/rileyhilliard/lookout/internal/config"
	"github.com/rileyhilliard/lookout/internal/errors"
	"github.com/rileyhilliard/lookout/internal/lookup"
)

// NewLocator builds the geo backend named by cfg. The close function is
// nil when the backend holds no resources.
func NewLocator(cfg config.GeoConfig) (lookup.Locator, func() error, error) {
	switch cfg.Provider {
	case config.GeoProviderIPAPI, "":
		return lookup.NewIPAPILocator(cfg.RatePerMinute), nil, nil
	case config.GeoProviderMaxMind:
		l, err := lookup.OpenMaxMind(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return l, l.Close, nil
	case config.GeoProviderNone:
		return lookup.NoopLocator{}, nil, nil
	default:
		return nil, nil, errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown geo provider %q", cfg.Provider),
			"Use one of: ip-api, maxmind, none")
	}
}

func wantsLookups(cfg *config.Config, targets []*config.ResolvedTarget) bool {
	if cfg.GeoMode {
		return true
	}
	for _, t := range targets {
		if t.Trace {
			return true
		}
	}
	return false
}

// ensureGeoLocked creates the geo and trace caches on first use. They live
// as long as the engine, so a provider change needs a restart.
func (e *Engine) ensureGeoLocked(cfg *config.Config, targets []*config.ResolvedTarget) error {
	if e.geo != nil || !wantsLookups(cfg, targets) {
		return nil
	}

	loc := e.opts.Locator
	if loc == nil {
		l, closeFn, err := NewLocator(cfg.Geo)
		if err != nil {
			return err
		}
		loc, e.closeGeo = l, closeFn
	}
	var tracer lookup.Tracer = lookup.CommandTracer{}
	if e.opts.Tracer != nil {
		tracer = e.opts.Tracer
	}

	e.geo = lookup.NewGeoCache(loc)
	e.traces = lookup.NewTraceCache(tracer)
	return nil
}

// startLookupsLocked starts a location tracker per target in geo mode and a
// route tracker per target with tracing enabled.
func (e *Engine) startLookupsLocked(cfg *config.Config) {
	if e.geo == nil {
		return
	}
	e.locations = make(map[string]*lookup.RouteTracker)
	e.routes = make(map[string]*lookup.RouteTracker)

	ctx := context.Background()
	for _, t := range e.targets {
		rt := t.Config()
		if cfg.GeoMode {
			e.locations[rt.ID] = lookup.StartLocation(ctx, rt.Host, e.names, e.geo)
		}
		if rt.Trace {
			e.routes[rt.ID] = lookup.StartRoute(ctx, rt.Host, e.traces, e.geo)
		}
	}
}

// lookupsFor polls the trackers of one target without blocking.
func (e *Engine) lookupsFor(id string) (*lookup.GeoRecord, []lookup.RouteHop) {
	var loc *lookup.GeoRecord
	if r, ok := e.locations[id]; ok {
		if hops, done, _ := r.Poll(); done && len(hops) > 0 {
			loc = &hops[0].Geo
		}
	}
	var route []lookup.RouteHop
	if r, ok := e.routes[id]; ok {
		if hops, done, _ := r.Poll(); done {
			route = hops
		}
	}
	return loc, route
}
