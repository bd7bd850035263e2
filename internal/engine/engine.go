// Package engine wires resolved configuration into a live status tree and
// drives it from a single tick loop.
//
// Tick, Reconfigure and Close are serialized; Snapshot may be called from
// any goroutine and returns the copy published by the most recent tick.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/lookout/internal/config"
	"github.com/rileyhilliard/lookout/internal/errors"
	"github.com/rileyhilliard/lookout/internal/logger"
	"github.com/rileyhilliard/lookout/internal/lookup"
	"github.com/rileyhilliard/lookout/internal/probe"
	"github.com/rileyhilliard/lookout/internal/status"
	"k8s.io/utils/clock"
)

// DefaultTickInterval is the driver frame used by Run callers that have no
// better value.
const DefaultTickInterval = 100 * time.Millisecond

// MessageUnconfigured is the global message while no configuration is loaded.
const MessageUnconfigured = "No configuration loaded"

// subscriberBuffer is the per-subscriber event backlog. Slow subscribers
// lose events past it.
const subscriberBuffer = 16

// Options configures New. Zero values select production defaults.
type Options struct {
	Clock  clock.WithTicker
	Logger logger.Logger
	// Names is the shared name cache. A fresh cache over the system
	// resolver is used when nil.
	Names *lookup.NameCache
	// Transports overrides the probe transports built from configuration.
	Transports *probe.Transports
	// Locator overrides the geo backend chosen by configuration.
	Locator lookup.Locator
	// Tracer overrides the traceroute command.
	Tracer lookup.Tracer
}

// Engine owns the status tree of the loaded configuration.
type Engine struct {
	clock clock.WithTicker
	log   logger.Logger
	names *lookup.NameCache
	http  *probe.HTTPTransport
	opts  Options

	mu        sync.Mutex
	cfg       *config.Config
	source    string
	root      *status.Group
	targets   []*status.Target
	trans     status.Transitions
	geo       *lookup.GeoCache
	closeGeo  func() error
	traces    *lookup.TraceCache
	locations map[string]*lookup.RouteTracker
	routes    map[string]*lookup.RouteTracker
	seq       uint64
	closed    bool

	snapshot atomic.Pointer[Snapshot]

	subMu   sync.Mutex
	subs    map[int]chan status.Event
	nextSub int
}

// New creates an unconfigured engine.
func New(opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}
	if opts.Names == nil {
		opts.Names = lookup.NewNameCache(nil)
	}
	e := &Engine{
		clock: opts.Clock,
		log:   opts.Logger,
		names: opts.Names,
		opts:  opts,
		subs:  make(map[int]chan status.Event),
	}
	if opts.Transports == nil {
		e.http = probe.NewHTTPTransport(opts.Names)
	}
	e.publish(e.buildSnapshot())
	return e
}

// Load installs the first configuration. See Reconfigure.
func (e *Engine) Load(cfg *config.Config, source string) error {
	return e.Reconfigure(cfg, source)
}

// Reconfigure disposes every probe of the current tree and builds a new one
// from cfg. A nil or invalid configuration leaves the engine unconfigured
// and returns the ErrConfig error; the engine keeps ticking either way.
func (e *Engine) Reconfigure(cfg *config.Config, source string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return errors.New(errors.ErrConfig, "Engine is closed", "")
	}
	e.disposeLocked()

	if cfg == nil || !cfg.IsValid() {
		e.publish(e.buildSnapshot())
		return errors.NewConfigInvalid(source)
	}

	resolved, err := config.Resolve(cfg)
	if err != nil {
		e.publish(e.buildSnapshot())
		return err
	}

	if err := e.ensureGeoLocked(cfg, resolved.Targets); err != nil {
		e.log.Warn("geo lookups disabled: %v", err)
	}

	d := probe.NewDispatcher(e.transports(cfg), e.clock)
	e.cfg = cfg
	e.source = source
	e.root, e.targets = status.NewTree(resolved, d)
	e.trans = status.Transitions{}
	e.startLookupsLocked(cfg)

	e.log.Info("loaded %d targets from %s", len(e.targets), sourceLabel(source))
	e.publish(e.buildSnapshot())
	return nil
}

func sourceLabel(source string) string {
	if source == "" {
		return "defaults"
	}
	return source
}

func (e *Engine) transports(cfg *config.Config) probe.Transports {
	if e.opts.Transports != nil {
		return *e.opts.Transports
	}
	return probe.Transports{
		Reachability: &probe.PingTransport{Names: e.names, Privileged: cfg.Probe.Privileged},
		Connection:   &probe.DialTransport{Names: e.names},
		Request:      e.http,
	}
}

// disposeLocked cancels every probe and lookup of the current tree.
func (e *Engine) disposeLocked() {
	for _, t := range e.targets {
		t.Close()
	}
	for _, r := range e.locations {
		r.Cancel()
	}
	for _, r := range e.routes {
		r.Cancel()
	}
	e.cfg = nil
	e.source = ""
	e.root = nil
	e.targets = nil
	e.locations = nil
	e.routes = nil
}

// Tick advances every target by dt, recomputes the group tree and the
// global state, emits transition events and publishes a new snapshot.
// An unconfigured engine only republishes its empty snapshot.
func (e *Engine) Tick(dt time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	if e.cfg != nil {
		for _, t := range e.targets {
			t.Update(dt)
		}
		e.root.Recompute()

		g := status.Summarize(e.targets)
		if g.Total > 0 && g.Pending < g.Total {
			if ev, ok := e.trans.Observe(g.State, e.clock.Now()); ok {
				e.log.Warn("%s: %s", ev.Kind, ev.Message)
				e.broadcast(ev)
			}
		}
	}

	e.publish(e.buildSnapshot())
}

// Run ticks the engine every interval until ctx is done.
func (e *Engine) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ticker := e.clock.NewTicker(interval)
	defer ticker.Stop()

	last := e.clock.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C():
			e.Tick(now.Sub(last))
			last = now
		}
	}
}

// Snapshot returns the most recently published state.
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshot.Load()
}

// Config returns the loaded configuration, nil when unconfigured.
func (e *Engine) Config() *config.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Subscribe returns a channel of transition events and a function that
// unsubscribes and closes it.
func (e *Engine) Subscribe() (<-chan status.Event, func()) {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	id := e.nextSub
	e.nextSub++
	ch := make(chan status.Event, subscriberBuffer)
	e.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.subMu.Lock()
			defer e.subMu.Unlock()
			if c, ok := e.subs[id]; ok {
				delete(e.subs, id)
				close(c)
			}
		})
	}
}

func (e *Engine) broadcast(ev status.Event) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close disposes every probe, closes subscriber channels and releases the
// geo backend. The engine cannot be reused.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.disposeLocked()
	e.closed = true
	if e.http != nil {
		e.http.CloseIdle()
	}

	e.subMu.Lock()
	for id, ch := range e.subs {
		delete(e.subs, id)
		close(ch)
	}
	e.subMu.Unlock()

	if e.closeGeo != nil {
		return e.closeGeo()
	}
	return nil
}

func (e *Engine) publish(s *Snapshot) {
	e.snapshot.Store(s)
}

func (e *Engine) buildSnapshot() *Snapshot {
	e.seq++
	s := &Snapshot{
		Configured: e.cfg != nil,
		Source:     e.source,
		Seq:        e.seq,
		At:         e.clock.Now(),
		Targets:    []TargetView{},
		index:      make(map[string]int),
	}
	if e.cfg == nil {
		s.Global.Message = MessageUnconfigured
		return s
	}

	s.Global = status.Summarize(e.targets)
	if ev, ok := e.trans.Banner(s.At); ok {
		s.Banner = &ev
	}
	s.Root = groupView(e.root)
	for i, t := range e.targets {
		v := targetView(t)
		v.Location, v.Route = e.lookupsFor(t.ID())
		s.Targets = append(s.Targets, v)
		s.index[v.ID] = i
	}
	return s
}
