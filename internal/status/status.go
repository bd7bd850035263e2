// Package status rolls probe outcomes up into per-target, per-group and
// global states.
package status

import (
	"time"

	"github.com/rileyhilliard/lookout/internal/config"
	"github.com/rileyhilliard/lookout/internal/history"
	"github.com/rileyhilliard/lookout/internal/probe"
	"github.com/rileyhilliard/lookout/internal/scheduler"
)

// State is the aggregate health of a target, group or the whole tree.
type State int

const (
	// None means no complete cycle has been classified yet.
	None State = iota
	Failed
	Warning
	Success
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case Failed:
		return "failed"
	case Warning:
		return "warning"
	case Success:
		return "success"
	default:
		return "none"
	}
}

// MarshalText encodes the state as its string form.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// worse reports whether a takes precedence over b (Failed > Warning > Success > None).
func worse(a, b State) bool {
	return rank(a) > rank(b)
}

func rank(s State) int {
	switch s {
	case Failed:
		return 3
	case Warning:
		return 2
	case Success:
		return 1
	default:
		return 0
	}
}

// Target owns the schedulers of one configured server, one per protocol.
type Target struct {
	resolved   *config.ResolvedTarget
	schedulers []*scheduler.Scheduler
	state      State
	cycles     int
}

// NewTarget creates one scheduler and history buffer per configured
// protocol. Every scheduler dispatches its first probe straight away.
func NewTarget(rt *config.ResolvedTarget, d *probe.Dispatcher) *Target {
	t := &Target{resolved: rt}
	pt := probe.Target{Host: rt.Host, Port: rt.Port, Scheme: rt.Scheme, Path: rt.Path}

	for _, proto := range rt.Protocols {
		opts := probe.Options{
			Timeout: rt.Settings.TimeoutFor(proto.Kind),
			Warning: rt.Settings.WarningThreshold(),
		}
		hist := history.New(rt.Settings.HistoryCapacity())
		t.schedulers = append(t.schedulers,
			scheduler.New(d, pt, proto, rt.Settings.RefreshFor(proto.Kind), opts, hist))
	}
	return t
}

// Update ticks every scheduler by dt and classifies the current probes.
// Probes still in flight set anyAwaiting and contribute nothing else. The
// aggregate state only changes on a tick where nothing is awaiting;
// otherwise it keeps its previous value.
func (t *Target) Update(dt time.Duration) (allSuccess, anyWarning, anyAwaiting bool) {
	for _, s := range t.schedulers {
		s.Tick(dt)
	}

	allSuccess = true
	for _, s := range t.schedulers {
		p := s.Current()
		if !p.IsDone() {
			anyAwaiting = true
			continue
		}
		switch c := p.Classification(); {
		case c == probe.Succeeded:
		case c == probe.Warned:
			anyWarning = true
		default:
			allSuccess = false
		}
	}

	if !anyAwaiting {
		t.state = aggregate(allSuccess, anyWarning)
		t.cycles++
	}
	return allSuccess, anyWarning, anyAwaiting
}

func aggregate(allSuccess, anyWarning bool) State {
	switch {
	case !allSuccess:
		return Failed
	case anyWarning:
		return Warning
	default:
		return Success
	}
}

// State is the last committed aggregate state.
func (t *Target) State() State { return t.state }

// Completed reports whether at least one full cycle has been classified.
func (t *Target) Completed() bool { return t.cycles > 0 }

// Config is the resolved configuration of the target.
func (t *Target) Config() *config.ResolvedTarget { return t.resolved }

// ID is the stable identifier of the target.
func (t *Target) ID() string { return t.resolved.ID }

// Schedulers returns the per-protocol schedulers in configuration order.
func (t *Target) Schedulers() []*scheduler.Scheduler { return t.schedulers }

// Close stops every scheduler and disposes in-flight probes.
func (t *Target) Close() {
	for _, s := range t.schedulers {
		s.Stop()
	}
}
