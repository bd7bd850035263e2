// Package scheduler owns the refresh cadence of one (target, protocol) pair.
package scheduler

import (
	"time"

	"github.com/rileyhilliard/lookout/internal/history"
	"github.com/rileyhilliard/lookout/internal/probe"
)

// DefaultRefresh applies when a scheduler is created without an interval.
const DefaultRefresh = 5 * time.Second

// Scheduler retires and redispatches one probe per refresh interval. A new
// probe is only dispatched once the current one is Done, so a pair never
// has two probes in flight.
type Scheduler struct {
	dispatcher *probe.Dispatcher
	target     probe.Target
	protocol   probe.Protocol
	opts       probe.Options
	refresh    time.Duration
	history    *history.Buffer

	elapsed    time.Duration
	current    *probe.Probe
	last       *probe.Probe
	dispatches int
	stopped    bool
}

// New creates a scheduler and dispatches its first probe. hist may be nil.
func New(d *probe.Dispatcher, target probe.Target, proto probe.Protocol, refresh time.Duration, opts probe.Options, hist *history.Buffer) *Scheduler {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	if hist == nil {
		hist = history.New(0)
	}
	s := &Scheduler{
		dispatcher: d,
		target:     target,
		protocol:   proto,
		opts:       opts,
		refresh:    refresh,
		history:    hist,
	}
	s.dispatch()
	return s
}

func (s *Scheduler) dispatch() {
	s.current = s.dispatcher.Dispatch(s.target, s.protocol, s.opts)
	s.dispatches++
}

// Tick advances the scheduler by dt and reports whether a new probe was
// dispatched. When the interval has elapsed and the current probe is Done,
// its sample is recorded, it is disposed and a fresh probe starts.
// Overshoot carries into the next interval; a backlog of more than one
// interval is folded so a long-pending probe cannot cause a burst.
func (s *Scheduler) Tick(dt time.Duration) bool {
	if s.stopped {
		return false
	}
	s.elapsed += dt

	if s.elapsed < s.refresh || !s.current.IsDone() {
		return false
	}

	s.history.Push(Sample(s.current))
	s.current.Cancel()
	s.last = s.current
	s.dispatch()

	s.elapsed -= s.refresh
	if s.elapsed >= s.refresh {
		s.elapsed %= s.refresh
	}
	return true
}

// Stop disposes the in-flight probe. The scheduler does nothing afterwards.
func (s *Scheduler) Stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	if s.current != nil {
		s.current.Cancel()
	}
}

// Current is the probe of the running cycle.
func (s *Scheduler) Current() *probe.Probe { return s.current }

// Last is the most recently retired probe, nil before the first retirement.
func (s *Scheduler) Last() *probe.Probe { return s.last }

// Protocol is the scheduled protocol.
func (s *Scheduler) Protocol() probe.Protocol { return s.protocol }

// Refresh is the interval between dispatches.
func (s *Scheduler) Refresh() time.Duration { return s.refresh }

// Timeout is the per-probe timeout.
func (s *Scheduler) Timeout() time.Duration { return s.opts.Timeout }

// Warning is the reachability latency threshold.
func (s *Scheduler) Warning() time.Duration { return s.opts.Warning }

// Elapsed is the time accumulated towards the next dispatch.
func (s *Scheduler) Elapsed() time.Duration { return s.elapsed }

// Dispatches counts probes started, including the first.
func (s *Scheduler) Dispatches() int { return s.dispatches }

// History is the sample buffer.
func (s *Scheduler) History() *history.Buffer { return s.history }

// Sample converts a completed probe into its history value: latency in
// milliseconds (or history.NoReply) for reachability, 1 or 0 otherwise.
func Sample(p *probe.Probe) float64 {
	out := p.Outcome()
	switch p.Protocol().Kind {
	case probe.Reachability:
		if p.Classification() == probe.TimedOut || out.Err != nil || !out.Replied {
			return history.NoReply
		}
		return float64(out.Latency.Microseconds()) / 1000
	default:
		if p.Classification().IsFailure() {
			return 0
		}
		return 1
	}
}
