// Package probe runs single checks of one protocol against one target.
//
// A Probe is dispatched by a Dispatcher, runs its transport on a background
// goroutine and is polled without blocking from the tick loop. Every probe
// is forced to TimedOut once its timeout has elapsed since dispatch, whatever
// its transport is doing.
package probe

import (
	"context"
	"fmt"
	"net/netip"
	"strconv"
	"time"

	"k8s.io/utils/clock"
)

// DefaultTimeout applies when a probe is dispatched without one.
const DefaultTimeout = 3 * time.Second

// State is the lifecycle position of a probe.
type State int

const (
	Pending State = iota
	Done
)

func (s State) String() string {
	if s == Done {
		return "done"
	}
	return "pending"
}

// Classification is the terminal verdict of a probe.
type Classification int

const (
	Unclassified Classification = iota
	Succeeded
	Warned
	Failed
	TimedOut
)

func (c Classification) String() string {
	switch c {
	case Succeeded:
		return "succeeded"
	case Warned:
		return "warned"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed_out"
	default:
		return "pending"
	}
}

// IsFailure reports whether c counts as failed for aggregation.
func (c Classification) IsFailure() bool {
	return c == Failed || c == TimedOut
}

// Target is the probe's view of a monitored host.
type Target struct {
	Host   string
	Port   int
	Scheme string
	Path   string
}

// Address returns host or host:port.
func (t Target) Address() string {
	if t.Port > 0 {
		return t.Host + ":" + strconv.Itoa(t.Port)
	}
	return t.Host
}

// Options are the resolved per-protocol settings of a probe.
type Options struct {
	Timeout time.Duration
	// Warning is the reachability latency above which a reply is Warned.
	Warning time.Duration
}

// Outcome is what a transport observed.
type Outcome struct {
	// Reachability
	Replied bool
	Latency time.Duration

	// Connection
	Connected    bool
	Disconnected bool

	// Request
	StatusCode int

	Err error
}

// Attempt is one transport invocation.
type Attempt struct {
	Target   Target
	Protocol Protocol
	Timeout  time.Duration
}

// Transport performs the blocking network operation of one probe kind.
// Implementations must return promptly once ctx is cancelled.
type Transport interface {
	Run(ctx context.Context, a Attempt) Outcome
}

// HostResolver resolves target host names. *lookup.NameCache satisfies it.
// Transports parse IP literals themselves and never pass them to Resolve.
type HostResolver interface {
	Resolve(ctx context.Context, host string) ([]netip.Addr, error)
}

// Transports holds one handler per probe kind.
type Transports struct {
	Reachability Transport
	Connection   Transport
	Request      Transport
}

func (t Transports) forKind(k Kind) Transport {
	switch k {
	case Reachability:
		return t.Reachability
	case Connection:
		return t.Connection
	case Request:
		return t.Request
	}
	return nil
}

// Dispatcher starts probes.
type Dispatcher struct {
	transports Transports
	clock      clock.PassiveClock
}

// NewDispatcher creates a dispatcher. A nil clock uses the real clock.
func NewDispatcher(t Transports, c clock.PassiveClock) *Dispatcher {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Dispatcher{transports: t, clock: c}
}

// Clock returns the dispatcher's clock.
func (d *Dispatcher) Clock() clock.PassiveClock {
	return d.clock
}

// Dispatch starts a probe and returns its handle immediately. Invalid
// attempts, such as a connection probe without a port, complete at once
// as Failed.
func (d *Dispatcher) Dispatch(t Target, proto Protocol, opts Options) *Probe {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	p := &Probe{
		target:       t,
		protocol:     proto,
		opts:         opts,
		clock:        d.clock,
		dispatchedAt: d.clock.Now(),
		done:         make(chan struct{}),
	}

	transport := d.transports.forKind(proto.Kind)
	if err := validate(t, proto, transport); err != nil {
		close(p.done)
		p.finish(Outcome{Err: err})
		return p
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	attempt := Attempt{Target: t, Protocol: proto, Timeout: opts.Timeout}
	go func() {
		defer close(p.done)
		out := transport.Run(ctx, attempt)
		p.result = out
		p.finishedAt = d.clock.Now()
	}()
	return p
}

func validate(t Target, proto Protocol, transport Transport) error {
	fail := func(format string, args ...interface{}) error {
		return &Error{Address: t.Address(), Protocol: proto, Reason: FailTransport, Cause: fmt.Errorf(format, args...)}
	}
	if transport == nil {
		return fail("no transport for %s probes", proto.Kind)
	}
	if t.Host == "" {
		return fail("empty host")
	}
	switch proto.Kind {
	case Connection:
		if t.Port <= 0 || t.Port > 65535 {
			return fail("tcp probe needs a port")
		}
	case Request:
		if !requestMethods[proto.Method] {
			return fail("unsupported method %q", proto.Method)
		}
		if _, err := requestURL(t); err != nil {
			return fail("%v", err)
		}
	}
	return nil
}

// Probe is one in-flight check. Its methods are meant for a single polling
// goroutine; the transport goroutine only writes result before closing done.
type Probe struct {
	target   Target
	protocol Protocol
	opts     Options
	clock    clock.PassiveClock

	dispatchedAt time.Time
	cancel       context.CancelFunc
	done         chan struct{}

	// Written by the transport goroutine before done is closed.
	result     Outcome
	finishedAt time.Time

	state    State
	class    Classification
	outcome  Outcome
	text     string
	canceled bool
}

// Poll advances the probe without blocking and reports its state.
func (p *Probe) Poll() State {
	if p.state == Done {
		return Done
	}

	select {
	case <-p.done:
		if p.state == Done {
			return Done
		}
		if p.finishedAt.Sub(p.dispatchedAt) >= p.opts.Timeout {
			p.timeout()
		} else {
			p.finish(p.result)
		}
	default:
		if p.clock.Since(p.dispatchedAt) >= p.opts.Timeout {
			p.timeout()
		}
	}
	return p.state
}

// IsDone polls and reports whether the probe has completed.
func (p *Probe) IsDone() bool {
	return p.Poll() == Done
}

// Cancel stops the transport and waits for it to release its resources.
// A probe cancelled before completion is Failed with text "Aborted".
// Cancel is idempotent.
func (p *Probe) Cancel() {
	if p.cancel != nil {
		p.cancel()
	}
	<-p.done
	if p.state != Done {
		p.canceled = true
		p.state = Done
		p.class = Failed
		p.outcome = Outcome{Err: &Error{Address: p.target.Address(), Protocol: p.protocol, Reason: FailAborted, Cause: context.Canceled}}
		p.text = "Aborted"
	}
}

func (p *Probe) timeout() {
	if p.cancel != nil {
		p.cancel()
	}
	p.state = Done
	p.class = TimedOut
	p.outcome = Outcome{Err: &Error{Address: p.target.Address(), Protocol: p.protocol, Reason: FailTimeout}}
	p.text = "Timeout"
}

func (p *Probe) finish(out Outcome) {
	if out.Err != nil {
		out.Err = categorize(p.target.Address(), p.protocol, out.Err)
	}
	p.state = Done
	p.outcome = out
	p.class = classify(p.protocol.Kind, out, p.opts)
	p.text = describe(p.protocol.Kind, out)
}

// Protocol is the probe's protocol.
func (p *Probe) Protocol() Protocol { return p.protocol }

// Target is the probed target.
func (p *Probe) Target() Target { return p.target }

// DispatchedAt is when the probe started.
func (p *Probe) DispatchedAt() time.Time { return p.dispatchedAt }

// Classification is the verdict, Unclassified while pending.
func (p *Probe) Classification() Classification { return p.class }

// Outcome is what the transport observed. Zero while pending.
func (p *Probe) Outcome() Outcome { return p.outcome }

// Text is the short display status, e.g. "42ms", "Connected", "404".
func (p *Probe) Text() string { return p.text }

// Canceled reports whether the probe was aborted before completing.
func (p *Probe) Canceled() bool { return p.canceled }
