package probe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

func waitDone(t *testing.T, p *Probe) {
	t.Helper()
	require.Eventually(t, p.IsDone, 2*time.Second, time.Millisecond)
}

func TestProbe_CompletesWithTransportResult(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())
	ft := newFakeTransport(Outcome{Replied: true, Latency: 42 * time.Millisecond})
	d := NewDispatcher(Transports{Reachability: ft}, clk)

	p := d.Dispatch(Target{Host: "192.0.2.1"}, Protocol{Kind: Reachability}, Options{Timeout: 2 * time.Second, Warning: 100 * time.Millisecond})
	assert.Equal(t, Pending, p.Poll())
	assert.Equal(t, Unclassified, p.Classification())

	close(ft.release)
	waitDone(t, p)

	assert.Equal(t, Succeeded, p.Classification())
	assert.Equal(t, "42ms", p.Text())
	assert.Equal(t, 42*time.Millisecond, p.Outcome().Latency)
	assert.False(t, p.Canceled())
}

func TestProbe_TimeoutWinsOverPendingTransport(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())
	ft := newFakeTransport(Outcome{StatusCode: 200})
	d := NewDispatcher(Transports{Request: ft}, clk)

	p := d.Dispatch(Target{Host: "192.0.2.1", Scheme: "http"}, Protocol{Kind: Request, Method: "GET"}, Options{Timeout: 5 * time.Second})

	clk.Step(4999 * time.Millisecond)
	assert.Equal(t, Pending, p.Poll())

	clk.Step(time.Millisecond)
	assert.Equal(t, Done, p.Poll())
	assert.True(t, p.IsDone())
	assert.Equal(t, TimedOut, p.Classification())
	assert.True(t, p.Classification().IsFailure())
	assert.Equal(t, "Timeout", p.Text())
	assert.Equal(t, FailTimeout, ReasonOf(p.Outcome().Err))

	// Timing out cancels the transport; Cancel then waits for it.
	p.Cancel()
	assert.True(t, ft.sawCtx.Load())
	assert.Equal(t, int32(1), ft.exited.Load())
	assert.Equal(t, TimedOut, p.Classification(), "cancel after completion keeps the verdict")
}

func TestProbe_LateResultIsTimedOut(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())
	ft := newFakeTransport(Outcome{Connected: true})
	d := NewDispatcher(Transports{Connection: ft}, clk)

	p := d.Dispatch(Target{Host: "192.0.2.1", Port: 22}, Protocol{Kind: Connection}, Options{Timeout: time.Second})

	// The transport finishes, but only after the deadline on the probe clock.
	clk.Step(2 * time.Second)
	close(ft.release)
	require.Eventually(t, func() bool { return ft.exited.Load() == 1 }, time.Second, time.Millisecond)

	assert.Equal(t, Done, p.Poll())
	assert.Equal(t, TimedOut, p.Classification())
}

func TestProbe_InstantTransport(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())
	d := NewDispatcher(Transports{Connection: instant(Outcome{Connected: true})}, clk)

	p := d.Dispatch(Target{Host: "192.0.2.1", Port: 22}, Protocol{Kind: Connection}, Options{Timeout: time.Second})
	waitDone(t, p)
	// Finished at dispatch time on the fake clock, so well inside the timeout.
	assert.Equal(t, Succeeded, p.Classification())
	assert.Equal(t, "Connected", p.Text())
}

func TestProbe_CancelPendingAborts(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())
	ft := newFakeTransport(Outcome{Connected: true})
	d := NewDispatcher(Transports{Connection: ft}, clk)

	p := d.Dispatch(Target{Host: "192.0.2.1", Port: 80}, Protocol{Kind: Connection}, Options{Timeout: time.Second})
	require.Eventually(t, func() bool { return ft.started.Load() == 1 }, time.Second, time.Millisecond)

	p.Cancel()
	assert.Equal(t, int32(1), ft.exited.Load(), "transport released before Cancel returns")
	assert.True(t, p.Canceled())
	assert.Equal(t, Done, p.Poll())
	assert.Equal(t, Failed, p.Classification())
	assert.Equal(t, "Aborted", p.Text())

	assert.NotPanics(t, p.Cancel)
}

func TestProbe_DispatchTimeFailures(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())
	ok := instant(Outcome{Connected: true, StatusCode: 200, Replied: true})
	d := NewDispatcher(Transports{Reachability: ok, Connection: ok, Request: ok}, clk)

	tests := []struct {
		name   string
		target Target
		proto  Protocol
	}{
		{"tcp without port", Target{Host: "db"}, Protocol{Kind: Connection}},
		{"empty host", Target{}, Protocol{Kind: Reachability}},
		{"bad scheme", Target{Host: "h", Scheme: "gopher"}, Protocol{Kind: Request, Method: "GET"}},
		{"bad method", Target{Host: "h"}, Protocol{Kind: Request, Method: "BREW"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := d.Dispatch(tt.target, tt.proto, Options{Timeout: time.Second})
			// Done without any clock movement or polling delay.
			assert.Equal(t, Done, p.Poll())
			assert.Equal(t, Failed, p.Classification())
			assert.Equal(t, FailTransport, ReasonOf(p.Outcome().Err))
			assert.NotPanics(t, p.Cancel)
		})
	}
}

func TestProbe_MissingTransport(t *testing.T) {
	d := NewDispatcher(Transports{}, nil)
	p := d.Dispatch(Target{Host: "h"}, Protocol{Kind: Reachability}, Options{})
	assert.True(t, p.IsDone())
	assert.Equal(t, Failed, p.Classification())
}

func TestProbe_DefaultTimeout(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())
	ft := newFakeTransport(Outcome{})
	d := NewDispatcher(Transports{Reachability: ft}, clk)

	p := d.Dispatch(Target{Host: "h"}, Protocol{Kind: Reachability}, Options{})
	clk.Step(DefaultTimeout - time.Millisecond)
	assert.Equal(t, Pending, p.Poll())
	clk.Step(time.Millisecond)
	assert.Equal(t, Done, p.Poll())
	p.Cancel()
}

func TestProbe_TransportErrorFails(t *testing.T) {
	d := NewDispatcher(Transports{Connection: instant(Outcome{Err: &Error{Reason: FailRefused}})}, testingclock.NewFakeClock(time.Now()))
	p := d.Dispatch(Target{Host: "h", Port: 1}, Protocol{Kind: Connection}, Options{Timeout: time.Second})
	waitDone(t, p)
	assert.Equal(t, Failed, p.Classification())
	assert.Equal(t, "Connection refused", p.Text())
}

func TestProbe_Accessors(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	d := NewDispatcher(Transports{Reachability: instant(Outcome{Replied: true})}, clk)
	assert.Same(t, clk, d.Clock())

	target := Target{Host: "example.com", Port: 8080}
	p := d.Dispatch(target, Protocol{Kind: Reachability}, Options{Timeout: time.Second})
	assert.Equal(t, target, p.Target())
	assert.Equal(t, "example.com:8080", p.Target().Address())
	assert.Equal(t, Protocol{Kind: Reachability}, p.Protocol())
	assert.Equal(t, clk.Now(), p.DispatchedAt())
	p.Cancel()
}
