package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rileyhilliard/lookout/internal/history"
	"github.com/rileyhilliard/lookout/internal/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

// gateTransport blocks each run until a token arrives on gate (or ctx ends)
// and tracks how many runs overlap.
type gateTransport struct {
	out      probe.Outcome
	gate     chan struct{}
	inflight atomic.Int32
	maxSeen  atomic.Int32
	runs     atomic.Int32
}

func (g *gateTransport) Run(ctx context.Context, a probe.Attempt) probe.Outcome {
	n := g.inflight.Add(1)
	defer g.inflight.Add(-1)
	g.runs.Add(1)
	for {
		m := g.maxSeen.Load()
		if n <= m || g.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	if g.gate == nil {
		return g.out
	}
	select {
	case <-g.gate:
		return g.out
	case <-ctx.Done():
		return probe.Outcome{Err: ctx.Err()}
	}
}

func settle(t *testing.T, s *Scheduler) {
	t.Helper()
	require.Eventually(t, s.Current().IsDone, 2*time.Second, time.Millisecond)
}

func TestScheduler_DispatchesImmediately(t *testing.T) {
	gt := &gateTransport{out: probe.Outcome{Replied: true, Latency: 10 * time.Millisecond}}
	d := probe.NewDispatcher(probe.Transports{Reachability: gt}, testingclock.NewFakeClock(time.Now()))

	s := New(d, probe.Target{Host: "h"}, probe.Protocol{Kind: probe.Reachability}, time.Second, probe.Options{Timeout: time.Second}, nil)
	defer s.Stop()

	assert.Equal(t, 1, s.Dispatches())
	assert.NotNil(t, s.Current())
	assert.Nil(t, s.Last())
	assert.Equal(t, time.Second, s.Refresh())
	assert.Equal(t, time.Second, s.Timeout())
	assert.Equal(t, 0, s.History().Cap())
}

func TestScheduler_RetireRecordsAndRedispatches(t *testing.T) {
	gt := &gateTransport{out: probe.Outcome{Replied: true, Latency: 25 * time.Millisecond}}
	d := probe.NewDispatcher(probe.Transports{Reachability: gt}, testingclock.NewFakeClock(time.Now()))
	hist := history.New(10)

	s := New(d, probe.Target{Host: "h"}, probe.Protocol{Kind: probe.Reachability}, time.Second, probe.Options{Timeout: 500 * time.Millisecond}, hist)
	defer s.Stop()
	settle(t, s)
	first := s.Current()

	assert.False(t, s.Tick(999*time.Millisecond))
	assert.Equal(t, 0, hist.Len())

	assert.True(t, s.Tick(51*time.Millisecond))
	assert.Equal(t, 2, s.Dispatches())
	assert.Same(t, first, s.Last())
	assert.Equal(t, []float64{25}, hist.Samples())
	assert.Equal(t, 50*time.Millisecond, s.Elapsed(), "overshoot is preserved")
}

func TestScheduler_DefersWhilePending(t *testing.T) {
	gt := &gateTransport{out: probe.Outcome{Connected: true}, gate: make(chan struct{})}
	clk := testingclock.NewFakeClock(time.Now())
	d := probe.NewDispatcher(probe.Transports{Connection: gt}, clk)

	s := New(d, probe.Target{Host: "h", Port: 1}, probe.Protocol{Kind: probe.Connection}, time.Second, probe.Options{Timeout: time.Hour}, history.New(5))
	defer s.Stop()

	require.Eventually(t, func() bool { return gt.runs.Load() == 1 }, 2*time.Second, time.Millisecond,
		"first probe reaches the transport")

	for i := 0; i < 10; i++ {
		assert.False(t, s.Tick(time.Second), "no redispatch while the probe is pending")
	}
	assert.Equal(t, 1, s.Dispatches())
	assert.Equal(t, int32(1), gt.runs.Load())

	gt.gate <- struct{}{}
	settle(t, s)

	assert.True(t, s.Tick(0))
	assert.Equal(t, 2, s.Dispatches())
	assert.Less(t, s.Elapsed(), time.Second, "backlog is folded")
	assert.Equal(t, int32(1), gt.maxSeen.Load(), "never two probes in flight")

	close(gt.gate)
}

func TestScheduler_TimedOutProbeIsRetired(t *testing.T) {
	gt := &gateTransport{out: probe.Outcome{StatusCode: 200}, gate: make(chan struct{})}
	defer close(gt.gate)
	clk := testingclock.NewFakeClock(time.Now())
	d := probe.NewDispatcher(probe.Transports{Request: gt}, clk)
	hist := history.New(5)

	s := New(d, probe.Target{Host: "h"}, probe.Protocol{Kind: probe.Request, Method: "GET"}, time.Second, probe.Options{Timeout: 2 * time.Second}, hist)
	defer s.Stop()

	assert.False(t, s.Tick(time.Second))
	clk.Step(2 * time.Second)
	assert.True(t, s.Tick(time.Second))
	assert.Equal(t, probe.TimedOut, s.Last().Classification())
	assert.Equal(t, []float64{0}, hist.Samples())
}

func TestScheduler_Cadence(t *testing.T) {
	gt := &gateTransport{out: probe.Outcome{Replied: true, Latency: time.Millisecond}}
	d := probe.NewDispatcher(probe.Transports{Reachability: gt}, testingclock.NewFakeClock(time.Now()))

	const (
		refresh = time.Second
		dt      = 16 * time.Millisecond
		total   = 20 * time.Second
	)
	s := New(d, probe.Target{Host: "h"}, probe.Protocol{Kind: probe.Reachability}, refresh, probe.Options{Timeout: time.Second}, nil)
	defer s.Stop()

	for elapsed := time.Duration(0); elapsed < total; elapsed += dt {
		settle(t, s)
		s.Tick(dt)
	}

	expected := int(total / refresh)
	redispatches := s.Dispatches() - 1
	assert.InDelta(t, expected, redispatches, 1)
	assert.Equal(t, int32(1), gt.maxSeen.Load())
}

func TestScheduler_Stop(t *testing.T) {
	gt := &gateTransport{gate: make(chan struct{})}
	d := probe.NewDispatcher(probe.Transports{Reachability: gt}, nil)

	s := New(d, probe.Target{Host: "h"}, probe.Protocol{Kind: probe.Reachability}, time.Second, probe.Options{Timeout: time.Minute}, nil)
	require.Eventually(t, func() bool { return gt.runs.Load() == 1 }, time.Second, time.Millisecond)

	s.Stop()
	assert.Equal(t, int32(0), gt.inflight.Load(), "transport released on stop")
	assert.True(t, s.Current().Canceled())
	assert.False(t, s.Tick(time.Hour))
	assert.NotPanics(t, s.Stop)
}

func TestScheduler_DefaultRefresh(t *testing.T) {
	d := probe.NewDispatcher(probe.Transports{Reachability: &gateTransport{}}, nil)
	s := New(d, probe.Target{Host: "h"}, probe.Protocol{Kind: probe.Reachability}, 0, probe.Options{}, nil)
	defer s.Stop()
	assert.Equal(t, DefaultRefresh, s.Refresh())
}

func TestSample(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())

	tests := []struct {
		name  string
		proto probe.Protocol
		out   probe.Outcome
		want  float64
	}{
		{"ping latency", probe.Protocol{Kind: probe.Reachability}, probe.Outcome{Replied: true, Latency: 12500 * time.Microsecond}, 12.5},
		{"ping no reply", probe.Protocol{Kind: probe.Reachability}, probe.Outcome{}, history.NoReply},
		{"tcp ok", probe.Protocol{Kind: probe.Connection}, probe.Outcome{Connected: true}, 1},
		{"tcp fail", probe.Protocol{Kind: probe.Connection}, probe.Outcome{}, 0},
		{"http ok", probe.Protocol{Kind: probe.Request, Method: "GET"}, probe.Outcome{StatusCode: 204}, 1},
		{"http fail", probe.Protocol{Kind: probe.Request, Method: "GET"}, probe.Outcome{StatusCode: 503}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := probe.NewDispatcher(probe.Transports{
				Reachability: &gateTransport{out: tt.out},
				Connection:   &gateTransport{out: tt.out},
				Request:      &gateTransport{out: tt.out},
			}, clk)
			p := d.Dispatch(probe.Target{Host: "h", Port: 1}, tt.proto, probe.Options{Timeout: time.Second, Warning: time.Second})
			require.Eventually(t, p.IsDone, time.Second, time.Millisecond)
			assert.InDelta(t, tt.want, Sample(p), 1e-9)
		})
	}
}

