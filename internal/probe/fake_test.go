package probe

import (
	"context"
	"sync/atomic"
)

// fakeTransport returns out once release is closed, or the context error
// when the probe is cancelled first.
type fakeTransport struct {
	out     Outcome
	release chan struct{}
	started atomic.Int32
	exited  atomic.Int32
	sawCtx  atomic.Bool
}

func newFakeTransport(out Outcome) *fakeTransport {
	return &fakeTransport{out: out, release: make(chan struct{})}
}

func (f *fakeTransport) Run(ctx context.Context, a Attempt) Outcome {
	f.started.Add(1)
	defer f.exited.Add(1)
	select {
	case <-f.release:
		return f.out
	case <-ctx.Done():
		f.sawCtx.Store(true)
		return Outcome{Err: ctx.Err()}
	}
}

// instant returns its outcome straight away.
type instant Outcome

func (i instant) Run(context.Context, Attempt) Outcome { return Outcome(i) }
