// Package history keeps the rolling per-probe sample window used for
// sparklines and trend display.
package history

import "sync"

// NoReply is the sample recorded for a reachability probe that got no answer.
const NoReply = -1.0

// Buffer is a fixed-capacity circular store of float64 samples. It holds the
// most recent Cap() samples; Samples returns them oldest first. A capacity
// of zero disables the buffer entirely.
type Buffer struct {
	mu    sync.RWMutex
	data  []float64
	head  int
	count int
}

// New creates a buffer holding up to capacity samples. Negative capacities
// are treated as zero.
func New(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{data: make([]float64, capacity)}
}

// Push appends a sample, evicting the oldest one once the buffer is full.
func (b *Buffer) Push(value float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	size := len(b.data)
	if size == 0 {
		return
	}
	b.data[b.head] = value
	b.head = (b.head + 1) % size
	if b.count < size {
		b.count++
	}
}

// Samples returns every stored sample in chronological order.
func (b *Buffer) Samples() []float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last(b.count)
}

// Last returns up to count of the newest samples, oldest first.
func (b *Buffer) Last(count int) []float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last(count)
}

func (b *Buffer) last(count int) []float64 {
	if count <= 0 || b.count == 0 {
		return []float64{}
	}
	if count > b.count {
		count = b.count
	}

	size := len(b.data)
	result := make([]float64, count)

	// head is the next write slot, so the newest sample sits at head-1.
	start := (b.head - count + size) % size
	for i := 0; i < count; i++ {
		result[i] = b.data[(start+i)%size]
	}
	return result
}

// Latest returns the newest sample.
func (b *Buffer) Latest() (float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.count == 0 {
		return 0, false
	}
	size := len(b.data)
	return b.data[(b.head-1+size)%size], true
}

// Len is the number of stored samples.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Cap is the fixed capacity.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Reset drops all samples.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head = 0
	b.count = 0
}
