package audio

import (
	"sync"

	"github.com/satindergrewal/airwaves/internal/pcm"
)

// RingBuffer is a fixed-size circular store of samples between one
// producer and one real-time consumer. Put never blocks: when full it drops
// the oldest unread sample. Take never blocks: when empty it returns
// silence. read == write means empty or full; full tells them apart.
type RingBuffer struct {
	mu      sync.Mutex
	samples []int16
	read    int
	write   int
	full    bool
}

// NewRingBuffer returns an empty buffer holding one second of audio.
func NewRingBuffer() *RingBuffer {
	return &RingBuffer{samples: make([]int16, pcm.BufferSize)}
}

// Put appends one sample, overwriting the oldest one if the buffer is full.
func (b *RingBuffer) Put(sample int16) {
	b.mu.Lock()
	b.put(sample)
	b.mu.Unlock()
}

// PutSamples appends a whole batch under a single lock acquisition.
func (b *RingBuffer) PutSamples(samples []int16) {
	b.mu.Lock()
	for _, s := range samples {
		b.put(s)
	}
	b.mu.Unlock()
}

func (b *RingBuffer) put(sample int16) {
	n := len(b.samples)
	if b.full {
		b.read = (b.read + 1) % n
	}
	b.samples[b.write] = sample
	b.write = (b.write + 1) % n
	b.full = b.write == b.read
}

// Take removes and returns the oldest sample, or 0 if the buffer is empty.
func (b *RingBuffer) Take() int16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.read == b.write && !b.full {
		return 0
	}
	s := b.samples[b.read]
	b.read = (b.read + 1) % len(b.samples)
	b.full = false
	return s
}

// Len returns the number of unread samples.
func (b *RingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.full {
		return len(b.samples)
	}
	return (b.write - b.read + len(b.samples)) % len(b.samples)
}

// Cap returns the buffer capacity in samples.
func (b *RingBuffer) Cap() int { return len(b.samples) }
