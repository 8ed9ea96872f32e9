package stream

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// ListenerBuffer is how many 100ms chunks a listener may fall behind
// before chunks are dropped for it.
const ListenerBuffer = 30

// Broadcaster hands every chunk the producer emits to each connected
// listener. The producer never waits on a listener: one that is
// ListenerBuffer chunks behind loses the newest chunks until it catches up.
// When Run ends every listener is released.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners map[string]*Listener
	stopped   bool
}

// Listener is one subscriber to the station.
type Listener struct {
	ID string
	C  chan []int16

	done    chan struct{}
	dropped atomic.Uint64
}

// Done is closed when the listener is unsubscribed or the broadcast ends.
func (l *Listener) Done() <-chan struct{} { return l.done }

// Dropped counts chunks this listener missed by falling behind.
func (l *Listener) Dropped() uint64 { return l.dropped.Load() }

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{listeners: make(map[string]*Listener)}
}

// Subscribe registers a new listener. After the broadcast has ended the
// returned listener is already done.
func (b *Broadcaster) Subscribe() *Listener {
	l := &Listener{
		ID:   uuid.NewString(),
		C:    make(chan []int16, ListenerBuffer),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		close(l.done)
		return l
	}
	b.listeners[l.ID] = l
	return l
}

// Unsubscribe removes l and closes its Done channel. Listeners that are not
// registered, including ones already removed, are ignored.
func (b *Broadcaster) Unsubscribe(l *Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cur, ok := b.listeners[l.ID]; ok && cur == l {
		delete(b.listeners, l.ID)
		close(l.done)
	}
}

// ListenerCount returns the number of active listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Run fans chunks from source out until ctx is cancelled or source closes,
// then releases all listeners.
func (b *Broadcaster) Run(ctx context.Context, source <-chan []int16) {
	defer b.stop()
	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-source:
			if !ok {
				return
			}
			b.fanOut(chunk)
		}
	}
}

func (b *Broadcaster) fanOut(chunk []int16) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, l := range b.listeners {
		select {
		case l.C <- chunk:
		default:
			l.dropped.Add(1)
		}
	}
}

func (b *Broadcaster) stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
	for id, l := range b.listeners {
		delete(b.listeners, id)
		close(l.done)
	}
}
