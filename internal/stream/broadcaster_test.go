package stream

import (
	"context"
	"testing"
	"time"

	"github.com/satindergrewal/airwaves/internal/pcm"
)

// chunk builds a 100ms chunk tagged with seq in its first sample.
func chunk(seq int) []int16 {
	c := make([]int16, pcm.ChunkSamples)
	c[0] = int16(seq)
	return c
}

// feed sends c on source, failing the test if Run does not take it.
func feed(t *testing.T, source chan<- []int16, c []int16) {
	t.Helper()
	select {
	case source <- c:
	case <-time.After(time.Second):
		t.Fatalf("producer blocked sending chunk %d", c[0])
	}
}

func waitDone(t *testing.T, l *Listener) {
	t.Helper()
	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatalf("listener %s not released", l.ID)
	}
}

func TestSubscribeAssignsIDs(t *testing.T) {
	b := NewBroadcaster()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		l := b.Subscribe()
		if l.ID == "" || seen[l.ID] {
			t.Fatalf("listener %d has ID %q, want a fresh one", i, l.ID)
		}
		if cap(l.C) != ListenerBuffer {
			t.Errorf("listener buffer = %d chunks, want %d", cap(l.C), ListenerBuffer)
		}
		seen[l.ID] = true
	}
	if got := b.ListenerCount(); got != 50 {
		t.Errorf("ListenerCount = %d, want 50", got)
	}
}

func TestBroadcastDeliversChunks(t *testing.T) {
	b := NewBroadcaster()
	listeners := []*Listener{b.Subscribe(), b.Subscribe(), b.Subscribe()}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	source := make(chan []int16)
	go b.Run(ctx, source)

	for seq := 0; seq < 5; seq++ {
		feed(t, source, chunk(seq))
		for i, l := range listeners {
			select {
			case got := <-l.C:
				if len(got) != pcm.ChunkSamples || got[0] != int16(seq) {
					t.Errorf("listener %d got %d samples tagged %d, want %d tagged %d",
						i, len(got), got[0], pcm.ChunkSamples, seq)
				}
			case <-time.After(time.Second):
				t.Fatalf("listener %d missed chunk %d", i, seq)
			}
		}
	}
}

func TestSlowListenerNeverBlocksProducer(t *testing.T) {
	b := NewBroadcaster()
	slow := b.Subscribe()
	fast := b.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	source := make(chan []int16)
	go b.Run(ctx, source)

	// Three buffers' worth: slow never reads, fast keeps up chunk by chunk.
	total := 3 * ListenerBuffer
	for seq := 0; seq < total; seq++ {
		feed(t, source, chunk(seq))
		select {
		case got := <-fast.C:
			if got[0] != int16(seq) {
				t.Fatalf("fast listener got chunk %d, want %d", got[0], seq)
			}
		case <-time.After(time.Second):
			t.Fatalf("fast listener missed chunk %d", seq)
		}
	}

	wantDropped := uint64(total - ListenerBuffer)
	deadline := time.Now().Add(time.Second)
	for slow.Dropped() != wantDropped {
		if time.Now().After(deadline) {
			t.Fatalf("slow listener dropped %d chunks, want %d", slow.Dropped(), wantDropped)
		}
		time.Sleep(time.Millisecond)
	}
	if fast.Dropped() != 0 {
		t.Errorf("fast listener dropped %d chunks, want 0", fast.Dropped())
	}

	// The slow listener keeps the oldest chunks it had room for.
	if len(slow.C) != ListenerBuffer {
		t.Fatalf("slow listener holds %d chunks, want %d", len(slow.C), ListenerBuffer)
	}
	if got := <-slow.C; got[0] != 0 {
		t.Errorf("slow listener's next chunk = %d, want 0", got[0])
	}
}

func TestRemovedListenerDoesNotStallRun(t *testing.T) {
	b := NewBroadcaster()
	gone := b.Subscribe()
	b.Unsubscribe(gone)
	b.Unsubscribe(gone)
	b.Unsubscribe(&Listener{ID: "never-subscribed"})

	if b.ListenerCount() != 0 {
		t.Fatalf("ListenerCount = %d, want 0", b.ListenerCount())
	}
	waitDone(t, gone)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	source := make(chan []int16)
	go b.Run(ctx, source)

	for seq := 0; seq < 2*ListenerBuffer; seq++ {
		feed(t, source, chunk(seq))
	}
	if len(gone.C) != 0 {
		t.Errorf("unsubscribed listener received %d chunks", len(gone.C))
	}
}

func TestRunReleasesListenersWhenSourceCloses(t *testing.T) {
	b := NewBroadcaster()
	l := b.Subscribe()

	source := make(chan []int16)
	done := make(chan struct{})
	go func() {
		b.Run(context.Background(), source)
		close(done)
	}()
	close(source)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after source closed")
	}
	waitDone(t, l)
	if b.ListenerCount() != 0 {
		t.Errorf("ListenerCount = %d after broadcast ended, want 0", b.ListenerCount())
	}

	late := b.Subscribe()
	waitDone(t, late)
	if b.ListenerCount() != 0 {
		t.Errorf("late subscriber was registered on an ended broadcast")
	}
	b.Unsubscribe(l)
}

func TestRunReleasesListenersOnCancel(t *testing.T) {
	b := NewBroadcaster()
	l := b.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx, make(chan []int16))
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	waitDone(t, l)
}
