package timeline

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/satindergrewal/airwaves/internal/station"
)

// DefaultEpoch is the instant the broadcast is considered to have started.
var DefaultEpoch = time.UnixMilli(10000)

// Config tunes a Timeline.
type Config struct {
	Epoch time.Time

	// CheckpointInterval is the broadcast time between saved replay
	// snapshots. Zero disables checkpointing and every call replays from
	// the epoch.
	CheckpointInterval time.Duration
	MaxCheckpoints     int

	Clock func() time.Time // defaults to time.Now
}

type checkpoint struct {
	offset uint64
	state  State
	rng    *rng
	window *Window[*station.Track]
}

// Timeline resolves a station against wall-clock time. It caches replay
// snapshots so resolving "now" does not repeat decades of history; a
// snapshot resumes to exactly the same draws as a replay from the epoch.
// Safe for concurrent use.
type Timeline struct {
	st       *station.Station
	epoch    time.Time
	interval uint64
	max      int
	clock    func() time.Time

	mu          sync.Mutex
	checkpoints []checkpoint // ascending offset
}

// Entry is one upcoming item in the schedule.
type Entry struct {
	Start      time.Time
	State      State
	DurationMs uint64
}

// New validates st and builds a Timeline for it.
func New(st *station.Station, cfg Config) (*Timeline, error) {
	if err := st.Validate(WindowCapacity); err != nil {
		return nil, fmt.Errorf("invalid station %q: %w", st.Title, err)
	}
	if cfg.Epoch.IsZero() {
		cfg.Epoch = DefaultEpoch
	}
	if cfg.MaxCheckpoints <= 0 {
		cfg.MaxCheckpoints = 48
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Timeline{
		st:       st,
		epoch:    cfg.Epoch,
		interval: uint64(cfg.CheckpointInterval / time.Millisecond),
		max:      cfg.MaxCheckpoints,
		clock:    cfg.Clock,
	}, nil
}

// Station returns the catalog this timeline plays.
func (tl *Timeline) Station() *station.Station { return tl.st }

// Epoch returns the broadcast origin.
func (tl *Timeline) Epoch() time.Time { return tl.epoch }

// Time reads the timeline's clock.
func (tl *Timeline) Time() time.Time { return tl.clock() }

// Now resolves the current wall-clock time.
func (tl *Timeline) Now() Resolution {
	return tl.At(tl.clock())
}

// At resolves an arbitrary instant. Instants before the epoch resolve as
// the very start of the broadcast.
func (tl *Timeline) At(t time.Time) Resolution {
	elapsed := tl.elapsed(t)

	tl.mu.Lock()
	defer tl.mu.Unlock()

	r := tl.resume(elapsed)
	return r.seek(elapsed, tl.record)
}

// Schedule lists the next n items with airtime after the one on air at t.
// Silence and empty narration slots are skipped; New rejects 0ms tracks,
// so every pass through the rotation yields at least one item.
func (tl *Timeline) Schedule(t time.Time, n int) []Entry {
	elapsed := tl.elapsed(t)

	tl.mu.Lock()
	r := tl.resume(elapsed)
	r.seek(elapsed, tl.record)
	tl.mu.Unlock()

	out := make([]Entry, 0, n)
	for len(out) < n {
		r.advance()
		dur := r.state.DurationMs()
		if r.state.Kind == Silence || dur == 0 {
			continue
		}
		out = append(out, Entry{
			Start:      tl.epoch.Add(time.Duration(r.offset) * time.Millisecond),
			State:      r.state,
			DurationMs: dur,
		})
	}
	return out
}

// Checkpoints reports how many snapshots are cached.
func (tl *Timeline) Checkpoints() int {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return len(tl.checkpoints)
}

func (tl *Timeline) elapsed(t time.Time) uint64 {
	ms := t.Sub(tl.epoch).Milliseconds()
	if ms < 0 {
		return 0
	}
	return uint64(ms)
}

// resume returns a replay positioned at the latest checkpoint not after
// elapsed, or at the epoch. Must be called with mu held.
func (tl *Timeline) resume(elapsed uint64) *replay {
	i := sort.Search(len(tl.checkpoints), func(i int) bool {
		return tl.checkpoints[i].offset > elapsed
	})
	if i == 0 {
		return newReplay(tl.st, WindowCapacity)
	}
	cp := tl.checkpoints[i-1]
	return &replay{
		st:     tl.st,
		rng:    cp.rng.clone(),
		window: cp.window.clone(),
		state:  cp.state,
		offset: cp.offset,
	}
}

// record snapshots r when it has moved a full interval past the newest
// checkpoint. Must be called with mu held.
func (tl *Timeline) record(r *replay) {
	if tl.interval == 0 {
		return
	}
	var last uint64
	if n := len(tl.checkpoints); n > 0 {
		last = tl.checkpoints[n-1].offset
	}
	if r.offset < last+tl.interval {
		return
	}
	tl.checkpoints = append(tl.checkpoints, checkpoint{
		offset: r.offset,
		state:  r.state,
		rng:    r.rng.clone(),
		window: r.window.clone(),
	})
	if len(tl.checkpoints) > tl.max {
		tl.checkpoints = tl.checkpoints[len(tl.checkpoints)-tl.max:]
	}
}
