// Package station models the catalog a station plays from. A Station is
// built once at startup and shared read-only afterwards.
package station

import (
	"errors"
	"fmt"

	"github.com/satindergrewal/airwaves/internal/pcm"
)

var (
	ErrNoTracks       = errors.New("station has no tracks")
	ErrWindowTooLarge = errors.New("recency window must be smaller than the number of distinct tracks")
	ErrMissingField   = errors.New("missing required field")
	ErrSilentTrack    = errors.New("track is shorter than one millisecond")
)

// Sound is anything backed by a PCM file that can go on air.
type Sound interface {
	Path() string
	DurationMs() uint64
}

// Narration is a spoken clip played before or after a track.
type Narration struct {
	Content   string // caption, used for logs and the now-playing feed
	Source    string
	SizeBytes uint64
}

func (n Narration) Path() string { return n.Source }

func (n Narration) DurationMs() uint64 { return pcm.DurationMs(n.SizeBytes) }

// Track is one entry of the catalog. SizeBytes includes the WAV header.
type Track struct {
	Title           string
	Source          string
	SizeBytes       uint64
	NarrationBefore []Narration
	NarrationAfter  []Narration
}

func (t Track) Path() string { return t.Source }

func (t Track) DurationMs() uint64 { return pcm.DurationMs(t.SizeBytes) }

// Same reports whether two tracks are the same catalog entry. Tracks are
// identified by title.
func (t Track) Same(o Track) bool { return t.Title == o.Title }

// Station is the full catalog plus the seed that drives its shuffle.
type Station struct {
	Title  string
	Seed   uint64
	Tracks []Track
}

// Validate checks the invariants the timeline relies on. It is meant to run
// once at startup with the recency window capacity the timeline will use.
func (s *Station) Validate(windowCapacity int) error {
	if len(s.Tracks) == 0 {
		return ErrNoTracks
	}
	titles := make(map[string]struct{}, len(s.Tracks))
	for i, t := range s.Tracks {
		if t.DurationMs() == 0 {
			return fmt.Errorf("%w: tracks[%d] %q", ErrSilentTrack, i, t.Title)
		}
		titles[t.Title] = struct{}{}
	}
	// Tracks are told apart by title, so duplicates do not widen the pool.
	if windowCapacity >= len(titles) {
		return fmt.Errorf("%w: window %d, distinct titles %d", ErrWindowTooLarge, windowCapacity, len(titles))
	}
	return nil
}

// TotalDurationMs sums the durations of all tracks, narration excluded.
func (s *Station) TotalDurationMs() uint64 {
	var total uint64
	for _, t := range s.Tracks {
		total += t.DurationMs()
	}
	return total
}
