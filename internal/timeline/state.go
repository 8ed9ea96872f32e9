package timeline

import (
	"fmt"

	"github.com/satindergrewal/airwaves/internal/station"
)

// SilenceMs is the gap aired between the end of one track's block and the
// start of the next.
const SilenceMs = 200

// Kind tags which of the four program states a State is.
type Kind int

const (
	Silence Kind = iota
	NarrationBefore
	TrackPlaying
	NarrationAfter
)

func (k Kind) String() string {
	switch k {
	case Silence:
		return "silence"
	case NarrationBefore:
		return "narration_before"
	case TrackPlaying:
		return "track"
	case NarrationAfter:
		return "narration_after"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// State is one segment of the broadcast. Track is the imminent track for
// NarrationBefore, the airing track for TrackPlaying and the previous track
// for NarrationAfter; it is nil for Silence. Narration is nil when no clip
// was chosen. Both point into the shared, read-only Station.
type State struct {
	Kind      Kind
	Track     *station.Track
	Narration *station.Narration
}

// DurationMs is how long the state stays on air.
func (s State) DurationMs() uint64 {
	switch s.Kind {
	case Silence:
		return SilenceMs
	case NarrationBefore, NarrationAfter:
		if s.Narration == nil {
			return 0
		}
		return s.Narration.DurationMs()
	case TrackPlaying:
		return s.Track.DurationMs()
	}
	return 0
}

// Sound returns the file backing this state, or nil when the state airs
// silence or nothing at all.
func (s State) Sound() station.Sound {
	switch s.Kind {
	case NarrationBefore, NarrationAfter:
		if s.Narration != nil {
			return *s.Narration
		}
	case TrackPlaying:
		return *s.Track
	}
	return nil
}

// Title is the display title: the track a state belongs to, or empty.
func (s State) Title() string {
	if s.Track == nil {
		return ""
	}
	return s.Track.Title
}

// Caption is the chosen narration's text, or empty.
func (s State) Caption() string {
	if s.Narration == nil {
		return ""
	}
	return s.Narration.Content
}

// Same reports whether two states describe the same segment content.
func (s State) Same(o State) bool {
	return s.Kind == o.Kind && s.Track == o.Track && s.Narration == o.Narration
}

func (s State) String() string {
	switch s.Kind {
	case Silence:
		return fmt.Sprintf("Silence[%d ms]", SilenceMs)
	case TrackPlaying:
		return fmt.Sprintf("Track[%s, %d ms]", s.Track.Title, s.DurationMs())
	default:
		return fmt.Sprintf("%s[%d ms]: %s", s.Kind, s.DurationMs(), s.Caption())
	}
}

// Resolution is what is on air at a given instant.
type Resolution struct {
	State      State
	ElapsedMs  uint64 // offset into State
	DurationMs uint64 // State's total length
}

// RemainingMs is the time left until the next state begins.
func (r Resolution) RemainingMs() uint64 {
	return r.DurationMs - r.ElapsedMs
}
