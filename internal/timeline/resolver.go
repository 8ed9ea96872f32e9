// Package timeline works out what a perpetual station is airing at any
// instant by replaying its whole broadcast from a fixed epoch. Nothing about
// playback position is stored: every listener who resolves the same instant
// gets the same answer.
package timeline

import (
	"fmt"

	"github.com/satindergrewal/airwaves/internal/station"
)

// WindowCapacity is how many recently aired tracks are barred from being
// picked again.
const WindowCapacity = 8

// replay is the mutable cursor of one resolution: the state starting at
// offset (ms since epoch), the shuffle source and the recency window.
type replay struct {
	st     *station.Station
	rng    *rng
	window *Window[*station.Track]
	state  State
	offset uint64
}

func newReplay(st *station.Station, windowCapacity int) *replay {
	return &replay{
		st:     st,
		rng:    newRNG(st.Seed),
		window: NewWindow[*station.Track](windowCapacity),
		state:  State{Kind: Silence},
	}
}

// advance moves to the state that follows the current one.
func (r *replay) advance() {
	cur := r.state
	var next State

	switch cur.Kind {
	case Silence:
		t := r.pickTrack()
		next = State{Kind: NarrationBefore, Track: t, Narration: r.pickNarration(t.NarrationBefore)}
	case NarrationBefore:
		next = State{Kind: TrackPlaying, Track: cur.Track}
	case TrackPlaying:
		n := r.pickNarration(cur.Track.NarrationAfter)
		r.window.Push(cur.Track)
		next = State{Kind: NarrationAfter, Track: cur.Track, Narration: n}
	case NarrationAfter:
		next = State{Kind: Silence}
	}

	r.offset += cur.DurationMs()
	r.state = next
}

func (r *replay) pickTrack() *station.Track {
	tracks := r.st.Tracks
	for {
		t := &tracks[r.rng.intn(len(tracks))]
		if !r.window.ContainsFunc(func(o *station.Track) bool { return t.Same(*o) }) {
			return t
		}
	}
}

func (r *replay) pickNarration(list []station.Narration) *station.Narration {
	if len(list) == 0 {
		return nil
	}
	return &list[r.rng.intn(len(list))]
}

// seek advances until the state containing elapsed (ms since epoch) is
// current. visit, if set, is called at the start of every state reached.
func (r *replay) seek(elapsed uint64, visit func(*replay)) Resolution {
	for {
		dur := r.state.DurationMs()
		if elapsed-r.offset < dur {
			return Resolution{State: r.state, ElapsedMs: elapsed - r.offset, DurationMs: dur}
		}
		r.advance()
		if visit != nil {
			visit(r)
		}
	}
}

// Resolve replays st from the epoch and reports the state on air
// elapsedMs after it. st must already have passed Station.Validate, as
// Timeline does once in New; Resolve itself only panics on a catalog too
// small for the recency window, where track selection could never finish.
func Resolve(st *station.Station, elapsedMs uint64) Resolution {
	if len(st.Tracks) <= WindowCapacity {
		panic(fmt.Sprintf("timeline: %d tracks cannot fill a recency window of %d", len(st.Tracks), WindowCapacity))
	}
	return newReplay(st, WindowCapacity).seek(elapsedMs, nil)
}
