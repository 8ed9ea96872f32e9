package audio

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/satindergrewal/airwaves/internal/pcm"
	"github.com/satindergrewal/airwaves/internal/station"
	"github.com/satindergrewal/airwaves/internal/timeline"
)

// RetryDelay is how long the producer waits after a source fails before
// resolving the timeline again.
const RetryDelay = time.Second

// OnAirFunc is called each time a new segment goes on air.
type OnAirFunc func(state timeline.State, at time.Time)

// Pipeline is the producer side of the station: it asks the timeline what
// should be airing, reads that source from the right offset and emits
// 100ms PCM chunks at real-time rate.
type Pipeline struct {
	tl      *timeline.Timeline
	frameCh chan []int16
	onAir   []OnAirFunc

	// wait paces the loop; swapped out in tests.
	wait func(ctx context.Context, d time.Duration) bool

	mu            sync.RWMutex
	current       timeline.State
	trackPosition time.Duration
	trackDuration time.Duration
}

// NewPipeline creates a producer for tl.
func NewPipeline(tl *timeline.Timeline) *Pipeline {
	return &Pipeline{
		tl:      tl,
		frameCh: make(chan []int16, 16),
		wait:    sleepCtx,
	}
}

// Frames returns the channel of outgoing PCM chunks.
func (p *Pipeline) Frames() <-chan []int16 {
	return p.frameCh
}

// OnAir registers fn to be told about every new segment. Call before Run.
func (p *Pipeline) OnAir(fn OnAirFunc) {
	p.onAir = append(p.onAir, fn)
}

// Status returns what is airing and how far into it the producer is.
func (p *Pipeline) Status() (state timeline.State, position, duration time.Duration) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current, p.trackPosition, p.trackDuration
}

// Run produces audio until ctx is cancelled. Source errors are logged and
// the timeline is resolved again after RetryDelay.
func (p *Pipeline) Run(ctx context.Context) {
	defer close(p.frameCh)

	started := false
	for ctx.Err() == nil {
		now := p.tl.Time()
		res := p.tl.At(now)

		if !started || !res.State.Same(p.currentState()) {
			started = true
			p.announce(res, now)
		}
		p.setState(res)

		var err error
		if snd := res.State.Sound(); snd != nil {
			err = p.playSound(ctx, snd, res.ElapsedMs, now)
		} else {
			err = p.playSilence(ctx, res, now)
		}
		if err != nil {
			log.Error().Err(err).Stringer("state", res.State).Msg("Playback failed, re-resolving")
			if !p.wait(ctx, RetryDelay) {
				return
			}
		}
	}
}

func (p *Pipeline) announce(res timeline.Resolution, now time.Time) {
	s := res.State
	switch s.Kind {
	case timeline.TrackPlaying:
		log.Info().Str("title", s.Track.Title).Uint64("duration_ms", res.DurationMs).
			Uint64("offset_ms", res.ElapsedMs).Msg("Now playing")
	case timeline.NarrationBefore, timeline.NarrationAfter:
		log.Info().Str("kind", s.Kind.String()).Str("track", s.Track.Title).
			Str("narration", s.Caption()).Msg("Narration")
	default:
		log.Debug().Uint64("duration_ms", res.DurationMs).Msg("Silence")
	}

	at := now.Add(-time.Duration(res.ElapsedMs) * time.Millisecond)
	for _, fn := range p.onAir {
		fn(s, at)
	}
}

// playSound streams snd from startMs to end of file. resolvedAt is the
// instant startMs was resolved for; chunk n is due at resolvedAt plus the
// audio already sent, so time spent reading never accumulates as lag.
func (p *Pipeline) playSound(ctx context.Context, snd station.Sound, startMs uint64, resolvedAt time.Time) error {
	f, err := os.Open(snd.Path())
	if err != nil {
		return fmt.Errorf("open %s: %w", snd.Path(), err)
	}
	defer f.Close()

	if _, err := f.Seek(int64(pcm.ByteOffset(startMs)), io.SeekStart); err != nil {
		return fmt.Errorf("seek %s: %w", snd.Path(), err)
	}

	start := time.Duration(startMs) * time.Millisecond
	pos := start
	buf := make([]byte, pcm.ChunkBytes)
	streamed := false
	for {
		n, err := io.ReadFull(f, buf)
		if n > 1 {
			streamed = true
			chunk := pcm.BytesToSamples(buf[:n])
			if !p.send(ctx, chunk) {
				return nil
			}
			pos += pcm.SamplesDuration(len(chunk))
			p.updatePosition(pos)
			if !p.pace(ctx, resolvedAt.Add(pos-start)) {
				return nil
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			if !streamed {
				// Shorter than its catalog size; replaying would spin.
				return fmt.Errorf("%s: no audio at %d ms", snd.Path(), startMs)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", snd.Path(), err)
		}
	}
}

// playSilence emits zeroed chunks for the rest of the state so network
// listeners keep receiving a continuous stream.
func (p *Pipeline) playSilence(ctx context.Context, res timeline.Resolution, resolvedAt time.Time) error {
	remaining := int(res.RemainingMs()) * pcm.SampleRate / 1000 * pcm.Channels
	start := time.Duration(res.ElapsedMs) * time.Millisecond
	pos := start
	for remaining > 0 {
		n := min(remaining, pcm.ChunkSamples)
		if !p.send(ctx, make([]int16, n)) {
			return nil
		}
		remaining -= n
		pos += pcm.SamplesDuration(n)
		p.updatePosition(pos)
		if !p.pace(ctx, resolvedAt.Add(pos-start)) {
			return nil
		}
	}
	return nil
}

// pace waits until due on the timeline's clock. A producer already past due
// carries on at once.
func (p *Pipeline) pace(ctx context.Context, due time.Time) bool {
	d := due.Sub(p.tl.Time())
	if d <= 0 {
		return ctx.Err() == nil
	}
	return p.wait(ctx, d)
}

func (p *Pipeline) send(ctx context.Context, chunk []int16) bool {
	select {
	case p.frameCh <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *Pipeline) currentState() timeline.State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

func (p *Pipeline) setState(res timeline.Resolution) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = res.State
	p.trackPosition = time.Duration(res.ElapsedMs) * time.Millisecond
	p.trackDuration = time.Duration(res.DurationMs) * time.Millisecond
}

func (p *Pipeline) updatePosition(pos time.Duration) {
	p.mu.Lock()
	p.trackPosition = pos
	p.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
