package audio

import (
	"context"
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/rs/zerolog/log"

	"github.com/satindergrewal/airwaves/internal/pcm"
)

// SpeakerBuffer is the output latency of the local sound device.
const SpeakerBuffer = 250 * time.Millisecond

// Sink plays a RingBuffer as a beep.Streamer. The speaker pulls one sample
// per channel per frame; an empty buffer plays silence, so the device
// callback never stalls.
type Sink struct {
	buf *RingBuffer
}

// NewSink wraps buf for playback.
func NewSink(buf *RingBuffer) *Sink {
	return &Sink{buf: buf}
}

// Stream fills samples from the ring buffer. It always fills the whole
// slice and never ends.
func (s *Sink) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		samples[i][0] = float64(s.buf.Take()) / 32768.0
		samples[i][1] = float64(s.buf.Take()) / 32768.0
	}
	return len(samples), true
}

func (s *Sink) Err() error { return nil }

// Feed copies every chunk from frames into buf until ctx is cancelled or
// frames is closed.
func Feed(ctx context.Context, buf *RingBuffer, frames <-chan []int16) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			buf.PutSamples(frame)
		}
	}
}

// PlayLocal opens the default sound device and plays buf on it until ctx
// is cancelled.
func PlayLocal(ctx context.Context, buf *RingBuffer) error {
	sr := beep.SampleRate(pcm.SampleRate)
	if err := speaker.Init(sr, sr.N(SpeakerBuffer)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	speaker.Play(NewSink(buf))
	log.Info().Int("sample_rate", pcm.SampleRate).Msg("Local playback started")

	<-ctx.Done()
	speaker.Clear()
	return nil
}
