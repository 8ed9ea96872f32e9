package stream

// chunkStreamer exposes a listener's interleaved int16 chunks as a
// beep.Streamer so they can run through beep's resampler.
type chunkStreamer struct {
	listener *Listener
	pending  []int16
}

func newChunkStreamer(l *Listener) *chunkStreamer {
	return &chunkStreamer{listener: l}
}

// Stream blocks until samples is full or the listener goes away.
func (c *chunkStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	for n < len(samples) {
		if len(c.pending) < 2 {
			select {
			case chunk, open := <-c.listener.C:
				if !open {
					return n, n > 0
				}
				c.pending = chunk
			case <-c.listener.done:
				return n, n > 0
			}
			continue
		}
		samples[n][0] = float64(c.pending[0]) / 32768.0
		samples[n][1] = float64(c.pending[1]) / 32768.0
		c.pending = c.pending[2:]
		n++
	}
	return n, true
}

func (c *chunkStreamer) Err() error { return nil }

// floatToSamples converts beep stereo frames back to interleaved int16,
// clipping to range.
func floatToSamples(frames [][2]float64, out []int16) {
	for i, f := range frames {
		out[2*i] = toInt16(f[0])
		out[2*i+1] = toInt16(f[1])
	}
}

func toInt16(v float64) int16 {
	s := v * 32768.0
	if s > 32767 {
		return 32767
	}
	if s < -32768 {
		return -32768
	}
	return int16(s)
}
