// Package pcm holds the fixed sample format every station source uses and
// the arithmetic that converts between file sizes, offsets and durations.
package pcm

import "time"

const (
	SampleRate = 44100
	Channels   = 2
	BitDepth   = 16
	HeaderLen  = 44 // fixed WAV header in front of every source file

	// BytesPerMs truncates SampleRate/1000 first. Durations and seek offsets
	// must agree on this exact value or listeners drift apart.
	BytesPerMs = (SampleRate / 1000) * (BitDepth / 8) * Channels

	// BufferSize is one second of interleaved samples.
	BufferSize = SampleRate * Channels

	ChunkDuration = 100 * time.Millisecond
	ChunkSamples  = SampleRate / 10 * Channels // interleaved samples per chunk
	ChunkBytes    = ChunkSamples * 2
)

// DurationMs derives the playing time of a PCM file from its total size,
// header included. Files shorter than the header have no duration.
func DurationMs(sizeBytes uint64) uint64 {
	if sizeBytes < HeaderLen {
		return 0
	}
	return (sizeBytes - HeaderLen) / BytesPerMs
}

// ByteOffset is the file position at which audio ms milliseconds in begins.
func ByteOffset(ms uint64) uint64 {
	return HeaderLen + ms*BytesPerMs
}

// SamplesDuration returns how long a block of interleaved samples plays.
func SamplesDuration(samples int) time.Duration {
	frames := samples / Channels
	return time.Duration(frames) * time.Second / SampleRate
}
