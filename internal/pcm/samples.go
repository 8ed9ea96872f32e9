package pcm

import "encoding/binary"

// SamplesToBytes converts int16 samples to little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

// BytesToSamples decodes little-endian int16 samples. A trailing odd byte
// is ignored.
func BytesToSamples(buf []byte) []int16 {
	samples := make([]int16, len(buf)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(buf[i*2 : i*2+2]))
	}
	return samples
}

// StreamingHeader builds a WAV header for a stream of unknown length: the
// RIFF and data chunk sizes are set to 0xFFFFFFFF.
func StreamingHeader() []byte {
	const blockAlign = Channels * (BitDepth / 8)
	const byteRate = SampleRate * blockAlign

	h := make([]byte, HeaderLen)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], 0xFFFFFFFF)
	copy(h[8:12], "WAVE")

	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(h[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(h[22:24], Channels)
	binary.LittleEndian.PutUint32(h[24:28], SampleRate)
	binary.LittleEndian.PutUint32(h[28:32], byteRate)
	binary.LittleEndian.PutUint16(h[32:34], blockAlign)
	binary.LittleEndian.PutUint16(h[34:36], BitDepth)

	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], 0xFFFFFFFF)
	return h
}
