// Package pcm holds small, self-contained adapters for the decode/encode
// boundary the engine sits behind: converting raw interleaved PCM16LE
// byte streams to and from the engine's stereo f64 sample representation,
// assembling arbitrary byte chunks into fixed-size frames, and pacing a
// downstream sink that wants fixed-size output with drift correction
// rather than exact-length batches.
package pcm

import "time"

// Format describes one input or output's raw PCM16LE framing: its sample
// rate, channel count, and the frame duration a decoder/encoder actor
// naturally produces or consumes.
type Format struct {
	SampleRate int
	Channels   int
	FrameDur   time.Duration
}

// FrameSamples returns how many per-channel samples make up one frame at
// this format's rate and duration.
func (f Format) FrameSamples() int {
	sr := f.SampleRate
	if sr < 1 {
		sr = 1
	}
	return int(float64(sr) * f.FrameDur.Seconds())
}

// FrameBytes returns the byte size of one frame: 2 bytes per sample per
// channel (PCM16LE).
func (f Format) FrameBytes() int {
	ch := f.Channels
	if ch < 1 {
		ch = 1
	}
	return f.FrameSamples() * ch * 2
}
