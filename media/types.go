// Package media holds the wire-level data model shared by the queue and the
// audio mixer: identifiers, the PTS-rational framerate, frames, sample
// batches, and the tagged Data|EOS event that crosses every channel
// boundary. It has no behavior of its own — just the vocabulary the rest of
// the module is built from.
package media

import "time"

// InputID identifies a registered input. It is never reused after the input
// is unregistered.
type InputID string

// OutputID identifies a registered output. It is never reused after the
// output is unregistered.
type OutputID string

// Framerate is a rational output cadence, e.g. {30, 1} or {30000, 1001}.
type Framerate struct {
	Num int64
	Den int64
}

// TickInterval returns the wall-clock duration between consecutive output
// ticks, truncated to nanosecond resolution like everything else in the
// engine.
func (f Framerate) TickInterval() time.Duration {
	return time.Duration(f.Den * int64(time.Second) / f.Num)
}

// TickPTS returns the PTS of output tick k: k*den/num seconds, computed with
// integer nanosecond arithmetic so that the sequence is reproducible and
// strictly increasing.
func (f Framerate) TickPTS(k int64) time.Duration {
	return time.Duration(k * f.Den * int64(time.Second) / f.Num)
}

// eventKind discriminates PipelineEvent without exposing a nil-able "no
// payload" zero value for the EOS case.
type eventKind uint8

const (
	eventData eventKind = iota
	eventEOS
)

// PipelineEvent is the tagged Data|EOS sum that crosses every channel
// boundary in the pipeline. EOS is a terminator, never a retry signal: once
// observed on a channel no further events are expected on it.
type PipelineEvent[T any] struct {
	kind eventKind
	data T
}

// Data wraps a payload as a PipelineEvent.
func Data[T any](v T) PipelineEvent[T] { return PipelineEvent[T]{kind: eventData, data: v} }

// EOS constructs the end-of-stream sentinel for T.
func EOS[T any]() PipelineEvent[T] { return PipelineEvent[T]{kind: eventEOS} }

// IsEOS reports whether the event is the end-of-stream sentinel.
func (e PipelineEvent[T]) IsEOS() bool { return e.kind == eventEOS }

// Value returns the payload and true, or the zero value and false if the
// event is EOS.
func (e PipelineEvent[T]) Value() (T, bool) { return e.data, e.kind == eventData }

// Resolution is a frame's pixel dimensions.
type Resolution struct {
	Width  int
	Height int
}

// Frame is a single decoded video frame. Data holds one of the pixel
// formats external decoders may produce (planar YUV420/422/444, NV12,
// interleaved UYVY/YUYV, or a GPU texture handle) — the engine treats it as
// an opaque payload and only ever clones the Frame value, never its pixels.
type Frame struct {
	PTS        time.Duration
	Resolution Resolution
	Data       any
}

// FrameSet is the per-tick bundle of one frame per input, keyed by input.
// Inputs without live data at this PTS (below the fallback timeout, or with
// no data at all) are simply absent from the map.
type FrameSet struct {
	PTS    time.Duration
	Frames map[InputID]Frame
}

// StereoSample is one (left, right) sample pair. Internally every audio
// sample, mono or stereo, is represented this way (mono inputs are upmixed
// L==R at the decode boundary); f64 in [-1.0, 1.0] throughout the mixer.
type StereoSample [2]float64

// InputAudioSamples is a contiguous batch of samples decoded from a single
// input, covering [StartPTS, EndPTS).
type InputAudioSamples struct {
	StartPTS time.Duration
	EndPTS   time.Duration
	Samples  []StereoSample
}

// Clone returns a deep copy, used by the audio queue when handing a
// buffered batch out to more than one consumer.
func (s InputAudioSamples) Clone() InputAudioSamples {
	out := InputAudioSamples{StartPTS: s.StartPTS, EndPTS: s.EndPTS}
	out.Samples = append([]StereoSample(nil), s.Samples...)
	return out
}

// OutputAudioSamples is a contiguous, mixed batch ready for an output sink.
// Consecutive batches on the same output satisfy the second's StartPTS
// equal to the first's EndPTS exactly; EndPTS is derived, not stored independently, to make that
// invariant unbreakable by construction.
type OutputAudioSamples struct {
	StartPTS time.Duration
	Samples  []StereoSample
}

// EndPTS derives the batch's end time from its sample count and rate.
func (o OutputAudioSamples) EndPTS(sampleRate uint32) time.Duration {
	return o.StartPTS + time.Duration(int64(len(o.Samples))*int64(time.Second)/int64(sampleRate))
}

// InputSamplesSet is the per-window fan-in handed to the audio mixer: one
// batch list per input (already trimmed to roughly [StartPTS, EndPTS) by the
// audio queue) plus the window itself.
type InputSamplesSet struct {
	StartPTS time.Duration
	EndPTS   time.Duration
	Samples  map[InputID][]InputAudioSamples
}

// OutputSamplesSet is the per-window fan-out: one mixed batch per registered
// output.
type OutputSamplesSet map[OutputID]OutputAudioSamples
