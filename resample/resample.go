// Package resample adapts the third-party sample-rate converter used by
// the audio mixer coordinator to this module's stereo f64 sample
// representation. It is the "resampler external collaborator" the mixer
// treats as an opaque, per-input actor: an error from New is logged by the
// queue thread and the affected input contributes silence; it is never
// propagated into the mixer's control flow. Process has no error result.
package resample

import (
	resampler "github.com/tphakala/go-audio-resampler"

	"github.com/blitss-oss/mixengine/media"
)

// Converter resamples one input's stereo stream from its native rate to
// the engine's mixing sample rate. A Converter is owned by exactly one
// input inside the mixer coordinator and carries that input's resample
// phase across calls.
type Converter struct {
	from, to uint32
	r        *resampler.Resampler
}

// New builds a Converter for one input. It builds the underlying resampler
// even when from == to; Process then copies its input unchanged without
// calling it.
func New(from, to uint32) (*Converter, error) {
	r, err := resampler.New(resampler.Config{
		InputRate:  int(from),
		OutputRate: int(to),
		Channels:   2,
	})
	if err != nil {
		return nil, err
	}
	return &Converter{from: from, to: to, r: r}, nil
}

// Process resamples one batch of stereo samples. The returned slice may be
// shorter or longer than in depending on the rate ratio and any samples
// retained internally by the converter across calls.
func (c *Converter) Process(in []media.StereoSample) []media.StereoSample {
	if c.from == c.to {
		out := make([]media.StereoSample, len(in))
		copy(out, in)
		return out
	}

	flat := make([]float64, 0, len(in)*2)
	for _, s := range in {
		flat = append(flat, s[0], s[1])
	}

	converted := c.r.Process(flat)

	out := make([]media.StereoSample, 0, len(converted)/2)
	for i := 0; i+1 < len(converted); i += 2 {
		out = append(out, media.StereoSample{converted[i], converted[i+1]})
	}
	return out
}
