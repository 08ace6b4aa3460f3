package mixer

import "github.com/blitss-oss/mixengine/media"

// Strategy selects how per-input samples are combined into an output
// sample (C3).
type Strategy int

const (
	// SumClip sums per-input samples and hard-clips to [-1,1]. No adaptive
	// gain is applied.
	SumClip Strategy = iota
	// SumScale sums per-input samples, then applies the adaptive master
	// gain compressor before clipping.
	SumScale
)

const (
	volDownThreshold = 1.0
	volUpThreshold   = 0.7
	volDownIncrement = 0.02
	volUpIncrement   = 0.01
	gainEpsilon      = 0.01
)

// OutputMixConfig is the per-output configuration consumed by the sample
// mixer: per-input gain multipliers, the combination strategy, and whether
// the output is mono (averaged) or stereo.
type OutputMixConfig struct {
	InputGains map[media.InputID]float64
	Strategy   Strategy
	Mono       bool
}

// GainOf returns the configured gain for input, defaulting to 1.0 for
// inputs with no explicit entry.
func (c OutputMixConfig) GainOf(id media.InputID) float64 {
	if g, ok := c.InputGains[id]; ok {
		return g
	}
	return 1.0
}

// MasterGain is the adaptive, slow-recovery scalar g described in C3: it
// drops fast to avoid clipping and recovers slowly once the signal settles.
// It belongs to one output and lives across calls to Mix for that output.
type MasterGain struct {
	g float64
}

// NewMasterGain starts at unity gain; g stays in (0,1] at all times.
func NewMasterGain() *MasterGain {
	return &MasterGain{g: 1.0}
}

// Value returns the current gain.
func (m *MasterGain) Value() float64 { return m.g }

// adjust updates g for one raw (pre-gain-clip) mixed sample magnitude,
// applied per sample as described in C3.
func (m *MasterGain) adjust(peak float64) {
	if peak*m.g > volDownThreshold {
		m.g -= volDownIncrement
		if m.g < gainEpsilon {
			m.g = gainEpsilon
		}
		return
	}
	if m.g < 1.0 && peak*m.g < volUpThreshold {
		m.g += volUpIncrement
		if m.g > 1.0 {
			m.g = 1.0
		}
	}
}

// Mix combines input samples (all exactly length n, as guaranteed by the
// framer) into one output batch of n samples, per cfg's strategy. gain is
// nil for SumClip (no state needed) and must be non-nil, reused across
// calls for the same output, for SumScale.
func Mix(input map[media.InputID][]media.StereoSample, n int, cfg OutputMixConfig, gain *MasterGain) []media.StereoSample {
	out := make([]media.StereoSample, n)
	for i := 0; i < n; i++ {
		var l, r float64
		for id, samples := range input {
			if i >= len(samples) {
				continue
			}
			g := cfg.GainOf(id)
			l += samples[i][0] * g
			r += samples[i][1] * g
		}

		if cfg.Strategy == SumScale && gain != nil {
			peak := absFloat(l)
			if pr := absFloat(r); pr > peak {
				peak = pr
			}
			gain.adjust(peak)
			l *= gain.g
			r *= gain.g
		}

		l = clip(l)
		r = clip(r)
		if cfg.Mono {
			avg := (l + r) / 2
			l, r = avg, avg
		}
		out[i] = media.StereoSample{l, r}
	}
	return out
}

func clip(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	if v < -1.0 {
		return -1.0
	}
	return v
}
