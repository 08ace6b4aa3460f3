package mixer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blitss-oss/mixengine/media"
)

// a single-input mix with gain 1.0 and SumClip equals the input,
// sample for sample, when the input never exceeds [-1,1].
func TestMix_SingleInputSumClipIsIdentity(t *testing.T) {
	in := filled(10, 0.3, -0.4)
	cfg := OutputMixConfig{Strategy: SumClip}
	out := Mix(map[media.InputID][]media.StereoSample{"a": in}, 10, cfg, nil)
	assert.Equal(t, in, out)
}

func TestMix_SumClipHardClips(t *testing.T) {
	in := filled(4, 0.9, 0.9)
	cfg := OutputMixConfig{Strategy: SumClip}
	out := Mix(map[media.InputID][]media.StereoSample{
		"a": in,
		"b": in,
	}, 4, cfg, nil)
	for _, s := range out {
		assert.Equal(t, media.StereoSample{1.0, 1.0}, s)
	}
}

// two inputs at 0.9/0.9 summed with SumScale never exceed 1.0 and the
// master gain ends below 1.0, staying within (0,1].
func TestMix_AdaptiveGainAvoidsClipping(t *testing.T) {
	n := 960
	inA := filled(n, 0.9, 0.9)
	inB := filled(n, 0.9, 0.9)
	cfg := OutputMixConfig{Strategy: SumScale}
	gain := NewMasterGain()

	out := Mix(map[media.InputID][]media.StereoSample{"a": inA, "b": inB}, n, cfg, gain)

	for _, s := range out {
		assert.LessOrEqual(t, s[0], 1.0)
		assert.GreaterOrEqual(t, s[0], -1.0)
		assert.LessOrEqual(t, s[1], 1.0)
		assert.GreaterOrEqual(t, s[1], -1.0)
	}
	assert.Less(t, gain.Value(), 1.0)
	assert.Greater(t, gain.Value(), 0.0)
}

// gain never leaves (0,1] across many adjust calls in either direction.
func TestMasterGain_StaysInRange(t *testing.T) {
	g := NewMasterGain()
	for i := 0; i < 10000; i++ {
		peak := 1.5
		if i%3 == 0 {
			peak = 0.1
		}
		g.adjust(peak)
		assert.Greater(t, g.Value(), 0.0)
		assert.LessOrEqual(t, g.Value(), 1.0)
	}
}

func TestMix_MonoAveragesStereo(t *testing.T) {
	in := []media.StereoSample{{1.0, -1.0}}
	cfg := OutputMixConfig{Strategy: SumClip, Mono: true}
	out := Mix(map[media.InputID][]media.StereoSample{"a": in}, 1, cfg, nil)
	assert.Equal(t, media.StereoSample{0, 0}, out[0])
}

func TestOutputMixConfigGainOf(t *testing.T) {
	cfg := OutputMixConfig{InputGains: map[media.InputID]float64{"a": 0.5}}
	assert.Equal(t, 0.5, cfg.GainOf("a"))
	assert.Equal(t, 1.0, cfg.GainOf("b"))
}
