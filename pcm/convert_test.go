package pcm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blitss-oss/mixengine/media"
)

func TestDecodeEncodeStereoRoundTrip(t *testing.T) {
	samples := []media.StereoSample{{0.5, -0.5}, {0.25, 0.25}, {-1.0, 1.0}}
	raw := EncodeStereo16LE(samples)
	decoded := DecodeStereo16LE(raw)
	assert.Len(t, decoded, len(samples))
	for i := range samples {
		assert.InDelta(t, samples[i][0], decoded[i][0], 1.0/32768)
		assert.InDelta(t, samples[i][1], decoded[i][1], 1.0/32768)
	}
}

func TestDecodeMonoUpmixesLREqual(t *testing.T) {
	raw := EncodeMono16LE([]media.StereoSample{{0.5, 0.5}})
	decoded := DecodeMono16LE(raw)
	assert.Len(t, decoded, 1)
	assert.Equal(t, decoded[0][0], decoded[0][1])
}

func TestFormatFrameSizes(t *testing.T) {
	f := Format{SampleRate: 48000, Channels: 2, FrameDur: 20_000_000} // 20ms in ns
	assert.Equal(t, 960, f.FrameSamples())
	assert.Equal(t, 960*2*2, f.FrameBytes())
}
