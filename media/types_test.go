package media

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFramerateTickPTS(t *testing.T) {
	f := Framerate{Num: 30, Den: 1}
	assert.Equal(t, time.Duration(0), f.TickPTS(0))
	assert.Equal(t, 33333333*time.Nanosecond, f.TickPTS(1))
	assert.Equal(t, 2*33333333*time.Nanosecond, f.TickPTS(2))
}

func TestFramerateTickPTSMonotonic(t *testing.T) {
	f := Framerate{Num: 30000, Den: 1001}
	var prev time.Duration = -1
	for k := int64(0); k < 100; k++ {
		pts := f.TickPTS(k)
		assert.Greater(t, pts, prev, "tick PTS must be strictly increasing")
		prev = pts
	}
}

func TestFramerateTickInterval(t *testing.T) {
	f := Framerate{Num: 25, Den: 1}
	assert.Equal(t, 40*time.Millisecond, f.TickInterval())
}

func TestPipelineEventData(t *testing.T) {
	ev := Data(42)
	assert.False(t, ev.IsEOS())
	v, ok := ev.Value()
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestPipelineEventEOS(t *testing.T) {
	ev := EOS[int]()
	assert.True(t, ev.IsEOS())
	_, ok := ev.Value()
	assert.False(t, ok)
}

func TestOutputAudioSamplesEndPTS(t *testing.T) {
	b := OutputAudioSamples{StartPTS: 0, Samples: make([]StereoSample, 960)}
	assert.Equal(t, 20*time.Millisecond, b.EndPTS(48000))
}
