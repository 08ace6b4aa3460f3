package pcm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlayoutBufferReadIntoUnderflow(t *testing.T) {
	b := NewPlayoutBuffer(4)
	dst := make([]StereoSample, 4)
	ok := b.ReadInto(dst)
	assert.False(t, ok)
	for _, s := range dst {
		assert.Equal(t, StereoSample{}, s)
	}
}

func TestPlayoutBufferWriteThenReadExact(t *testing.T) {
	b := NewPlayoutBuffer(4)
	written := []StereoSample{{1, 1}, {2, 2}, {3, 3}, {4, 4}}
	b.Write(written)
	dst := make([]StereoSample, 4)
	ok := b.ReadInto(dst)
	assert.True(t, ok)
	assert.Equal(t, written, dst)
	assert.Equal(t, 0, b.LenSamples())
}

func TestPlayoutBufferAdjustDropsOneSample(t *testing.T) {
	b := NewPlayoutBuffer(4)
	written := make([]StereoSample, 5)
	for i := range written {
		written[i] = StereoSample{float64(i), float64(i)}
	}
	b.Write(written)
	dst := make([]StereoSample, 4)
	ok := b.ReadIntoAdjust(dst, 1)
	assert.True(t, ok)
	assert.Equal(t, 0, b.LenSamples())
}

func TestPlayoutBufferAdjustDuplicatesOneSample(t *testing.T) {
	b := NewPlayoutBuffer(4)
	written := make([]StereoSample, 3)
	for i := range written {
		written[i] = StereoSample{float64(i), float64(i)}
	}
	b.Write(written)
	dst := make([]StereoSample, 4)
	ok := b.ReadIntoAdjust(dst, -1)
	assert.True(t, ok)
}

func TestPlayoutBufferDropSamples(t *testing.T) {
	b := NewPlayoutBuffer(4)
	b.Write(make([]StereoSample, 10))
	n := b.DropSamples(3)
	assert.Equal(t, 3, n)
	assert.Equal(t, 7, b.LenSamples())
}
