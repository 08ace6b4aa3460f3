package pcm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameAssemblerEmitsNoFramesBelowFrameSize(t *testing.T) {
	a := NewFrameAssembler(4)
	frames := a.Push([]byte{1, 2, 3})
	assert.Nil(t, frames)
}

func TestFrameAssemblerEmitsOneFrameExactMatch(t *testing.T) {
	a := NewFrameAssembler(4)
	frames := a.Push([]byte{1, 2, 3, 4})
	assert.Equal(t, [][]byte{{1, 2, 3, 4}}, frames)
}

func TestFrameAssemblerCarriesRemainderAcrossPushes(t *testing.T) {
	a := NewFrameAssembler(4)
	assert.Nil(t, a.Push([]byte{1, 2, 3}))
	frames := a.Push([]byte{4, 5, 6})
	assert.Equal(t, [][]byte{{1, 2, 3, 4}}, frames)
	// The trailing {5, 6} stays buffered for the next Push.
	frames = a.Push([]byte{7, 8})
	assert.Equal(t, [][]byte{{5, 6, 7, 8}}, frames)
}

func TestFrameAssemblerEmitsMultipleFramesFromOnePush(t *testing.T) {
	a := NewFrameAssembler(2)
	frames := a.Push([]byte{1, 2, 3, 4, 5})
	assert.Equal(t, [][]byte{{1, 2}, {3, 4}}, frames)
}

func TestFrameAssemblerIgnoresEmptyPush(t *testing.T) {
	a := NewFrameAssembler(4)
	assert.Nil(t, a.Push(nil))
	assert.Nil(t, a.Push([]byte{}))
}

func TestFrameAssemblerClampsFrameSizeBelowOne(t *testing.T) {
	a := NewFrameAssembler(0)
	frames := a.Push([]byte{1, 2})
	assert.Equal(t, [][]byte{{1}, {2}}, frames)
}

func TestFrameAssemblerReturnedFramesAreIndependentCopies(t *testing.T) {
	a := NewFrameAssembler(2)
	frames := a.Push([]byte{1, 2})
	frames[0][0] = 99
	more := a.Push([]byte{1, 2})
	assert.Equal(t, byte(1), more[0][0])
}
