package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInputBuffer_None(t *testing.T) {
	b := NewInputBuffer(BufferOptions{Kind: BufferNone}, 40*time.Millisecond)
	assert.Equal(t, time.Duration(0), b.Size())
	b.Recalculate(time.Second, time.Second)
	assert.Equal(t, time.Duration(0), b.Size())
}

func TestInputBuffer_Const(t *testing.T) {
	b := NewInputBuffer(BufferOptions{Kind: BufferConst, Const: 77 * time.Millisecond}, 40*time.Millisecond)
	assert.Equal(t, 77*time.Millisecond, b.Size())
	b.Recalculate(time.Second, time.Second)
	assert.Equal(t, 77*time.Millisecond, b.Size(), "const buffer never adjusts")
}

func TestInputBuffer_ConstFallsBackToDefault(t *testing.T) {
	b := NewInputBuffer(BufferOptions{Kind: BufferConst}, 40*time.Millisecond)
	assert.Equal(t, 40*time.Millisecond, b.Size())
}

func TestInputBuffer_LatencyOptimized_GrowsWhenTooSmall(t *testing.T) {
	b := NewInputBuffer(BufferOptions{Kind: BufferLatencyOptimized}, 40*time.Millisecond)
	start := b.Size()
	// packet arrives far behind the desired window: elapsed way ahead of packetPTS+B
	b.Recalculate(0, 10*time.Second)
	assert.Greater(t, b.Size(), start)
}

func TestInputBuffer_Adaptive_OnlyGrows(t *testing.T) {
	b := NewInputBuffer(BufferOptions{Kind: BufferAdaptive}, 40*time.Millisecond)
	initial := b.Size()
	for i := 0; i < 100; i++ {
		b.Recalculate(time.Duration(i)*time.Millisecond, time.Duration(i)*time.Millisecond)
	}
	assert.GreaterOrEqual(t, b.Size(), initial)
}

func TestSaturatingSub(t *testing.T) {
	assert.Equal(t, time.Duration(0), saturatingSub(5, 10))
	assert.Equal(t, 5*time.Nanosecond, saturatingSub(10, 5))
}
