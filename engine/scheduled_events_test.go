package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Scheduled events pop in strictly ascending PTS order.
func TestScheduledEventQueue_AscendingOrder(t *testing.T) {
	q := NewScheduledEventQueue()
	q.Push(30*time.Millisecond, func() {})
	q.Push(10*time.Millisecond, func() {})
	q.Push(20*time.Millisecond, func() {})

	var order []time.Duration
	for {
		pts, _, ok := q.PopEarliest()
		if !ok {
			break
		}
		order = append(order, pts)
	}
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond}, order)
}

func TestScheduledEventQueue_GroupsSamePTS(t *testing.T) {
	q := NewScheduledEventQueue()
	var ran []int
	q.Push(5*time.Millisecond, func() { ran = append(ran, 1) })
	q.Push(5*time.Millisecond, func() { ran = append(ran, 2) })

	pts, callbacks, ok := q.PopEarliest()
	assert.True(t, ok)
	assert.Equal(t, 5*time.Millisecond, pts)
	assert.Len(t, callbacks, 2)
	for _, cb := range callbacks {
		cb()
	}
	assert.Equal(t, []int{1, 2}, ran)
}

func TestScheduledEventQueue_EmptyReturnsFalse(t *testing.T) {
	q := NewScheduledEventQueue()
	_, _, ok := q.PopEarliest()
	assert.False(t, ok)
	_, ok = q.EarliestPTS()
	assert.False(t, ok)
}
