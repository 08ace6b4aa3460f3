package engine

import (
	"container/heap"
	"sync"
	"time"
)

// ScheduledCallback is a cheap, non-blocking callback tied to an output PTS.
// It runs synchronously on the queue thread.
type ScheduledCallback func()

// scheduledBucket groups every callback registered for the exact same PTS,
// mirroring the BTreeMap<Duration, Vec<Callback>> grouping in the design:
// a single pop delivers all callbacks due at that instant together.
type scheduledBucket struct {
	pts       time.Duration
	callbacks []ScheduledCallback
	index     int // heap.Interface bookkeeping
}

type bucketHeap []*scheduledBucket

func (h bucketHeap) Len() int            { return len(h) }
func (h bucketHeap) Less(i, j int) bool  { return h[i].pts < h[j].pts }
func (h bucketHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *bucketHeap) Push(x any) {
	b := x.(*scheduledBucket)
	b.index = len(*h)
	*h = append(*h, b)
}
func (h *bucketHeap) Pop() any {
	old := *h
	n := len(old)
	b := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return b
}

// ScheduledEventQueue is the priority queue of PTS-tied callbacks (C8).
// Insertions are safe to call concurrently with the queue thread; popping is
// intended to be single-threaded (driven from the queue thread only).
type ScheduledEventQueue struct {
	mu      sync.Mutex
	heap    bucketHeap
	byPTS   map[time.Duration]*scheduledBucket
}

// NewScheduledEventQueue constructs an empty queue.
func NewScheduledEventQueue() *ScheduledEventQueue {
	q := &ScheduledEventQueue{byPTS: make(map[time.Duration]*scheduledBucket)}
	heap.Init(&q.heap)
	return q
}

// Push registers callback to run once PTS pts is reached.
func (q *ScheduledEventQueue) Push(pts time.Duration, callback ScheduledCallback) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if b, ok := q.byPTS[pts]; ok {
		b.callbacks = append(b.callbacks, callback)
		return
	}
	b := &scheduledBucket{pts: pts, callbacks: []ScheduledCallback{callback}}
	q.byPTS[pts] = b
	heap.Push(&q.heap, b)
}

// EarliestPTS returns the PTS of the earliest pending bucket, if any.
func (q *ScheduledEventQueue) EarliestPTS() (time.Duration, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.heap) == 0 {
		return 0, false
	}
	return q.heap[0].pts, true
}

// PopEarliest removes and returns the callbacks registered for the earliest
// pending PTS, along with that PTS. ok is false if the queue is empty.
func (q *ScheduledEventQueue) PopEarliest() (pts time.Duration, callbacks []ScheduledCallback, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.heap) == 0 {
		return 0, nil, false
	}
	b := heap.Pop(&q.heap).(*scheduledBucket)
	delete(q.byPTS, b.pts)
	return b.pts, b.callbacks, true
}
