package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gammazero/deque"

	"github.com/blitss-oss/mixengine/media"
)

// videoQueueInput holds everything the video queue owns for one input: its
// ordered frame buffer, the channel it is fed from, and its adaptive buffer
// state. The queue is the sole owner of this state (§3 Ownership).
type videoQueueInput struct {
	buf      deque.Deque[media.Frame]
	receiver <-chan media.PipelineEvent[media.Frame]
	required bool
	offset   time.Duration
	inBuf    InputBuffer

	eosReceived bool
}

// VideoQueue is C5: per-input frame buffers with nearest-frame selection
// for each output tick.
type VideoQueue struct {
	mu                    sync.Mutex
	clock                 *Clock
	aheadOfTimeProcessing bool
	fallbackTimeout       time.Duration
	log                   *slog.Logger

	inputs map[media.InputID]*videoQueueInput
}

// NewVideoQueue constructs an empty video queue.
func NewVideoQueue(clock *Clock, aheadOfTimeProcessing bool, fallbackTimeout time.Duration, log *slog.Logger) *VideoQueue {
	if log == nil {
		log = slog.Default()
	}
	return &VideoQueue{
		clock:                 clock,
		aheadOfTimeProcessing: aheadOfTimeProcessing,
		fallbackTimeout:       fallbackTimeout,
		log:                   log,
		inputs:                make(map[media.InputID]*videoQueueInput),
	}
}

// AddInput registers a video input. offset shifts every incoming frame's
// effective PTS on top of buf's current size; buf is applied as given, and
// a non-zero offset does not switch it off.
func (q *VideoQueue) AddInput(id media.InputID, receiver <-chan media.PipelineEvent[media.Frame], required bool, offset time.Duration, buf InputBuffer) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.inputs[id] = &videoQueueInput{
		receiver: receiver,
		required: required,
		offset:   offset,
		inBuf:    buf,
	}
}

// RemoveInput unregisters a video input; its buffer and phase state are
// discarded immediately.
func (q *VideoQueue) RemoveInput(id media.InputID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inputs, id)
}

// drainNonBlocking pulls every frame currently available on the input's
// channel into its buffer, applying the adaptive buffer and offset to
// compute each frame's effective PTS.
func (q *VideoQueue) drainNonBlocking(in *videoQueueInput) {
	for {
		select {
		case ev, ok := <-in.receiver:
			if !ok {
				in.eosReceived = true
				return
			}
			frame, isData := ev.Value()
			if !isData {
				in.eosReceived = true
				return
			}
			in.inBuf.Recalculate(frame.PTS, q.clock.Elapsed())
			frame.PTS = frame.PTS + in.offset + in.inBuf.Size()
			in.buf.PushBack(frame)
		default:
			return
		}
	}
}

// isReady reports whether input has a usable frame for tick t: either a
// buffered frame with PTS >= t, or the input has ended.
func (q *VideoQueue) isReady(in *videoQueueInput, t time.Duration) bool {
	q.drainNonBlocking(in)
	if in.eosReceived {
		return true
	}
	for i := 0; i < in.buf.Len(); i++ {
		if in.buf.At(i).PTS >= t {
			return true
		}
	}
	return false
}

// ShouldPushNextFrameSet implements the readiness rule from §4.5: ready
// when every input is ready, or when wall-clock has reached
// sync_point+t and every required input is ready.
func (q *VideoQueue) ShouldPushNextFrameSet(t time.Duration) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.aheadOfTimeProcessing && q.clock.SyncPoint().Add(t).After(time.Now()) {
		return false
	}

	allReady := true
	for _, in := range q.inputs {
		if !q.isReady(in, t) {
			allReady = false
		}
	}
	if allReady {
		return true
	}

	for _, in := range q.inputs {
		if in.required && !q.isReady(in, t) {
			return false
		}
	}

	if q.clock.SyncPoint().Add(t).After(time.Now()) {
		return false
	}
	q.log.Debug("pushing video frames while some optional inputs are not ready", "pts", t)
	return true
}

// GetFramesBatch selects, for every input, the frame whose PTS is closest
// to t without exceeding it, drops any older frames from the buffer front
// as newer ones arrive, and clones the chosen frame into the FrameSet. The
// chosen frame is never removed — it may serve subsequent ticks if no
// newer frame arrives. The second return value reports whether any
// required input is registered on this queue, mirroring
// AudioQueue.PopSamplesSet's (set, required) shape so the caller can apply
// the same required-OR-never-drop delivery rule to video as to audio.
func (q *VideoQueue) GetFramesBatch(t time.Duration) (media.FrameSet, bool /*required*/) {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := media.FrameSet{PTS: t, Frames: make(map[media.InputID]media.Frame, len(q.inputs))}
	required := false
	for id, in := range q.inputs {
		q.drainNonBlocking(in)
		required = required || in.required

		// Drop frames older than the fallback timeout relative to t.
		for in.buf.Len() > 0 && t-in.buf.Front().PTS > q.fallbackTimeout {
			in.buf.PopFront()
		}

		// Advance the front of the buffer while the *next* frame is still
		// no newer than t, so the front holds the frame chosen for t.
		for in.buf.Len() > 1 && in.buf.At(1).PTS <= t {
			in.buf.PopFront()
		}

		if in.buf.Len() == 0 {
			continue
		}
		front := in.buf.Front()
		if front.PTS > t {
			// No frame old enough yet for this tick; nothing to contribute.
			continue
		}
		out.Frames[id] = front
	}
	return out, required
}

// DropOldFramesBeforeStart discards frames that are already stale relative
// to a queue start happening "now" — called once by Queue.Start, before the
// queue thread begins.
func (q *VideoQueue) DropOldFramesBeforeStart() {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clock.Elapsed()
	for _, in := range q.inputs {
		q.drainNonBlocking(in)
		for in.buf.Len() > 0 && now-in.buf.Front().PTS > q.fallbackTimeout {
			in.buf.PopFront()
		}
	}
}
