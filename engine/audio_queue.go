package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gammazero/deque"

	"github.com/blitss-oss/mixengine/media"
)

// audioQueueInput holds the ordered batch buffer and draining state for one
// audio input, symmetric to videoQueueInput (C6).
type audioQueueInput struct {
	buf      deque.Deque[media.InputAudioSamples]
	receiver <-chan media.PipelineEvent[media.InputAudioSamples]
	required bool
	offset   time.Duration
	inBuf    InputBuffer

	eosReceived bool
}

// AudioQueue is C6: per-input sample-batch buffers with window-based
// selection, symmetric to the video queue but operating on
// [start, end) windows instead of single ticks.
type AudioQueue struct {
	mu                    sync.Mutex
	clock                 *Clock
	aheadOfTimeProcessing bool
	log                   *slog.Logger

	inputs map[media.InputID]*audioQueueInput
}

// NewAudioQueue constructs an empty audio queue.
func NewAudioQueue(clock *Clock, aheadOfTimeProcessing bool, log *slog.Logger) *AudioQueue {
	if log == nil {
		log = slog.Default()
	}
	return &AudioQueue{
		clock:                 clock,
		aheadOfTimeProcessing: aheadOfTimeProcessing,
		log:                   log,
		inputs:                make(map[media.InputID]*audioQueueInput),
	}
}

// AddInput registers an audio input.
func (q *AudioQueue) AddInput(id media.InputID, receiver <-chan media.PipelineEvent[media.InputAudioSamples], required bool, offset time.Duration, buf InputBuffer) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.inputs[id] = &audioQueueInput{
		receiver: receiver,
		required: required,
		offset:   offset,
		inBuf:    buf,
	}
}

// RemoveInput unregisters an audio input.
func (q *AudioQueue) RemoveInput(id media.InputID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inputs, id)
}

func (q *AudioQueue) drainNonBlocking(in *audioQueueInput) {
	for {
		select {
		case ev, ok := <-in.receiver:
			if !ok {
				in.eosReceived = true
				return
			}
			batch, isData := ev.Value()
			if !isData {
				in.eosReceived = true
				return
			}
			in.inBuf.Recalculate(batch.StartPTS, q.clock.Elapsed())
			shift := in.offset + in.inBuf.Size()
			batch.StartPTS += shift
			batch.EndPTS += shift
			in.buf.PushBack(batch)
		default:
			return
		}
	}
}

// hasAllSamplesFor reports whether the buffered batches cover the window up
// to windowEnd: the back of the buffer reaches at least windowEnd.
func hasAllSamplesFor(buf *deque.Deque[media.InputAudioSamples], windowEnd time.Duration) bool {
	if buf.Len() == 0 {
		return false
	}
	return buf.Back().EndPTS >= windowEnd
}

// isReadyForWindow drains whatever is available and reports whether the
// input is covered through windowEnd, or has ended.
func (q *AudioQueue) isReadyForWindow(in *audioQueueInput, windowEnd time.Duration) bool {
	if in.eosReceived {
		return true
	}
	for !hasAllSamplesFor(&in.buf, windowEnd) {
		before := in.buf.Len()
		q.drainNonBlocking(in)
		if in.eosReceived {
			return true
		}
		if in.buf.Len() == before {
			return false
		}
	}
	return true
}

// ShouldPushForPTSRange mirrors the video queue's readiness rule over a
// [start,end) window instead of a single tick.
func (q *AudioQueue) ShouldPushForPTSRange(window [2]time.Duration) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.aheadOfTimeProcessing && q.clock.SyncPoint().Add(window[0]).After(time.Now()) {
		return false
	}

	allReady := true
	for _, in := range q.inputs {
		if !q.isReadyForWindow(in, window[1]) {
			allReady = false
		}
	}
	if allReady {
		return true
	}

	for _, in := range q.inputs {
		if in.required && !q.isReadyForWindow(in, window[1]) {
			return false
		}
	}

	if q.clock.SyncPoint().Add(window[0]).Before(time.Now()) {
		q.log.Debug("pushing audio samples while some inputs are not ready", "window_start", window[0])
		return true
	}
	return false
}

// PopSamplesSet collects, per input, the batches overlapping the window and
// removes whichever batches end entirely before the window closes. Batches
// that only partially overlap are retained for the next window (every
// batch is handed out but only consumed once its tail clears the window).
func (q *AudioQueue) PopSamplesSet(window [2]time.Duration) (media.InputSamplesSet, bool /*required*/) {
	q.mu.Lock()
	defer q.mu.Unlock()

	start, end := window[0], window[1]
	set := media.InputSamplesSet{StartPTS: start, EndPTS: end, Samples: make(map[media.InputID][]media.InputAudioSamples, len(q.inputs))}
	required := false

	for id, in := range q.inputs {
		q.drainNonBlocking(in)
		required = required || in.required

		var batches []media.InputAudioSamples
		for i := 0; i < in.buf.Len(); i++ {
			b := in.buf.At(i)
			if b.StartPTS <= end && b.EndPTS >= start {
				batches = append(batches, b.Clone())
			}
		}
		set.Samples[id] = batches

		for in.buf.Len() > 0 && in.buf.Front().EndPTS <= end {
			in.buf.PopFront()
		}
	}
	return set, required
}

// DropOldSamplesBeforeStart discards batches already stale relative to a
// queue start happening "now".
func (q *AudioQueue) DropOldSamplesBeforeStart() {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clock.Elapsed()
	for _, in := range q.inputs {
		q.drainNonBlocking(in)
		for in.buf.Len() > 0 && in.buf.Front().EndPTS < now {
			in.buf.PopFront()
		}
	}
}
