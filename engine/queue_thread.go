package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/blitss-oss/mixengine/media"
	"github.com/blitss-oss/mixengine/engine/mixer"
)

// internalTick is the queue thread's own wake-up period, independent of
// the output framerate or audio chunk duration (C7).
const internalTick = 10 * time.Millisecond

// eosSendTimeout bounds how long a terminal EOS send will wait for a
// stalled receiver before giving up; EOS delivery is best-effort exactly
// like any other deadlined send (EOS only needs to be sent at most once,
// not that delivery is guaranteed against a receiver that never returns).
const eosSendTimeout = 2 * time.Second

// queueThread is C7: the single-threaded cooperative loop that alternates
// scheduled-event, audio, and video emission on a 10ms wake.
type queueThread struct {
	q *Queue

	mixer *mixer.AudioMixer

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
	closed   atomic.Bool

	videoTick              int64
	audioWindowStart       time.Duration
	mixerOutputsRegistered map[media.OutputID]struct{}
	mixerInputsRegistered  map[media.InputID]struct{}
}

func newQueueThread(q *Queue) *queueThread {
	return &queueThread{
		q:                      q,
		mixer:                  mixer.New(q.opts.MixingSampleRate, q.log),
		stopCh:                 make(chan struct{}),
		doneCh:                 make(chan struct{}),
		mixerOutputsRegistered: make(map[media.OutputID]struct{}),
		mixerInputsRegistered:  make(map[media.InputID]struct{}),
	}
}

func (t *queueThread) stop() {
	t.stopOnce.Do(func() { close(t.stopCh) })
	<-t.doneCh
}

func (t *queueThread) run() {
	go t.loop()
}

func (t *queueThread) loop() {
	defer close(t.doneCh)

	ticker := time.NewTicker(internalTick)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
		}

		for {
			if t.closed.Load() {
				return
			}
			select {
			case <-t.stopCh:
				return
			default:
			}
			if !t.tick() {
				break
			}
		}
	}
}

// tick performs at most one emission (a scheduled-event bucket, an audio
// window, or a video frame set) and reports whether it made progress. The
// queue thread calls this in a loop until it returns false, then waits for
// the next internal wake (§4.7 steps 1-6).
func (t *queueThread) tick() bool {
	q := t.q

	videoPTS := q.opts.OutputFramerate.TickPTS(t.videoTick)
	audioStart := t.audioWindowStart
	audioEnd := audioStart + q.opts.AudioChunkDuration

	earliestVideoOrAudio := videoPTS
	if audioStart < earliestVideoOrAudio {
		earliestVideoOrAudio = audioStart
	}

	if eventPTS, ok := q.events.EarliestPTS(); ok && eventPTS < earliestVideoOrAudio {
		return t.runScheduledEvent()
	}

	if videoPTS > audioStart {
		if q.audio.ShouldPushForPTSRange([2]time.Duration{audioStart, audioEnd}) {
			t.emitAudio(audioStart, audioEnd)
			t.audioWindowStart = audioEnd
			return true
		}
		return false
	}

	if q.video.ShouldPushNextFrameSet(videoPTS) {
		t.emitVideo(videoPTS)
		t.videoTick++
		return true
	}
	return false
}

func (t *queueThread) runScheduledEvent() bool {
	q := t.q
	pts, callbacks, ok := q.events.PopEarliest()
	if !ok {
		return false
	}
	if pts < q.clock.Elapsed() && !q.opts.RunLateScheduledEvents {
		q.log.Debug("discarding late scheduled event", "pts", pts)
		return true
	}
	for _, cb := range callbacks {
		cb()
	}
	return true
}

func (t *queueThread) emitVideo(pts time.Duration) {
	q := t.q
	fs, required := q.video.GetFramesBatch(pts)

	q.mu.Lock()
	outs := make(map[media.OutputID]*videoOutputState, len(q.videoOutputs))
	for id, o := range q.videoOutputs {
		outs[id] = o
	}
	q.mu.Unlock()

	mustBlock := required || q.neverDropFrames.Load()

	for id, o := range outs {
		if o.reasoner.hasEnded() {
			if o.reasoner.shouldSendEOS() {
				deadlinedSend(o.cfg.Sender, media.EOS[media.FrameSet](), time.Now().Add(eosSendTimeout))
			}
			continue
		}
		if mustBlock {
			o.cfg.Sender <- media.Data(fs)
			continue
		}
		if !deadlinedSend(o.cfg.Sender, media.Data(fs), q.clock.Deadline(pts)) {
			q.log.Warn("dropped video frame set: output send deadline exceeded", "output", id, "pts", pts)
		}
	}
}

func (t *queueThread) emitAudio(start, end time.Duration) {
	q := t.q
	set, required := q.audio.PopSamplesSet([2]time.Duration{start, end})

	q.mu.Lock()
	outs := make(map[media.OutputID]*audioOutputState, len(q.audioOutputs))
	for id, o := range q.audioOutputs {
		outs[id] = o
	}
	q.mu.Unlock()

	t.syncMixerOutputs(outs)
	t.syncMixerInputs()

	mixed := t.mixer.ProcessWindow(set)

	for id, o := range outs {
		if o.reasoner.hasEnded() {
			if o.reasoner.shouldSendEOS() {
				deadlinedSend(o.cfg.Sender, media.EOS[media.OutputAudioSamples](), time.Now().Add(eosSendTimeout))
			}
			continue
		}
		batch, ok := mixed[id]
		if !ok {
			continue
		}
		mustBlock := required || q.neverDropFrames.Load()
		if mustBlock {
			o.cfg.Sender <- media.Data(batch)
			continue
		}
		if !deadlinedSend(o.cfg.Sender, media.Data(batch), q.clock.Deadline(end)) {
			q.log.Warn("dropped audio batch: output send deadline exceeded", "output", id, "window_end", end)
		}
	}
}

// syncMixerOutputs reconciles the mixer coordinator's output set with
// Queue's current audioOutputs between windows (§4.4 "dynamic output
// reconfiguration"): newly registered outputs get a fresh master gain,
// already-known outputs have their mix config updated in place so their
// accumulated gain survives a scene change, and outputs no longer present
// are dropped from the coordinator.
func (t *queueThread) syncMixerOutputs(outs map[media.OutputID]*audioOutputState) {
	for id, o := range outs {
		cfg := toMixerConfig(o.cfg.MixConfig)
		if _, known := t.mixerOutputsRegistered[id]; known {
			t.mixer.UpdateOutput(id, cfg)
			continue
		}
		t.mixer.RegisterOutput(id, cfg)
		t.mixerOutputsRegistered[id] = struct{}{}
	}
	for id := range t.mixerOutputsRegistered {
		if _, stillPresent := outs[id]; !stillPresent {
			t.mixer.UnregisterOutput(id)
			delete(t.mixerOutputsRegistered, id)
		}
	}
}

// syncMixerInputs mirrors Queue's currently registered audio inputs into
// the mixer coordinator, so a newly registered input gets resample state
// before its first window and a removed one stops being referenced.
func (t *queueThread) syncMixerInputs() {
	current := t.q.audioInputsSnapshot()
	for id, opts := range current {
		if _, known := t.mixerInputsRegistered[id]; known {
			continue
		}
		if err := t.mixer.RegisterInput(id, mixer.InputConfig{NativeRate: opts.AudioNativeRate}); err != nil {
			t.q.log.Warn("failed to register mixer input", "input", id, "error", err)
			continue
		}
		t.mixerInputsRegistered[id] = struct{}{}
	}
	for id := range t.mixerInputsRegistered {
		if _, stillPresent := current[id]; !stillPresent {
			t.mixer.UnregisterInput(id)
			delete(t.mixerInputsRegistered, id)
		}
	}
}

func toMixerConfig(c OutputMixConfigLike) mixer.OutputMixConfig {
	strategy := mixer.SumClip
	if c.Strategy == 1 {
		strategy = mixer.SumScale
	}
	return mixer.OutputMixConfig{InputGains: c.InputGains, Strategy: strategy, Mono: c.Mono}
}

// deadlinedSend attempts to deliver v before deadline, returning whether it
// was accepted. This is the sole backpressure mechanism: a stalled
// receiver causes a drop, never unbounded buffering (§5).
func deadlinedSend[T any](ch chan<- media.PipelineEvent[T], v media.PipelineEvent[T], deadline time.Time) bool {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case ch <- v:
		return true
	case <-timer.C:
		return false
	}
}
