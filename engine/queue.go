package engine

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blitss-oss/mixengine/media"
)

// InputOptions configures one registered input (§6 control surface).
type InputOptions struct {
	Required bool
	Offset   time.Duration
	Buffer   BufferOptions
	// AudioNativeRate is the input's decode-time sample rate, used to seed
	// the audio mixer's resampler for this input. Ignored for video-only
	// inputs.
	AudioNativeRate uint32
}

// VideoOutputConfig registers an output's interest in video. The sender
// receives the full per-tick FrameSet (one frame per live input); external
// render-graph code is responsible for compositing it into a single image.
type VideoOutputConfig struct {
	Sender    chan<- media.PipelineEvent[media.FrameSet]
	EOSPolicy EOSPolicy
}

// AudioOutputConfig registers an output's interest in audio.
type AudioOutputConfig struct {
	Sender    chan<- media.PipelineEvent[media.OutputAudioSamples]
	EOSPolicy EOSPolicy
	MixConfig OutputMixConfigLike
}

// OutputMixConfigLike is the engine-side form of mixer.OutputMixConfig
// carried in AudioOutputConfig; the queue thread converts it with
// toMixerConfig before handing it to the mixer coordinator it owns.
type OutputMixConfigLike struct {
	InputGains map[media.InputID]float64
	Strategy   int // 0 = SumClip, 1 = SumScale, matches mixer.Strategy
	Mono       bool
}

// Queue is the top-level control surface (§6): it wires C5/C6/C8/C10
// together behind register/unregister/schedule/start/shutdown calls. The
// actual per-tick scheduling lives in the queueThread it owns.
type Queue struct {
	opts  Options
	clock *Clock
	log   *slog.Logger

	video    *VideoQueue
	audio    *AudioQueue
	events   *ScheduledEventQueue
	thread   *queueThread

	mu             sync.Mutex
	videoOutputs   map[media.OutputID]*videoOutputState
	audioOutputs   map[media.OutputID]*audioOutputState
	registeredIns  map[media.InputID]struct{}
	audioInputCfg  map[media.InputID]InputOptions

	neverDropFrames atomic.Bool
	started         atomic.Bool
}

type videoOutputState struct {
	cfg      VideoOutputConfig
	reasoner *eosReasoner
}

type audioOutputState struct {
	cfg      AudioOutputConfig
	reasoner *eosReasoner
}

// NewQueue constructs a Queue in the Idle state. No goroutine runs until
// Start is called.
func NewQueue(opts Options, log *slog.Logger) *Queue {
	if log == nil {
		log = slog.Default()
	}
	clock := NewClock()
	q := &Queue{
		opts:          opts,
		clock:         clock,
		log:           log,
		video:         NewVideoQueue(clock, opts.AheadOfTimeProcessing, opts.StreamFallbackTimeout, log),
		audio:         NewAudioQueue(clock, opts.AheadOfTimeProcessing, log),
		events:        NewScheduledEventQueue(),
		videoOutputs:  make(map[media.OutputID]*videoOutputState),
		audioOutputs:  make(map[media.OutputID]*audioOutputState),
		registeredIns: make(map[media.InputID]struct{}),
		audioInputCfg: make(map[media.InputID]InputOptions),
	}
	q.neverDropFrames.Store(opts.NeverDropOutputFrames)
	return q
}

// RegisterInput wires an input's receivers into the video/audio queues and
// seeds its adaptive buffer. required is the logical OR of the
// caller's own flag and the process-wide never-drop-output-frames option.
func (q *Queue) RegisterInput(id media.InputID, videoRecv <-chan media.PipelineEvent[media.Frame], audioRecv <-chan media.PipelineEvent[media.InputAudioSamples], opts InputOptions) {
	required := opts.Required || q.neverDropFrames.Load()

	q.mu.Lock()
	q.registeredIns[id] = struct{}{}
	if audioRecv != nil {
		q.audioInputCfg[id] = opts
	}
	for _, o := range q.videoOutputs {
		o.reasoner.onInputAdded(id)
	}
	for _, o := range q.audioOutputs {
		o.reasoner.onInputAdded(id)
	}
	q.mu.Unlock()

	if videoRecv != nil {
		q.video.AddInput(id, videoRecv, required, opts.Offset, NewInputBuffer(opts.Buffer, q.opts.DefaultBufferDuration))
	}
	if audioRecv != nil {
		q.audio.AddInput(id, audioRecv, required, opts.Offset, NewInputBuffer(opts.Buffer, q.opts.DefaultBufferDuration))
	}
}

// UnregisterInput tears down an input's buffers and phase state and
// notifies every output's EOS reasoner that it is gone.
func (q *Queue) UnregisterInput(id media.InputID) {
	q.video.RemoveInput(id)
	q.audio.RemoveInput(id)

	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.registeredIns, id)
	delete(q.audioInputCfg, id)
	for _, o := range q.videoOutputs {
		o.reasoner.onInputRemoved(id)
	}
	for _, o := range q.audioOutputs {
		o.reasoner.onInputRemoved(id)
	}
}

// currentInputs returns a snapshot of currently registered inputs, used to
// seed a freshly registered output's EOS reasoner.
func (q *Queue) currentInputs() []media.InputID {
	ids := make([]media.InputID, 0, len(q.registeredIns))
	for id := range q.registeredIns {
		ids = append(ids, id)
	}
	return ids
}

// audioInputsSnapshot returns a copy of the currently registered audio
// inputs' options, used by the queue thread to keep the mixer
// coordinator's per-input resample state in sync.
func (q *Queue) audioInputsSnapshot() map[media.InputID]InputOptions {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make(map[media.InputID]InputOptions, len(q.audioInputCfg))
	for id, opts := range q.audioInputCfg {
		out[id] = opts
	}
	return out
}

// RegisterOutput registers video and/or audio interest for an output. The
// first tick after registration delivers the current frame/window.
func (q *Queue) RegisterOutput(id media.OutputID, video *VideoOutputConfig, audio *AudioOutputConfig) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if video != nil {
		q.videoOutputs[id] = &videoOutputState{
			cfg:      *video,
			reasoner: newEOSReasoner(video.EOSPolicy, q.currentInputs()),
		}
	}
	if audio != nil {
		q.audioOutputs[id] = &audioOutputState{
			cfg:      *audio,
			reasoner: newEOSReasoner(audio.EOSPolicy, q.currentInputs()),
		}
	}
}

// UnregisterOutput removes an output from both media queues' fan-out. No
// EOS is sent to the output's senders.
func (q *Queue) UnregisterOutput(id media.OutputID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.videoOutputs, id)
	delete(q.audioOutputs, id)
}

// UpdateOutput atomically swaps an output's audio mix configuration
// in-place (video scene updates are delivered as scheduled events and
// never touch Queue state directly).
func (q *Queue) UpdateOutput(id media.OutputID, mixCfg OutputMixConfigLike) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	o, ok := q.audioOutputs[id]
	if !ok {
		return errOutputNotRegistered(id)
	}
	o.cfg.MixConfig = mixCfg
	return nil
}

// ScheduleEvent registers callback to run once PTS pts is reached, per C8.
func (q *Queue) ScheduleEvent(pts time.Duration, callback ScheduledCallback) {
	q.events.Push(pts, callback)
}

// Start drops buffered frames and samples that are already stale and
// begins the queue thread. Tick and window PTS stay measured from the sync
// point fixed in NewQueue; Start does not record a separate start offset.
// Subsequent calls are no-ops, matching the one-shot control surface.
func (q *Queue) Start() {
	if !q.started.CompareAndSwap(false, true) {
		return
	}
	q.video.DropOldFramesBeforeStart()
	q.audio.DropOldSamplesBeforeStart()
	q.thread = newQueueThread(q)
	q.thread.run()
}

// Shutdown requests the queue thread stop; it checks the flag on every
// tick and between inner-loop emissions, then exits.
func (q *Queue) Shutdown() {
	if q.thread != nil {
		q.thread.stop()
	}
}
