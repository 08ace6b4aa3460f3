package mixer

import (
	"log/slog"
	"sync"
	"time"

	"github.com/blitss-oss/mixengine/media"
	"github.com/blitss-oss/mixengine/resample"
)

// InputConfig is what the coordinator needs to know about one audio input:
// its native decode rate, so it can hand the input's batches to a
// resampler before framing them onto the mixing grid.
type InputConfig struct {
	NativeRate uint32
}

type inputState struct {
	cfg       InputConfig
	converter *resample.Converter
}

type outputState struct {
	cfg  OutputMixConfig
	gain *MasterGain
}

// AudioMixer is C4: owns per-input resample state and per-output mix
// configuration, and turns one window's InputSamplesSet into an
// OutputSamplesSet per registered output.
type AudioMixer struct {
	mu         sync.Mutex
	mixingRate uint32
	log        *slog.Logger

	inputs  map[media.InputID]*inputState
	outputs map[media.OutputID]*outputState

	lastProcessedBatchEnd time.Duration
	haveProcessed         bool
}

// New constructs an AudioMixer working at mixingRate.
func New(mixingRate uint32, log *slog.Logger) *AudioMixer {
	if log == nil {
		log = slog.Default()
	}
	return &AudioMixer{
		mixingRate: mixingRate,
		log:        log,
		inputs:     make(map[media.InputID]*inputState),
		outputs:    make(map[media.OutputID]*outputState),
	}
}

// RegisterInput adds an input's resample state. Safe to call before the
// input's first window arrives.
func (m *AudioMixer) RegisterInput(id media.InputID, cfg InputConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rate := cfg.NativeRate
	if rate == 0 {
		rate = m.mixingRate
	}
	conv, err := resample.New(rate, m.mixingRate)
	if err != nil {
		return err
	}
	m.inputs[id] = &inputState{cfg: cfg, converter: conv}
	return nil
}

// UnregisterInput drops an input's resample state.
func (m *AudioMixer) UnregisterInput(id media.InputID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inputs, id)
}

// RegisterOutput adds an output with a fresh, unity-gain master gain
// controller. Registration takes effect for the next processed window.
func (m *AudioMixer) RegisterOutput(id media.OutputID, cfg OutputMixConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs[id] = &outputState{cfg: cfg, gain: NewMasterGain()}
}

// UnregisterOutput removes an output; any in-flight window simply stops
// including it starting next call.
func (m *AudioMixer) UnregisterOutput(id media.OutputID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.outputs, id)
}

// UpdateOutput atomically swaps an output's mix configuration, preserving
// its accumulated master gain so the compressor state doesn't reset on a
// scene change.
func (m *AudioMixer) UpdateOutput(id media.OutputID, cfg OutputMixConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.outputs[id]; ok {
		o.cfg = cfg
	}
}

// ProcessWindow frames every input's batches onto the window's grid,
// reconciles any gap against the previously processed window's end with a
// zero-filled prefix, mixes per output, and advances
// last_processed_batch_end to window.EndPTS.
func (m *AudioMixer) ProcessWindow(set media.InputSamplesSet) media.OutputSamplesSet {
	m.mu.Lock()
	defer m.mu.Unlock()

	framed := make(map[media.InputID][]media.StereoSample, len(set.Samples))
	for id, batches := range set.Samples {
		in, ok := m.inputs[id]
		if !ok {
			// No resample state (its resampler failed to build, or it was
			// never registered): the input contributes silence this window.
			framed[id] = Frame(set.StartPTS, set.EndPTS, nil, m.mixingRate, m.log)
			continue
		}
		resampled := make([]media.InputAudioSamples, 0, len(batches))
		for _, b := range batches {
			samples := b.Samples
			if in.converter != nil && in.cfg.NativeRate != 0 && in.cfg.NativeRate != m.mixingRate {
				samples = in.converter.Process(samples)
			}
			resampled = append(resampled, media.InputAudioSamples{
				StartPTS: b.StartPTS,
				EndPTS:   b.EndPTS,
				Samples:  samples,
			})
		}
		framed[id] = Frame(set.StartPTS, set.EndPTS, resampled, m.mixingRate, m.log)
	}

	n := ExpectedSampleCount(set.StartPTS, set.EndPTS, m.mixingRate)

	gapSamples := 0
	windowStart := set.StartPTS
	if m.haveProcessed && set.StartPTS > m.lastProcessedBatchEnd {
		gapSamples = ExpectedSampleCount(m.lastProcessedBatchEnd, set.StartPTS, m.mixingRate)
		windowStart = m.lastProcessedBatchEnd
	}
	m.lastProcessedBatchEnd = set.EndPTS
	m.haveProcessed = true

	out := make(media.OutputSamplesSet, len(m.outputs))
	for id, o := range m.outputs {
		var gain *MasterGain
		if o.cfg.Strategy == SumScale {
			gain = o.gain
		}
		mixed := Mix(framed, n, o.cfg, gain)

		if gapSamples > 0 {
			full := make([]media.StereoSample, 0, gapSamples+len(mixed))
			full = appendZero(full, gapSamples)
			full = append(full, mixed...)
			mixed = full
		}

		out[id] = media.OutputAudioSamples{StartPTS: windowStart, Samples: mixed}
	}
	return out
}
