package engine

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/blitss-oss/mixengine/media"
)

// Options are the process-wide, construction-time configuration knobs (§6
// "Configuration"). They are threaded explicitly into component
// constructors rather than read from a global context.
type Options struct {
	OutputFramerate        media.Framerate
	MixingSampleRate       uint32
	AudioChunkDuration     time.Duration
	AheadOfTimeProcessing  bool
	RunLateScheduledEvents bool
	NeverDropOutputFrames  bool
	StreamFallbackTimeout  time.Duration
	DefaultBufferDuration  time.Duration
}

const (
	defaultMixingSampleRate      = 48000
	defaultAudioChunkDuration    = 20 * time.Millisecond
	defaultStreamFallbackTimeout = 500 * time.Millisecond
	defaultBufferDuration        = 40 * time.Millisecond
)

// DefaultOptions returns the engine's baseline configuration: 30fps video,
// 48kHz audio mixed in 20ms windows, ahead-of-time processing enabled.
func DefaultOptions() Options {
	return Options{
		OutputFramerate:        media.Framerate{Num: 30, Den: 1},
		MixingSampleRate:       defaultMixingSampleRate,
		AudioChunkDuration:     defaultAudioChunkDuration,
		AheadOfTimeProcessing:  true,
		RunLateScheduledEvents: false,
		NeverDropOutputFrames:  false,
		StreamFallbackTimeout:  defaultStreamFallbackTimeout,
		DefaultBufferDuration:  defaultBufferDuration,
	}
}

// yamlOptions mirrors Options with yaml tags and durations given as integer
// milliseconds.
type yamlOptions struct {
	Video struct {
		FramerateNum int `yaml:"framerate_num"`
		FramerateDen int `yaml:"framerate_den"`
	} `yaml:"video"`
	Audio struct {
		MixingSampleRate   int    `yaml:"mixing_sample_rate"`
		ChunkDurationMs    int    `yaml:"chunk_duration_ms"`
		DefaultBufferMs    int    `yaml:"default_buffer_ms"`
		StreamFallbackMs   int    `yaml:"stream_fallback_timeout_ms"`
	} `yaml:"audio"`
	Scheduling struct {
		AheadOfTimeProcessing  *bool `yaml:"ahead_of_time_processing"`
		RunLateScheduledEvents *bool `yaml:"run_late_scheduled_events"`
		NeverDropOutputFrames  *bool `yaml:"never_drop_output_frames"`
	} `yaml:"scheduling"`
}

// LoadOptions reads engine Options from a YAML file, applying
// DefaultOptions for anything left unset.
func LoadOptions(path string) (Options, error) {
	cfg := DefaultOptions()

	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var yc yamlOptions
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Options{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yc.Video.FramerateNum > 0 {
		cfg.OutputFramerate.Num = int64(yc.Video.FramerateNum)
		den := 1
		if yc.Video.FramerateDen > 0 {
			den = yc.Video.FramerateDen
		}
		cfg.OutputFramerate.Den = int64(den)
	}
	if cfg.OutputFramerate.Num <= 0 || cfg.OutputFramerate.Den <= 0 {
		return Options{}, errors.New("video.framerate_num/den must be positive")
	}

	if yc.Audio.MixingSampleRate > 0 {
		cfg.MixingSampleRate = uint32(yc.Audio.MixingSampleRate)
	}
	if yc.Audio.ChunkDurationMs > 0 {
		cfg.AudioChunkDuration = time.Duration(yc.Audio.ChunkDurationMs) * time.Millisecond
	}
	if yc.Audio.DefaultBufferMs > 0 {
		cfg.DefaultBufferDuration = time.Duration(yc.Audio.DefaultBufferMs) * time.Millisecond
	}
	if yc.Audio.StreamFallbackMs > 0 {
		cfg.StreamFallbackTimeout = time.Duration(yc.Audio.StreamFallbackMs) * time.Millisecond
	}

	if yc.Scheduling.AheadOfTimeProcessing != nil {
		cfg.AheadOfTimeProcessing = *yc.Scheduling.AheadOfTimeProcessing
	}
	if yc.Scheduling.RunLateScheduledEvents != nil {
		cfg.RunLateScheduledEvents = *yc.Scheduling.RunLateScheduledEvents
	}
	if yc.Scheduling.NeverDropOutputFrames != nil {
		cfg.NeverDropOutputFrames = *yc.Scheduling.NeverDropOutputFrames
	}

	return cfg, nil
}
