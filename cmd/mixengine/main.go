package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/blitss-oss/mixengine/codec/g711codec"
	"github.com/blitss-oss/mixengine/engine"
	"github.com/blitss-oss/mixengine/media"
	"github.com/blitss-oss/mixengine/pcm"
	"github.com/blitss-oss/mixengine/transport/rtpio"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "mixengine",
	Short: "Real-time audio/video compositor core",
	Long: `mixengine runs the compositor's Queue and Audio Mixer in-process,
wiring a small set of synthetic inputs and outputs to exercise the
scheduling and mixing behavior without a full transport stack.`,
}

// g711ClockRate and g711FrameDur describe the demo input's native framing:
// an 8kHz mono G.711 source sending 20ms frames, distinct from the
// engine's internal mixing rate so the demo also exercises resampling.
const (
	g711ClockRate = 8000
	g711FrameDur  = 20 * time.Millisecond
)

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (defaults built in if omitted)")
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newVersionCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("mixengine dev")
		},
	}
}

func newRunCmd() *cobra.Command {
	var duration time.Duration
	c := &cobra.Command{
		Use:   "run",
		Short: "Run a demo pipeline with one silent input and one output",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), duration)
		},
	}
	c.Flags().DurationVar(&duration, "duration", 5*time.Second, "how long to run before shutting down")
	return c
}

func runDemo(ctx context.Context, duration time.Duration) error {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	opts := engine.DefaultOptions()
	if configPath != "" {
		loaded, err := engine.LoadOptions(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		opts = loaded
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	q := engine.NewQueue(opts, log)

	videoIn := make(chan media.PipelineEvent[media.Frame], 4)
	audioIn := make(chan media.PipelineEvent[media.InputAudioSamples], 4)
	q.RegisterInput("demo-input", videoIn, audioIn, engine.InputOptions{
		Required:        true,
		Buffer:          engine.BufferOptions{Kind: engine.BufferLatencyOptimized},
		AudioNativeRate: g711ClockRate,
	})

	videoOut := make(chan media.PipelineEvent[media.FrameSet], 4)
	audioOut := make(chan media.PipelineEvent[media.OutputAudioSamples], 4)
	q.RegisterOutput("demo-output",
		&engine.VideoOutputConfig{Sender: videoOut, EOSPolicy: engine.EOSPolicy{Condition: engine.CondAllInputs}},
		&engine.AudioOutputConfig{Sender: audioOut, EOSPolicy: engine.EOSPolicy{Condition: engine.CondAllInputs}},
	)

	go feedVideo(ctx, videoIn, opts)
	go feedAudioG711(ctx, audioIn, log)
	go drainVideo(ctx, log, videoOut)
	go drainAudioOverRTP(ctx, log, audioOut)

	q.Start()
	log.Info("demo pipeline running", "duration", duration)

	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}

	q.Shutdown()
	log.Info("demo pipeline stopped")
	return nil
}

// feedVideo produces one zeroed video frame per output tick, standing in
// for a real decoder actor feeding the input channel. Video transport and
// codecs sit outside this engine's scope, so the video side of the demo
// stays synthetic.
func feedVideo(ctx context.Context, videoIn chan<- media.PipelineEvent[media.Frame], opts engine.Options) {
	defer close(videoIn)

	ticker := time.NewTicker(opts.OutputFramerate.TickInterval())
	defer ticker.Stop()

	var k int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pts := opts.OutputFramerate.TickPTS(k)
			k++
			select {
			case videoIn <- media.Data(media.Frame{PTS: pts, Resolution: media.Resolution{Width: 1280, Height: 720}}):
			case <-ctx.Done():
				return
			}
		}
	}
}

// feedAudioG711 stands in for a decoder actor receiving an 8kHz G.711
// µ-law stream in small, irregularly sized chunks (as a real socket read
// loop would) and exercises the real ingest path: pcm.FrameAssembler
// reassembles the ragged chunks into fixed-size G.711 frames, and
// g711codec.Decode turns each frame into the stereo samples the engine
// understands.
func feedAudioG711(ctx context.Context, audioIn chan<- media.PipelineEvent[media.InputAudioSamples], log *slog.Logger) {
	defer close(audioIn)

	format := pcm.Format{SampleRate: g711ClockRate, Channels: 1, FrameDur: g711FrameDur}
	frameSize := format.FrameSamples() // 1 byte/sample for G.711, so this also the byte frame size.

	encode := g711codec.Encode(g711codec.LawMU)
	decode := g711codec.Decode(g711codec.LawMU)

	silence, err := encode(make([]media.StereoSample, frameSize))
	if err != nil {
		log.Error("demo audio source: failed to encode silence frame", "error", err)
		return
	}

	assembler := pcm.NewFrameAssembler(frameSize)

	// Ragged chunk sizes that don't line up with frameSize, simulating
	// jittery delivery; they still sum to a multiple of frameSize every
	// three ticks so the assembler's buffered remainder stays bounded.
	chunkLens := []int{53, 41, 66}

	ticker := time.NewTicker(6 * time.Millisecond)
	defer ticker.Stop()

	var windowStart time.Duration
	var chunkIdx int
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := chunkLens[chunkIdx%len(chunkLens)]
			chunkIdx++
			if n > len(silence) {
				n = len(silence)
			}

			for _, frame := range assembler.Push(silence[:n]) {
				samples, err := decode(frame)
				if err != nil {
					log.Warn("demo audio source: decode failed, skipping frame", "error", err)
					continue
				}
				end := windowStart + time.Duration(float64(len(samples))*float64(time.Second)/float64(g711ClockRate))
				select {
				case audioIn <- media.Data(media.InputAudioSamples{StartPTS: windowStart, EndPTS: end, Samples: samples}):
				case <-ctx.Done():
					return
				}
				windowStart = end
			}
		}
	}
}

func drainVideo(ctx context.Context, log *slog.Logger, videoOut <-chan media.PipelineEvent[media.FrameSet]) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-videoOut:
			if !ok {
				return
			}
			if fs, isData := ev.Value(); isData {
				log.Debug("video tick", "pts", fs.PTS, "inputs", len(fs.Frames))
			}
		}
	}
}

// drainAudioOverRTP exercises the output half of the transport boundary:
// the mixed batches are G.711-encoded and written as RTP packets by
// rtpio.AudioWriter, then read back and decoded by rtpio.AudioReader on
// the other end of an in-process pipe, logging what a real RTP receiver
// would see. The engine never closes audioOut: the writer goroutine ends,
// and closes the pipe so the reader side stops too, only once an EOS
// arrives on audioOut; otherwise this loop returns when ctx is cancelled.
func drainAudioOverRTP(ctx context.Context, log *slog.Logger, audioOut <-chan media.PipelineEvent[media.OutputAudioSamples]) {
	pr, pw := io.Pipe()

	writer := rtpio.NewAudioWriter(pw, rtpio.WriterConfig{
		ClockRate: g711ClockRate,
		Encode:    g711codec.Encode(g711codec.LawMU),
		Log:       log,
	})
	reader := rtpio.NewAudioReader(pr, rtpio.ReaderConfig{
		ClockRate: g711ClockRate,
		Decode:    g711codec.Decode(g711codec.LawMU),
		Log:       log,
	})

	readerOut := make(chan media.PipelineEvent[media.InputAudioSamples], 4)
	go reader.Run(readerOut)

	go func() {
		writer.Run(audioOut)
		pw.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-readerOut:
			if !ok {
				return
			}
			if batch, isData := ev.Value(); isData {
				log.Debug("rtp output roundtrip", "start_pts", batch.StartPTS, "samples", len(batch.Samples))
			}
		}
	}
}
