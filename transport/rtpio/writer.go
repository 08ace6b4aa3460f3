package rtpio

import (
	"io"
	"log/slog"

	"github.com/pion/rtp"

	"github.com/blitss-oss/mixengine/media"
)

// Encoder turns a batch of stereo samples into one RTP payload. Codec
// adapters implement this the mirror of Decoder.
type Encoder func(samples []media.StereoSample) ([]byte, error)

// WriterConfig configures an AudioWriter.
type WriterConfig struct {
	ClockRate   uint32
	PayloadType uint8
	SSRC        uint32
	Encode      Encoder
	Log         *slog.Logger
}

// AudioWriter consumes a mixed output's sample batches and writes them as
// RTP packets to dst, one packet per received batch.
type AudioWriter struct {
	cfg     WriterConfig
	dst     io.Writer
	seq     uint16
	ts      uint32
	started bool
}

// NewAudioWriter builds a writer for one output sender.
func NewAudioWriter(dst io.Writer, cfg WriterConfig) *AudioWriter {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.ClockRate == 0 {
		cfg.ClockRate = 8000
	}
	return &AudioWriter{cfg: cfg, dst: dst}
}

// Run drains in until EOS (sent at most once downstream), writing
// one RTP packet per received batch.
func (w *AudioWriter) Run(in <-chan media.PipelineEvent[media.OutputAudioSamples]) {
	for ev := range in {
		batch, ok := ev.Value()
		if !ok {
			return
		}
		payload, err := w.cfg.Encode(batch.Samples)
		if err != nil {
			w.cfg.Log.Warn("rtp writer: encode error, dropping batch", "error", err)
			continue
		}

		pkt := &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				PayloadType:    w.cfg.PayloadType,
				SequenceNumber: w.seq,
				Timestamp:      w.ts,
				SSRC:           w.cfg.SSRC,
			},
			Payload: payload,
		}
		w.seq++
		w.ts += uint32(len(batch.Samples))

		raw, err := pkt.Marshal()
		if err != nil {
			w.cfg.Log.Warn("rtp writer: marshal failed", "error", err)
			continue
		}
		if _, err := w.dst.Write(raw); err != nil {
			w.cfg.Log.Warn("rtp writer: write failed", "error", err)
			return
		}
	}
}
