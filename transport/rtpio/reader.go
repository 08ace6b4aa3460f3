// Package rtpio is a thin RTP transport adapter demonstrating the channel
// boundary the engine expects from a decoder actor: it unmarshals RTP
// packets with pion/rtp, hands their payload to a caller-supplied decode
// function, and pushes the resulting samples onto the input's channel as
// PipelineEvents with PTS computed from the RTP timestamp and clock rate.
// It is intentionally independent of any particular transport/session
// library — the core engine never imports it directly.
package rtpio

import (
	"io"
	"log/slog"
	"time"

	"github.com/pion/rtp"

	"github.com/blitss-oss/mixengine/media"
)

// Decoder turns one RTP payload into stereo samples at the engine's
// internal representation. Codec-specific adapters (e.g. codec/g711codec)
// implement this.
type Decoder func(payload []byte) ([]media.StereoSample, error)

// ReaderConfig configures an AudioReader.
type ReaderConfig struct {
	ClockRate uint32
	Decode    Decoder
	Log       *slog.Logger
}

// AudioReader reads RTP packets from src and emits decoded audio batches
// on Out until src returns an error (treated as implicit EOS, per the
// engine's InputReadError kind).
type AudioReader struct {
	cfg       ReaderConfig
	src       io.Reader
	buf       []byte
	firstTS   uint32
	haveFirst bool
}

// NewAudioReader builds a reader pulling whole RTP packets from src (one
// Read call per packet, as is typical for a UDP-backed io.Reader).
func NewAudioReader(src io.Reader, cfg ReaderConfig) *AudioReader {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.ClockRate == 0 {
		cfg.ClockRate = 8000
	}
	return &AudioReader{cfg: cfg, src: src, buf: make([]byte, 1500)}
}

// Run reads until src is exhausted or returns an error, sending Data
// events to out and exactly one EOS before returning.
func (r *AudioReader) Run(out chan<- media.PipelineEvent[media.InputAudioSamples]) {
	defer func() { out <- media.EOS[media.InputAudioSamples]() }()

	for {
		n, err := r.src.Read(r.buf)
		if err != nil {
			if err != io.EOF {
				r.cfg.Log.Warn("rtp reader: read failed, treating as end of stream", "error", err)
			}
			return
		}
		if n == 0 {
			continue
		}

		var pkt rtp.Packet
		if err := pkt.Unmarshal(r.buf[:n]); err != nil {
			r.cfg.Log.Warn("rtp reader: dropping unparsable packet", "error", err)
			continue
		}

		samples, err := r.cfg.Decode(pkt.Payload)
		if err != nil {
			r.cfg.Log.Warn("rtp reader: decode error, skipping packet", "error", err)
			continue
		}
		if len(samples) == 0 {
			continue
		}

		if !r.haveFirst {
			r.firstTS = pkt.Timestamp
			r.haveFirst = true
		}
		start := rtpTimestampToPTS(pkt.Timestamp-r.firstTS, r.cfg.ClockRate)
		end := start + time.Duration(float64(len(samples))*float64(time.Second)/float64(r.cfg.ClockRate))

		out <- media.Data(media.InputAudioSamples{StartPTS: start, EndPTS: end, Samples: samples})
	}
}

func rtpTimestampToPTS(ticks uint32, clockRate uint32) time.Duration {
	return time.Duration(float64(ticks) * float64(time.Second) / float64(clockRate))
}
