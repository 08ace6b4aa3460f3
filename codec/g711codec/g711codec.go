// Package g711codec adapts the zaf/g711 codec to the transport/rtpio
// Decoder/Encoder function shapes, so a G.711 (PCMU/PCMA) RTP stream can
// feed an input channel or drain an output channel without the core
// engine ever being aware a codec is involved.
package g711codec

import (
	"github.com/zaf/g711"

	"github.com/blitss-oss/mixengine/media"
)

const g711Scale = 32768.0

// Law selects µ-law (PCMU) or A-law (PCMA).
type Law int

const (
	LawMU Law = iota
	LawA
)

// Decode converts one G.711 payload into mono-upmixed stereo f64 samples.
func Decode(law Law) func([]byte) ([]media.StereoSample, error) {
	return func(payload []byte) ([]media.StereoSample, error) {
		var pcm []int16
		var err error
		switch law {
		case LawA:
			pcm, err = g711.DecodeAlaw(payload)
		default:
			pcm, err = g711.DecodeUlaw(payload)
		}
		if err != nil {
			return nil, err
		}
		out := make([]media.StereoSample, len(pcm))
		for i, s := range pcm {
			v := float64(s) / g711Scale
			out[i] = media.StereoSample{v, v}
		}
		return out, nil
	}
}

// Encode downmixes stereo f64 samples (averaging L/R) and encodes them
// with the given law.
func Encode(law Law) func([]media.StereoSample) ([]byte, error) {
	return func(samples []media.StereoSample) ([]byte, error) {
		pcm := make([]int16, len(samples))
		for i, s := range samples {
			avg := (s[0] + s[1]) / 2
			v := avg * g711Scale
			if v > 32767 {
				v = 32767
			} else if v < -32768 {
				v = -32768
			}
			pcm[i] = int16(v)
		}
		switch law {
		case LawA:
			return g711.EncodeAlaw(pcm)
		default:
			return g711.EncodeUlaw(pcm)
		}
	}
}
