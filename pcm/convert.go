package pcm

import (
	"encoding/binary"
	"math"

	"github.com/blitss-oss/mixengine/media"
)

const pcm16Scale = 32768.0

// DecodeStereo16LE turns interleaved stereo PCM16LE bytes into the
// engine's f64 StereoSample representation, scaling int16 full range to
// [-1.0, 1.0]. Trailing bytes that don't form a full stereo frame are
// ignored.
func DecodeStereo16LE(src []byte) []media.StereoSample {
	n := len(src) / 4
	out := make([]media.StereoSample, n)
	for i := 0; i < n; i++ {
		off := i * 4
		l := int16(binary.LittleEndian.Uint16(src[off : off+2]))
		r := int16(binary.LittleEndian.Uint16(src[off+2 : off+4]))
		out[i] = media.StereoSample{float64(l) / pcm16Scale, float64(r) / pcm16Scale}
	}
	return out
}

// DecodeMono16LE decodes mono PCM16LE and upmixes it to stereo by
// duplication (L == R), matching the engine's internal "mono inputs are
// upmixed at the decode boundary" convention.
func DecodeMono16LE(src []byte) []media.StereoSample {
	n := len(src) / 2
	out := make([]media.StereoSample, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(src[i*2 : i*2+2]))
		v := float64(s) / pcm16Scale
		out[i] = media.StereoSample{v, v}
	}
	return out
}

// EncodeStereo16LE converts StereoSample pairs back into interleaved PCM16LE
// bytes for an encoder/transport sink, hard-clipping to int16 range.
func EncodeStereo16LE(samples []media.StereoSample) []byte {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		off := i * 4
		binary.LittleEndian.PutUint16(out[off:off+2], uint16(int16(clampToInt16(s[0]))))
		binary.LittleEndian.PutUint16(out[off+2:off+4], uint16(int16(clampToInt16(s[1]))))
	}
	return out
}

// EncodeMono16LE downmixes StereoSample pairs by averaging L/R and encodes
// them as mono PCM16LE.
func EncodeMono16LE(samples []media.StereoSample) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		avg := (s[0] + s[1]) / 2
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(int16(clampToInt16(avg))))
	}
	return out
}

func clampToInt16(f float64) float64 {
	v := math.Round(f * pcm16Scale)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return v
}
