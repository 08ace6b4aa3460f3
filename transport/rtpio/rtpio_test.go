package rtpio

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blitss-oss/mixengine/media"
)

func passthroughCodec() (Encoder, Decoder) {
	encode := func(samples []media.StereoSample) ([]byte, error) {
		out := make([]byte, len(samples))
		for i, s := range samples {
			out[i] = byte(s[0]*127 + 128)
		}
		return out, nil
	}
	decode := func(payload []byte) ([]media.StereoSample, error) {
		out := make([]media.StereoSample, len(payload))
		for i, b := range payload {
			v := (float64(b) - 128) / 127
			out[i] = media.StereoSample{v, v}
		}
		return out, nil
	}
	return encode, decode
}

func TestAudioWriterWritesOnePacketPerBatch(t *testing.T) {
	encode, _ := passthroughCodec()
	var buf bytes.Buffer
	w := NewAudioWriter(&buf, WriterConfig{ClockRate: 8000, PayloadType: 0, Encode: encode})

	in := make(chan media.PipelineEvent[media.OutputAudioSamples], 2)
	in <- media.Data(media.OutputAudioSamples{Samples: []media.StereoSample{{0.1, 0.1}, {0.2, 0.2}}})
	in <- media.EOS[media.OutputAudioSamples]()
	close(in)

	w.Run(in)
	assert.Greater(t, buf.Len(), 0, "writer must have written at least one RTP packet")
}

func TestAudioWriterStopsOnEOSWithoutError(t *testing.T) {
	encode, _ := passthroughCodec()
	var buf bytes.Buffer
	w := NewAudioWriter(&buf, WriterConfig{ClockRate: 8000, Encode: encode})

	in := make(chan media.PipelineEvent[media.OutputAudioSamples], 1)
	in <- media.EOS[media.OutputAudioSamples]()
	close(in)

	w.Run(in)
	assert.Equal(t, 0, buf.Len())
}

func TestAudioReaderRoundtripsThroughAudioWriter(t *testing.T) {
	encode, decode := passthroughCodec()

	pr, pw := io.Pipe()
	w := NewAudioWriter(pw, WriterConfig{ClockRate: 8000, Encode: encode})
	r := NewAudioReader(pr, ReaderConfig{ClockRate: 8000, Decode: decode})

	out := make(chan media.PipelineEvent[media.InputAudioSamples], 4)
	go r.Run(out)

	in := make(chan media.PipelineEvent[media.OutputAudioSamples], 1)
	sent := media.OutputAudioSamples{Samples: []media.StereoSample{{0.25, 0.25}, {-0.5, -0.5}}}
	in <- media.Data(sent)
	close(in)

	go func() {
		w.Run(in)
		pw.Close()
	}()

	var received media.InputAudioSamples
	var gotData, gotEOS bool
	for ev := range out {
		if batch, ok := ev.Value(); ok {
			received = batch
			gotData = true
		} else {
			gotEOS = true
		}
		if gotEOS {
			break
		}
	}

	require.True(t, gotData)
	require.True(t, gotEOS)
	require.Len(t, received.Samples, len(sent.Samples))
	for i := range sent.Samples {
		assert.InDelta(t, sent.Samples[i][0], received.Samples[i][0], 0.02)
	}
}

func TestAudioReaderTreatsReadErrorAsEOS(t *testing.T) {
	_, decode := passthroughCodec()
	pr, pw := io.Pipe()
	r := NewAudioReader(pr, ReaderConfig{ClockRate: 8000, Decode: decode})

	out := make(chan media.PipelineEvent[media.InputAudioSamples], 1)
	pw.Close()

	r.Run(out)
	ev := <-out
	_, isData := ev.Value()
	assert.False(t, isData)
}
