// Package mixer holds C2/C3/C4: the routine that turns ragged decoded
// sample batches into a fixed-count block for a time window, the per-output
// summing stage, and the coordinator that ties per-input state to
// per-output configuration.
package mixer

import (
	"log/slog"
	"time"

	"github.com/blitss-oss/mixengine/media"
)

// ExpectedSampleCount returns N = floor((end-start)*R*1e-9), the exact
// sample count every emitted window must produce regardless of what its
// input batches look like. This is a plain truncating floor with no
// rounding tolerance — unlike timeToSampleCount, which is used only for
// internal gap/overlap arithmetic inside Frame, this is the window's
// official sample count and must not round up across a window boundary.
func ExpectedSampleCount(start, end time.Duration, rate uint32) int {
	d := end - start
	n := int(floorFloat(float64(d) * float64(rate) / float64(time.Second)))
	if n < 0 {
		n = 0
	}
	return n
}

// timeToSampleCount rounds d*rate to the nearest integer when the residual
// is within 1% of a sample, and floors otherwise. This absorbs rounding
// noise from duration arithmetic without ever over-counting a window.
func timeToSampleCount(d time.Duration, rate uint32) int {
	exact := float64(d) * float64(rate) / float64(time.Second)
	rounded := roundHalfAwayFromZero(exact)
	if absFloat(exact-rounded) < 0.01 {
		return int(rounded)
	}
	return int(floorFloat(exact))
}

func roundHalfAwayFromZero(f float64) float64 {
	if f >= 0 {
		return floorFloat(f + 0.5)
	}
	return -floorFloat(-f + 0.5)
}

func floorFloat(f float64) float64 {
	i := int64(f)
	if f < 0 && float64(i) != f {
		i--
	}
	return float64(i)
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// samplePeriod is 1/R expressed as a Duration-scale float (seconds).
func samplePeriod(rate uint32) float64 {
	return 1.0 / float64(rate)
}

// Frame produces exactly ExpectedSampleCount(start,end,rate) stereo pairs
// for one input, from its ordered batch list, per the phase-alignment and
// gap/overlap/tail handling described for the framer. log receives
// warnings for the conditions the algorithm calls out as unexpected; it
// never fails the window.
func Frame(start, end time.Duration, batches []media.InputAudioSamples, rate uint32, log *slog.Logger) []media.StereoSample {
	if log == nil {
		log = slog.Default()
	}
	n := ExpectedSampleCount(start, end, rate)
	out := make([]media.StereoSample, 0, n)

	if len(batches) == 0 {
		return padZero(out, n)
	}

	offset := phaseOffset(start, batches[0].StartPTS, rate)
	epsilon := time.Duration(0.01 * float64(time.Second) * samplePeriod(rate))

	produced := 0
	for bi, raw := range batches {
		b := raw
		b.StartPTS += offset
		b.EndPTS += offset
		samples := append([]media.StereoSample(nil), b.Samples...)

		expectedNext := start + sampleDuration(produced, rate)
		if b.StartPTS > expectedNext+epsilon {
			gap := timeToSampleCount(b.StartPTS-expectedNext, rate)
			if gap == 0 && b.StartPTS > expectedNext {
				log.Warn("audio framer: non-zero gap rounded to zero samples", "input_batch", bi)
			}
			out = appendZero(out, gap)
			produced += gap
		}

		expectedNext = start + sampleDuration(produced, rate)
		if expectedNext > b.StartPTS+epsilon {
			overlap := timeToSampleCount(expectedNext-b.StartPTS, rate)
			if overlap > 0 {
				if bi != 0 {
					log.Warn("audio framer: overlapping input batch, trimming", "input_batch", bi, "samples_dropped", overlap)
				}
				if overlap > len(samples) {
					overlap = len(samples)
				}
				samples = samples[overlap:]
			}
		}

		if b.EndPTS > end+epsilon {
			// Tail-trim: this batch may only contribute up to the window's
			// remaining sample budget.
			remaining := n - produced
			if remaining < 0 {
				remaining = 0
			}
			if len(samples) > remaining {
				samples = samples[:remaining]
			}
		}

		out = append(out, samples...)
		produced += len(samples)
	}

	if len(out) != n {
		log.Warn("audio framer: produced sample count did not match window, correcting", "produced", len(out), "expected", n)
	}
	return padZero(out, n)
}

func sampleDuration(count int, rate uint32) time.Duration {
	return time.Duration(float64(count) * float64(time.Second) / float64(rate))
}

// phaseOffset computes the constant sub-sample offset between the window
// start and the first batch's sample grid, snapping near-zero-mod-1/R
// residuals (>0.997 of a sample period) to exactly zero to suppress
// numerical drift. The residual is taken in fractional samples, so a
// sample period that is not a whole number of nanoseconds does not skew it.
func phaseOffset(windowStart, batchStart time.Duration, rate uint32) time.Duration {
	if rate == 0 {
		return 0
	}
	diffSamples := float64(windowStart-batchStart) * float64(rate) / float64(time.Second)
	frac := diffSamples - floorFloat(diffSamples)
	if frac > 0.997 {
		return 0
	}
	return time.Duration(frac * samplePeriod(rate) * float64(time.Second))
}

func appendZero(s []media.StereoSample, n int) []media.StereoSample {
	for i := 0; i < n; i++ {
		s = append(s, media.StereoSample{})
	}
	return s
}

func padZero(s []media.StereoSample, n int) []media.StereoSample {
	if len(s) < n {
		return appendZero(s, n-len(s))
	}
	if len(s) > n {
		return s[:n]
	}
	return s
}
