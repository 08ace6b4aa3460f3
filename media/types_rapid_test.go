package media

import (
	"testing"

	"pgregory.net/rapid"
)

// For any framerate, tick PTS k = k*den/num form a strictly increasing
// sequence, for every k in order.
func TestFramerateTickPTS_StrictlyIncreasingForAnyRate(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		num := rapid.IntRange(1, 120).Draw(t, "num")
		den := rapid.IntRange(1, 1001).Draw(t, "den")
		f := Framerate{Num: int64(num), Den: int64(den)}

		count := rapid.IntRange(2, 200).Draw(t, "count")
		prev := f.TickPTS(0)
		for k := int64(1); k < int64(count); k++ {
			pts := f.TickPTS(k)
			if pts <= prev {
				t.Fatalf("tick PTS not strictly increasing at k=%d: prev=%v pts=%v (num=%d den=%d)", k, prev, pts, num, den)
			}
			prev = pts
		}
	})
}
