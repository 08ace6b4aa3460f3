package engine

import "time"

// Clock fixes the single process-wide sync_point reference (C1). All PTS
// values the engine produces are durations from this instant; conversion
// to/from wire timestamps happens only at the I/O boundary, outside this
// package.
type Clock struct {
	syncPoint time.Time
}

// NewClock fixes sync_point at the current instant.
func NewClock() *Clock {
	return &Clock{syncPoint: time.Now()}
}

// SyncPoint returns the fixed reference instant.
func (c *Clock) SyncPoint() time.Time {
	return c.syncPoint
}

// Elapsed returns the internal PTS (duration since sync_point) for "now".
func (c *Clock) Elapsed() time.Duration {
	return time.Since(c.syncPoint)
}

// Deadline converts an internal PTS into an absolute wall-clock instant,
// used for deadlined sends: sync_point + pts.
func (c *Clock) Deadline(internalPTS time.Duration) time.Time {
	return c.syncPoint.Add(internalPTS)
}
