package pcm

import "sync"

// FrameAssembler accumulates arbitrarily sized byte chunks (as a decoder
// actor produces them) and slices off fixed-size frames as soon as enough
// bytes have arrived, leaving any remainder buffered for the next Push.
type FrameAssembler struct {
	frameSize int

	mu     sync.Mutex
	buffer []byte
}

// NewFrameAssembler builds an assembler that emits frameSize-byte frames.
func NewFrameAssembler(frameSize int) *FrameAssembler {
	if frameSize < 1 {
		frameSize = 1
	}
	return &FrameAssembler{frameSize: frameSize}
}

// Push appends data and returns every complete frame it now allows.
func (a *FrameAssembler) Push(data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.buffer = append(a.buffer, data...)
	var frames [][]byte
	for len(a.buffer) >= a.frameSize {
		frame := make([]byte, a.frameSize)
		copy(frame, a.buffer[:a.frameSize])
		frames = append(frames, frame)
		a.buffer = a.buffer[a.frameSize:]
	}
	return frames
}
