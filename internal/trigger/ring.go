package trigger

// SampleBuffer is a fixed-depth ring buffer holding the most recent samples
// of one sensor channel. It is owned exclusively by one PadChannel pipeline,
// so access is single-goroutine and needs no locking.
type SampleBuffer struct {
	data  []float64
	head  int
	count int
}

// NewSampleBuffer creates a buffer holding up to capacity samples. Capacity
// must cover the longest analysis window used by the detectors.
func NewSampleBuffer(capacity int) *SampleBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &SampleBuffer{data: make([]float64, capacity)}
}

// Push appends the newest sample, evicting the oldest once full.
func (b *SampleBuffer) Push(s float64) {
	b.data[b.head] = s
	b.head = (b.head + 1) % len(b.data)
	if b.count < len(b.data) {
		b.count++
	}
}

// Len returns the number of samples currently held.
func (b *SampleBuffer) Len() int {
	return b.count
}

// Cap returns the buffer depth.
func (b *SampleBuffer) Cap() int {
	return len(b.data)
}

// Window copies the most recent n samples into dst in time order (oldest
// first) and returns the filled slice. Requests larger than the available
// history are clamped. dst is reused when large enough, keeping the tick
// path allocation-free.
func (b *SampleBuffer) Window(n int, dst []float64) []float64 {
	if n > b.count {
		n = b.count
	}
	if n <= 0 {
		return dst[:0]
	}
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]
	start := b.head - n
	if start < 0 {
		start += len(b.data)
	}
	for i := 0; i < n; i++ {
		dst[i] = b.data[(start+i)%len(b.data)]
	}
	return dst
}

// Last returns the most recent sample, or 0 when empty.
func (b *SampleBuffer) Last() float64 {
	if b.count == 0 {
		return 0
	}
	idx := b.head - 1
	if idx < 0 {
		idx += len(b.data)
	}
	return b.data[idx]
}
