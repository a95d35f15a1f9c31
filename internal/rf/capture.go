package rf

// DefaultCaptureShort is the default unit pulse for Capture, in microseconds.
const DefaultCaptureShort = 260

// minCaptureLen is the number of in-window pulses a capture needs before an
// out-of-window pulse completes it.
const minCaptureLen = 20

// Capture records raw pulse durations of unknown remotes. After a gap longer
// than 10.44 unit pulses it collects every duration within [short, 3*short];
// the first out-of-window duration after more than 20 samples completes the
// capture.
type Capture struct {
	short      uint32
	long       uint32
	startPulse uint32
	handler    func(durations []uint32, levels []Level)

	started   bool
	missed    int
	durations []uint32
	levels    []Level
}

// NewCapture returns a Capture for the given unit pulse. The handler owns
// the slices it receives.
func NewCapture(short uint32, handler func(durations []uint32, levels []Level)) *Capture {
	if short == 0 {
		short = DefaultCaptureShort
	}
	return &Capture{
		short:      short,
		long:       3 * short,
		startPulse: short*10 + short*44/100,
		handler:    handler,
	}
}

// HandleEdge takes the duration since the previous edge.
func (c *Capture) HandleEdge(level Level, duration uint32) {
	if duration > c.startPulse {
		c.started = true
	}
	if !c.started {
		return
	}

	if duration >= c.short && duration <= c.long {
		c.durations = append(c.durations, duration)
		c.levels = append(c.levels, level)
		return
	}

	c.missed++
	if len(c.durations) > minCaptureLen {
		d, l := c.durations, c.levels
		c.durations, c.levels = nil, nil
		c.started = false
		c.missed = 0
		c.handler(d, l)
	}
}

// Missed returns the number of out-of-window pulses seen since the last
// completed capture.
func (c *Capture) Missed() int {
	return c.missed
}
