package hideki

import "github.com/sweeney/rf433/internal/rf"

// Receiver defaults, in microseconds. The clock, half the first edge of a
// frame, must lie within [pulseShort, pulseLong].
const (
	DefaultPulseShort = 200
	DefaultPulseLong  = 1000
)

// Half bits per byte: a start bit and 8 data bits, two halves each.
const halfBitsPerByte = 18

// Receiver decodes Hideki frames from edge durations. The clock is taken
// from the first edge of every frame.
//
// The handler is called on the goroutine that calls HandleEdge with a copy
// of the frame: packageLength+3 bytes, 1..packageLength+1 descrambled. It
// must not call back into the Receiver. Receiver is not safe for concurrent
// use.
type Receiver struct {
	pulseShort uint32
	pulseLong  uint32
	handler    func([]byte)

	enabled       bool
	halfBit       int
	clock         uint32
	isOne         bool
	duration      uint32
	data          [maxFrame]byte
	packageLength int
	// lastHalfBit is the half bit completing the frame; 0 until byte 2
	// has been received.
	lastHalfBit int

	rejected uint64
}

// NewReceiver returns an enabled receiver. Zero bounds select the defaults.
func NewReceiver(pulseShort, pulseLong uint32, handler func([]byte)) *Receiver {
	if pulseShort == 0 {
		pulseShort = DefaultPulseShort
	}
	if pulseLong == 0 {
		pulseLong = DefaultPulseLong
	}
	if handler == nil {
		handler = func([]byte) {}
	}
	r := &Receiver{
		pulseShort: pulseShort,
		pulseLong:  pulseLong,
		handler:    handler,
	}
	r.Enable()
	return r
}

// Enable starts accepting edges, waiting for a new clock.
func (r *Receiver) Enable() {
	r.halfBit = 0
	r.lastHalfBit = 0
	r.enabled = true
}

// Disable drops all edges until Enable is called.
func (r *Receiver) Disable() {
	r.enabled = false
}

// Enabled reports whether edges are processed.
func (r *Receiver) Enabled() bool {
	return r.enabled
}

// Rejected returns the number of complete frames that failed the check.
func (r *Receiver) Rejected() uint64 {
	return r.rejected
}

// HandleEdge processes the duration in microseconds since the previous edge.
func (r *Receiver) HandleEdge(_ rf.Level, duration uint32) {
	if !r.enabled {
		return
	}
	r.duration = duration

	if r.halfBit == 0 {
		r.clock = duration >> 1
		if r.clock < r.pulseShort || r.clock > r.pulseLong {
			return
		}
		r.isOne = true
		r.halfBit++
		return
	}

	// Valid edges are between half a clock and three clocks.
	if duration < r.clock>>1 || duration > r.clock<<1+r.clock {
		r.restart()
		return
	}

	// Every odd half bit completes a bit.
	if r.halfBit&1 != 0 && !r.completeBit() {
		return
	}

	// A long edge flips the bit value and spans two half bits.
	if duration > r.clock+r.clock>>1 {
		r.isOne = !r.isOne
		r.halfBit++
	}
	r.halfBit++
}

// completeBit stores the bit ending at the current half bit. It returns false
// when the edge ended the frame or caused a restart.
func (r *Receiver) completeBit() bool {
	n := r.halfBit / halfBitsPerByte
	bit := (r.halfBit >> 1) % 9

	if bit < 8 {
		if r.isOne {
			r.data[n] |= 1 << bit
		} else {
			r.data[n] &^= 1 << bit
		}
	} else if r.isOne {
		// Stop bit must be 0.
		r.restart()
		return false
	}

	switch r.halfBit {
	case halfBitsPerByte - 1:
		if r.data[0] != Header {
			r.restart()
			return false
		}
	case 3*halfBitsPerByte - 1:
		r.packageLength = PackageLength(descramble(r.data[2]))
		if r.packageLength < MinPackageLength || r.packageLength > MaxPackageLength {
			r.restart()
			return false
		}
		// The last stop bit is not waited for.
		r.lastHalfBit = (r.packageLength+3)*halfBitsPerByte - 3
	}

	if r.lastHalfBit == 0 || r.halfBit < r.lastHalfBit {
		return true
	}

	if r.halfBit == r.lastHalfBit {
		if DecryptAndCheck(r.data[:], r.packageLength) {
			frame := make([]byte, r.packageLength+3)
			copy(frame, r.data[:])
			r.handler(frame)
		} else {
			r.rejected++
		}
	}
	r.halfBit = 0
	r.lastHalfBit = 0
	return false
}

// restart begins a new frame with the failing edge as the first edge.
func (r *Receiver) restart() {
	r.halfBit = 1
	r.lastHalfBit = 0
	r.clock = r.duration >> 1
	r.isOne = true
}
