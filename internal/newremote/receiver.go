package newremote

import "github.com/sweeney/rf433/internal/rf"

// Receiver defaults.
const (
	DefaultMinRepeats  = 2
	DefaultShortPeriod = 200 // µs; lowest T accepted for the sync pulse
)

// state counts edges within a frame. Data states advance by one per pulse,
// four pulses per bit.
type state int

const (
	stateSearching state = -1 // waiting for the 40T low of a stop bit
	stateStartHigh state = 0  // start bit, ~1T high
	stateStartLow  state = 1  // start bit, ~10.44T low
	stateAddress   state = 2  // 26 bits, MSB first
	stateGroup     state = 106
	stateSwitch    state = 110
	stateUnit      state = 114 // 4 bits
	stateDim       state = 130 // 4 optional bits; 130/131 double as stop bit
	stateDimStop   state = 146
	stateOverrun   state = 148

	// Stop bits are only valid on the second pulse after the unit or dim bits.
	stopAfterUnit state = stateDim + 1
	stopAfterDim  state = stateDimStop + 1

	// Receiving reports true from here on: start bit plus 8 data bits.
	stateReceiving state = 34
)

type phase int

const (
	phaseSearching phase = iota
	phaseStartHigh
	phaseStartLow
	phaseAddress
	phaseGroup
	phaseSwitch
	phaseUnit
	phaseDim
	phaseStop
	phaseOverrun
)

func (s state) phase() phase {
	switch {
	case s < stateStartHigh:
		return phaseSearching
	case s == stateStartHigh:
		return phaseStartHigh
	case s == stateStartLow:
		return phaseStartLow
	case s < stateGroup:
		return phaseAddress
	case s < stateSwitch:
		return phaseGroup
	case s < stateUnit:
		return phaseSwitch
	case s < stateDim:
		return phaseUnit
	case s < stateDimStop:
		return phaseDim
	case s < stateOverrun:
		return phaseStop
	default:
		return phaseOverrun
	}
}

// lastPulse reports whether s is the fourth pulse of a bit.
// Short for (s-2)%4 == 3.
func (s state) lastPulse() bool {
	return s%4 == 1
}

// Pulse patterns of one bit, oldest pulse in the high bit; 1 is a 5T pulse.
const (
	bitZero  = 0b0001
	bitOne   = 0b0100
	bitDim   = 0b0000
	bitMask  = 0b1111
	prevLong = 0b10
)

// Receiver decodes NewRemoteSwitch frames from edge durations.
//
// The handler is called on the goroutine that calls HandleEdge, once per
// accepted code. It must not call back into the Receiver. Receiver is not
// safe for concurrent use.
type Receiver struct {
	minRepeats int
	stopPulse  uint32
	handler    func(Code)

	enabled     bool
	state       state
	skip        bool
	receivedBit uint8
	code        Code
	previous    Code
	repeats     int

	min1Period uint32
	max1Period uint32
	min5Period uint32
	max5Period uint32
}

// NewReceiver returns an enabled receiver. A code is reported after it has
// been received minRepeats times in a row; shortPeriod bounds the sync pulse
// search.
func NewReceiver(minRepeats int, shortPeriod uint32, handler func(Code)) *Receiver {
	if minRepeats <= 0 {
		minRepeats = DefaultMinRepeats
	}
	if shortPeriod == 0 {
		shortPeriod = DefaultShortPeriod
	}
	if handler == nil {
		handler = func(Code) {}
	}
	r := &Receiver{
		minRepeats: minRepeats,
		stopPulse:  40 * shortPeriod,
		handler:    handler,
	}
	r.Enable()
	return r
}

// Enable resets the decoder and starts accepting edges.
func (r *Receiver) Enable() {
	r.Reset()
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

// Reset returns the decoder to the sync search.
func (r *Receiver) Reset() {
	r.state = stateSearching
	r.skip = false
}

// Receiving reports whether a significant part of a frame has been received,
// i.e. transmitting now would likely collide with a remote.
func (r *Receiver) Receiving() bool {
	return r.enabled && r.state >= stateReceiving
}

// HandleEdge processes the duration in microseconds since the previous edge.
func (r *Receiver) HandleEdge(_ rf.Level, duration uint32) {
	if !r.enabled {
		return
	}

	if r.skip {
		r.skip = false
		return
	}

	// Edge too short: drop it and the next one, which closes the glitch.
	if r.state >= stateStartHigh && duration < r.min1Period {
		r.skip = true
		return
	}

	var ok bool
	switch r.state.phase() {
	case phaseSearching:
		ok = r.sync(duration)
	case phaseStartHigh:
		ok = r.startHigh(duration)
	case phaseStartLow:
		ok = r.startLow(duration)
	case phaseOverrun:
		r.Reset()
	default:
		ok = r.dataPulse(duration)
	}
	if ok {
		r.state++
	}
}

// sync looks for the 40T low part of a stop bit and calibrates T from it.
func (r *Receiver) sync(duration uint32) bool {
	if duration <= r.stopPulse || duration >= 4*r.stopPulse {
		return false
	}

	r.repeats = 0
	p := duration / 40
	r.code.Period = p

	// Wide margins for cheap receivers: high pulses linger, which makes low
	// pulses short.
	r.min1Period = p * 3 / 10
	r.max1Period = p * 3
	r.min5Period = p * 3
	r.max5Period = p * 8
	return true
}

func (r *Receiver) startHigh(duration uint32) bool {
	if duration > r.max1Period {
		r.Reset()
		return false
	}
	r.code.Address = 0
	r.code.Unit = 0
	r.code.DimLevel = 0
	r.code.DimLevelPresent = false
	return true
}

func (r *Receiver) startLow(duration uint32) bool {
	p := r.code.Period
	if duration < 7*p || duration > 15*p {
		r.Reset()
		return false
	}
	return true
}

// dataPulse classifies one pulse of a data or stop bit and completes the bit
// on its fourth pulse.
func (r *Receiver) dataPulse(duration uint32) bool {
	p := r.code.Period
	r.receivedBit <<= 1

	switch {
	case duration <= r.max1Period:
		// LSB stays clear.
	case duration >= r.min5Period && duration <= r.max5Period:
		r.receivedBit |= 1
	case duration >= 20*p && duration <= 100*p &&
		r.receivedBit&prevLong == 0 &&
		(r.state == stopAfterUnit || r.state == stopAfterDim):
		r.stop()
		return false
	default:
		r.Reset()
		return false
	}

	if !r.state.lastPulse() {
		return true
	}

	bits := r.receivedBit & bitMask
	switch r.state.phase() {
	case phaseAddress:
		v, ok := dataBit(bits)
		if !ok {
			r.Reset()
			return false
		}
		r.code.Address = r.code.Address<<1 | v
	case phaseGroup:
		v, ok := dataBit(bits)
		if !ok {
			r.Reset()
			return false
		}
		r.code.GroupBit = v == 1
	case phaseSwitch:
		switch bits {
		case bitZero:
			r.code.SwitchType = Off
		case bitOne:
			// May turn out to carry dim bits as well.
			r.code.SwitchType = On
		case bitDim:
			r.code.SwitchType = Dim
		default:
			r.Reset()
			return false
		}
	case phaseUnit:
		v, ok := dataBit(bits)
		if !ok {
			r.Reset()
			return false
		}
		r.code.Unit = r.code.Unit<<1 | uint8(v)
	case phaseDim:
		v, ok := dataBit(bits)
		if !ok {
			r.Reset()
			return false
		}
		r.code.DimLevel = r.code.DimLevel<<1 | uint8(v)
	}
	return true
}

// stop completes a frame and applies the repeat debounce.
func (r *Receiver) stop() {
	if r.state == stopAfterDim {
		r.code.DimLevelPresent = true
	}

	if !r.code.SameCommand(r.previous) {
		r.repeats = 0
		r.previous = r.code
	}
	r.repeats++

	if r.repeats >= r.minRepeats {
		r.handler(r.code)
		r.Reset()
		return
	}

	// Remotes send a code several times back to back; the stop bit of one
	// frame is the sync of the next.
	r.state = stateStartHigh
}

func dataBit(bits uint8) (uint32, bool) {
	switch bits {
	case bitZero:
		return 0, true
	case bitOne:
		return 1, true
	default:
		return 0, false
	}
}
