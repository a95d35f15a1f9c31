package newremote

import (
	"strings"

	"github.com/sweeney/rf433/internal/rf"
)

// Transmitter defaults.
const (
	DefaultPeriod     = 260 // µs
	DefaultRepeats    = 2   // the frame is sent 2^repeats-1 times
	DefaultPulseWidth = 5   // long pulse in periods
)

// Command is one frame to transmit.
type Command struct {
	Address uint32
	Unit    uint8
	Switch  SwitchType
	// Group addresses all units of the address. Ignored for Dim.
	Group bool
	// DimLevel is only sent with Switch == Dim.
	DimLevel uint8
}

// Transmitter encodes commands into NewRemoteSwitch pulse trains.
type Transmitter struct {
	sink       rf.PulseSink
	period     uint32
	repeats    uint
	pulseWidth uint32
}

// NewTransmitter returns a Transmitter delivering trains to sink. Zero
// arguments select the defaults.
func NewTransmitter(sink rf.PulseSink, period uint32, repeats uint, pulseWidth uint32) *Transmitter {
	if period == 0 {
		period = DefaultPeriod
	}
	if repeats == 0 {
		repeats = DefaultRepeats
	}
	if pulseWidth == 0 {
		pulseWidth = DefaultPulseWidth
	}
	return &Transmitter{
		sink:       sink,
		period:     period,
		repeats:    repeats,
		pulseWidth: pulseWidth,
	}
}

// On switches a unit on.
func (t *Transmitter) On(address uint32, unit uint8) {
	t.Transmit(Command{Address: address, Unit: unit, Switch: On})
}

// Off switches a unit off.
func (t *Transmitter) Off(address uint32, unit uint8) {
	t.Transmit(Command{Address: address, Unit: unit, Switch: Off})
}

// Dim sets a unit to dim level 0..15.
func (t *Transmitter) Dim(address uint32, unit uint8, level uint8) {
	t.Transmit(Command{Address: address, Unit: unit, Switch: Dim, DimLevel: level})
}

// GroupOn switches all units of an address on.
func (t *Transmitter) GroupOn(address uint32) {
	t.Transmit(Command{Address: address, Switch: On, Group: true})
}

// GroupOff switches all units of an address off.
func (t *Transmitter) GroupOff(address uint32) {
	t.Transmit(Command{Address: address, Switch: Off, Group: true})
}

// Transmit encodes cmd and hands the train to the sink.
func (t *Transmitter) Transmit(cmd Command) {
	train := t.Encode(cmd)
	t.sink(train.StartLevel, train.Durations)
}

// Symbols returns the symbol string of a command: 26 address bits, the group
// and switch symbols ("02" for dim), 4 unit bits and, when dimming, 4 dim
// bits. '2' is the dim marker.
func Symbols(cmd Command) string {
	var b strings.Builder
	b.Grow(36)

	writeBits(&b, cmd.Address, AddressBits)
	if cmd.Switch == Dim {
		b.WriteString("02")
	} else {
		b.WriteByte(symbol(cmd.Group))
		b.WriteByte(symbol(cmd.Switch == On))
	}
	writeBits(&b, uint32(cmd.Unit), 4)
	if cmd.Switch == Dim {
		writeBits(&b, uint32(cmd.DimLevel), 4)
	}
	return b.String()
}

// Encode builds the complete pulse train for cmd: the framed symbols
// repeated 2^repeats-1 times, closed by one high period so the last stop
// bit ends on an edge.
func (t *Transmitter) Encode(cmd Command) rf.PulseTrain {
	symbols := Symbols(cmd)
	p := t.period
	long := p * t.pulseWidth

	frames := 1<<t.repeats - 1
	perFrame := 2 + 4*len(symbols) + 2
	pulses := make([]uint32, 0, frames*perFrame+1)

	for i := 0; i < frames; i++ {
		// Start bit.
		pulses = append(pulses, p, p*10+p>>1)
		for j := 0; j < len(symbols); j++ {
			switch symbols[j] {
			case '0':
				pulses = append(pulses, p, p, p, long)
			case '1':
				pulses = append(pulses, p, long, p, p)
			case '2':
				pulses = append(pulses, p, p, p, p)
			}
		}
		// Stop bit.
		pulses = append(pulses, p, p*40)
	}
	pulses = append(pulses, p)

	return rf.PulseTrain{StartLevel: rf.High, Durations: pulses}
}

// writeBits writes the low n bits of v, MSB first.
func writeBits(b *strings.Builder, v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		b.WriteByte(symbol(v&(1<<i) != 0))
	}
}

func symbol(set bool) byte {
	if set {
		return '1'
	}
	return '0'
}
