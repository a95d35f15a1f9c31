// Package rcswitch encodes codes for fixed-code 433/315 MHz power sockets and
// relays built on SC5262, PT2262, EV1527, HS1527 and compatible chips.
package rcswitch

import (
	"errors"
	"fmt"

	"github.com/sweeney/rf433/internal/rf"
)

// Defaults.
const (
	DefaultProtocol = 4
	DefaultRepeats  = 2
)

// MaxBits is the longest code Send accepts.
const MaxBits = 64

var (
	ErrUnknownProtocol = errors.New("rcswitch: unknown protocol")
	ErrInvalidTriState = errors.New("rcswitch: invalid tri-state code word")
	ErrCodeLength      = errors.New("rcswitch: code too long")
)

// Waveform is a high and a low pulse, in multiples of the pulse length.
type Waveform struct {
	High uint32
	Low  uint32
}

// Protocol describes the timing of one chip family.
type Protocol struct {
	ID uint8
	// PulseLength in microseconds.
	PulseLength uint32
	Sync        Waveform
	Zero        Waveform
	One         Waveform
	// Inverted protocols start low.
	Inverted bool
}

// Protocols is the fixed protocol table, indexed by ID-1.
var Protocols = [...]Protocol{
	{ID: 1, PulseLength: 350, Sync: Waveform{1, 31}, Zero: Waveform{1, 3}, One: Waveform{3, 1}},
	{ID: 2, PulseLength: 650, Sync: Waveform{1, 10}, Zero: Waveform{1, 2}, One: Waveform{2, 1}},
	{ID: 3, PulseLength: 100, Sync: Waveform{30, 71}, Zero: Waveform{4, 11}, One: Waveform{9, 6}},
	{ID: 4, PulseLength: 380, Sync: Waveform{1, 6}, Zero: Waveform{1, 3}, One: Waveform{3, 1}},
	{ID: 5, PulseLength: 500, Sync: Waveform{6, 14}, Zero: Waveform{1, 2}, One: Waveform{2, 1}},
	{ID: 6, PulseLength: 450, Sync: Waveform{23, 1}, Zero: Waveform{1, 2}, One: Waveform{2, 1}, Inverted: true}, // HT6P20B
}

// ProtocolByID returns the protocol with the given ID, 1..6.
func ProtocolByID(id int) (Protocol, error) {
	if id < 1 || id > len(Protocols) {
		return Protocol{}, fmt.Errorf("%w: %d", ErrUnknownProtocol, id)
	}
	return Protocols[id-1], nil
}

// StartLevel is the level of the first pulse of a frame.
func (p Protocol) StartLevel() rf.Level {
	if p.Inverted {
		return rf.Low
	}
	return rf.High
}

// Switch sends codes with one protocol.
type Switch struct {
	sink     rf.PulseSink
	protocol Protocol
	repeats  int
}

// NewSwitch returns a Switch for protocol id. Zero arguments select the
// defaults.
func NewSwitch(sink rf.PulseSink, id int, repeats int) (*Switch, error) {
	if id == 0 {
		id = DefaultProtocol
	}
	if repeats <= 0 {
		repeats = DefaultRepeats
	}
	p, err := ProtocolByID(id)
	if err != nil {
		return nil, err
	}
	return &Switch{sink: sink, protocol: p, repeats: repeats}, nil
}

// Protocol returns the protocol in use.
func (s *Switch) Protocol() Protocol {
	return s.protocol
}

// CodeWordA returns the tri-state code word for a socket with DIP switches
// for group and device, each a string of '0' and '1' as set on the device.
func CodeWordA(group, device string, on bool) string {
	b := make([]byte, 0, len(group)+len(device)+2)
	for _, s := range []string{group, device} {
		for i := 0; i < len(s); i++ {
			if s[i] == '0' {
				b = append(b, 'F')
			} else {
				b = append(b, '0')
			}
		}
	}
	if on {
		b = append(b, '0', 'F')
	} else {
		b = append(b, 'F', '0')
	}
	return string(b)
}

// TriStateBits converts a code word of '0', '1' and 'F' into its bit
// pattern: '0' is 00, 'F' is 01 and '1' is 11.
func TriStateBits(word string) (value uint64, length int, err error) {
	if 2*len(word) > MaxBits {
		return 0, 0, ErrCodeLength
	}
	for i := 0; i < len(word); i++ {
		value <<= 2
		switch word[i] {
		case '0':
		case 'F':
			value |= 0b01
		case '1':
			value |= 0b11
		default:
			return 0, 0, fmt.Errorf("%w: %q at %d", ErrInvalidTriState, word[i], i)
		}
		length += 2
	}
	return value, length, nil
}

// SwitchOn switches a socket on.
func (s *Switch) SwitchOn(group, device string) error {
	return s.SendTriState(CodeWordA(group, device, true))
}

// SwitchOff switches a socket off.
func (s *Switch) SwitchOff(group, device string) error {
	return s.SendTriState(CodeWordA(group, device, false))
}

// SendTriState sends a tri-state code word.
func (s *Switch) SendTriState(word string) error {
	value, length, err := TriStateBits(word)
	if err != nil {
		return err
	}
	return s.Send(value, length)
}

// Send sends the low length bits of value, MSB first. The frame is delivered
// to the sink once per repeat.
func (s *Switch) Send(value uint64, length int) error {
	train, err := s.Encode(value, length)
	if err != nil {
		return err
	}
	for i := 0; i < s.repeats; i++ {
		s.sink(train.StartLevel, train.Durations)
	}
	return nil
}

// Encode returns one frame: a waveform per bit followed by the sync waveform.
func (s *Switch) Encode(value uint64, length int) (rf.PulseTrain, error) {
	if length < 0 || length > MaxBits {
		return rf.PulseTrain{}, ErrCodeLength
	}
	p := s.protocol
	d := make([]uint32, 0, 2*length+2)
	for i := length - 1; i >= 0; i-- {
		w := p.Zero
		if value&(1<<uint(i)) != 0 {
			w = p.One
		}
		d = append(d, p.PulseLength*w.High, p.PulseLength*w.Low)
	}
	d = append(d, p.PulseLength*p.Sync.High, p.PulseLength*p.Sync.Low)
	return rf.PulseTrain{StartLevel: p.StartLevel(), Durations: d}, nil
}
