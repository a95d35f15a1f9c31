package hideki

import "github.com/sweeney/rf433/internal/rf"

// HalfPeriod is the Manchester half-bit duration in microseconds.
const HalfPeriod = 500

// Byte 3 of the three copies of every package: a counter in the top 3 bits
// over the thermo-hygro sensor type.
var nonces = [...]byte{0x5e, 0x9e, 0xde}

// Transmitter sends packages as Manchester pulse trains.
type Transmitter struct {
	sink rf.PulseSink
}

// NewTransmitter returns a Transmitter delivering trains to sink.
func NewTransmitter(sink rf.PulseSink) *Transmitter {
	return &Transmitter{sink: sink}
}

// SendPackage scrambles, checksums and sends an unscrambled package three
// times, each with its own counter in byte 3. The value of byte 3 in data is
// ignored.
func (t *Transmitter) SendPackage(data []byte) error {
	trains, err := EncodePackage(data)
	if err != nil {
		return err
	}
	for _, train := range trains {
		t.sink(train.StartLevel, train.Durations)
	}
	return nil
}

// EncodePackage returns the three trains SendPackage would send.
func EncodePackage(data []byte) ([]rf.PulseTrain, error) {
	if len(data) < 4 {
		return nil, ErrPackageLength
	}
	buf := make([]byte, len(data))
	trains := make([]rf.PulseTrain, 0, len(nonces))
	for _, nonce := range nonces {
		copy(buf, data)
		buf[3] = nonce
		frame, err := EncryptAndAddCheck(buf)
		if err != nil {
			return nil, err
		}
		trains = append(trains, ManchesterEncode(frame))
	}
	return trains, nil
}

// ManchesterEncode returns the pulse train for on-air bytes. Every byte is a
// start bit (low, high) followed by its bits LSB first, a 1 as high then
// low and a 0 as low then high. Adjacent halves of the same level are merged
// into one pulse. The train starts low.
func ManchesterEncode(frame []byte) rf.PulseTrain {
	e := manchester{pulses: make([]uint32, 0, len(frame)*12)}
	for _, b := range frame {
		e.half(rf.Low)
		e.half(rf.High)
		for i := 0; i < 8; i++ {
			if b>>i&1 != 0 {
				e.half(rf.High)
				e.half(rf.Low)
			} else {
				e.half(rf.Low)
				e.half(rf.High)
			}
		}
	}
	return rf.PulseTrain{StartLevel: rf.Low, Durations: e.pulses}
}

type manchester struct {
	pulses []uint32
	level  rf.Level
}

func (e *manchester) half(level rf.Level) {
	if len(e.pulses) > 0 && level == e.level {
		e.pulses[len(e.pulses)-1] += HalfPeriod
		return
	}
	e.pulses = append(e.pulses, HalfPeriod)
	e.level = level
}

// ThermoHygroTransmitter sends readings as a thermo-hygro sensor with a fixed
// channel and random id.
type ThermoHygroTransmitter struct {
	tx       *Transmitter
	channel  uint8
	randomID uint8
}

// NewThermoHygroTransmitter returns a sensor on channel 1..5 with the given
// random id.
func NewThermoHygroTransmitter(sink rf.PulseSink, channel, randomID uint8) *ThermoHygroTransmitter {
	return &ThermoHygroTransmitter{
		tx:       NewTransmitter(sink),
		channel:  channel,
		randomID: randomID,
	}
}

// SendTempHumi sends a temperature in tenths of a degree and a relative
// humidity in percent.
func (t *ThermoHygroTransmitter) SendTempHumi(tenths int16, humidity uint8) error {
	packet, err := ThermoHygroPacket(Reading{
		Channel:     t.channel,
		RandomID:    t.randomID,
		Temperature: tenths,
		Humidity:    humidity,
	})
	if err != nil {
		return err
	}
	return t.tx.SendPackage(packet)
}
