package hideki

import (
	"errors"
	"fmt"
)

// Thermo-hygro limits.
const (
	MinChannel     = 1
	MaxChannel     = 5
	MaxRandomID    = 0x1f
	MaxHumidity    = 99
	MaxTemperature = 999 // tenths of a degree
)

// thermoHygroLength is the length byte of a thermo-hygro package.
const thermoHygroLength = 0xce

// TypeThermoHygro is the sensor type of thermo-hygro packages.
const TypeThermoHygro = 0x1e

// SensorType returns the sensor type, the low 5 bits of byte 3 of a
// descrambled frame.
func SensorType(frame []byte) byte {
	if len(frame) < 4 {
		return 0
	}
	return frame[3] & 0x1f
}

var (
	ErrShortFrame       = errors.New("hideki: frame too short")
	ErrChannel          = errors.New("hideki: channel out of range")
	ErrRandomID         = errors.New("hideki: random id out of range")
	ErrTemperatureRange = errors.New("hideki: temperature out of range")
	ErrHumidityRange    = errors.New("hideki: humidity out of range")
)

// Reading is a decoded thermo-hygro package.
type Reading struct {
	Channel  uint8
	RandomID uint8
	// Temperature in tenths of a degree Celsius.
	Temperature int16
	Humidity    uint8
}

// Celsius returns the temperature in degrees.
func (r Reading) Celsius() float64 {
	return float64(r.Temperature) / 10
}

func (r Reading) String() string {
	return fmt.Sprintf("channel %d id %d %.1f°C %d%%", r.Channel, r.RandomID, r.Celsius(), r.Humidity)
}

// DecodeThermoHygro extracts a reading from a descrambled frame.
func DecodeThermoHygro(frame []byte) (Reading, error) {
	if len(frame) < 7 {
		return Reading{}, ErrShortFrame
	}

	// Channel 4 is used by the other sensor types (rain, UV, wind), so the
	// device's channels 4 and 5 go on air as 5 and 6.
	channel := frame[1] >> 5
	if channel >= 5 {
		channel--
	}

	temp := 100*int16(frame[5]&0x0f) + 10*int16(frame[4]>>4) + int16(frame[4]&0x0f)
	if frame[5]&0x80 == 0 {
		temp = -temp
	}

	return Reading{
		Channel:     channel,
		RandomID:    frame[1] & 0x1f,
		Temperature: temp,
		Humidity:    10*(frame[6]>>4) + frame[6]&0x0f,
	}, nil
}

// ThermoHygroPacket builds the unscrambled package for a reading. Byte 3
// is left zero; the transmitter fills in type and counter.
func ThermoHygroPacket(r Reading) ([]byte, error) {
	if r.Channel < MinChannel || r.Channel > MaxChannel {
		return nil, ErrChannel
	}
	if r.RandomID > MaxRandomID {
		return nil, ErrRandomID
	}
	if r.Temperature < -MaxTemperature || r.Temperature > MaxTemperature {
		return nil, ErrTemperatureRange
	}
	if r.Humidity > MaxHumidity {
		return nil, ErrHumidityRange
	}

	channel := r.Channel
	if channel >= 4 {
		channel++
	}

	// High nibble 0xc for positive temperatures, 0x4 below zero.
	sign := byte(0xc0)
	temp := r.Temperature
	if temp < 0 {
		sign = 0x40
		temp = -temp
	}

	return []byte{
		Header,
		channel<<5 | r.RandomID,
		thermoHygroLength,
		0,
		byte(temp%100/10)<<4 | byte(temp%10),
		sign | byte(temp/100),
		r.Humidity/10<<4 | r.Humidity%10,
		0xff, // comfort flag
	}, nil
}
