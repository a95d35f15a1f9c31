// Package bridge connects the RF decoders and encoders to the daemon.
// This package has NO I/O of its own (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package bridge

import (
	"fmt"
	"time"

	"github.com/sweeney/rf433/internal/hideki"
	"github.com/sweeney/rf433/internal/newremote"
)

// EventType identifies what was received.
type EventType string

const (
	EventRemote EventType = "REMOTE"
	EventSensor EventType = "SENSOR"
	// EventSensorRaw is a valid Hideki frame from a sensor type that is not
	// decoded (rain, wind, UV).
	EventSensorRaw EventType = "SENSOR_RAW"
)

// Event is one decoded record to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	// Remote is set for EventRemote.
	Remote newremote.Code
	// Reading is set for EventSensor.
	Reading hideki.Reading
	// Frame is the descrambled frame for EventSensor and EventSensorRaw.
	Frame []byte
}

// Counts tracks what the bridge has seen and sent since startup.
type Counts struct {
	Remote      int
	Sensor      int
	SensorRaw   int
	Suppressed  int // repeats within the debounce window
	Rejected    int // sensor frames failing the checksum
	Transmitted int // pulse trains written
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
}

// Protocol selects the encoder of a Command.
type Protocol string

const (
	ProtocolNewRemote   Protocol = "newremote"
	ProtocolRcSwitch    Protocol = "rcswitch"
	ProtocolThermoHygro Protocol = "thermohygro"
)

// Command is a request to transmit.
type Command struct {
	Protocol Protocol
	// NewRemote is used with ProtocolNewRemote.
	NewRemote newremote.Command
	// RcSwitch is used with ProtocolRcSwitch.
	RcSwitch RcSwitchCommand
	// Reading is sent with ProtocolThermoHygro.
	Reading hideki.Reading
}

// RcSwitchCommand switches a fixed-code socket. Either TriState or Group
// and Device are set.
type RcSwitchCommand struct {
	// Protocol is 1..6; 0 selects the configured default.
	Protocol int
	// Group and Device are the DIP switch settings, e.g. "11011".
	Group  string
	Device string
	On     bool
	// TriState is a raw code word of '0', '1' and 'F'.
	TriState string
}

func (c Command) String() string {
	switch c.Protocol {
	case ProtocolNewRemote:
		n := c.NewRemote
		switch {
		case n.Switch == newremote.Dim:
			return fmt.Sprintf("newremote %d/%d dim %d", n.Address, n.Unit, n.DimLevel)
		case n.Group:
			return fmt.Sprintf("newremote %d group %s", n.Address, n.Switch)
		default:
			return fmt.Sprintf("newremote %d/%d %s", n.Address, n.Unit, n.Switch)
		}
	case ProtocolRcSwitch:
		r := c.RcSwitch
		if r.TriState != "" {
			return fmt.Sprintf("rcswitch p%d %s", r.Protocol, r.TriState)
		}
		state := "off"
		if r.On {
			state = "on"
		}
		return fmt.Sprintf("rcswitch p%d %s/%s %s", r.Protocol, r.Group, r.Device, state)
	case ProtocolThermoHygro:
		return "thermohygro " + c.Reading.String()
	default:
		return fmt.Sprintf("unknown protocol %q", string(c.Protocol))
	}
}
