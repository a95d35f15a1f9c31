package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/sweeney/rf433/internal/bridge"
	"github.com/sweeney/rf433/internal/hideki"
	"github.com/sweeney/rf433/internal/newremote"
	"github.com/sweeney/rf433/internal/rcswitch"
)

// Command validation errors.
var (
	ErrInvalidJSON     = errors.New("mqtt: invalid command JSON")
	ErrUnknownProtocol = errors.New("mqtt: unknown protocol")
	ErrUnknownAction   = errors.New("mqtt: unknown action")
	ErrMissingField    = errors.New("mqtt: missing field")
	ErrOutOfRange      = errors.New("mqtt: value out of range")
)

// CommandMessage is the JSON body of a transmit request, e.g.
//
//	{"protocol":"newremote","action":"on","address":123456,"unit":4}
//	{"protocol":"rcswitch","id":1,"group":"11011","device":"10000","action":"off"}
//	{"protocol":"thermohygro","channel":2,"random_id":17,"temperature":23.5,"humidity":47}
type CommandMessage struct {
	Protocol string `json:"protocol"`
	Action   string `json:"action,omitempty"`

	// newremote
	Address *int64 `json:"address,omitempty"`
	Unit    int64  `json:"unit,omitempty"`
	Level   *int64 `json:"level,omitempty"`

	// rcswitch
	ID       int    `json:"id,omitempty"`
	Group    string `json:"group,omitempty"`
	Device   string `json:"device,omitempty"`
	TriState string `json:"tristate,omitempty"`

	// thermohygro
	Channel     int64    `json:"channel,omitempty"`
	RandomID    int64    `json:"random_id,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    int64    `json:"humidity,omitempty"`
}

// ParseCommand decodes and validates a transmit request.
func ParseCommand(payload []byte) (bridge.Command, error) {
	var m CommandMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return bridge.Command{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return CommandFromMessage(m)
}

// CommandFromMessage validates a decoded transmit request.
func CommandFromMessage(m CommandMessage) (bridge.Command, error) {
	switch bridge.Protocol(m.Protocol) {
	case bridge.ProtocolNewRemote:
		return parseNewRemote(m)
	case bridge.ProtocolRcSwitch:
		return parseRcSwitch(m)
	case bridge.ProtocolThermoHygro:
		return parseThermoHygro(m)
	default:
		return bridge.Command{}, fmt.Errorf("%w: %q", ErrUnknownProtocol, m.Protocol)
	}
}

func parseNewRemote(m CommandMessage) (bridge.Command, error) {
	if m.Address == nil {
		return bridge.Command{}, fmt.Errorf("%w: address", ErrMissingField)
	}
	if *m.Address < 0 || *m.Address > newremote.MaxAddress {
		return bridge.Command{}, fmt.Errorf("%w: address %d", ErrOutOfRange, *m.Address)
	}
	if m.Unit < 0 || m.Unit > newremote.MaxUnit {
		return bridge.Command{}, fmt.Errorf("%w: unit %d", ErrOutOfRange, m.Unit)
	}

	cmd := newremote.Command{
		Address: uint32(*m.Address),
		Unit:    uint8(m.Unit),
	}
	switch m.Action {
	case "on":
		cmd.Switch = newremote.On
	case "off":
		cmd.Switch = newremote.Off
	case "group_on":
		cmd.Switch = newremote.On
		cmd.Group = true
	case "group_off":
		cmd.Switch = newremote.Off
		cmd.Group = true
	case "dim":
		if m.Level == nil {
			return bridge.Command{}, fmt.Errorf("%w: level", ErrMissingField)
		}
		if *m.Level < 0 || *m.Level > newremote.MaxDimLevel {
			return bridge.Command{}, fmt.Errorf("%w: level %d", ErrOutOfRange, *m.Level)
		}
		cmd.Switch = newremote.Dim
		cmd.DimLevel = uint8(*m.Level)
	default:
		return bridge.Command{}, fmt.Errorf("%w: %q", ErrUnknownAction, m.Action)
	}

	return bridge.Command{Protocol: bridge.ProtocolNewRemote, NewRemote: cmd}, nil
}

func parseRcSwitch(m CommandMessage) (bridge.Command, error) {
	if m.ID != 0 {
		if _, err := rcswitch.ProtocolByID(m.ID); err != nil {
			return bridge.Command{}, fmt.Errorf("%w: id %d", ErrOutOfRange, m.ID)
		}
	}

	rc := bridge.RcSwitchCommand{Protocol: m.ID}
	if m.TriState != "" {
		if _, _, err := rcswitch.TriStateBits(m.TriState); err != nil {
			return bridge.Command{}, fmt.Errorf("%w: tristate: %v", ErrOutOfRange, err)
		}
		rc.TriState = m.TriState
		return bridge.Command{Protocol: bridge.ProtocolRcSwitch, RcSwitch: rc}, nil
	}

	if m.Group == "" || m.Device == "" {
		return bridge.Command{}, fmt.Errorf("%w: group and device, or tristate", ErrMissingField)
	}
	switch m.Action {
	case "on":
		rc.On = true
	case "off":
	default:
		return bridge.Command{}, fmt.Errorf("%w: %q", ErrUnknownAction, m.Action)
	}
	rc.Group = m.Group
	rc.Device = m.Device

	return bridge.Command{Protocol: bridge.ProtocolRcSwitch, RcSwitch: rc}, nil
}

func parseThermoHygro(m CommandMessage) (bridge.Command, error) {
	if m.Temperature == nil {
		return bridge.Command{}, fmt.Errorf("%w: temperature", ErrMissingField)
	}
	if m.Channel < hideki.MinChannel || m.Channel > hideki.MaxChannel {
		return bridge.Command{}, fmt.Errorf("%w: channel %d", ErrOutOfRange, m.Channel)
	}
	if m.RandomID < 0 || m.RandomID > hideki.MaxRandomID {
		return bridge.Command{}, fmt.Errorf("%w: random_id %d", ErrOutOfRange, m.RandomID)
	}
	if m.Humidity < 0 || m.Humidity > hideki.MaxHumidity {
		return bridge.Command{}, fmt.Errorf("%w: humidity %d", ErrOutOfRange, m.Humidity)
	}
	tenths := math.Round(*m.Temperature * 10)
	if math.IsNaN(tenths) || math.Abs(tenths) > hideki.MaxTemperature {
		return bridge.Command{}, fmt.Errorf("%w: temperature %.1f", ErrOutOfRange, *m.Temperature)
	}

	return bridge.Command{
		Protocol: bridge.ProtocolThermoHygro,
		Reading: hideki.Reading{
			Channel:     uint8(m.Channel),
			RandomID:    uint8(m.RandomID),
			Temperature: int16(tenths),
			Humidity:    uint8(m.Humidity),
		},
	}, nil
}
