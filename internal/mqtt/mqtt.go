// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/sweeney/rf433/internal/bridge"
	"github.com/sweeney/rf433/internal/hideki"
	"github.com/sweeney/rf433/internal/newremote"
)

// Topics.
const (
	// TopicRemote carries decoded remote control codes.
	TopicRemote = "home/rf433/remote"
	// TopicSensor carries sensor readings and undecoded sensor frames.
	TopicSensor = "home/rf433/sensor"
	// TopicSystem carries system lifecycle events.
	TopicSystem = "home/rf433/system"
	// TopicCommand is subscribed to for transmit requests.
	TopicCommand = "home/rf433/command"
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a received event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event bridge.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// CommandSource delivers transmit requests received from the broker.
type CommandSource interface {
	Commands() <-chan bridge.Command
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// TopicFor returns the topic an event is published on.
func TopicFor(event bridge.Event) string {
	if event.Type == bridge.EventRemote {
		return TopicRemote
	}
	return TopicSensor
}

// RemotePayload is the message for a remote control code.
type RemotePayload struct {
	Remote RemotePayloadInner `json:"remote"`
}

// RemotePayloadInner contains the decoded code.
type RemotePayloadInner struct {
	Timestamp string `json:"timestamp"`
	Address   uint32 `json:"address"`
	Unit      uint8  `json:"unit"`
	Group     bool   `json:"group"`
	Switch    string `json:"switch"`
	DimLevel  *uint8 `json:"dim_level,omitempty"`
	PeriodUs  uint32 `json:"period_us"`
}

// SensorPayload is the message for a sensor frame.
type SensorPayload struct {
	Sensor SensorPayloadInner `json:"sensor"`
}

// SensorPayloadInner contains the frame and, for thermo-hygro sensors, the
// decoded reading.
type SensorPayloadInner struct {
	Timestamp  string          `json:"timestamp"`
	Event      string          `json:"event"`
	SensorType byte            `json:"sensor_type"`
	Frame      string          `json:"frame"`
	Reading    *ReadingPayload `json:"reading,omitempty"`
}

// ReadingPayload is a thermo-hygro reading.
type ReadingPayload struct {
	Channel     uint8   `json:"channel"`
	RandomID    uint8   `json:"random_id"`
	Temperature float64 `json:"temperature"`
	Humidity    uint8   `json:"humidity"`
}

// FormatPayload creates the JSON payload for a received event.
func FormatPayload(event bridge.Event) ([]byte, error) {
	ts := event.Timestamp.UTC().Format(time.RFC3339)

	if event.Type == bridge.EventRemote {
		c := event.Remote
		inner := RemotePayloadInner{
			Timestamp: ts,
			Address:   c.Address,
			Unit:      c.Unit,
			Group:     c.GroupBit,
			Switch:    c.SwitchType.String(),
			PeriodUs:  c.Period,
		}
		if c.DimLevelPresent || c.SwitchType == newremote.Dim {
			level := c.DimLevel
			inner.DimLevel = &level
		}
		return json.Marshal(RemotePayload{Remote: inner})
	}

	inner := SensorPayloadInner{
		Timestamp:  ts,
		Event:      string(event.Type),
		SensorType: hideki.SensorType(event.Frame),
		Frame:      hex.EncodeToString(event.Frame),
	}
	if event.Type == bridge.EventSensor {
		r := event.Reading
		inner.Reading = &ReadingPayload{
			Channel:     r.Channel,
			RandomID:    r.RandomID,
			Temperature: r.Celsius(),
			Humidity:    r.Humidity,
		}
	}
	return json.Marshal(SensorPayload{Sensor: inner})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
