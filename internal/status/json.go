package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"counts"`
	LastRemote    *RemoteJSON  `json:"last_remote,omitempty"`
	LastReading   *ReadingJSON `json:"last_reading,omitempty"`
	LastCommand   *CommandJSON `json:"last_command,omitempty"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of the bridge counters.
type CountsJSON struct {
	Remote       int    `json:"remote"`
	Sensor       int    `json:"sensor"`
	SensorRaw    int    `json:"sensor_raw"`
	Suppressed   int    `json:"suppressed"`
	Rejected     int    `json:"rejected"`
	Transmitted  int    `json:"transmitted"`
	DroppedEdges uint64 `json:"dropped_edges"`
}

// RemoteJSON is the last received remote code.
type RemoteJSON struct {
	Address  uint32 `json:"address"`
	Unit     uint8  `json:"unit"`
	Group    bool   `json:"group"`
	Switch   string `json:"switch"`
	DimLevel *uint8 `json:"dim_level,omitempty"`
	Seen     string `json:"seen"`
}

// ReadingJSON is the last received sensor reading.
type ReadingJSON struct {
	Channel     uint8   `json:"channel"`
	RandomID    uint8   `json:"random_id"`
	Temperature float64 `json:"temperature"`
	Humidity    uint8   `json:"humidity"`
	Seen        string  `json:"seen"`
}

// CommandJSON is the last transmit request.
type CommandJSON struct {
	Command   string `json:"command"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error,omitempty"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Chip        string `json:"chip"`
	RXPin       int    `json:"rx_pin"`
	TXPin       int    `json:"tx_pin"`
	DebounceMs  int64  `json:"debounce_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	WSBroker    string `json:"ws_broker,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	c := snap.Counts
	inner := StatusInner{
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Remote:       c.Remote,
			Sensor:       c.Sensor,
			SensorRaw:    c.SensorRaw,
			Suppressed:   c.Suppressed,
			Rejected:     c.Rejected,
			Transmitted:  c.Transmitted,
			DroppedEdges: snap.DroppedEdges,
		},
		Config: ConfigJSON{
			Chip:        snap.Config.Chip,
			RXPin:       snap.Config.RXPin,
			TXPin:       snap.Config.TXPin,
			DebounceMs:  snap.Config.DebounceMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			WSBroker:    snap.Config.WSBroker,
		},
	}

	if r := snap.LastRemote; r != nil {
		inner.LastRemote = &RemoteJSON{
			Address: r.Address,
			Unit:    r.Unit,
			Group:   r.GroupBit,
			Switch:  r.SwitchType.String(),
			Seen:    snap.LastRemoteAt.UTC().Format(time.RFC3339),
		}
		if r.DimLevelPresent {
			level := r.DimLevel
			inner.LastRemote.DimLevel = &level
		}
	}
	if r := snap.LastReading; r != nil {
		inner.LastReading = &ReadingJSON{
			Channel:     r.Channel,
			RandomID:    r.RandomID,
			Temperature: r.Celsius(),
			Humidity:    r.Humidity,
			Seen:        snap.LastReadingAt.UTC().Format(time.RFC3339),
		}
	}
	if snap.LastCommand != "" {
		inner.LastCommand = &CommandJSON{
			Command:   snap.LastCommand,
			Timestamp: snap.LastCommandAt.UTC().Format(time.RFC3339),
			Error:     snap.LastCommandError,
		}
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
