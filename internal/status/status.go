// Package status provides a thread-safe status tracker for the rf433-bridge daemon.
// It is read by the HTTP handlers and the MQTT lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/rf433/internal/bridge"
	"github.com/sweeney/rf433/internal/hideki"
	"github.com/sweeney/rf433/internal/newremote"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Chip        string
	RXPin       int
	TXPin       int
	DebounceMs  int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	WSBroker    string // Websocket broker URL for browser MQTT (empty = disabled)
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Counts       bridge.Counts
	DroppedEdges uint64

	LastRemote    *newremote.Code
	LastRemoteAt  time.Time
	LastReading   *hideki.Reading
	LastReadingAt time.Time

	LastCommand      string
	LastCommandAt    time.Time
	LastCommandError string

	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the bridge counters and the number of edges lost by the
// edge source. Called from runLoop after every batch of edges.
func (t *Tracker) Update(counts bridge.Counts, droppedEdges uint64) {
	t.mu.Lock()
	t.snap.Counts = counts
	t.snap.DroppedEdges = droppedEdges
	t.mu.Unlock()
}

// Record remembers the latest remote code or sensor reading.
func (t *Tracker) Record(e bridge.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch e.Type {
	case bridge.EventRemote:
		c := e.Remote
		t.snap.LastRemote = &c
		t.snap.LastRemoteAt = e.Timestamp
	case bridge.EventSensor:
		r := e.Reading
		t.snap.LastReading = &r
		t.snap.LastReadingAt = e.Timestamp
	}
}

// RecordCommand remembers the latest transmit request and its outcome.
func (t *Tracker) RecordCommand(cmd bridge.Command, at time.Time, err error) {
	t.mu.Lock()
	t.snap.LastCommand = cmd.String()
	t.snap.LastCommandAt = at
	t.snap.LastCommandError = ""
	if err != nil {
		t.snap.LastCommandError = err.Error()
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
