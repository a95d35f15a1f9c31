package bridge

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/rf433/internal/hideki"
	"github.com/sweeney/rf433/internal/newremote"
	"github.com/sweeney/rf433/internal/rcswitch"
	"github.com/sweeney/rf433/internal/rf"
)

// ErrUnknownProtocol is returned by Execute for commands without an encoder.
var ErrUnknownProtocol = errors.New("bridge: unknown protocol")

// Config holds decoder and encoder settings. Zero values select the
// package defaults of the protocol packages.
type Config struct {
	MinRepeats  int
	ShortPeriod uint32
	Period      uint32
	Repeats     uint
	PulseWidth  uint32

	PulseShort uint32
	PulseLong  uint32

	RcProtocol int
	RcRepeats  int

	// Debounce suppresses a code or reading identical to the previous one
	// seen within this window. Remotes repeat a frame for as long as the
	// button is held.
	Debounce time.Duration
}

// PulseWriter drives the transmitter.
type PulseWriter interface {
	WritePulses(start rf.Level, durations []uint32) error
}

// Bridge owns the receivers and transmitters.
type Bridge struct {
	cfg      Config
	interval *rf.Interval
	remote   *newremote.Receiver
	sensor   *hideki.Receiver

	// now and pending are only valid during HandleEdge.
	now     time.Time
	pending []Event

	lastRemote    *newremote.Code
	lastRemoteAt  time.Time
	lastReading   *hideki.Reading
	lastReadingAt time.Time

	counts        Counts
	startTime     time.Time
	lastHeartbeat time.Time
}

// New creates a Bridge with both receivers enabled.
func New(cfg Config, startTime time.Time) *Bridge {
	b := &Bridge{
		cfg:           cfg,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
	b.remote = newremote.NewReceiver(cfg.MinRepeats, cfg.ShortPeriod, b.onCode)
	b.sensor = hideki.NewReceiver(cfg.PulseShort, cfg.PulseLong, b.onFrame)
	b.interval = rf.NewInterval(rf.NewChain(b.remote, b.sensor))
	return b
}

// HandleEdge runs one edge with an absolute tick through the receivers and
// returns the events it completed, usually none.
func (b *Bridge) HandleEdge(e rf.Edge, now time.Time) []Event {
	b.now = now
	b.pending = nil
	b.interval.HandleEdge(e.Level, e.Tick)
	return b.pending
}

// HandleTrain runs the edges a receiver would observe for train, starting
// with the edge that begins its first pulse at tick start. It returns the
// completed events and the tick of the last edge.
func (b *Bridge) HandleTrain(start uint32, train rf.PulseTrain, now time.Time) ([]Event, uint32) {
	events := b.HandleEdge(rf.Edge{Level: train.StartLevel, Tick: start}, now)
	last := start
	for _, e := range train.Edges(start) {
		events = append(events, b.HandleEdge(e, now)...)
		last = e.Tick
	}
	return events, last
}

// ResetTick sets the reference for the duration of the next edge, e.g.
// after edges were discarded.
func (b *Bridge) ResetTick(tick uint32) {
	b.interval.Reset(tick)
}

func (b *Bridge) onCode(c newremote.Code) {
	if b.lastRemote != nil && b.lastRemote.SameCommand(c) && b.now.Sub(b.lastRemoteAt) < b.cfg.Debounce {
		b.lastRemoteAt = b.now
		b.counts.Suppressed++
		return
	}
	b.lastRemote = &c
	b.lastRemoteAt = b.now
	b.counts.Remote++
	b.pending = append(b.pending, Event{
		Timestamp: b.now,
		Type:      EventRemote,
		Remote:    c,
	})
}

func (b *Bridge) onFrame(frame []byte) {
	if hideki.SensorType(frame) != hideki.TypeThermoHygro {
		b.counts.SensorRaw++
		b.pending = append(b.pending, Event{
			Timestamp: b.now,
			Type:      EventSensorRaw,
			Frame:     frame,
		})
		return
	}

	r, err := hideki.DecodeThermoHygro(frame)
	if err != nil {
		return
	}
	if b.lastReading != nil && *b.lastReading == r && b.now.Sub(b.lastReadingAt) < b.cfg.Debounce {
		b.lastReadingAt = b.now
		b.counts.Suppressed++
		return
	}
	b.lastReading = &r
	b.lastReadingAt = b.now
	b.counts.Sensor++
	b.pending = append(b.pending, Event{
		Timestamp: b.now,
		Type:      EventSensor,
		Reading:   r,
		Frame:     frame,
	})
}

// Execute encodes cmd and writes it to w. Both receivers are disabled while
// transmitting and come back reset, so the bridge does not decode its own
// signal.
func (b *Bridge) Execute(cmd Command, w PulseWriter) error {
	b.remote.Disable()
	b.sensor.Disable()
	defer func() {
		b.remote.Enable()
		b.sensor.Enable()
	}()

	var writeErr error
	sink := func(start rf.Level, durations []uint32) {
		if writeErr != nil {
			return
		}
		if err := w.WritePulses(start, durations); err != nil {
			writeErr = fmt.Errorf("write pulses: %w", err)
			return
		}
		b.counts.Transmitted++
	}

	var err error
	switch cmd.Protocol {
	case ProtocolNewRemote:
		tx := newremote.NewTransmitter(sink, b.cfg.Period, b.cfg.Repeats, b.cfg.PulseWidth)
		tx.Transmit(cmd.NewRemote)
	case ProtocolRcSwitch:
		err = b.sendRcSwitch(cmd.RcSwitch, sink)
	case ProtocolThermoHygro:
		tx := hideki.NewThermoHygroTransmitter(sink, cmd.Reading.Channel, cmd.Reading.RandomID)
		err = tx.SendTempHumi(cmd.Reading.Temperature, cmd.Reading.Humidity)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownProtocol, string(cmd.Protocol))
	}
	if err != nil {
		return err
	}
	return writeErr
}

func (b *Bridge) sendRcSwitch(cmd RcSwitchCommand, sink rf.PulseSink) error {
	id := cmd.Protocol
	if id == 0 {
		id = b.cfg.RcProtocol
	}
	s, err := rcswitch.NewSwitch(sink, id, b.cfg.RcRepeats)
	if err != nil {
		return err
	}
	if cmd.TriState != "" {
		return s.SendTriState(cmd.TriState)
	}
	if cmd.On {
		return s.SwitchOn(cmd.Group, cmd.Device)
	}
	return s.SwitchOff(cmd.Group, cmd.Device)
}

// Receiving reports whether a remote frame is partly received, so a
// transmission now would likely collide.
func (b *Bridge) Receiving() bool {
	return b.remote.Receiving()
}

// Counts returns a copy of the counters.
func (b *Bridge) Counts() Counts {
	c := b.counts
	c.Rejected = int(b.sensor.Rejected())
	return c
}

// LastRemote returns the last reported code and when it was last seen.
func (b *Bridge) LastRemote() (*newremote.Code, time.Time) {
	if b.lastRemote == nil {
		return nil, time.Time{}
	}
	c := *b.lastRemote
	return &c, b.lastRemoteAt
}

// LastReading returns the last reported reading and when it was last seen.
func (b *Bridge) LastReading() (*hideki.Reading, time.Time) {
	if b.lastReading == nil {
		return nil, time.Time{}
	}
	r := *b.lastReading
	return &r, b.lastReadingAt
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (b *Bridge) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(b.lastHeartbeat) < interval {
		return nil
	}

	b.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(b.startTime),
		Counts:    b.Counts(),
	}
}
