package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/rf433/internal/bridge"
	"github.com/sweeney/rf433/internal/config"
	"github.com/sweeney/rf433/internal/gpio"
	"github.com/sweeney/rf433/internal/hideki"
	"github.com/sweeney/rf433/internal/mqtt"
	"github.com/sweeney/rf433/internal/newremote"
	"github.com/sweeney/rf433/internal/rf"
	"github.com/sweeney/rf433/internal/status"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// TestEnvVarNames verifies the env var constants match what pi-helper writes
// to /run/pi-helper.env.
func TestEnvVarNames(t *testing.T) {
	want := map[string]string{
		"NETWORK_TYPE":        envNetworkType,
		"NETWORK_IP":          envNetworkIP,
		"NETWORK_STATUS":      envNetworkStatus,
		"NETWORK_GATEWAY":     envNetworkGateway,
		"NETWORK_WIFI_STATUS": envNetworkWifiStatus,
		"NETWORK_WIFI_SSID":   envNetworkWifiSSID,
	}
	for canonical, got := range want {
		if got != canonical {
			t.Errorf("env var constant: got %q, want %q", got, canonical)
		}
	}
}

func TestReadNetworkInfoAllSet(t *testing.T) {
	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.100")
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkGateway, "192.168.1.1")
	t.Setenv(envNetworkWifiStatus, "connected")
	t.Setenv(envNetworkWifiSSID, "MyNetwork")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo")
	}
	want := status.NetworkInfo{
		Type:       "wifi",
		IP:         "192.168.1.100",
		Status:     "connected",
		Gateway:    "192.168.1.1",
		WifiStatus: "connected",
		SSID:       "MyNetwork",
	}
	if *info != want {
		t.Errorf("got %+v, want %+v", *info, want)
	}
}

func TestReadNetworkInfoNoneSet(t *testing.T) {
	t.Setenv(envNetworkStatus, "")
	if info := readNetworkInfo(); info != nil {
		t.Errorf("expected nil when NETWORK_STATUS is unset, got %+v", info)
	}
}

func TestReadNetworkInfoPartial(t *testing.T) {
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkIP, "")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo when NETWORK_STATUS is set")
	}
	if info.Status != "connected" {
		t.Errorf("Status: got %q, want %q", info.Status, "connected")
	}
	if info.IP != "" {
		t.Errorf("IP: got %q, want empty", info.IP)
	}
}

func TestResolveWSBroker(t *testing.T) {
	tests := []struct {
		ws, broker, want string
	}{
		{"=broker", "tcp://192.168.1.200:1883", "ws://192.168.1.200:9001"},
		{"=broker", "tcp://mqtt.local:1883", "ws://mqtt.local:9001"},
		{"off", "tcp://192.168.1.200:1883", ""},
		{"", "tcp://192.168.1.200:1883", ""},
		{"ws://other:8080/mqtt", "tcp://192.168.1.200:1883", "ws://other:8080/mqtt"},
		{"=broker", "://bad", ""},
	}
	for _, tt := range tests {
		if got := resolveWSBroker(tt.ws, tt.broker); got != tt.want {
			t.Errorf("resolveWSBroker(%q, %q): got %q, want %q", tt.ws, tt.broker, got, tt.want)
		}
	}
}

func TestApplyServeFlags(t *testing.T) {
	saved := serveOpts
	t.Cleanup(func() { serveOpts = saved })

	serveOpts.broker = "tcp://10.0.0.1:1883"
	serveOpts.rxPin = 22
	serveOpts.debounce = 3 * time.Second
	serveOpts.httpAddr = ":8080"

	changed := map[string]bool{"broker": true, "rx-pin": true, "debounce": true}
	cfg := config.Default()
	applyServeFlags(func(name string) bool { return changed[name] }, cfg)

	if cfg.MQTT.Broker != "tcp://10.0.0.1:1883" {
		t.Errorf("Broker: got %q", cfg.MQTT.Broker)
	}
	if cfg.GPIO.RXPin != 22 {
		t.Errorf("RXPin: got %d", cfg.GPIO.RXPin)
	}
	if cfg.Debounce != 3*time.Second {
		t.Errorf("Debounce: got %v", cfg.Debounce)
	}
	if cfg.HTTP.Addr != config.Default().HTTP.Addr {
		t.Errorf("unchanged flag applied: HTTP.Addr = %q", cfg.HTTP.Addr)
	}
}

func TestBridgeConfig(t *testing.T) {
	cfg := config.Default()
	cfg.NewRemote.MinRepeats = 3
	cfg.Hideki.PulseLong = 900
	cfg.RcSwitch.Protocol = 1
	cfg.Debounce = 2 * time.Second

	bc := bridgeConfig(cfg)
	if bc.MinRepeats != 3 || bc.PulseLong != 900 || bc.RcProtocol != 1 || bc.Debounce != 2*time.Second {
		t.Errorf("unexpected mapping: %+v", bc)
	}
	if bc.Period != cfg.NewRemote.Period || bc.RcRepeats != cfg.RcSwitch.Repeats {
		t.Errorf("unexpected mapping: %+v", bc)
	}
}

// --- loop tests ---

// testClock is a settable clock shared between the test and the loop.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type harness struct {
	src     *gpio.FakeEdgeSource
	tx      *gpio.FakePulseWriter
	pub     *mqtt.FakePublisher
	tracker *status.Tracker
	clock   *testClock

	tick  chan time.Time
	sig   chan os.Signal
	errCh chan error
}

func newHarness() *harness {
	h := &harness{
		src:     gpio.NewFakeEdgeSource(gpio.DefaultEdgeBuffer),
		tx:      &gpio.FakePulseWriter{},
		pub:     mqtt.NewFakePublisher(),
		tracker: status.NewTracker(t0, status.Config{}),
		clock:   &testClock{now: t0},
		tick:    make(chan time.Time),
		sig:     make(chan os.Signal, 1),
		errCh:   make(chan error, 1),
	}
	h.pub.Connected = true
	return h
}

func (h *harness) start(cfg bridge.Config, heartbeat time.Duration) {
	l := &loop{
		edges:      h.src,
		tx:         h.tx,
		pub:        h.pub,
		mqttStatus: h.pub,
		commands:   h.pub.Commands(),
		tracker:    h.tracker,
		heartbeat:  heartbeat,
		now:        h.clock.Now,
	}
	go func() {
		h.errCh <- l.run(cfg, h.tick, h.sig)
	}()
}

func startLoop(t *testing.T, cfg bridge.Config, heartbeat time.Duration) *harness {
	t.Helper()
	h := newHarness()
	h.start(cfg, heartbeat)
	return h
}

// waitIdle waits until the loop has taken every queued edge and command.
// A following send on tick or sig is handled after they are processed.
func (h *harness) waitIdle(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for len(h.src.Edges()) > 0 || len(h.pub.Commands()) > 0 {
		if time.Now().After(deadline) {
			t.Fatal("loop did not drain its inputs")
		}
		time.Sleep(time.Millisecond)
	}
}

func (h *harness) stop(t *testing.T, s os.Signal) error {
	t.Helper()
	h.waitIdle(t)
	h.sig <- s
	select {
	case err := <-h.errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
		return nil
	}
}

func encodeCommand(t *testing.T, cmd bridge.Command) []rf.PulseTrain {
	t.Helper()
	w := &gpio.FakePulseWriter{}
	if err := bridge.New(bridge.Config{}, t0).Execute(cmd, w); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return w.Trains()
}

func remoteTrains(t *testing.T, address uint32, unit uint8) []rf.PulseTrain {
	return encodeCommand(t, bridge.Command{
		Protocol:  bridge.ProtocolNewRemote,
		NewRemote: newremote.Command{Address: address, Unit: unit, Switch: newremote.On},
	})
}

func sensorTrains(t *testing.T, r hideki.Reading) []rf.PulseTrain {
	return encodeCommand(t, bridge.Command{Protocol: bridge.ProtocolThermoHygro, Reading: r})
}

// pushTrains queues trains from tick on, each after 20ms of silence, and
// returns the tick of the last edge.
func pushTrains(src *gpio.FakeEdgeSource, tick uint32, trains []rf.PulseTrain) uint32 {
	for _, tr := range trains {
		tick = src.PushTrain(tick+20000, tr)
	}
	return tick
}

func TestLoopShutdownSignals(t *testing.T) {
	tests := []struct {
		sig  os.Signal
		want string
	}{
		{syscall.SIGINT, "SIGINT"},
		{syscall.SIGTERM, "SIGTERM"},
		{syscall.SIGHUP, "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			h := startLoop(t, bridge.Config{}, 0)
			if err := h.stop(t, tt.sig); err != nil {
				t.Fatalf("loop returned error: %v", err)
			}
			if names := h.pub.SystemEventNames(); len(names) != 1 || names[0] != "SHUTDOWN" {
				t.Fatalf("system events: got %v, want [SHUTDOWN]", names)
			}
			e := h.pub.SystemEvents[0]
			if e.Reason != tt.want {
				t.Errorf("Reason: got %q, want %q", e.Reason, tt.want)
			}
			if !e.Retained {
				t.Error("SHUTDOWN should be retained")
			}
			var payload status.StatusJSON
			if err := json.Unmarshal(h.pub.SystemPayloads[0], &payload); err != nil {
				t.Fatalf("payload: %v", err)
			}
			if payload.Status.Event != "SHUTDOWN" || payload.Status.Reason != tt.want {
				t.Errorf("payload: got event=%q reason=%q", payload.Status.Event, payload.Status.Reason)
			}
			if !payload.Status.MQTT.Connected {
				t.Error("payload should report the MQTT connection")
			}
		})
	}
}

func TestLoopPublishesRemote(t *testing.T) {
	h := startLoop(t, bridge.Config{}, 0)
	pushTrains(h.src, 0, remoteTrains(t, 123456, 4))

	if err := h.stop(t, syscall.SIGTERM); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}
	if len(h.pub.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(h.pub.Events))
	}
	if h.pub.Topics[0] != mqtt.TopicRemote {
		t.Errorf("topic: got %q, want %q", h.pub.Topics[0], mqtt.TopicRemote)
	}
	c := h.pub.Events[0].Remote
	if c.Address != 123456 || c.Unit != 4 || c.SwitchType != newremote.On {
		t.Errorf("unexpected code: %+v", c)
	}

	snap := h.tracker.Snapshot()
	if snap.LastRemote == nil || snap.LastRemote.Address != 123456 {
		t.Errorf("tracker LastRemote: got %+v", snap.LastRemote)
	}
	if snap.Counts.Remote != 1 {
		t.Errorf("tracker Counts.Remote: got %d, want 1", snap.Counts.Remote)
	}
}

func TestLoopPublishesSensorOnce(t *testing.T) {
	h := startLoop(t, bridge.Config{Debounce: time.Second}, 0)
	r := hideki.Reading{Channel: 2, RandomID: 17, Temperature: 235, Humidity: 47}
	pushTrains(h.src, 0, sensorTrains(t, r))

	if err := h.stop(t, syscall.SIGTERM); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}
	if len(h.pub.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(h.pub.Events))
	}
	if h.pub.Topics[0] != mqtt.TopicSensor {
		t.Errorf("topic: got %q, want %q", h.pub.Topics[0], mqtt.TopicSensor)
	}
	if h.pub.Events[0].Reading != r {
		t.Errorf("reading: got %+v, want %+v", h.pub.Events[0].Reading, r)
	}
	if got := h.tracker.Snapshot().Counts.Suppressed; got != 2 {
		t.Errorf("Suppressed: got %d, want 2", got)
	}
}

func TestLoopPublishErrorDoesNotStop(t *testing.T) {
	h := startLoop(t, bridge.Config{}, 0)
	h.pub.PublishError = errors.New("broker down")
	pushTrains(h.src, 0, remoteTrains(t, 99, 1))

	if err := h.stop(t, syscall.SIGTERM); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}
	if len(h.pub.Events) != 0 {
		t.Errorf("expected no recorded events, got %d", len(h.pub.Events))
	}
	if got := h.tracker.Snapshot().Counts.Remote; got != 1 {
		t.Errorf("Counts.Remote: got %d, want 1", got)
	}
	if names := h.pub.SystemEventNames(); len(names) != 1 || names[0] != "SHUTDOWN" {
		t.Errorf("system events: got %v", names)
	}
}

func TestLoopTransmitsCommand(t *testing.T) {
	h := startLoop(t, bridge.Config{}, 0)
	if err := h.pub.Receive([]byte(`{"protocol":"newremote","action":"on","address":123456,"unit":4}`)); err != nil {
		t.Fatalf("Receive: %v", err)
	}

	if err := h.stop(t, syscall.SIGTERM); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}
	if n := len(h.tx.Trains()); n != 1 {
		t.Fatalf("expected 1 train written, got %d", n)
	}
	snap := h.tracker.Snapshot()
	if snap.LastCommand != "newremote 123456/4 on" {
		t.Errorf("LastCommand: got %q", snap.LastCommand)
	}
	if snap.LastCommandError != "" {
		t.Errorf("LastCommandError: got %q", snap.LastCommandError)
	}
	if snap.Counts.Transmitted != 1 {
		t.Errorf("Counts.Transmitted: got %d, want 1", snap.Counts.Transmitted)
	}
}

func TestLoopRecordsTransmitError(t *testing.T) {
	h := startLoop(t, bridge.Config{}, 0)
	h.tx.WriteError = errors.New("line busy")
	if err := h.pub.Receive([]byte(`{"protocol":"rcswitch","group":"11011","device":"10000","action":"on"}`)); err != nil {
		t.Fatalf("Receive: %v", err)
	}

	if err := h.stop(t, syscall.SIGTERM); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}
	snap := h.tracker.Snapshot()
	if !strings.Contains(snap.LastCommandError, "line busy") {
		t.Errorf("LastCommandError: got %q", snap.LastCommandError)
	}
	if snap.Counts.Transmitted != 0 {
		t.Errorf("Counts.Transmitted: got %d, want 0", snap.Counts.Transmitted)
	}
}

func TestLoopDoesNotHearItself(t *testing.T) {
	h := startLoop(t, bridge.Config{}, 0)
	// The receiver picks up the transmitter.
	h.tx.OnWrite = func(tr rf.PulseTrain) {
		pushTrains(h.src, 1000000, []rf.PulseTrain{tr})
	}
	if err := h.pub.Receive([]byte(`{"protocol":"newremote","action":"off","address":555,"unit":2}`)); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	h.waitIdle(t)
	// Handled once the command is done.
	h.tick <- t0

	// A real remote afterwards is still decoded.
	pushTrains(h.src, 5000000, remoteTrains(t, 777, 3))

	if err := h.stop(t, syscall.SIGTERM); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}
	if len(h.pub.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(h.pub.Events))
	}
	if a := h.pub.Events[0].Remote.Address; a != 777 {
		t.Errorf("decoded address %d, want 777", a)
	}
}

func TestLoopDefersTransmitWhileReceiving(t *testing.T) {
	h := startLoop(t, bridge.Config{}, 0)

	// One frame and the beginning of the next: the receiver syncs on the
	// stop bit of the first.
	tr := remoteTrains(t, 123456, 4)[0]
	partial := rf.PulseTrain{StartLevel: tr.StartLevel, Durations: tr.Durations[:132+60]}
	pushTrains(h.src, 0, []rf.PulseTrain{partial})
	h.waitIdle(t)

	if err := h.pub.Receive([]byte(`{"protocol":"newremote","action":"on","address":1,"unit":1}`)); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	h.waitIdle(t)

	// The next tick sends regardless.
	later := t0.Add(time.Second)
	h.clock.Set(later)
	h.tick <- later

	if err := h.stop(t, syscall.SIGTERM); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}
	if n := len(h.tx.Trains()); n != 1 {
		t.Fatalf("expected 1 train written, got %d", n)
	}
	if at := h.tracker.Snapshot().LastCommandAt; !at.Equal(later) {
		t.Errorf("transmitted at %v, want %v (on the tick)", at, later)
	}
}

func TestLoopHeartbeat(t *testing.T) {
	h := startLoop(t, bridge.Config{}, time.Minute)

	h.tick <- t0.Add(30 * time.Second)
	h.tick <- t0.Add(time.Minute)
	h.tick <- t0.Add(90 * time.Second)

	if err := h.stop(t, syscall.SIGTERM); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}
	names := h.pub.SystemEventNames()
	if len(names) != 2 || names[0] != "HEARTBEAT" || names[1] != "SHUTDOWN" {
		t.Fatalf("system events: got %v, want [HEARTBEAT SHUTDOWN]", names)
	}
	hb := h.pub.SystemEvents[0]
	if !hb.Timestamp.Equal(t0.Add(time.Minute)) {
		t.Errorf("heartbeat timestamp: got %v", hb.Timestamp)
	}
	if hb.Retained {
		t.Error("HEARTBEAT should not be retained")
	}
	if !bytes.Contains(h.pub.SystemPayloads[0], []byte(`"HEARTBEAT"`)) {
		t.Errorf("heartbeat payload: %s", h.pub.SystemPayloads[0])
	}
}

func TestLoopHeartbeatPublishError(t *testing.T) {
	h := startLoop(t, bridge.Config{}, time.Minute)
	h.pub.PublishSystemError = errors.New("broker down")

	h.tick <- t0.Add(2 * time.Minute)

	if err := h.stop(t, syscall.SIGTERM); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}
	if len(h.pub.SystemEvents) != 0 {
		t.Errorf("expected no recorded system events, got %d", len(h.pub.SystemEvents))
	}
}

func TestLoopReportsDroppedEdges(t *testing.T) {
	h := newHarness()
	h.pub.Connected = false
	// Fill the channel beyond its capacity before the loop runs.
	for i := 0; i < gpio.DefaultEdgeBuffer+5; i++ {
		h.src.Push(rf.Edge{Level: rf.Level(i % 2), Tick: uint32(i) * 100})
	}
	h.start(bridge.Config{}, 0)
	h.tick <- t0

	if err := h.stop(t, syscall.SIGTERM); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}
	snap := h.tracker.Snapshot()
	if snap.DroppedEdges != 5 {
		t.Errorf("DroppedEdges: got %d, want 5", snap.DroppedEdges)
	}
	if snap.MQTTConnected {
		t.Error("expected MQTT disconnected")
	}
}

func TestLoopEdgeSourceClosed(t *testing.T) {
	h := startLoop(t, bridge.Config{}, 0)
	h.src.Close()

	select {
	case err := <-h.errCh:
		if !errors.Is(err, errEdgesClosed) {
			t.Errorf("got %v, want errEdgesClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
}

// --- send and capture ---

func withSendOpts(t *testing.T) {
	t.Helper()
	saved := sendOpts
	t.Cleanup(func() { sendOpts = saved })
}

func TestSendDryRun(t *testing.T) {
	withSendOpts(t)
	sendOpts.dryRun = true

	temp := 23.5
	var out bytes.Buffer
	err := sendMessage(&out, mqtt.CommandMessage{
		Protocol:    "thermohygro",
		Channel:     2,
		RandomID:    17,
		Temperature: &temp,
		Humidity:    47,
	})
	if err != nil {
		t.Fatalf("sendMessage: %v", err)
	}
	s := out.String()
	for _, want := range []string{"train 0: start=low", "train 1:", "train 2:"} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "train 3:") {
		t.Errorf("expected 3 trains:\n%s", s)
	}
}

func TestSendLoopback(t *testing.T) {
	withSendOpts(t)
	sendOpts.loopback = true

	temp := 23.5
	tests := []struct {
		name string
		msg  mqtt.CommandMessage
		want string
	}{
		{
			name: "newremote",
			msg:  mqtt.CommandMessage{Protocol: "newremote", Action: "on", Address: new(int64), Unit: 4},
			want: "REMOTE address 0 unit 4 on",
		},
		{
			name: "thermohygro",
			msg:  mqtt.CommandMessage{Protocol: "thermohygro", Channel: 2, RandomID: 17, Temperature: &temp, Humidity: 47},
			want: "SENSOR channel 2 id 17 23.5°C 47%",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := sendMessage(&out, tt.msg); err != nil {
				t.Fatalf("sendMessage: %v", err)
			}
			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			if len(lines) != 1 || lines[0] != tt.want {
				t.Errorf("got %q, want [%q]", lines, tt.want)
			}
		})
	}
}

func TestSendInvalidCommand(t *testing.T) {
	withSendOpts(t)
	sendOpts.dryRun = true

	var out bytes.Buffer
	err := sendMessage(&out, mqtt.CommandMessage{Protocol: "newremote", Action: "on"})
	if !errors.Is(err, mqtt.ErrMissingField) {
		t.Errorf("got %v, want ErrMissingField", err)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output: %s", out.String())
	}
}

func TestSendCommandLine(t *testing.T) {
	withSendOpts(t)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"send", "rcswitch", "--group", "11011", "--device", "10000", "--action", "off", "--loopback", "--dry-run"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	s := out.String()
	if !strings.Contains(s, "train 0: start=high") {
		t.Errorf("output:\n%s", s)
	}
	// No decoder understands fixed-code trains.
	if strings.Contains(s, "REMOTE") || strings.Contains(s, "SENSOR") {
		t.Errorf("unexpected decode:\n%s", s)
	}
}

func TestCapture(t *testing.T) {
	src := gpio.NewFakeEdgeSource(64)
	tick := uint32(10000)
	src.Push(rf.Edge{Level: rf.High, Tick: tick})
	level := rf.High
	for i := 0; i < 25; i++ {
		tick += 300
		level = level.Invert()
		src.Push(rf.Edge{Level: level, Tick: tick})
	}
	src.Push(rf.Edge{Level: level.Invert(), Tick: tick + 2000})
	src.Close()

	var out bytes.Buffer
	err := capture(&out, src, rf.DefaultCaptureShort, nil)
	if !errors.Is(err, errEdgesClosed) {
		t.Fatalf("got %v, want errEdgesClosed", err)
	}
	s := out.String()
	if !strings.HasPrefix(s, "capture 1: 25 pulses\n") {
		t.Errorf("output:\n%s", s)
	}
	if n := strings.Count(s, " 300\n"); n != 25 {
		t.Errorf("expected 25 pulses of 300us, got %d", n)
	}
}
