package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/rf433/internal/bridge"
	"github.com/sweeney/rf433/internal/hideki"
	"github.com/sweeney/rf433/internal/newremote"
	"github.com/sweeney/rf433/internal/status"
)

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, cfg status.Config) (*httptest.Server, *status.Tracker) {
	t.Helper()
	if cfg.Broker == "" {
		cfg = status.Config{
			Chip:        "gpiochip0",
			RXPin:       27,
			TXPin:       17,
			DebounceMs:  1000,
			HeartbeatMs: 900000,
			Broker:      "tcp://192.168.1.200:1883",
			HTTPAddr:    ":80",
		}
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, tr
}

func getJSON(t *testing.T, url string) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return sj
}

func getBody(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t, status.Config{})
	tr.Update(bridge.Counts{Remote: 5, Sensor: 2}, 0)
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("MQTT.Broker: got %q, want tcp://192.168.1.200:1883", sj.Status.MQTT.Broker)
	}
	if sj.Status.Counts.Remote != 5 || sj.Status.Counts.Sensor != 2 {
		t.Errorf("Counts: got %+v", sj.Status.Counts)
	}
	if sj.Status.Config.RXPin != 27 {
		t.Errorf("Config.RXPin: got %d, want 27", sj.Status.Config.RXPin)
	}
}

func TestJSONNetworkInfo(t *testing.T) {
	ts, tr := newTestServer(t, status.Config{})
	tr.SetNetwork(&status.NetworkInfo{
		Type:   "wifi",
		IP:     "192.168.1.42",
		Status: "connected",
		SSID:   "MyNet",
	})

	sj := getJSON(t, ts.URL+"/index.json")
	if sj.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if sj.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", sj.Status.Network.IP)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, _ := newTestServer(t, status.Config{})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}
}

func TestHTMLEndpointIndexHTML(t *testing.T) {
	ts, _ := newTestServer(t, status.Config{})

	resp, err := http.Get(ts.URL + "/index.html")
	if err != nil {
		t.Fatalf("GET /index.html: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
}

func TestHTMLShowsLastReceived(t *testing.T) {
	ts, tr := newTestServer(t, status.Config{})

	body := getBody(t, ts.URL+"/")
	if !strings.Contains(body, `<td id="last-remote"><span class="none">none</span></td>`) {
		t.Error("expected no remote before any event")
	}
	if !strings.Contains(body, `<td id="last-remote-at">never</td>`) {
		t.Error("expected 'never' before any event")
	}

	at := start.Add(time.Minute)
	tr.Record(bridge.Event{Timestamp: at, Type: bridge.EventRemote, Remote: newremote.Code{Address: 123456, Unit: 4, SwitchType: newremote.On}})
	tr.Record(bridge.Event{Timestamp: at, Type: bridge.EventSensor, Reading: hideki.Reading{Channel: 1, RandomID: 2, Temperature: 235, Humidity: 47}})

	body = getBody(t, ts.URL+"/")
	for _, want := range []string{
		`<td id="last-remote">123456/4 on</td>`,
		`<td id="last-remote-at">2026-01-01T00:01:00Z</td>`,
		`<td id="last-reading">channel 1 id 2 23.5°C 47%</td>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestHTMLShowsCommandError(t *testing.T) {
	ts, tr := newTestServer(t, status.Config{})
	cmd := bridge.Command{Protocol: bridge.ProtocolRcSwitch, RcSwitch: bridge.RcSwitchCommand{Protocol: 1, Group: "11011", Device: "10000", On: true}}
	tr.RecordCommand(cmd, start, io.ErrShortWrite)

	body := getBody(t, ts.URL+"/")
	if !strings.Contains(body, "rcswitch p1 11011/10000 on") {
		t.Error("body missing last command")
	}
	if !strings.Contains(body, `<td class="error">short write</td>`) {
		t.Error("body missing command error")
	}
}

func TestHTMLLiveScriptOnlyWithWSBroker(t *testing.T) {
	ts, _ := newTestServer(t, status.Config{})
	if strings.Contains(getBody(t, ts.URL+"/"), "mqtt.connect") {
		t.Error("live script rendered without ws broker")
	}

	ts, _ = newTestServer(t, status.Config{Broker: "tcp://broker:1883", WSBroker: "ws://broker:9001"})
	body := getBody(t, ts.URL+"/")
	if !strings.Contains(body, "mqtt.connect") {
		t.Error("live script missing with ws broker")
	}
	if !strings.Contains(body, "home/rf433/remote") {
		t.Error("live script missing remote topic")
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t, status.Config{})

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t, status.Config{})

	sj1 := getJSON(t, ts.URL+"/index.json")
	if sj1.Status.LastReading != nil {
		t.Error("expected no reading initially")
	}

	tr.Record(bridge.Event{Timestamp: start, Type: bridge.EventSensor, Reading: hideki.Reading{Channel: 2, Temperature: -45, Humidity: 63}})
	tr.SetMQTTConnected(true)

	sj2 := getJSON(t, ts.URL+"/index.json")
	if sj2.Status.LastReading == nil || sj2.Status.LastReading.Temperature != -4.5 {
		t.Errorf("LastReading: got %+v", sj2.Status.LastReading)
	}
	if !sj2.Status.MQTT.Connected {
		t.Error("expected MQTT connected after update")
	}
}

func TestViewsAreReadOnly(t *testing.T) {
	ts, _ := newTestServer(t, status.Config{})

	for _, path := range []string{"/", "/index.json"} {
		resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader("{}"))
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("POST %s: got %d, want 405", path, resp.StatusCode)
		}
		if got := resp.Header.Get("Allow"); got != "GET, HEAD" {
			t.Errorf("POST %s: Allow %q", path, got)
		}
	}
}

func TestViewsAreNotCached(t *testing.T) {
	ts, _ := newTestServer(t, status.Config{})

	for _, path := range []string{"/", "/index.html", "/index.json"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if got := resp.Header.Get("Cache-Control"); got != "no-store" {
			t.Errorf("GET %s: Cache-Control %q", path, got)
		}
	}
}
