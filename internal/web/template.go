package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/rf433/internal/mqtt"
	"github.com/sweeney/rf433/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"stamp": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return t.UTC().Format("2006-01-02T15:04:05Z")
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>RF 433 Bridge</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.none { color: #888; }
.error { color: red; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>RF 433 Bridge{{if .Config.WSBroker}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<h2>Last Received</h2>
<table>
<tr><th>Remote</th><td id="last-remote">{{with .LastRemote}}{{.Address}}{{if .GroupBit}} group{{else}}/{{.Unit}}{{end}} {{.SwitchType}}{{if .DimLevelPresent}} {{.DimLevel}}{{end}}{{else}}<span class="none">none</span>{{end}}</td></tr>
<tr><th>Remote seen</th><td id="last-remote-at">{{stamp .LastRemoteAt}}</td></tr>
<tr><th>Sensor</th><td id="last-reading">{{with .LastReading}}{{.}}{{else}}<span class="none">none</span>{{end}}</td></tr>
<tr><th>Sensor seen</th><td id="last-reading-at">{{stamp .LastReadingAt}}</td></tr>
</table>

<h2>Last Transmitted</h2>
<table>
<tr><th>Command</th><td>{{if .LastCommand}}{{.LastCommand}}{{else}}<span class="none">none</span>{{end}}</td></tr>
<tr><th>At</th><td>{{stamp .LastCommandAt}}</td></tr>
{{if .LastCommandError}}<tr><th>Error</th><td class="error">{{.LastCommandError}}</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}} {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Counts</h2>
<table>
<tr><th>Remote codes</th><td>{{.Counts.Remote}}</td></tr>
<tr><th>Sensor readings</th><td>{{.Counts.Sensor}}</td></tr>
<tr><th>Other sensor frames</th><td>{{.Counts.SensorRaw}}</td></tr>
<tr><th>Repeats suppressed</th><td>{{.Counts.Suppressed}}</td></tr>
<tr><th>Checksum failures</th><td>{{.Counts.Rejected}}</td></tr>
<tr><th>Trains transmitted</th><td>{{.Counts.Transmitted}}</td></tr>
<tr><th>Edges dropped</th><td>{{.DroppedEdges}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{stamp .StartTime}}</td></tr>
<tr><th>GPIO</th><td>{{.Config.Chip}} rx {{.Config.RXPin}} tx {{.Config.TXPin}}</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
{{if .Config.WSBroker}}
<script src="/mqtt.min.js"></script>
<script>
(function() {
  var broker = "{{.Config.WSBroker}}";
  var remoteTopic = "{{.RemoteTopic}}";
  var sensorTopic = "{{.SensorTopic}}";
  var dot = document.getElementById("live-dot");

  function set(id, text) {
    document.getElementById(id).textContent = text;
  }

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  var client = mqtt.connect(broker, { reconnectPeriod: 5000 });

  client.on("connect", function() {
    setDot("ok", "live");
    client.subscribe([remoteTopic, sensorTopic]);
  });

  client.on("reconnect", function() {
    setDot("pending", "reconnecting");
  });

  client.on("offline", function() {
    setDot("err", "offline");
  });

  client.on("error", function() {
    setDot("err", "error");
  });

  client.on("message", function(t, payload) {
    try {
      var msg = JSON.parse(payload.toString());
      if (msg.remote) {
        var r = msg.remote;
        var text = r.address + (r.group ? " group" : "/" + r.unit) + " " + r.switch;
        if (r.dim_level !== undefined) text += " " + r.dim_level;
        set("last-remote", text);
        set("last-remote-at", r.timestamp);
      }
      if (msg.sensor && msg.sensor.reading) {
        var s = msg.sensor.reading;
        set("last-reading", "channel " + s.channel + " id " + s.random_id + " " +
          s.temperature.toFixed(1) + "°C " + s.humidity + "%");
        set("last-reading-at", msg.sensor.timestamp);
      }
    } catch (e) {}
  });
})();
</script>
{{end}}
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime      time.Duration
		RemoteTopic string
		SensorTopic string
	}{
		Snapshot:    snap,
		Uptime:      snap.Uptime(),
		RemoteTopic: mqtt.TopicRemote,
		SensorTopic: mqtt.TopicSensor,
	}
	indexTmpl.Execute(w, data)
}
