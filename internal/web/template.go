package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/ph-doser/internal/status"
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
	"ph2": func(v float64) string {
		return fmt.Sprintf("%.2f", v)
	},
	"valve": func(active bool) string {
		if active {
			return "OPEN"
		}
		return "CLOSED"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>pH Doser</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.open { color: green; font-weight: bold; }
.closed { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>pH Doser</h1>

<h2>State</h2>
<table>
<tr><th>pH</th><td>{{if .HasReading}}{{ph2 .PH}}{{else}}<span class="unknown">no reading yet</span>{{end}}</td></tr>
<tr><th>Target band</th><td>{{ph2 .Band.Low}} to {{ph2 .Band.High}}</td></tr>
<tr><th>Base valve</th><td class="{{if .BaseActive}}open{{else}}closed{{end}}">{{valve .BaseActive}}</td></tr>
<tr><th>Acid valve</th><td class="{{if .AcidActive}}open{{else}}closed{{end}}">{{valve .AcidActive}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Activity</h2>
<table>
<tr><th>Readings</th><td>{{.Counts.Readings}}</td></tr>
<tr><th>Base doses</th><td>{{.Counts.BaseDoses}}</td></tr>
<tr><th>Acid doses</th><td>{{.Counts.AcidDoses}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Loop</th><td>{{.Config.LoopMs}}ms</td></tr>
<tr><th>Read interval</th><td>{{.Config.ReadIntervalMs}}ms</td></tr>
<tr><th>Dwell</th><td>{{.Config.DwellMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Calibration</th><td>{{.Config.Calibration}}</td></tr>
<tr><th>NVRAM</th><td>{{.Config.NVRAMPath}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/history.json">History</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but the template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
