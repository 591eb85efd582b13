package status

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/ph-doser/internal/config"
)

func newTestTracker() *Tracker {
	return NewTracker(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), Config{
		LoopMs:         10,
		ReadIntervalMs: 5000,
		DwellMs:        2000,
		HeartbeatMs:    900000,
		Broker:         "tcp://192.168.1.200:1883",
		HTTPAddr:       ":8080",
		NVRAMPath:      "/var/lib/ph-doser/nvram.bin",
		Calibration:    "references",
	})
}

func TestSnapshotIsolation(t *testing.T) {
	tr := newTestTracker()
	tr.SetReading(7.1)
	snap := tr.Snapshot()

	// Mutations after Snapshot must not leak into the value copy.
	tr.SetReading(4.0)
	tr.SetValves(true, false)

	if snap.PH != 7.1 {
		t.Errorf("snapshot PH mutated: %v", snap.PH)
	}
	if snap.BaseActive {
		t.Error("snapshot valve state mutated")
	}
}

func TestCounts(t *testing.T) {
	tr := newTestTracker()
	tr.SetReading(7.0)
	tr.SetReading(7.2)
	tr.CountDose("BASE")
	tr.CountDose("ACID")
	tr.CountDose("BASE")
	tr.CountDose("bogus") // ignored

	c := tr.Snapshot().Counts
	if c.Readings != 2 || c.BaseDoses != 2 || c.AcidDoses != 1 {
		t.Errorf("counts = %+v", c)
	}
}

func TestFormatJSONShape(t *testing.T) {
	tr := newTestTracker()
	tr.SetReading(7.25)
	tr.SetBand(config.Band{Low: 6.5, High: 7.5})
	tr.SetValves(false, true)
	tr.SetMQTTConnected(true)

	data := FormatJSON(tr.Snapshot())

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, data)
	}
	s := parsed.Status
	if s.PH == nil || *s.PH != 7.25 {
		t.Errorf("ph = %v", s.PH)
	}
	if s.BandLow != 6.5 || s.BandHigh != 7.5 {
		t.Errorf("band = %v..%v", s.BandLow, s.BandHigh)
	}
	if s.BaseValve != "CLOSED" || s.AcidValve != "OPEN" {
		t.Errorf("valves = %s/%s", s.BaseValve, s.AcidValve)
	}
	if !s.MQTT.Connected {
		t.Error("mqtt should be connected")
	}
	if s.Event != "" {
		t.Errorf("web JSON must not carry an event field, got %q", s.Event)
	}
}

func TestFormatJSONOmitsPHBeforeFirstReading(t *testing.T) {
	tr := newTestTracker()
	data := FormatJSON(tr.Snapshot())
	if strings.Contains(string(data), `"ph"`) {
		t.Errorf("ph field should be omitted before first reading:\n%s", data)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	tr := newTestTracker()
	data := FormatStatusEvent(tr.Snapshot(), "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" || parsed.Status.Reason != "SIGTERM" {
		t.Errorf("event/reason = %q/%q", parsed.Status.Event, parsed.Status.Reason)
	}
	if parsed.Status.Config.DwellMs != 2000 {
		t.Errorf("config dwell = %d", parsed.Status.Config.DwellMs)
	}
}

func TestUptime(t *testing.T) {
	tr := newTestTracker()
	snap := tr.Snapshot()
	if snap.Uptime() < 0 {
		t.Errorf("uptime negative: %v", snap.Uptime())
	}
}
