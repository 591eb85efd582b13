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
	PH            *float64     `json:"ph,omitempty"`
	BandLow       float64      `json:"band_low"`
	BandHigh      float64      `json:"band_high"`
	BaseValve     string       `json:"base_valve"`
	AcidValve     string       `json:"acid_valve"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of activity counts.
type CountsJSON struct {
	Readings  int `json:"readings"`
	BaseDoses int `json:"base_doses"`
	AcidDoses int `json:"acid_doses"`
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
	LoopMs         int64  `json:"loop_ms"`
	ReadIntervalMs int64  `json:"read_interval_ms"`
	DwellMs        int64  `json:"dwell_ms"`
	HeartbeatMs    int64  `json:"heartbeat_ms"`
	Broker         string `json:"broker"`
	HTTPAddr       string `json:"http_addr"`
	NVRAMPath      string `json:"nvram_path"`
	Calibration    string `json:"calibration"`
}

func valveString(active bool) string {
	if active {
		return "OPEN"
	}
	return "CLOSED"
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		BandLow:       snap.Band.Low,
		BandHigh:      snap.Band.High,
		BaseValve:     valveString(snap.BaseActive),
		AcidValve:     valveString(snap.AcidActive),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Readings:  snap.Counts.Readings,
			BaseDoses: snap.Counts.BaseDoses,
			AcidDoses: snap.Counts.AcidDoses,
		},
		Config: ConfigJSON{
			LoopMs:         snap.Config.LoopMs,
			ReadIntervalMs: snap.Config.ReadIntervalMs,
			DwellMs:        snap.Config.DwellMs,
			HeartbeatMs:    snap.Config.HeartbeatMs,
			Broker:         snap.Config.Broker,
			HTTPAddr:       snap.Config.HTTPAddr,
			NVRAMPath:      snap.Config.NVRAMPath,
			Calibration:    snap.Config.Calibration,
		},
	}

	if snap.HasReading {
		ph := snap.PH
		inner.PH = &ph
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
