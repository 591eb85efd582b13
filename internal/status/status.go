// Package status provides a thread-safe status tracker for the ph-doser
// daemon. It is written by the control loop and read by HTTP handlers and
// MQTT heartbeats.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/ph-doser/internal/config"
)

// NetworkInfo contains network state read once at boot (and refreshed on
// heartbeats). It never feeds back into control decisions.
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
	LoopMs         int64
	ReadIntervalMs int64
	DwellMs        int64
	HeartbeatMs    int64
	Broker         string
	HTTPAddr       string
	NVRAMPath      string
	Calibration    string
}

// Counts tracks totals since startup.
type Counts struct {
	Readings  int
	BaseDoses int
	AcidDoses int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	PH            float64
	HasReading    bool
	Band          config.Band
	BaseActive    bool
	AcidActive    bool
	Counts        Counts
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

// SetReading records the latest pH value and bumps the reading counter.
func (t *Tracker) SetReading(ph float64) {
	t.mu.Lock()
	t.snap.PH = ph
	t.snap.HasReading = true
	t.snap.Counts.Readings++
	t.mu.Unlock()
}

// SetBand records the current in-memory target band.
func (t *Tracker) SetBand(b config.Band) {
	t.mu.Lock()
	t.snap.Band = b
	t.mu.Unlock()
}

// SetValves records the actuator state. Called from the loop every pass.
func (t *Tracker) SetValves(baseActive, acidActive bool) {
	t.mu.Lock()
	t.snap.BaseActive = baseActive
	t.snap.AcidActive = acidActive
	t.mu.Unlock()
}

// CountDose bumps the dose counter for the named valve.
func (t *Tracker) CountDose(valve string) {
	t.mu.Lock()
	switch valve {
	case "BASE":
		t.snap.Counts.BaseDoses++
	case "ACID":
		t.snap.Counts.AcidDoses++
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
