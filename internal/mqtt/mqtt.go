// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"
)

// Topic is the MQTT topic for periodic pH readings.
const Topic = "hydro/ph/readings"

// TopicDosing is the MQTT topic for valve state transitions.
const TopicDosing = "hydro/ph/dosing"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "hydro/ph/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishReading sends a pH measurement to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishReading(event ReadingEvent) error

	// PublishDose sends a valve transition to the broker.
	PublishDose(event DoseEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// ReadingEvent is a periodic pH measurement.
type ReadingEvent struct {
	Timestamp time.Time
	PH        float64
	Voltage   float64
}

// DoseEvent is a valve state transition.
type DoseEvent struct {
	Timestamp time.Time
	Valve     string // "BASE" or "ACID"
	Event     string // "ARMED" or "EXPIRED"
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// ReadingPayload is the MQTT message payload for a reading.
type ReadingPayload struct {
	PH ReadingPayloadInner `json:"ph"`
}

// ReadingPayloadInner contains the reading details.
type ReadingPayloadInner struct {
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value"`
	Voltage   float64 `json:"voltage"`
}

// FormatReadingPayload creates the JSON payload for a reading event.
func FormatReadingPayload(event ReadingEvent) ([]byte, error) {
	return json.Marshal(ReadingPayload{
		PH: ReadingPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Value:     event.PH,
			Voltage:   event.Voltage,
		},
	})
}

// DosePayload is the MQTT message payload for a valve transition.
type DosePayload struct {
	Dose DosePayloadInner `json:"dose"`
}

// DosePayloadInner contains the transition details.
type DosePayloadInner struct {
	Timestamp string `json:"timestamp"`
	Valve     string `json:"valve"`
	Event     string `json:"event"`
}

// FormatDosePayload creates the JSON payload for a dose event.
func FormatDosePayload(event DoseEvent) ([]byte, error) {
	return json.Marshal(DosePayload{
		Dose: DosePayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Valve:     event.Valve,
			Event:     event.Event,
		},
	})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}
