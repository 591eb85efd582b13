// Package sensor converts raw ADC samples into calibrated pH readings.
package sensor

import (
	"fmt"
	"math"

	"github.com/sweeney/ph-doser/internal/adc"
	"github.com/sweeney/ph-doser/internal/calibration"
	"github.com/sweeney/ph-doser/internal/clock"
)

// Reading is a single calibrated measurement. It is ephemeral: the loop
// evaluates it against the current band and drops it.
type Reading struct {
	PH      float64
	Voltage float64
	At      clock.Millis
}

// Meter reads the probe and applies the two-point linear calibration.
type Meter struct {
	reader      adc.Reader
	anchors     calibration.Anchors
	maxCount    float64
	supplyVolts float64
}

// NewMeter builds a Meter. maxCount is the converter's full-scale raw value
// and supplyVolts the voltage it corresponds to. Degenerate anchors are
// rejected up front so the daemon fails at boot, not mid-loop.
func NewMeter(reader adc.Reader, anchors calibration.Anchors, maxCount int, supplyVolts float64) (*Meter, error) {
	if !anchors.Valid() {
		return nil, calibration.ErrDegenerate
	}
	if maxCount <= 0 {
		return nil, fmt.Errorf("sensor: max count must be positive, got %d", maxCount)
	}
	if supplyVolts <= 0 {
		return nil, fmt.Errorf("sensor: supply voltage must be positive, got %v", supplyVolts)
	}
	return &Meter{
		reader:      reader,
		anchors:     anchors,
		maxCount:    float64(maxCount),
		supplyVolts: supplyVolts,
	}, nil
}

// Anchors returns the calibration anchors in use, for boot reporting.
func (m *Meter) Anchors() calibration.Anchors {
	return m.anchors
}

// Read samples the probe once and returns the calibrated reading.
//
// pH = 7.0 - (voltage - anchorPH7) * 3.0 / (anchorPH7 - anchorPH4)
//
// The value is deliberately not clamped to [0,14]; out-of-range readings are
// the caller's signal that the probe or calibration is off. A degenerate
// calibration is reported as an error, never as NaN or Inf.
func (m *Meter) Read(now clock.Millis) (Reading, error) {
	raw, err := m.reader.Read()
	if err != nil {
		return Reading{}, fmt.Errorf("sample probe: %w", err)
	}

	voltage := float64(raw) / m.maxCount * m.supplyVolts

	span := m.anchors.VoltagePH7 - m.anchors.VoltagePH4
	if span == 0 {
		return Reading{}, calibration.ErrDegenerate
	}

	ph := 7.0 - (voltage-m.anchors.VoltagePH7)*3.0/span
	if math.IsNaN(ph) || math.IsInf(ph, 0) {
		return Reading{}, calibration.ErrDegenerate
	}

	return Reading{PH: ph, Voltage: voltage, At: now}, nil
}
