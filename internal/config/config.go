// Package config holds the target pH band and persists it to the device's
// non-volatile region.
package config

import (
	"fmt"

	"github.com/sweeney/ph-doser/internal/nvram"
)

// Band is the inclusive acceptable pH range. Values outside it trigger
// corrective dosing. The operator's input is trusted as-is: Low > High is
// stored literally (callers warn, nothing rejects).
type Band struct {
	Low  float64
	High float64
}

// Inverted reports whether the band bounds are reversed.
func (b Band) Inverted() bool {
	return b.Low > b.High
}

// String formats the band the way the console reports it.
func (b Band) String() string {
	return fmt.Sprintf("%.2f to %.2f", b.Low, b.High)
}

// Contains reports whether a pH value lies inside the band (inclusive).
func (b Band) Contains(ph float64) bool {
	return ph >= b.Low && ph <= b.High
}

// Fixed byte offsets of the band fields within the nvram region.
const (
	offsetLow  = 0
	offsetHigh = 4
)

// Store persists the band as two float32 fields at fixed offsets.
type Store struct {
	nv nvram.Store
}

// NewStore wraps the given nvram region.
func NewStore(nv nvram.Store) *Store {
	return &Store{nv: nv}
}

// Load reads the band from the region. On a never-configured medium this
// returns whatever bytes are present; the system does not distinguish
// "never configured" from "configured as zero".
func (s *Store) Load() (Band, error) {
	low, err := s.nv.Float32(offsetLow)
	if err != nil {
		return Band{}, fmt.Errorf("load band low: %w", err)
	}
	high, err := s.nv.Float32(offsetHigh)
	if err != nil {
		return Band{}, fmt.Errorf("load band high: %w", err)
	}
	return Band{Low: float64(low), High: float64(high)}, nil
}

// Save writes both fields and commits. Best-effort: the medium offers no
// partial-field guarantee beyond the single commit call.
func (s *Store) Save(b Band) error {
	if err := s.nv.PutFloat32(offsetLow, float32(b.Low)); err != nil {
		return fmt.Errorf("stage band low: %w", err)
	}
	if err := s.nv.PutFloat32(offsetHigh, float32(b.High)); err != nil {
		return fmt.Errorf("stage band high: %w", err)
	}
	if err := s.nv.Commit(); err != nil {
		return fmt.Errorf("commit band: %w", err)
	}
	return nil
}
