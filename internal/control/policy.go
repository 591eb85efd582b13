// Package control implements the bang-bang dosing policy: binary actuation
// triggered purely by threshold crossing, with no proportional term and no
// hysteresis beyond the target band itself.
package control

import (
	"github.com/sirupsen/logrus"

	"github.com/sweeney/ph-doser/internal/config"
	"github.com/sweeney/ph-doser/internal/dosing"
	"github.com/sweeney/ph-doser/internal/sensor"
)

// Action is a dosing decision.
type Action int

const (
	// None: the reading is inside the band.
	None Action = iota
	// DoseBase: the reading is below the band; raise pH.
	DoseBase
	// DoseAcid: the reading is above the band; lower pH.
	DoseAcid
)

// Decide maps a reading to an action. Pure: exactly one branch fires. With
// an inverted band the below-low comparison is evaluated first, so a value
// between the bounds doses base; this matches the stored-literally contract.
func Decide(ph float64, band config.Band) Action {
	if ph < band.Low {
		return DoseBase
	}
	if ph > band.High {
		return DoseAcid
	}
	return None
}

// Policy applies decisions to the actuator, subject to the interlock.
type Policy struct {
	log *logrus.Entry
}

// NewPolicy creates a Policy logging through the given entry.
func NewPolicy(log *logrus.Entry) *Policy {
	return &Policy{log: log}
}

// Evaluate compares the reading to the band and arms at most one valve.
// Interlock: while either valve is energized the evaluation is a no-op, so
// the two valves can never be open at once and a dose completes its dwell
// before the next decision. Returns the valve armed, or nil.
func (p *Policy) Evaluate(r sensor.Reading, band config.Band, act *dosing.Actuator) *dosing.Valve {
	if act.Active() {
		return nil
	}

	var valve dosing.Valve
	switch Decide(r.PH, band) {
	case DoseBase:
		p.log.WithField("ph", r.PH).Info("pH too low, activating base valve")
		valve = dosing.Base
	case DoseAcid:
		p.log.WithField("ph", r.PH).Info("pH too high, activating acid valve")
		valve = dosing.Acid
	default:
		return nil
	}

	if err := act.Arm(valve, r.At); err != nil {
		// Arm can only fail here on a line write error; the interlock above
		// already rules out ErrValveActive.
		p.log.WithError(err).Errorf("arm %s valve", valve)
		return nil
	}
	return &valve
}
