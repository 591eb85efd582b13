// Package dosing drives the two solenoid valves. A valve, once armed, stays
// energized for a fixed dwell time and is then released by the expiry check;
// sensor feedback during the dwell window is deliberately ignored.
package dosing

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/ph-doser/internal/clock"
	"github.com/sweeney/ph-doser/internal/gpio"
)

// Valve identifies one of the two dosing valves.
type Valve int

const (
	// Base doses alkaline solution, raising pH.
	Base Valve = iota
	// Acid doses acid solution, lowering pH.
	Acid
)

// String returns the valve name used in logs and payloads.
func (v Valve) String() string {
	switch v {
	case Base:
		return "BASE"
	case Acid:
		return "ACID"
	}
	// Arming an unknown valve is a programming error, not a runtime fault.
	panic(fmt.Sprintf("dosing: invalid valve %d", int(v)))
}

// ErrValveActive is returned when an arming request hits a valve that is
// already energized. The interlock holds; the request is dropped, the
// running dwell timer is not reset.
var ErrValveActive = errors.New("dosing: valve already active")

// EventKind classifies a valve state transition.
type EventKind string

const (
	EventArmed   EventKind = "ARMED"
	EventExpired EventKind = "EXPIRED"
)

// Event records a valve state transition for logging and telemetry.
type Event struct {
	Valve Valve
	Kind  EventKind
	At    clock.Millis
}

// valveState tracks one valve. Created at boot, reused for the process
// lifetime.
type valveState struct {
	out         gpio.Output
	active      bool
	activatedAt clock.Millis
}

// Actuator owns the two valve lines and their dwell timers. Not safe for
// concurrent use; the control loop is the only caller.
type Actuator struct {
	dwell  time.Duration
	valves [2]valveState
}

// NewActuator wires the valve output lines. dwell is how long a valve stays
// energized once armed.
func NewActuator(baseOut, acidOut gpio.Output, dwell time.Duration) *Actuator {
	a := &Actuator{dwell: dwell}
	a.valves[Base] = valveState{out: baseOut}
	a.valves[Acid] = valveState{out: acidOut}
	return a
}

// Dwell returns the configured dwell time.
func (a *Actuator) Dwell() time.Duration {
	return a.dwell
}

// Arm energizes the valve and starts its dwell timer. Returns ErrValveActive
// if the valve is already energized. If the line write fails the valve is
// not marked active, so the bookkeeping can never claim an open valve that
// failed to open.
func (a *Actuator) Arm(v Valve, now clock.Millis) error {
	vs := &a.valves[a.index(v)]
	if vs.active {
		return ErrValveActive
	}
	if err := vs.out.Set(true); err != nil {
		return fmt.Errorf("energize %s valve: %w", v, err)
	}
	vs.active = true
	vs.activatedAt = now
	return nil
}

// Tick releases every valve whose dwell time has elapsed and returns the
// transitions. Must run on a fast fixed period, well under the dwell time.
// The elapsed comparison is wraparound-safe (clock.Elapsed).
func (a *Actuator) Tick(now clock.Millis) []Event {
	var events []Event
	for v := Base; v <= Acid; v++ {
		vs := &a.valves[v]
		if !vs.active {
			continue
		}
		if clock.Elapsed(now, vs.activatedAt) < a.dwell {
			continue
		}
		if err := vs.out.Set(false); err != nil {
			// Keep clearing the flag: a stuck-active record would lock the
			// controller out of ever dosing again, which is worse than a
			// line write failure we can only log.
			logrus.WithError(err).Errorf("de-energize %s valve", v)
		}
		vs.active = false
		events = append(events, Event{Valve: v, Kind: EventExpired, At: now})
	}
	return events
}

// Active reports whether any valve is currently energized.
func (a *Actuator) Active() bool {
	return a.valves[Base].active || a.valves[Acid].active
}

// ValveActive reports whether the named valve is energized.
func (a *Actuator) ValveActive(v Valve) bool {
	return a.valves[a.index(v)].active
}

func (a *Actuator) index(v Valve) int {
	if v != Base && v != Acid {
		panic(fmt.Sprintf("dosing: invalid valve %d", int(v)))
	}
	return int(v)
}
