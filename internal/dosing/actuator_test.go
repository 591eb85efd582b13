package dosing

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/sweeney/ph-doser/internal/clock"
	"github.com/sweeney/ph-doser/internal/gpio"
)

func newTestActuator() (*Actuator, *gpio.FakeOutput, *gpio.FakeOutput) {
	baseOut := gpio.NewFakeOutput()
	acidOut := gpio.NewFakeOutput()
	return NewActuator(baseOut, acidOut, 2*time.Second), baseOut, acidOut
}

func TestArmEnergizesLine(t *testing.T) {
	a, baseOut, acidOut := newTestActuator()

	if err := a.Arm(Base, 1000); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	if !baseOut.Level {
		t.Error("base line should be high after arming")
	}
	if acidOut.Level {
		t.Error("acid line should stay low")
	}
	if !a.Active() || !a.ValveActive(Base) || a.ValveActive(Acid) {
		t.Error("state flags wrong after arming base")
	}
}

func TestArmRefusesActiveValve(t *testing.T) {
	a, baseOut, _ := newTestActuator()

	if err := a.Arm(Base, 1000); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	if err := a.Arm(Base, 1500); !errors.Is(err, ErrValveActive) {
		t.Fatalf("expected ErrValveActive, got %v", err)
	}

	// Re-arming must not reset the timer: valve still expires at 3000.
	events := a.Tick(3000)
	if len(events) != 1 || events[0].Kind != EventExpired {
		t.Fatalf("expected expiry at original dwell end, got %v", events)
	}
	if baseOut.Level {
		t.Error("base line should be low after expiry")
	}
}

func TestTickExpiresAtDwellNotBefore(t *testing.T) {
	a, baseOut, _ := newTestActuator()
	if err := a.Arm(Acid, 500); err != nil {
		t.Fatalf("Arm: %v", err)
	}

	// One tick short of the dwell boundary: nothing happens.
	if events := a.Tick(2499); len(events) != 0 {
		t.Fatalf("expected no expiry at 1999ms elapsed, got %v", events)
	}
	if !a.ValveActive(Acid) {
		t.Error("acid valve should still be active before dwell elapses")
	}

	// First tick at or past the boundary releases it.
	events := a.Tick(2500)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Valve != Acid || e.Kind != EventExpired || e.At != 2500 {
		t.Errorf("unexpected event %+v", e)
	}
	if a.Active() {
		t.Error("no valve should be active after expiry")
	}
	if baseOut.Level {
		t.Error("base line was never armed, must stay low")
	}
}

func TestTickExpiryAcrossClockWrap(t *testing.T) {
	a, _, acidOut := newTestActuator()
	armAt := clock.Millis(math.MaxUint32 - 1000)
	if err := a.Arm(Acid, armAt); err != nil {
		t.Fatalf("Arm: %v", err)
	}

	// 1500ms elapsed, counter already wrapped: not yet expired.
	if events := a.Tick(499); len(events) != 0 {
		t.Fatalf("expected no expiry 1500ms after arming, got %v", events)
	}

	// 2000ms elapsed across the wrap boundary.
	events := a.Tick(1000)
	if len(events) != 1 || events[0].Kind != EventExpired {
		t.Fatalf("expected expiry across wrap, got %v", events)
	}
	if acidOut.Level {
		t.Error("acid line should be low after expiry")
	}
}

func TestArmFailureLeavesValveInactive(t *testing.T) {
	baseOut := gpio.NewFakeOutput()
	baseOut.SetError = errors.New("line busy")
	a := NewActuator(baseOut, gpio.NewFakeOutput(), 2*time.Second)

	if err := a.Arm(Base, 0); err == nil {
		t.Fatal("expected error from failing output")
	}
	if a.Active() {
		t.Error("valve must not be marked active when the line write failed")
	}
}

func TestExpiryWriteFailureStillClearsState(t *testing.T) {
	baseOut := gpio.NewFakeOutput()
	a := NewActuator(baseOut, gpio.NewFakeOutput(), 2*time.Second)

	if err := a.Arm(Base, 0); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	baseOut.SetError = errors.New("line busy")

	events := a.Tick(2000)
	if len(events) != 1 {
		t.Fatalf("expected expiry event despite write failure, got %v", events)
	}
	if a.Active() {
		t.Error("valve state must clear even when the release write fails")
	}
}

func TestInvalidValvePanics(t *testing.T) {
	a, _, _ := newTestActuator()
	defer func() {
		if recover() == nil {
			t.Error("expected panic for invalid valve identifier")
		}
	}()
	_ = a.Arm(Valve(7), 0)
}

func TestBothValvesIndependentTimers(t *testing.T) {
	a, baseOut, acidOut := newTestActuator()

	if err := a.Arm(Base, 0); err != nil {
		t.Fatalf("Arm base: %v", err)
	}
	if events := a.Tick(2000); len(events) != 1 {
		t.Fatalf("base should expire at 2000, got %v", events)
	}

	// Acid armed later expires on its own timer, not the base valve's.
	if err := a.Arm(Acid, 2100); err != nil {
		t.Fatalf("Arm acid: %v", err)
	}
	if events := a.Tick(4000); len(events) != 0 {
		t.Fatalf("acid should not expire at 1900ms elapsed, got %v", events)
	}
	if events := a.Tick(4100); len(events) != 1 || events[0].Valve != Acid {
		t.Fatalf("expected acid expiry at 4100, got %v", events)
	}

	if baseOut.Level || acidOut.Level {
		t.Error("both lines should be low at the end")
	}
}
