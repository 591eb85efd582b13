// Package calibration derives the two voltage anchors used to convert
// electrode voltage into pH. Two strategies exist: deriving the anchors from
// two measured reference points, or supplying them directly. The choice is
// made explicitly by the caller; there is no silent default.
package calibration

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerate is returned when a calibration has no usable slope: the two
// reference voltages (or the two anchors) coincide, so pH computation would
// divide by zero.
var ErrDegenerate = errors.New("calibration: reference voltages coincide, slope is undefined")

// Point is a single reference measurement: the electrode voltage observed in
// a buffer solution of known pH.
type Point struct {
	Voltage float64
	PH      float64
}

// Anchors are the derived interpolation anchors for pH computation.
// VoltagePH7 and VoltagePH4 are the electrode voltages the linear model
// predicts at pH 7 and pH 4.
type Anchors struct {
	VoltagePH7 float64
	VoltagePH4 float64
}

// Valid reports whether the anchors define a usable slope.
func (a Anchors) Valid() bool {
	span := a.VoltagePH7 - a.VoltagePH4
	return span != 0 && !math.IsNaN(span) && !math.IsInf(span, 0)
}

// FromReferences derives anchors from two reference points by linear
// interpolation. The pH 7 anchor is interpolated between the points
// proportionally to pH distance; the pH 4 anchor is extrapolated below the
// low point with the same slope. With the stock references (pH 6 at 1.75 V,
// pH 8.5 at 2.15 V) this yields 1.91 V and 1.43 V.
func FromReferences(low, high Point) (Anchors, error) {
	if high.Voltage == low.Voltage {
		return Anchors{}, ErrDegenerate
	}
	if high.PH == low.PH {
		return Anchors{}, fmt.Errorf("calibration: reference points share pH %.2f: %w", low.PH, ErrDegenerate)
	}

	slope := (high.Voltage - low.Voltage) / (high.PH - low.PH)
	a := Anchors{
		VoltagePH7: low.Voltage + slope*(7.0-low.PH),
		VoltagePH4: low.Voltage - slope*(low.PH-4.0),
	}
	if !a.Valid() {
		return Anchors{}, ErrDegenerate
	}
	return a, nil
}

// Fixed builds anchors from directly supplied voltages, for probes calibrated
// against pH 7 and pH 4 buffers themselves.
func Fixed(voltagePH7, voltagePH4 float64) (Anchors, error) {
	a := Anchors{VoltagePH7: voltagePH7, VoltagePH4: voltagePH4}
	if !a.Valid() {
		return Anchors{}, ErrDegenerate
	}
	return a, nil
}
