package adc

import "math"

// ADS1115 single-shot range used by the real backend.
const (
	pgaFullScaleVolts = 4.096
	maxConversionCode = 32767
)

// countFromCode rescales a signed ADS1115 conversion code into the
// 0..DefaultMaxCount native counts the Reader contract promises, where
// DefaultMaxCount corresponds to DefaultSupplyVolts. Codes below zero
// (wiring noise around ground) or above the supply clamp to the range ends.
func countFromCode(code int) int {
	if code <= 0 {
		return 0
	}
	volts := float64(code) * pgaFullScaleVolts / maxConversionCode
	count := int(math.Round(volts / DefaultSupplyVolts * DefaultMaxCount))
	if count > DefaultMaxCount {
		count = DefaultMaxCount
	}
	return count
}
