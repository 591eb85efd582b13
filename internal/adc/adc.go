// Package adc provides analog input sampling with hardware abstraction.
// The real implementation reads an ADS1115-style I2C ADC via periph.io.
// The fake implementation allows testing without hardware.
package adc

// Reader samples the analog input the pH probe is wired to.
type Reader interface {
	// Read returns one raw sample in the converter's native counts.
	Read() (int, error)

	// Close releases bus resources.
	Close() error
}

// Defaults matching the stock probe front end.
const (
	// DefaultMaxCount is the full-scale raw value of the converter. A sample
	// equal to DefaultMaxCount corresponds to DefaultSupplyVolts.
	DefaultMaxCount = 1023

	// DefaultSupplyVolts is the probe board supply voltage.
	DefaultSupplyVolts = 3.3

	// DefaultI2CAddr is the conventional ADS1115 address with ADDR tied to GND.
	DefaultI2CAddr = 0x48
)
