// Package gpio provides GPIO output driving with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Output drives a single binary output line (a solenoid valve driver).
type Output interface {
	// Set drives the line high (true) or low (false).
	Set(high bool) error

	// Close releases GPIO resources, driving the line low first.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultPinBase = 20 // base (alkaline) dosing valve
	DefaultPinAcid = 21 // acid dosing valve
)
