// Package nvram models the device's non-volatile byte region: fixed-size,
// byte-addressed, with an explicit commit that flushes staged writes to the
// physical medium. There is no transactional guarantee beyond a single
// commit call.
package nvram

import "fmt"

// Size is the reserved region size in bytes.
const Size = 128

// Store reads and stages little-endian float32 values at byte offsets.
// Writes are staged in memory until Commit.
type Store interface {
	// Float32 returns the value at the given byte offset. Before the first
	// ever commit the region content is whatever the medium holds.
	Float32(offset int) (float32, error)

	// PutFloat32 stages a value at the given byte offset.
	PutFloat32(offset int, v float32) error

	// Commit flushes staged writes to the medium.
	Commit() error

	// Close releases the medium.
	Close() error
}

func checkOffset(offset int) error {
	if offset < 0 || offset+4 > Size {
		return fmt.Errorf("nvram: offset %d out of range [0,%d)", offset, Size-3)
	}
	return nil
}
