package nvram

import (
	"encoding/binary"
	"math"
)

// FakeStore is an in-memory test double. It keeps staged and committed
// copies separate so tests can assert that values survive only after a
// commit, and can simulate a crash between write and commit.
type FakeStore struct {
	// Staged holds pending writes; Committed holds what "survives power loss".
	Staged    [Size]byte
	Committed [Size]byte

	// CommitCount counts successful commits.
	CommitCount int

	// CommitError, if set, will be returned by Commit()
	CommitError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeStore creates an all-zero FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

// NewFakeStoreWithGarbage creates a FakeStore whose committed region holds
// the given bytes, simulating a never-configured medium.
func NewFakeStoreWithGarbage(garbage []byte) *FakeStore {
	f := &FakeStore{}
	copy(f.Committed[:], garbage)
	f.Staged = f.Committed
	return f
}

// Float32 reads from the staged region, like a real medium's read-back cache.
func (f *FakeStore) Float32(offset int) (float32, error) {
	if err := checkOffset(offset); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(f.Staged[offset:])), nil
}

// PutFloat32 stages a value.
func (f *FakeStore) PutFloat32(offset int, v float32) error {
	if err := checkOffset(offset); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(f.Staged[offset:], math.Float32bits(v))
	return nil
}

// Commit copies staged to committed.
func (f *FakeStore) Commit() error {
	if f.CommitError != nil {
		return f.CommitError
	}
	f.Committed = f.Staged
	f.CommitCount++
	return nil
}

// Close marks the store as closed.
func (f *FakeStore) Close() error {
	f.Closed = true
	return nil
}

// PowerCycle discards staged-but-uncommitted writes, as a reboot would.
func (f *FakeStore) PowerCycle() {
	f.Staged = f.Committed
}
