package gpio

// FakeOutput is a test double that records level transitions.
type FakeOutput struct {
	// Level is the current driven level.
	Level bool

	// Transitions records every level passed to Set, in order.
	Transitions []bool

	// Closed tracks if Close was called.
	Closed bool

	// SetError, if set, will be returned by Set()
	SetError error
}

// NewFakeOutput creates a FakeOutput, initially low.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// Set records the level.
func (f *FakeOutput) Set(high bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Level = high
	f.Transitions = append(f.Transitions, high)
	return nil
}

// Close drives the fake low and marks it closed.
func (f *FakeOutput) Close() error {
	f.Level = false
	f.Closed = true
	return nil
}

// Reset clears recorded transitions.
func (f *FakeOutput) Reset() {
	f.Level = false
	f.Transitions = nil
	f.Closed = false
	f.SetError = nil
}
