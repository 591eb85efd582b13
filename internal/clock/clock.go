// Package clock provides the millisecond tick counter used for all timing
// decisions in the control loop. Ticks are a uint32 that wraps roughly every
// 49.7 days; elapsed time is always computed with unsigned subtraction so a
// comparison made across the wrap boundary stays correct.
package clock

import "time"

// Millis is a monotonic millisecond counter from an arbitrary epoch.
type Millis uint32

// Elapsed returns the duration between two tick values. The uint32
// subtraction wraps, so now < since (after overflow) still yields the
// right answer.
func Elapsed(now, since Millis) time.Duration {
	return time.Duration(uint32(now-since)) * time.Millisecond
}

// Clock supplies the current tick value.
type Clock interface {
	Now() Millis
}

// Wall derives ticks from the Go monotonic clock.
type Wall struct {
	start time.Time
}

// NewWall creates a Wall clock with its epoch at the time of the call.
func NewWall() *Wall {
	return &Wall{start: time.Now()}
}

// Now returns milliseconds since the epoch, truncated to uint32.
func (w *Wall) Now() Millis {
	return Millis(uint32(time.Since(w.start).Milliseconds()))
}

// Fake is a manually advanced clock for tests.
type Fake struct {
	Ticks Millis
}

// Now returns the current fake tick value.
func (f *Fake) Now() Millis {
	return f.Ticks
}

// Advance moves the fake clock forward.
func (f *Fake) Advance(d time.Duration) {
	f.Ticks += Millis(d.Milliseconds())
}
