package command

import (
	"bufio"
	"io"
)

// LineSource delivers at most one pending command line per poll, already
// newline-stripped. The control loop polls it every pass and never blocks.
type LineSource interface {
	// Poll returns the next pending line, if one is available.
	Poll() (string, bool)
}

// ReaderSource adapts a blocking reader (stdin, a serial port) into a
// non-blocking LineSource by scanning on a background goroutine.
type ReaderSource struct {
	lines chan string
}

// NewReaderSource starts scanning the reader. The goroutine exits when the
// reader hits EOF or an error.
func NewReaderSource(r io.Reader) *ReaderSource {
	s := &ReaderSource{lines: make(chan string, 8)}
	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			s.lines <- scanner.Text()
		}
		close(s.lines)
	}()
	return s
}

// Poll returns a pending line without blocking.
func (s *ReaderSource) Poll() (string, bool) {
	select {
	case line, ok := <-s.lines:
		if !ok {
			return "", false
		}
		return line, true
	default:
		return "", false
	}
}

// FakeSource is a scripted LineSource for tests.
type FakeSource struct {
	Lines []string
	index int
}

// NewFakeSource creates a FakeSource delivering the given lines in order.
func NewFakeSource(lines ...string) *FakeSource {
	return &FakeSource{Lines: lines}
}

// Poll returns the next scripted line until exhausted.
func (s *FakeSource) Poll() (string, bool) {
	if s.index >= len(s.Lines) {
		return "", false
	}
	line := s.Lines[s.index]
	s.index++
	return line, true
}

// Push appends a line to the script.
func (s *FakeSource) Push(line string) {
	s.Lines = append(s.Lines, line)
}
