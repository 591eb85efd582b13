package command

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/ph-doser/internal/config"
	"github.com/sweeney/ph-doser/internal/nvram"
)

type fixture struct {
	band *config.Band
	fake *nvram.FakeStore
	out  *bytes.Buffer
	it   *Interpreter
}

func newFixture(initial config.Band) *fixture {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	band := initial
	fake := nvram.NewFakeStore()
	out := &bytes.Buffer{}
	return &fixture{
		band: &band,
		fake: fake,
		out:  out,
		it:   New(&band, config.NewStore(fake), out, logrus.NewEntry(log)),
	}
}

func TestSetPHUpdatesAndPersists(t *testing.T) {
	f := newFixture(config.Band{Low: 6.0, High: 8.5})

	f.it.HandleLine("setph 6.5,7.5")

	if f.band.Low != 6.5 || f.band.High != 7.5 {
		t.Errorf("in-memory band = %+v, want {6.5 7.5}", *f.band)
	}
	if f.fake.CommitCount != 1 {
		t.Errorf("expected one commit, got %d", f.fake.CommitCount)
	}
	if !strings.Contains(f.out.String(), "pH range saved.") {
		t.Errorf("missing save confirmation in %q", f.out.String())
	}
}

func TestSetPHThenGetPH(t *testing.T) {
	f := newFixture(config.Band{})

	f.it.HandleLine("setph 6.5,7.5")
	f.out.Reset()
	f.it.HandleLine("getph")

	if got := f.out.String(); got != "Target pH Range: 6.50 to 7.50\n" {
		t.Errorf("getph output = %q", got)
	}
}

func TestSetPHNormalization(t *testing.T) {
	f := newFixture(config.Band{})

	// Mixed case and surrounding whitespace must be accepted.
	f.it.HandleLine("  SetPH 6.5 , 7.5  ")

	if f.band.Low != 6.5 || f.band.High != 7.5 {
		t.Errorf("band = %+v, want {6.5 7.5}", *f.band)
	}
}

func TestSetPHMalformedRejected(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"non-numeric low", "setph abc,7.5"},
		{"non-numeric high", "setph 6.5,xyz"},
		{"missing comma", "setph 6.5 7.5"},
		{"no arguments", "setph"},
		{"empty fields", "setph ,"},
		{"trailing only", "setph 6.5,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(config.Band{Low: 6.0, High: 8.5})
			f.it.HandleLine(tt.line)

			if f.band.Low != 6.0 || f.band.High != 8.5 {
				t.Errorf("band mutated to %+v on malformed input", *f.band)
			}
			if f.fake.CommitCount != 0 {
				t.Error("malformed setph must not touch storage")
			}
			if !strings.Contains(f.out.String(), "Invalid setph command") {
				t.Errorf("expected usage message, got %q", f.out.String())
			}
		})
	}
}

func TestSetPHInvertedBandStoredLiterally(t *testing.T) {
	f := newFixture(config.Band{})
	f.it.HandleLine("setph 8.0,6.0")

	if f.band.Low != 8.0 || f.band.High != 6.0 {
		t.Errorf("inverted band not stored literally: %+v", *f.band)
	}
	if f.fake.CommitCount != 1 {
		t.Error("inverted band should still persist")
	}
}

func TestSaveCommand(t *testing.T) {
	f := newFixture(config.Band{Low: 6.5, High: 7.5})
	f.it.HandleLine("save")

	if f.fake.CommitCount != 1 {
		t.Errorf("expected one commit, got %d", f.fake.CommitCount)
	}

	stored := config.NewStore(f.fake)
	f.fake.PowerCycle()
	got, err := stored.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if math.Abs(got.Low-6.5) > 1e-6 || math.Abs(got.High-7.5) > 1e-6 {
		t.Errorf("persisted band = %+v", got)
	}
}

func TestLoadCommandOverwritesMemory(t *testing.T) {
	f := newFixture(config.Band{Low: 1, High: 2})
	if err := config.NewStore(f.fake).Save(config.Band{Low: 6.5, High: 7.5}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	f.it.HandleLine("load")

	if math.Abs(f.band.Low-6.5) > 1e-6 || math.Abs(f.band.High-7.5) > 1e-6 {
		t.Errorf("band after load = %+v", *f.band)
	}
	if !strings.Contains(f.out.String(), "pH range loaded.") {
		t.Errorf("missing load confirmation in %q", f.out.String())
	}
	if !strings.Contains(f.out.String(), "Target pH Range:") {
		t.Errorf("load should print the band, got %q", f.out.String())
	}
}

func TestUnknownCommandPrintsHelp(t *testing.T) {
	for _, line := range []string{"help", "bogus", "", "setp 6,7"} {
		f := newFixture(config.Band{})
		f.it.HandleLine(line)
		if !strings.Contains(f.out.String(), "Available commands:") {
			t.Errorf("line %q: expected command list, got %q", line, f.out.String())
		}
	}
}

func TestSaveFailureKeepsMemoryAndReports(t *testing.T) {
	f := newFixture(config.Band{})
	f.fake.CommitError = errors.New("medium failure")

	f.it.HandleLine("setph 6.5,7.5")

	// In-memory band updated; failure reported; nothing persisted.
	if f.band.Low != 6.5 {
		t.Errorf("in-memory band should update despite storage failure: %+v", *f.band)
	}
	if !strings.Contains(f.out.String(), "Failed to save") {
		t.Errorf("expected failure report, got %q", f.out.String())
	}
}

func TestParseBandErrorsWrapErrUsage(t *testing.T) {
	_, err := parseBand("abc,7.5")
	if !errors.Is(err, ErrUsage) {
		t.Errorf("expected ErrUsage, got %v", err)
	}
}

func TestFakeSourceDelivery(t *testing.T) {
	src := NewFakeSource("getph", "save")
	line, ok := src.Poll()
	if !ok || line != "getph" {
		t.Fatalf("first poll = %q, %v", line, ok)
	}
	line, ok = src.Poll()
	if !ok || line != "save" {
		t.Fatalf("second poll = %q, %v", line, ok)
	}
	if _, ok := src.Poll(); ok {
		t.Error("exhausted source should report no line")
	}
}

func TestReaderSourceNonBlocking(t *testing.T) {
	src := NewReaderSource(strings.NewReader("getph\nsave\n"))

	// The background scanner needs a moment; poll until it delivers.
	var lines []string
	for i := 0; i < 1000 && len(lines) < 2; i++ {
		if line, ok := src.Poll(); ok {
			lines = append(lines, line)
			continue
		}
		time.Sleep(time.Millisecond)
	}
	if len(lines) != 2 || lines[0] != "getph" || lines[1] != "save" {
		t.Errorf("lines = %v", lines)
	}
	// After EOF the source must keep returning false, never block.
	if _, ok := src.Poll(); ok {
		t.Error("expected no line after EOF")
	}
}
