// Package command parses operator console commands into configuration reads
// and writes. One line is handled per scheduler pass; replies go to the
// console writer.
package command

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/ph-doser/internal/config"
)

// ErrUsage is returned by the setph parser for malformed input. The command
// is rejected whole: no field defaults to zero, no mutation happens.
var ErrUsage = errors.New("command: malformed setph arguments")

const usageSetPH = "Invalid setph command. Use 'setph low,high' (e.g., 'setph 6.5,7.5')."
const usageCommands = "Available commands: setph low,high, getph, save, load"

// Interpreter mutates the in-memory band and the durable store in response
// to console lines. It shares the band with the control loop; both run on
// the single scheduler goroutine, so no locking is needed.
type Interpreter struct {
	band  *config.Band
	store *config.Store
	out   io.Writer
	log   *logrus.Entry
}

// New creates an Interpreter operating on the shared band.
func New(band *config.Band, store *config.Store, out io.Writer, log *logrus.Entry) *Interpreter {
	return &Interpreter{band: band, store: store, out: out, log: log}
}

// HandleLine normalizes and executes one command line.
func (i *Interpreter) HandleLine(line string) {
	cmd := strings.ToLower(strings.TrimSpace(line))

	switch {
	case strings.HasPrefix(cmd, "setph"):
		i.handleSetPH(cmd)
	case cmd == "getph":
		i.printBand()
	case cmd == "save":
		i.persist()
	case cmd == "load":
		i.handleLoad()
	default:
		fmt.Fprintln(i.out, usageCommands)
	}
}

func (i *Interpreter) handleSetPH(cmd string) {
	band, err := parseBand(strings.TrimPrefix(cmd, "setph"))
	if err != nil {
		fmt.Fprintln(i.out, usageSetPH)
		return
	}
	if band.Inverted() {
		// Stored literally; the policy's below-low branch will win.
		i.log.Warnf("target band inverted (low %.2f > high %.2f), storing as-is", band.Low, band.High)
	}
	*i.band = band
	i.persist()
}

// parseBand parses "<low>,<high>" with optional whitespace. Any missing or
// non-numeric field rejects the whole command.
func parseBand(args string) (config.Band, error) {
	args = strings.TrimSpace(args)
	lowStr, highStr, found := strings.Cut(args, ",")
	if !found {
		return config.Band{}, ErrUsage
	}
	low, err := strconv.ParseFloat(strings.TrimSpace(lowStr), 64)
	if err != nil {
		return config.Band{}, fmt.Errorf("%w: low %q", ErrUsage, lowStr)
	}
	high, err := strconv.ParseFloat(strings.TrimSpace(highStr), 64)
	if err != nil {
		return config.Band{}, fmt.Errorf("%w: high %q", ErrUsage, highStr)
	}
	return config.Band{Low: low, High: high}, nil
}

// persist saves the in-memory band. A storage failure is logged and reported
// but the in-memory band stays in effect.
func (i *Interpreter) persist() {
	if err := i.store.Save(*i.band); err != nil {
		i.log.WithError(err).Error("persist pH range")
		fmt.Fprintln(i.out, "Failed to save pH range; running with in-memory values.")
		return
	}
	fmt.Fprintln(i.out, "pH range saved.")
	i.printBand()
}

func (i *Interpreter) handleLoad() {
	band, err := i.store.Load()
	if err != nil {
		i.log.WithError(err).Error("load pH range")
		fmt.Fprintln(i.out, "Failed to load pH range; keeping current values.")
		return
	}
	*i.band = band
	if band.Inverted() {
		i.log.Warnf("loaded band inverted (low %.2f > high %.2f)", band.Low, band.High)
	}
	fmt.Fprintln(i.out, "pH range loaded.")
	i.printBand()
}

func (i *Interpreter) printBand() {
	fmt.Fprintf(i.out, "Target pH Range: %s\n", *i.band)
}
