// Command ph-doser keeps a hydroponic reservoir inside a target pH band by
// sampling a probe and pulsing acid or base dosing valves.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/ph-doser/internal/adc"
	"github.com/sweeney/ph-doser/internal/calibration"
	"github.com/sweeney/ph-doser/internal/clock"
	"github.com/sweeney/ph-doser/internal/command"
	"github.com/sweeney/ph-doser/internal/config"
	"github.com/sweeney/ph-doser/internal/control"
	"github.com/sweeney/ph-doser/internal/dosing"
	"github.com/sweeney/ph-doser/internal/gpio"
	"github.com/sweeney/ph-doser/internal/journal"
	"github.com/sweeney/ph-doser/internal/mqtt"
	"github.com/sweeney/ph-doser/internal/nvram"
	"github.com/sweeney/ph-doser/internal/sensor"
	"github.com/sweeney/ph-doser/internal/status"
	"github.com/sweeney/ph-doser/internal/web"
)

type options struct {
	loop         time.Duration
	readInterval time.Duration
	dwell        time.Duration
	heartbeat    time.Duration

	broker    string
	httpAddr  string
	nvramPath string
	jnlPath   string

	calibration string
	calLowV     float64
	calLowPH    float64
	calHighV    float64
	calHighPH   float64
	calV7       float64
	calV4       float64

	pinBase    int
	pinAcid    int
	i2cBus     string
	i2cAddr    uint
	i2cChannel int
	adcMax     int
	vref       float64

	printPH bool
}

func main() {
	var opts options
	flag.DurationVar(&opts.loop, "loop", 10*time.Millisecond, "Scheduler pass interval")
	flag.DurationVar(&opts.readInterval, "read-interval", 5*time.Second, "Probe sampling interval")
	flag.DurationVar(&opts.dwell, "dwell", 2*time.Second, "Valve dwell time per dose")
	flag.DurationVar(&opts.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&opts.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	flag.StringVar(&opts.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.StringVar(&opts.nvramPath, "nvram", "/var/lib/ph-doser/nvram.bin", "Path to the band storage file")
	flag.StringVar(&opts.jnlPath, "journal", "/var/lib/ph-doser/journal.db", "Path to the history database (empty to disable)")
	flag.StringVar(&opts.calibration, "calibration", "references", `Calibration strategy: "references" or "fixed"`)
	flag.Float64Var(&opts.calLowV, "cal-low-v", 1.75, "Low reference point voltage")
	flag.Float64Var(&opts.calLowPH, "cal-low-ph", 6.0, "Low reference point pH")
	flag.Float64Var(&opts.calHighV, "cal-high-v", 2.15, "High reference point voltage")
	flag.Float64Var(&opts.calHighPH, "cal-high-ph", 8.5, "High reference point pH")
	flag.Float64Var(&opts.calV7, "cal-v7", 1.91, "Anchor voltage at pH 7 (fixed strategy)")
	flag.Float64Var(&opts.calV4, "cal-v4", 1.43, "Anchor voltage at pH 4 (fixed strategy)")
	flag.IntVar(&opts.pinBase, "pin-base", gpio.DefaultPinBase, "BCM pin number for the base valve")
	flag.IntVar(&opts.pinAcid, "pin-acid", gpio.DefaultPinAcid, "BCM pin number for the acid valve")
	flag.StringVar(&opts.i2cBus, "i2c-bus", "1", "I2C bus the ADC is on")
	flag.UintVar(&opts.i2cAddr, "i2c-addr", adc.DefaultI2CAddr, "I2C address of the ADC")
	flag.IntVar(&opts.i2cChannel, "i2c-channel", 0, "ADC input channel the probe drives (0-3)")
	flag.IntVar(&opts.adcMax, "adc-max", adc.DefaultMaxCount, "Raw count corresponding to -vref")
	flag.Float64Var(&opts.vref, "vref", adc.DefaultSupplyVolts, "Probe supply voltage at full-scale count")
	flag.BoolVar(&opts.printPH, "print-ph", false, "Print one reading and exit")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")

	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("invalid log level %q: %v", *logLevel, err)
	}
	logrus.SetLevel(level)

	if err := run(opts); err != nil {
		logrus.Fatalf("fatal: %v", err)
	}
}

func anchorsFromOptions(opts options) (calibration.Anchors, error) {
	switch opts.calibration {
	case "references":
		return calibration.FromReferences(
			calibration.Point{Voltage: opts.calLowV, PH: opts.calLowPH},
			calibration.Point{Voltage: opts.calHighV, PH: opts.calHighPH},
		)
	case "fixed":
		return calibration.Fixed(opts.calV7, opts.calV4)
	default:
		return calibration.Anchors{}, fmt.Errorf(`calibration strategy %q (want "references" or "fixed")`, opts.calibration)
	}
}

func run(opts options) error {
	anchors, err := anchorsFromOptions(opts)
	if err != nil {
		return fmt.Errorf("derive calibration: %w", err)
	}

	reader, err := adc.NewRealReader(opts.i2cBus, uint16(opts.i2cAddr), opts.i2cChannel)
	if err != nil {
		return fmt.Errorf("init adc: %w", err)
	}
	defer reader.Close()

	meter, err := sensor.NewMeter(reader, anchors, opts.adcMax, opts.vref)
	if err != nil {
		return fmt.Errorf("init meter: %w", err)
	}

	clk := clock.NewWall()

	if opts.printPH {
		r, err := meter.Read(clk.Now())
		if err != nil {
			return fmt.Errorf("read probe: %w", err)
		}
		fmt.Printf("pH: %.2f (%.3f V)\n", r.PH, r.Voltage)
		return nil
	}

	nv, err := nvram.OpenFile(opts.nvramPath)
	if err != nil {
		return fmt.Errorf("open nvram: %w", err)
	}
	defer nv.Close()
	store := config.NewStore(nv)

	band, err := store.Load()
	if err != nil {
		return fmt.Errorf("load band: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"band":       band.String(),
		"anchor_ph7": anchors.VoltagePH7,
		"anchor_ph4": anchors.VoltagePH4,
	}).Info("boot configuration")
	if band.Inverted() {
		logrus.Warnf("stored band inverted (low %.2f > high %.2f), using as-is", band.Low, band.High)
	}

	baseOut, err := gpio.NewRealOutput(opts.pinBase)
	if err != nil {
		return fmt.Errorf("init base valve pin: %w", err)
	}
	defer baseOut.Close()

	acidOut, err := gpio.NewRealOutput(opts.pinAcid)
	if err != nil {
		return fmt.Errorf("init acid valve pin: %w", err)
	}
	defer acidOut.Close()

	actuator := dosing.NewActuator(baseOut, acidOut, opts.dwell)

	var jnl *journal.Journal
	if opts.jnlPath != "" {
		jnl, err = journal.Open(opts.jnlPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer jnl.Close()
	}

	publisher := mqtt.NewRealPublisher(opts.broker)
	defer publisher.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		LoopMs:         opts.loop.Milliseconds(),
		ReadIntervalMs: opts.readInterval.Milliseconds(),
		DwellMs:        opts.dwell.Milliseconds(),
		HeartbeatMs:    opts.heartbeat.Milliseconds(),
		Broker:         opts.broker,
		HTTPAddr:       opts.httpAddr,
		NVRAMPath:      opts.nvramPath,
		Calibration:    opts.calibration,
	})
	tracker.SetBand(band)
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		logrus.WithError(err).Warn("publish startup event")
	} else {
		logrus.Info("published startup event")
	}

	if opts.httpAddr != "" {
		var history web.History
		if jnl != nil {
			history = jnl
		}
		srv := web.New(opts.httpAddr, tracker, history)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logrus.WithError(err).Error("http server")
			}
		}()
		defer srv.Shutdown(context.Background())
		logrus.Infof("http status server listening on %s", opts.httpAddr)
	}

	logrus.Infof("started: loop=%v read-interval=%v dwell=%v broker=%s heartbeat=%v",
		opts.loop, opts.readInterval, opts.dwell, opts.broker, opts.heartbeat)

	ticker := time.NewTicker(opts.loop)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var rec recorder
	if jnl != nil {
		rec = jnl
	}
	deps := loopDeps{
		meter:        meter,
		actuator:     actuator,
		policy:       control.NewPolicy(logrus.WithField("component", "policy")),
		interp:       command.New(&band, store, os.Stdout, logrus.WithField("component", "command")),
		source:       command.NewReaderSource(os.Stdin),
		band:         &band,
		publisher:    publisher,
		mqttStatus:   publisher,
		tracker:      tracker,
		journal:      rec,
		clk:          clk,
		now:          time.Now,
		readInterval: opts.readInterval,
		heartbeat:    opts.heartbeat,
	}
	return runLoop(deps, ticker.C, sigCh)
}

// recorder is the journal surface the loop writes to. nil disables history.
type recorder interface {
	AppendReading(ts time.Time, ph, voltage float64) error
	AppendDose(ts time.Time, valve, event string) error
}

type loopDeps struct {
	meter      *sensor.Meter
	actuator   *dosing.Actuator
	policy     *control.Policy
	interp     *command.Interpreter
	source     command.LineSource
	band       *config.Band
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	journal    recorder
	clk        clock.Clock
	now        func() time.Time

	readInterval time.Duration
	heartbeat    time.Duration
}

// runLoop is the single-goroutine scheduler: one console command, then gated
// acquisition and policy, then dwell expiry, every pass. All state the loop
// touches is owned by this goroutine.
func runLoop(d loopDeps, tick <-chan time.Time, sig <-chan os.Signal) error {
	var (
		lastRead      clock.Millis
		haveRead      bool
		lastHeartbeat = d.clk.Now()
	)

	for {
		select {
		case s := <-sig:
			logrus.Infof("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: d.now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if d.tracker != nil {
				if d.mqttStatus != nil {
					d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
				}
				snap := d.tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				logrus.WithError(err).Warn("publish shutdown event")
			} else {
				logrus.Info("published shutdown event")
			}
			return nil

		case <-tick:
			t := d.clk.Now()

			// At most one command per pass keeps console handling from
			// starving the dwell expiry check.
			if line, ok := d.source.Poll(); ok {
				d.interp.HandleLine(line)
				if d.tracker != nil {
					d.tracker.SetBand(*d.band)
				}
			}

			// The first pass samples immediately so a reading is on the
			// status page right after boot; only subsequent reads wait out
			// the full interval.
			if !haveRead || clock.Elapsed(t, lastRead) >= d.readInterval {
				r, err := d.meter.Read(t)
				if err != nil {
					// Acquisition failure skips this control cycle; the next
					// read is a fresh attempt with no carried state.
					logrus.WithError(err).Error("probe read")
				} else {
					lastRead = t
					haveRead = true
					d.handleReading(r)
				}
			}

			for _, ev := range d.actuator.Tick(t) {
				logrus.WithField("valve", ev.Valve.String()).Info("dose complete, valve closed")
				d.recordDose(ev.Valve.String(), string(ev.Kind))
			}

			if d.tracker != nil {
				d.tracker.SetValves(d.actuator.ValveActive(dosing.Base), d.actuator.ValveActive(dosing.Acid))
				if d.mqttStatus != nil {
					d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
				}
			}

			if d.heartbeat > 0 && clock.Elapsed(t, lastHeartbeat) >= d.heartbeat {
				lastHeartbeat = t
				d.publishHeartbeat()
			}
		}
	}
}

func (d *loopDeps) handleReading(r sensor.Reading) {
	logrus.WithFields(logrus.Fields{
		"ph":      fmt.Sprintf("%.2f", r.PH),
		"voltage": fmt.Sprintf("%.3f", r.Voltage),
	}).Info("reading")

	if d.tracker != nil {
		d.tracker.SetReading(r.PH)
	}

	wall := d.now()
	if err := d.publisher.PublishReading(mqtt.ReadingEvent{Timestamp: wall, PH: r.PH, Voltage: r.Voltage}); err != nil {
		logrus.WithError(err).Warn("publish reading")
	}
	if d.journal != nil {
		if err := d.journal.AppendReading(wall, r.PH, r.Voltage); err != nil {
			logrus.WithError(err).Warn("journal reading")
		}
	}

	if valve := d.policy.Evaluate(r, *d.band, d.actuator); valve != nil {
		d.recordDose(valve.String(), string(dosing.EventArmed))
		if d.tracker != nil {
			d.tracker.CountDose(valve.String())
		}
	}
}

func (d *loopDeps) recordDose(valve, event string) {
	wall := d.now()
	if err := d.publisher.PublishDose(mqtt.DoseEvent{Timestamp: wall, Valve: valve, Event: event}); err != nil {
		logrus.WithError(err).Warn("publish dose event")
	}
	if d.journal != nil {
		if err := d.journal.AppendDose(wall, valve, event); err != nil {
			logrus.WithError(err).Warn("journal dose event")
		}
	}
}

func (d *loopDeps) publishHeartbeat() {
	event := mqtt.SystemEvent{
		Timestamp: d.now(),
		Event:     "HEARTBEAT",
	}
	if d.tracker != nil {
		if d.mqttStatus != nil {
			d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
		}
		// Refresh network info for heartbeat
		if net := readNetworkInfo(); net != nil {
			d.tracker.SetNetwork(net)
		}
		snap := d.tracker.Snapshot()
		event.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
		logrus.Infof("heartbeat: uptime=%v readings=%d base_doses=%d acid_doses=%d",
			snap.Uptime().Truncate(time.Second), snap.Counts.Readings, snap.Counts.BaseDoses, snap.Counts.AcidDoses)
	}
	if err := d.publisher.PublishSystem(event); err != nil {
		logrus.WithError(err).Warn("publish heartbeat")
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
