//go:build linux

package adc

import (
	"encoding/binary"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// ADS1115 registers.
const (
	regConversion = 0x00
	regConfig     = 0x01
)

// RealReader samples a single channel of an ADS1115 over I2C.
type RealReader struct {
	bus     i2c.BusCloser
	dev     i2c.Dev
	channel int
}

// NewRealReader opens the I2C bus and prepares the converter.
// channel selects the single-ended input (0-3) the probe board drives.
func NewRealReader(busName string, addr uint16, channel int) (*RealReader, error) {
	if channel < 0 || channel > 3 {
		return nil, fmt.Errorf("adc: channel %d out of range 0-3", channel)
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}

	return &RealReader{
		bus:     bus,
		dev:     i2c.Dev{Bus: bus, Addr: addr},
		channel: channel,
	}, nil
}

// Read triggers one single-shot conversion and returns the sample rescaled
// into the converter's native 0..DefaultMaxCount counts.
func (r *RealReader) Read() (int, error) {
	// Single-shot, single-ended on the selected channel, +-4.096V range,
	// 128 SPS, comparator disabled.
	config := uint16(0x8000) | // start single conversion
		uint16(0x4000+0x1000*r.channel) | // MUX: AINn vs GND
		uint16(0x0200) | // PGA +-4.096V
		uint16(0x0100) | // single-shot mode
		uint16(0x0080) | // 128 SPS
		uint16(0x0003) // comparator disabled

	var cmd [3]byte
	cmd[0] = regConfig
	binary.BigEndian.PutUint16(cmd[1:], config)
	if err := r.dev.Tx(cmd[:], nil); err != nil {
		return 0, fmt.Errorf("write adc config: %w", err)
	}

	// 128 SPS conversion takes ~8ms.
	time.Sleep(9 * time.Millisecond)

	var buf [2]byte
	if err := r.dev.Tx([]byte{regConversion}, buf[:]); err != nil {
		return 0, fmt.Errorf("read adc conversion: %w", err)
	}

	code := int(int16(binary.BigEndian.Uint16(buf[:])))
	return countFromCode(code), nil
}

// Close releases the I2C bus.
func (r *RealReader) Close() error {
	if r.bus != nil {
		return r.bus.Close()
	}
	return nil
}
