// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

// this code is mainly inspired and based on the openocd project source code
// for detailed information see

// https://sourceforge.net/p/openocd/code

// Package stlinkprobe drives the debug port of a target through an ST-Link
// V2, V2-1 or V3 probe.
package stlinkprobe

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bbnote/stlinkprobe/probe"
)

// StLink is one opened ST-Link. It is not safe for concurrent use.
type StLink struct {
	transport Transport
	timeout   time.Duration

	version Version

	protocol     probe.WireProtocol
	swdSpeedKhz  uint32
	jtagSpeedKhz uint32

	connectUnderReset bool

	// access port that is currently open, valid if apOpen
	currentAp uint16
	apOpen    bool
}

var _ probe.DebugProbe = (*StLink)(nil)
var _ probe.DAPAccess = (*StLink)(nil)

// Open opens the USB probe described by info and initializes it.
func Open(info probe.ProbeInfo, config *Config) (*StLink, error) {
	transport, err := OpenUsbTransport(info)
	if err != nil {
		return nil, err
	}

	h, err := New(transport, config)
	if err != nil {
		transport.Close()
		return nil, err
	}

	return h, nil
}

// New initializes a driver on top of an already opened transport. A nil
// config means DefaultConfig.
func New(transport Transport, config *Config) (*StLink, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.LogLevel != "" {
		level, _ := logrus.ParseLevel(config.LogLevel)
		logger.SetLevel(level)
	}

	protocol, _ := probe.ParseWireProtocol(config.Protocol)

	h := &StLink{
		transport:         transport,
		timeout:           config.Timeout,
		protocol:          probe.WireProtocolSwd,
		swdSpeedKhz:       defaultSwdSpeedKhz,
		jtagSpeedKhz:      defaultJtagSpeedKhz,
		connectUnderReset: config.ConnectUnderReset,
	}

	if h.timeout == 0 {
		h.timeout = defaultUsbTimeout
	}

	if err := h.init(); err != nil {
		return nil, err
	}

	h.protocol = protocol

	if config.SpeedKhz != 0 {
		if protocol == probe.WireProtocolJtag {
			h.jtagSpeedKhz = config.SpeedKhz
		} else {
			h.swdSpeedKhz = config.SpeedKhz
		}
	}

	return h, nil
}

func (h *StLink) init() error {
	log().Debug("initializing ST-Link...")

	if err := h.usbEnterIdle(); err != nil {
		var transportErr *TransportError

		if !errors.As(err, &transportErr) {
			return err
		}

		log().Debugf("entering idle mode failed (%v), resetting device", err)

		if err := h.transport.Reset(); err != nil {
			return err
		}

		if err := h.usbEnterIdle(); err != nil {
			return err
		}
	}

	if err := h.usbGetVersion(); err != nil {
		return err
	}

	if h.version.Hardware == 3 {
		_, current, err := h.usbGetComFreq(probe.WireProtocolSwd)
		if err != nil {
			return err
		}
		h.swdSpeedKhz = current

		_, current, err = h.usbGetComFreq(probe.WireProtocolJtag)
		if err != nil {
			return err
		}
		h.jtagSpeedKhz = current
	}

	/* we check the target voltage here as an aid to debugging connection problems.
	 * the stlink requires the target Vdd to be connected for reliable debugging.
	 */
	voltage, err := h.TargetVoltage()
	if err != nil {
		return err
	}

	if voltage < lowTargetVoltage {
		log().Warnf("target voltage %.2f V may be too low for reliable debugging", voltage)
	}

	return nil
}

// WithStLink initializes a driver on transport, runs fn and always closes
// the driver afterwards.
func WithStLink(transport Transport, config *Config, fn func(*StLink) error) error {
	h, err := New(transport, config)
	if err != nil {
		return err
	}

	defer h.Close()

	return fn(h)
}

// Close leaves debug mode on a best effort basis and releases the transport.
func (h *StLink) Close() error {
	if err := h.usbEnterIdle(); err != nil {
		log().Debugf("ignoring error while entering idle mode on close: %v", err)
	}

	return h.transport.Close()
}

func (h *StLink) Name() string {
	return stLinkName
}

// Version reports the hardware and firmware versions of the probe.
func (h *StLink) Version() Version {
	return h.version
}

// Protocol returns the selected wire protocol.
func (h *StLink) Protocol() probe.WireProtocol {
	return h.protocol
}

// Speed returns the configured speed of the selected protocol in kHz.
func (h *StLink) Speed() uint32 {
	if h.protocol == probe.WireProtocolJtag {
		return h.jtagSpeedKhz
	}

	return h.swdSpeedKhz
}

// SelectProtocol chooses the protocol the next Attach uses.
func (h *StLink) SelectProtocol(protocol probe.WireProtocol) error {
	h.protocol = protocol

	return nil
}

// Attach enters debug mode for the selected protocol.
func (h *StLink) Attach() error {
	log().Debugf("attach (%v)", h.protocol)

	if err := h.usbEnterIdle(); err != nil {
		return err
	}

	if h.connectUnderReset {
		// proceed with the mode entry even if this fails
		if err := h.DriveNReset(true); err != nil {
			log().Warnf("could not assert reset before mode entry: %v", err)
		}
	}

	if err := h.usbModeEnter(h.protocol); err != nil {
		return err
	}

	log().Debugf("successfully initialized %v", h.protocol)

	// the probe may reset its clock on mode entry
	if _, err := h.SetSpeed(h.Speed()); err != nil {
		return fmt.Errorf("restore %v speed: %w", h.protocol, err)
	}

	return nil
}

// Detach leaves debug mode.
func (h *StLink) Detach() error {
	log().Debug("detaching from ST-Link")

	return h.usbEnterIdle()
}

func (h *StLink) DAP() probe.DAPAccess {
	return h
}

// JTAG returns nil, the ST-Link offers no direct JTAG register access.
func (h *StLink) JTAG() probe.JTAGAccess {
	return nil
}

// TargetVoltage measures the target supply voltage.
func (h *StLink) TargetVoltage() (float32, error) {
	ctx := h.initTransfer(respSizeVoltage)

	ctx.cmdBuf.WriteByte(cmdGetTargetVoltage)

	if err := h.usbTransferNoErrCheck(ctx); err != nil {
		return 0, err
	}

	a0, _ := convertToUint32(ctx.DataBytes(), littleEndian)
	a1, _ := convertToUint32(ctx.DataBytes()[4:], littleEndian)

	voltage, err := targetVoltage(a0, a1)
	if err != nil {
		return 0, err
	}

	log().Debugf("target voltage: %.3f V", voltage)

	return voltage, nil
}

// targetVoltage converts the reference and target ADC samples to volts.
func targetVoltage(a0, a1 uint32) (float32, error) {
	if a0 == 0 {
		return 0, ErrVoltageDivisionByZero
	}

	return 2 * float32(a1) * 1.2 / float32(a0), nil
}
