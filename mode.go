// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package stlinkprobe

import (
	"fmt"

	"github.com/bbnote/stlinkprobe/probe"
)

// Mode is the operating mode the probe firmware currently runs in.
type Mode uint8

const (
	ModeDfu         Mode = 0x00
	ModeMassStorage Mode = 0x01
	ModeDebug       Mode = 0x02
	ModeSwim        Mode = 0x03
)

func (m Mode) String() string {
	switch m {
	case ModeDfu:
		return "DFU"
	case ModeMassStorage:
		return "mass storage"
	case ModeDebug:
		return "JTAG/SWD"
	case ModeSwim:
		return "SWIM"
	default:
		return "unknown"
	}
}

func (h *StLink) usbCurrentMode() (Mode, error) {
	log().Trace("getting current mode of device...")

	ctx := h.initTransfer(respSizeStatus)

	ctx.cmdBuf.WriteByte(cmdGetCurrentMode)

	if err := h.usbTransferNoErrCheck(ctx); err != nil {
		return 0, err
	}

	mode := Mode(ctx.DataBytes()[0])

	if mode > ModeSwim {
		return 0, fmt.Errorf("mode byte 0x%02x: %w", ctx.DataBytes()[0], ErrUnknownMode)
	}

	log().Debugf("current device mode: %v", mode)

	return mode, nil
}

// usbEnterIdle leaves DFU or SWIM mode, any other mode already allows a
// debug session to be entered.
func (h *StLink) usbEnterIdle() error {
	mode, err := h.usbCurrentMode()

	if err != nil {
		return err
	}

	ctx := h.initTransfer(respSizeNone)

	switch mode {
	case ModeDfu:
		ctx.cmdBuf.WriteByte(cmdDfu)
		ctx.cmdBuf.WriteByte(dfuExit)

	case ModeSwim:
		ctx.cmdBuf.WriteByte(cmdSwim)
		ctx.cmdBuf.WriteByte(swimExit)

	default:
		return nil
	}

	log().Debugf("leaving %v mode", mode)

	return h.usbTransferNoErrCheck(ctx)
}

// usbModeEnter enters the debug mode for the given wire protocol.
func (h *StLink) usbModeEnter(protocol probe.WireProtocol) error {
	ctx := h.initTransfer(respSizeStatus)

	ctx.cmdBuf.WriteByte(cmdDebug)
	ctx.cmdBuf.WriteByte(debugApiV2Enter)

	switch protocol {
	case probe.WireProtocolJtag:
		log().Debug("switching protocol to JTAG")
		ctx.cmdBuf.WriteByte(debugEnterJTagNoReset)

	case probe.WireProtocolSwd:
		log().Debug("switching protocol to SWD")
		ctx.cmdBuf.WriteByte(debugEnterSwdNoReset)

	default:
		return fmt.Errorf("cannot enter debug mode for %v", protocol)
	}

	ctx.cmdBuf.WriteByte(0)

	return h.usbTransferErrCheck(ctx)
}
