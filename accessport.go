// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

// this code is mainly inspired and based on the openocd project source code
// for detailed information see

// https://sourceforge.net/p/openocd/code

package stlinkprobe

import (
	"fmt"

	"github.com/bbnote/stlinkprobe/probe"
)

// dpBankMask selects the register address bits a debug port access must
// leave blank.
const dpBankMask = 0xF0

func (h *StLink) usbOpenAccessPort(apsel uint8) error {
	if !h.version.has(featureMultiAp) {
		return ErrMultipleAPNotSupported
	}

	log().Tracef("init AP %d", apsel)

	ctx := h.initTransfer(respSizeStatus)

	ctx.cmdBuf.WriteByte(cmdDebug)
	ctx.cmdBuf.WriteByte(debugApiV2InitAccessPort)
	ctx.cmdBuf.WriteByte(apsel)

	return h.usbTransferErrCheck(ctx)
}

func (h *StLink) usbCloseAccessPort(apsel uint8) error {
	if !h.version.has(featureMultiAp) {
		return ErrMultipleAPNotSupported
	}

	log().Tracef("close AP %d", apsel)

	ctx := h.initTransfer(respSizeStatus)

	ctx.cmdBuf.WriteByte(cmdDebug)
	ctx.cmdBuf.WriteByte(debugApiV2CloseApDbg)
	ctx.cmdBuf.WriteByte(apsel)

	return h.usbTransferErrCheck(ctx)
}

// selectAccessPort makes apsel the single open access port.
func (h *StLink) selectAccessPort(apsel uint16) error {
	if apsel > accessPortSelectionMaximum {
		return fmt.Errorf("AP %d: %w", apsel, ErrInvalidAccessPort)
	}

	if h.apOpen {
		if h.currentAp == apsel {
			return nil
		}

		if err := h.usbCloseAccessPort(uint8(h.currentAp)); err != nil {
			return err
		}

		log().Debugf("AP %d closed", h.currentAp)
		h.apOpen = false
	}

	if err := h.usbOpenAccessPort(uint8(apsel)); err != nil {
		return err
	}

	log().Debugf("AP %d opened", apsel)
	h.currentAp = apsel
	h.apOpen = true

	return nil
}

// CurrentAccessPort reports the access port that is currently open.
func (h *StLink) CurrentAccessPort() (uint16, bool) {
	return h.currentAp, h.apOpen
}

func (h *StLink) prepareRegisterAccess(port probe.PortType, addr uint16) error {
	if port.IsDebugPort() && (addr&dpBankMask) != 0 {
		return fmt.Errorf("DP register 0x%02x: %w", addr, ErrBlanksNotAllowedOnDPRegister)
	}

	if apsel, ok := port.AccessPortNumber(); ok {
		return h.selectAccessPort(apsel)
	}

	return nil
}

// ReadRegister reads the DAP register addr of port.
func (h *StLink) ReadRegister(port probe.PortType, addr uint16) (uint32, error) {
	if err := h.prepareRegisterAccess(port, addr); err != nil {
		return 0, err
	}

	ctx := h.initTransfer(respSizeDapRead)

	ctx.cmdBuf.WriteByte(cmdDebug)
	ctx.cmdBuf.WriteByte(debugApiV2ReadDapRegister)
	ctx.cmdBuf.WriteUint16LE(port.Value())
	ctx.cmdBuf.WriteUint16LE(addr)

	if err := h.usbTransferErrCheck(ctx); err != nil {
		return 0, err
	}

	value, err := convertToUint32(ctx.DataBytes()[4:], littleEndian)
	if err != nil {
		return 0, err
	}

	log().Tracef("read %v[0x%02x] = 0x%08x", port, addr, value)

	return value, nil
}

// WriteRegister writes value to the DAP register addr of port.
func (h *StLink) WriteRegister(port probe.PortType, addr uint16, value uint32) error {
	if err := h.prepareRegisterAccess(port, addr); err != nil {
		return err
	}

	ctx := h.initTransfer(respSizeStatus)

	ctx.cmdBuf.WriteByte(cmdDebug)
	ctx.cmdBuf.WriteByte(debugApiV2WriteDapReg)
	ctx.cmdBuf.WriteUint16LE(port.Value())
	ctx.cmdBuf.WriteUint16LE(addr)
	ctx.cmdBuf.WriteUint32LE(value)

	if err := h.usbTransferErrCheck(ctx); err != nil {
		return err
	}

	log().Tracef("write %v[0x%02x] = 0x%08x", port, addr, value)

	return nil
}
