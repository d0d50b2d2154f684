// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package stlinkprobe

func (h *StLink) usbDriveNrst(state byte) error {
	ctx := h.initTransfer(respSizeStatus)

	ctx.cmdBuf.WriteByte(cmdDebug)
	ctx.cmdBuf.WriteByte(debugApiV2DriveNrst)
	ctx.cmdBuf.WriteByte(state)

	return h.usbTransferErrCheck(ctx)
}

// TargetReset pulses the nRESET line of the target.
func (h *StLink) TargetReset() error {
	log().Debug("pulse target reset")

	return h.usbDriveNrst(driveNrstPulse)
}

// DriveNReset asserts (drives low) or releases the nRESET line.
func (h *StLink) DriveNReset(asserted bool) error {
	if asserted {
		log().Trace("assert RST line")
		return h.usbDriveNrst(driveNrstLow)
	}

	log().Trace("deassert RST line")
	return h.usbDriveNrst(driveNrstHigh)
}
