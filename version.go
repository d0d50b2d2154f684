// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package stlinkprobe

import (
	"fmt"

	"github.com/boljen/go-bitmap"

	"github.com/bbnote/stlinkprobe/probe"
)

type feature int

// capability flags, indices into Version.flags
const (
	featureTargetVoltage feature = iota
	featureSwdSetFreq
	featureJtagSetFreq
	featureMultiAp
	featureComFreq

	featureCount
)

const (
	hwVersionShift   = 12
	hwVersionMask    = 0x0F
	jtagVersionShift = 6
	jtagVersionMask  = 0x3F
	swimVersionMask  = 0x3F
)

// Version holds what the probe reported about itself.
type Version struct {
	Hardware uint8
	Jtag     uint8
	Swim     uint8

	VendorID  uint16
	ProductID uint16

	flags bitmap.Bitmap
}

func (v Version) has(f feature) bool {
	if v.flags == nil {
		return false
	}

	return v.flags.Get(int(f))
}

func (v Version) String() string {
	s := fmt.Sprintf("V%dJ%d", v.Hardware, v.Jtag)

	if v.Swim > 0 {
		s += fmt.Sprintf("S%d", v.Swim)
	}

	return s
}

// parseVersionWord splits the big endian word of the base version query
// into hardware, JTAG and SWIM version fields.
//
//	[15:12] hardware version
//	[11:6]  JTAG/SWD version
//	[5:0]   SWIM or MSC version
func parseVersionWord(word uint16) (hw, jtag, swim uint8) {
	hw = uint8(word>>hwVersionShift) & hwVersionMask
	jtag = uint8(word>>jtagVersionShift) & jtagVersionMask
	swim = uint8(word) & swimVersionMask

	return hw, jtag, swim
}

func featureFlags(hw, jtag uint8) bitmap.Bitmap {
	flags := bitmap.New(int(featureCount))

	if hw >= 3 {
		flags.Set(int(featureTargetVoltage), true)
		flags.Set(int(featureSwdSetFreq), true)
		flags.Set(int(featureJtagSetFreq), true)
		flags.Set(int(featureMultiAp), true)
		flags.Set(int(featureComFreq), hw == 3)

		return flags
	}

	/* API for target voltage from J13 */
	flags.Set(int(featureTargetVoltage), jtag >= 13)

	/* API to set SWD frequency from J22 */
	flags.Set(int(featureSwdSetFreq), jtag >= 22)

	/* API to set JTAG frequency from J24 */
	flags.Set(int(featureJtagSetFreq), jtag >= 24)

	/* API required to init AP before any AP access from J28 */
	flags.Set(int(featureMultiAp), jtag >= minJtagVersionMultiAp)

	return flags
}

// usbGetVersion queries hardware and firmware versions and checks that the
// firmware is usable.
func (h *StLink) usbGetVersion() error {
	ctx := h.initTransfer(respSizeVersion)

	ctx.cmdBuf.WriteByte(cmdGetVersion)

	if err := h.usbTransferNoErrCheck(ctx); err != nil {
		return err
	}

	word, err := convertToUint16(ctx.DataBytes(), bigEndian)
	if err != nil {
		return err
	}

	var v Version

	v.Hardware, v.Jtag, v.Swim = parseVersionWord(word)
	v.VendorID, _ = convertToUint16(ctx.DataBytes()[2:], littleEndian)
	v.ProductID, _ = convertToUint16(ctx.DataBytes()[4:], littleEndian)

	if v.Hardware > 3 {
		return &UnsupportedHardwareError{Version: v.Hardware}
	}

	/* STLINK-V3 requires a specific command */
	if v.Hardware == 3 {
		ctxV3 := h.initTransfer(respSizeVersionEx)

		ctxV3.cmdBuf.WriteByte(cmdGetVersionEx)

		if err := h.usbTransferNoErrCheck(ctxV3); err != nil {
			return err
		}

		v.Swim = ctxV3.DataBytes()[1]
		v.Jtag = ctxV3.DataBytes()[2]
		v.VendorID, _ = convertToUint16(ctxV3.DataBytes()[8:], littleEndian)
		v.ProductID, _ = convertToUint16(ctxV3.DataBytes()[10:], littleEndian)
	}

	v.flags = featureFlags(v.Hardware, v.Jtag)
	h.version = v

	log().Debugf("parsed ST-Link version [%s] for [%04x:%04x]", v, v.VendorID, v.ProductID)

	if v.Jtag == 0 {
		return probe.ErrJTAGNotSupportedOnProbe
	}

	if v.Hardware < 3 && v.Jtag < minJtagVersion {
		return probe.ErrProbeFirmwareOutdated
	}

	return nil
}
