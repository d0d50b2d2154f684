// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package stlinkprobe

import (
	"fmt"

	"github.com/bbnote/stlinkprobe/probe"
)

type speedMap struct {
	speed   uint32
	divisor uint16
}

/* SWD clock speed, divisor is the delay count */
var swdKHzToSpeedMap = [...]speedMap{
	{4000, 0},
	{1800, 1}, /* default */
	{1200, 2},
	{950, 3},
	{650, 5},
	{480, 7},
	{400, 9},
	{360, 10},
	{240, 15},
	{150, 25},
	{125, 31},
	{100, 40},
	{50, 79},
	{25, 158},
	{15, 265},
	{5, 798},
}

/* JTAG clock speed */
var jTAGkHzToSpeedMap = [...]speedMap{
	{18000, 2},
	{9000, 4},
	{4500, 8},
	{2250, 16},
	{1125, 32}, /* default */
	{562, 64},
	{281, 128},
	{140, 256},
}

// findSetting returns the fastest table entry not above khz.
func findSetting(smap []speedMap, khz uint32) (speedMap, bool) {
	var best speedMap
	found := false

	for _, s := range smap {
		if s.speed <= khz && (!found || s.speed > best.speed) {
			best = s
			found = true
		}
	}

	return best, found
}

// selectFrequency returns the highest available frequency not above khz.
func selectFrequency(available []uint32, khz uint32) (uint32, bool) {
	var best uint32
	found := false

	for _, f := range available {
		if f <= khz && (!found || f > best) {
			best = f
			found = true
		}
	}

	return best, found
}

func comFreqProtocol(protocol probe.WireProtocol) byte {
	if protocol == probe.WireProtocolJtag {
		return comFreqProtoJtag
	}

	return comFreqProtoSwd
}

// SetSpeed selects the fastest supported communication speed not above khz
// for the active protocol and returns it.
func (h *StLink) SetSpeed(khz uint32) (uint32, error) {
	var achieved uint32
	var err error

	switch {
	case h.version.Hardware < 3:
		achieved, err = h.setSpeedTable(khz)

	case h.version.Hardware == 3:
		achieved, err = h.setSpeedV3(khz)

	default:
		return 0, &UnsupportedHardwareError{Version: h.version.Hardware}
	}

	if err != nil {
		return 0, err
	}

	if h.protocol == probe.WireProtocolJtag {
		h.jtagSpeedKhz = achieved
	} else {
		h.swdSpeedKhz = achieved
	}

	log().Debugf("%v speed set to %d kHz (requested %d kHz)", h.protocol, achieved, khz)

	return achieved, nil
}

func (h *StLink) setSpeedTable(khz uint32) (uint32, error) {
	var setting speedMap
	var ok bool
	var cmd byte

	if h.protocol == probe.WireProtocolJtag {
		setting, ok = findSetting(jTAGkHzToSpeedMap[:], khz)
		cmd = debugApiV2JTagSetFreq
	} else {
		setting, ok = findSetting(swdKHzToSpeedMap[:], khz)
		cmd = debugApiV2SwdSetFreq
	}

	if !ok {
		return 0, &probe.UnsupportedSpeedError{Khz: khz}
	}

	ctx := h.initTransfer(respSizeStatus)

	ctx.cmdBuf.WriteByte(cmdDebug)
	ctx.cmdBuf.WriteByte(cmd)
	ctx.cmdBuf.WriteUint16LE(setting.divisor)

	if err := h.usbTransferErrCheck(ctx); err != nil {
		return 0, err
	}

	return setting.speed, nil
}

func (h *StLink) setSpeedV3(khz uint32) (uint32, error) {
	available, _, err := h.usbGetComFreq(h.protocol)
	if err != nil {
		return 0, err
	}

	frequency, ok := selectFrequency(available, khz)
	if !ok {
		return 0, &probe.UnsupportedSpeedError{Khz: khz}
	}

	if err := h.usbSetComFreq(h.protocol, frequency); err != nil {
		return 0, err
	}

	return frequency, nil
}

// usbGetComFreq returns the available and the current frequency of a
// protocol. V3 only.
//
// Response words: status, current, count (at most 10), frequencies...
func (h *StLink) usbGetComFreq(protocol probe.WireProtocol) ([]uint32, uint32, error) {
	if !h.version.has(featureComFreq) {
		return nil, 0, &UnsupportedHardwareError{Version: h.version.Hardware}
	}

	ctx := h.initTransfer(respSizeFreqList)

	ctx.cmdBuf.WriteByte(cmdDebug)
	ctx.cmdBuf.WriteByte(debugApiV3GetComFreq)
	ctx.cmdBuf.WriteByte(comFreqProtocol(protocol))

	if err := h.usbTransferErrCheck(ctx); err != nil {
		return nil, 0, err
	}

	words := uint32Words(ctx.DataBytes())
	if len(words) < 3 {
		return nil, 0, ErrNotEnoughBytesRead
	}

	current := words[1]
	count := int(min(words[2], v3MaxFreqNb))
	count = min(count, len(words)-3)

	available := make([]uint32, count)
	copy(available, words[3:])

	log().Debugf("%v frequencies: current %d kHz, available %v", protocol, current, available)

	return available, current, nil
}

func (h *StLink) usbSetComFreq(protocol probe.WireProtocol, frequency uint32) error {
	if !h.version.has(featureComFreq) {
		return &UnsupportedHardwareError{Version: h.version.Hardware}
	}

	ctx := h.initTransfer(respSizeComFreq)

	ctx.cmdBuf.WriteByte(cmdDebug)
	ctx.cmdBuf.WriteByte(debugApiV3SetComFreq)
	ctx.cmdBuf.WriteByte(comFreqProtocol(protocol))
	ctx.cmdBuf.WriteByte(0)
	ctx.cmdBuf.WriteUint32LE(frequency)

	if err := h.usbTransferErrCheck(ctx); err != nil {
		return fmt.Errorf("set %v frequency %d kHz: %w", protocol, frequency, err)
	}

	return nil
}
