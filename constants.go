// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

// this code is mainly inspired and based on the openocd project source code
// for detailed information see

// https://sourceforge.net/p/openocd/code

package stlinkprobe

import "time"

const stLinkName = "ST-Link"

const stLinkVid = 0x0483

const (
	stLinkV2Pid          = 0x3748
	stLinkV21Pid         = 0x374B
	stLinkV21NoMsdPid    = 0x3752
	stLinkV3UsbLoaderPid = 0x374D
	stLinkV3EPid         = 0x374E
	stLinkV3SPid         = 0x374F
	stLinkV32VcpPid      = 0x3753
)

// usb endpoint numbers, direction is given by the endpoint type
const (
	usbRxEndpointNo      = 1
	usbTxEndpointNo      = 2
	usbTxEndpointApi2v1  = 1
	usbCmdBlockSize      = 16
	defaultUsbTimeout    = 1000 * time.Millisecond
	defaultUsbConfig     = 1
	defaultUsbInterface  = 0
	defaultUsbAltSetting = 0
)

// command family selectors
const (
	cmdGetVersion       = 0xF1
	cmdDebug            = 0xF2
	cmdDfu              = 0xF3
	cmdSwim             = 0xF4
	cmdGetCurrentMode   = 0xF5
	cmdGetTargetVoltage = 0xF7
	cmdGetVersionEx     = 0xFB
)

// operation selectors of the debug family
const (
	debugEnterSwdNoReset      = 0xA3
	debugEnterJTagNoReset     = 0xA4
	debugApiV2Enter           = 0x30
	debugApiV2DriveNrst       = 0x3C
	debugApiV2SwdSetFreq      = 0x43
	debugApiV2JTagSetFreq     = 0x44
	debugApiV2ReadDapRegister = 0x45
	debugApiV2WriteDapReg     = 0x46
	debugApiV2InitAccessPort  = 0x4B
	debugApiV2CloseApDbg      = 0x4C
	debugApiV3SetComFreq      = 0x61
	debugApiV3GetComFreq      = 0x62
)

const (
	driveNrstLow   = 0x00
	driveNrstHigh  = 0x01
	driveNrstPulse = 0x02
)

const (
	dfuExit  = 0x07
	swimExit = 0x01
)

// fixed response sizes
const (
	respSizeNone      = 0
	respSizeStatus    = 2
	respSizeVersion   = 6
	respSizeVoltage   = 8
	respSizeDapRead   = 8
	respSizeComFreq   = 8
	respSizeVersionEx = 12
	respSizeFreqList  = 52
)

const (
	comFreqProtoSwd  = 0
	comFreqProtoJtag = 1

	v3MaxFreqNb = 10
)

const (
	// minimum JTAG/SWD firmware version for pre-V3 hardware
	minJtagVersion = 24
	// first pre-V3 firmware with multiple access port support
	minJtagVersionMultiAp = 28

	accessPortSelectionMaximum = 255

	defaultSwdSpeedKhz  = 1800
	defaultJtagSpeedKhz = 1125

	lowTargetVoltage = 1.5
)
