// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package stlinkprobe

import "fmt"

// Status is the result code an ST-Link reports in the first response byte.
type Status uint8

const (
	StatusJtagUnknownError             Status = 0x01
	StatusJtagSpiError                 Status = 0x02
	StatusJtagDmaError                 Status = 0x03
	StatusJtagUnknownJtagChain         Status = 0x04
	StatusJtagNoDeviceConnected        Status = 0x05
	StatusJtagInternalError            Status = 0x06
	StatusJtagCmdWait                  Status = 0x07
	StatusJtagCmdError                 Status = 0x08
	StatusJtagGetIdCodeError           Status = 0x09
	StatusJtagAlignmentError           Status = 0x0A
	StatusJtagDbgPowerError            Status = 0x0B
	StatusJtagWriteError               Status = 0x0C
	StatusJtagWriteVerifyError         Status = 0x0D
	StatusJtagAlreadyOpenedInOtherMode Status = 0x0E
	StatusSwdApWait                    Status = 0x10
	StatusSwdApFault                   Status = 0x11
	StatusSwdApError                   Status = 0x12
	StatusSwdApParityError             Status = 0x13
	StatusSwdDpWait                    Status = 0x14
	StatusSwdDpFault                   Status = 0x15
	StatusSwdDpError                   Status = 0x16
	StatusSwdDpParityError             Status = 0x17
	StatusSwdApWDataError              Status = 0x18
	StatusSwdApStickyError             Status = 0x19
	StatusSwdApStickyOrRunError        Status = 0x1A
	StatusBadApError                   Status = 0x1D
	StatusSwvNotAvailable              Status = 0x20
	StatusJtagFreqNotSupported         Status = 0x41
	StatusJtagUnknownCmd               Status = 0x42
	StatusJtagOk                       Status = 0x80
	StatusDebugFault                   Status = 0x81

	// StatusUnknown stands for any byte that is not a known status code.
	StatusUnknown Status = 0xFF
)

var statusNames = map[Status]string{
	StatusJtagUnknownError:             "JTAG_UNKNOWN_ERROR",
	StatusJtagSpiError:                 "JTAG_SPI_ERROR",
	StatusJtagDmaError:                 "JTAG_DMA_ERROR",
	StatusJtagUnknownJtagChain:         "JTAG_UNKNOWN_JTAG_CHAIN",
	StatusJtagNoDeviceConnected:        "JTAG_NO_DEVICE_CONNECTED",
	StatusJtagInternalError:            "JTAG_INTERNAL_ERROR",
	StatusJtagCmdWait:                  "JTAG_CMD_WAIT",
	StatusJtagCmdError:                 "JTAG_CMD_ERROR",
	StatusJtagGetIdCodeError:           "JTAG_GET_IDCODE_ERROR",
	StatusJtagAlignmentError:           "JTAG_ALIGNMENT_ERROR",
	StatusJtagDbgPowerError:            "JTAG_DBG_POWER_ERROR",
	StatusJtagWriteError:               "JTAG_WRITE_ERROR",
	StatusJtagWriteVerifyError:         "JTAG_WRITE_VERIF_ERROR",
	StatusJtagAlreadyOpenedInOtherMode: "JTAG_ALREADY_OPENED_IN_OTHER_MODE",
	StatusSwdApWait:                    "SWD_AP_WAIT",
	StatusSwdApFault:                   "SWD_AP_FAULT",
	StatusSwdApError:                   "SWD_AP_ERROR",
	StatusSwdApParityError:             "SWD_AP_PARITY_ERROR",
	StatusSwdDpWait:                    "SWD_DP_WAIT",
	StatusSwdDpFault:                   "SWD_DP_FAULT",
	StatusSwdDpError:                   "SWD_DP_ERROR",
	StatusSwdDpParityError:             "SWD_DP_PARITY_ERROR",
	StatusSwdApWDataError:              "SWD_AP_WDATA_ERROR",
	StatusSwdApStickyError:             "SWD_AP_STICKY_ERROR",
	StatusSwdApStickyOrRunError:        "SWD_AP_STICKYORUN_ERROR",
	StatusBadApError:                   "BAD_AP_ERROR",
	StatusSwvNotAvailable:              "SWV_NOT_AVAILABLE",
	StatusJtagFreqNotSupported:         "JTAG_FREQ_NOT_SUPPORTED",
	StatusJtagUnknownCmd:               "JTAG_UNKNOWN_CMD",
	StatusJtagOk:                       "JTAG_OK",
	StatusDebugFault:                   "DEBUG_FAULT",
}

// lookupStatus maps a raw status byte to a known Status.
func lookupStatus(b byte) (Status, bool) {
	s := Status(b)

	if _, ok := statusNames[s]; ok {
		return s, true
	}

	return StatusUnknown, false
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}

	return "UNKNOWN"
}

func (s Status) GoString() string {
	return fmt.Sprintf("%s (0x%02x)", s.String(), uint8(s))
}
