// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package stlinkprobe

import (
	"errors"
	"fmt"
)

var (
	ErrVoltageDivisionByZero        = errors.New("invalid voltage values returned by probe")
	ErrUnknownMode                  = errors.New("probe is in an unknown mode")
	ErrMultipleAPNotSupported       = errors.New("JTAG does not support multiple access ports")
	ErrBlanksNotAllowedOnDPRegister = errors.New("blank values are not allowed on debug port register access")
	ErrNotEnoughBytesRead           = errors.New("not enough bytes read")
	ErrEndpointNotFound             = errors.New("usb endpoint not found")
	ErrUnknownStatus                = errors.New("unknown status code")
	ErrInvalidAccessPort            = errors.New("access port number exceeds 255")
	ErrProbeNotFound                = errors.New("could not find any ST-Link connected to computer")
)

// TransportError is a failure of the USB channel itself, as opposed to a
// failure reported by the probe.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("usb %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// CommandFailedError carries the non-success status a command returned.
type CommandFailedError struct {
	Status Status
	Code   byte
}

func (e *CommandFailedError) Error() string {
	return fmt.Sprintf("command failed with status %s (0x%02x)", e.Status, e.Code)
}

func (e *CommandFailedError) Unwrap() error {
	if e.Status == StatusUnknown {
		return ErrUnknownStatus
	}

	return nil
}

// UnsupportedHardwareError is returned for probe generations this driver has
// no protocol dialect for.
type UnsupportedHardwareError struct {
	Version uint8
}

func (e *UnsupportedHardwareError) Error() string {
	return fmt.Sprintf("unsupported ST-Link hardware generation V%d", e.Version)
}

// checkStatus converts the ST-Link status code held in the first byte of a
// response into an error.
func checkStatus(response []byte) error {
	if len(response) == 0 {
		return ErrNotEnoughBytesRead
	}

	log().Tracef("check status % x", response[:min(len(response), 2)])

	status, known := lookupStatus(response[0])

	if !known {
		log().Warnf("check status failed: unknown status code 0x%02x", response[0])
		return &CommandFailedError{Status: StatusUnknown, Code: response[0]}
	}

	if status != StatusJtagOk {
		log().Warnf("check status failed: %#v", status)
		return &CommandFailedError{Status: status, Code: response[0]}
	}

	return nil
}
