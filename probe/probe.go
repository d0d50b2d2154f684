// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

// Package probe describes the capabilities every debug probe driver exposes
// to generic target tooling.
package probe

import (
	"fmt"
	"strings"
)

// WireProtocol selects the physical protocol used to reach the target DAP.
type WireProtocol uint8

const (
	WireProtocolSwd WireProtocol = iota
	WireProtocolJtag
)

func (p WireProtocol) String() string {
	switch p {
	case WireProtocolSwd:
		return "SWD"
	case WireProtocolJtag:
		return "JTAG"
	default:
		return fmt.Sprintf("WireProtocol(%d)", uint8(p))
	}
}

// ParseWireProtocol accepts "swd" or "jtag" in any case.
func ParseWireProtocol(s string) (WireProtocol, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "swd":
		return WireProtocolSwd, nil
	case "jtag":
		return WireProtocolJtag, nil
	default:
		return WireProtocolSwd, fmt.Errorf("unknown wire protocol %q", s)
	}
}

// debugPortValue is the port number the DP is addressed with on the wire.
const debugPortValue = 0xFFFF

// PortType addresses either the Debug Port or one Access Port of a DAP.
type PortType struct {
	accessPort bool
	apsel      uint16
}

// DebugPort is the always addressable root register bank of the DAP.
var DebugPort = PortType{}

// AccessPort returns the port for the access port with the given number.
func AccessPort(apsel uint16) PortType {
	return PortType{accessPort: true, apsel: apsel}
}

func (p PortType) IsDebugPort() bool {
	return !p.accessPort
}

// AccessPortNumber reports the AP number and whether p is an access port.
func (p PortType) AccessPortNumber() (uint16, bool) {
	return p.apsel, p.accessPort
}

// Value is the 16 bit port identifier used in DAP register commands.
func (p PortType) Value() uint16 {
	if !p.accessPort {
		return debugPortValue
	}

	return p.apsel
}

func (p PortType) String() string {
	if !p.accessPort {
		return "DP"
	}

	return fmt.Sprintf("AP%d", p.apsel)
}

// ProbeInfo identifies one attached probe.
type ProbeInfo struct {
	Identifier   string
	VendorID     uint16
	ProductID    uint16
	SerialNumber string
}

func (i ProbeInfo) String() string {
	s := fmt.Sprintf("%s [%04x:%04x]", i.Identifier, i.VendorID, i.ProductID)

	if i.SerialNumber != "" {
		s += " (" + i.SerialNumber + ")"
	}

	return s
}

// DAPAccess gives register level access to the debug access port.
type DAPAccess interface {
	ReadRegister(port PortType, addr uint16) (uint32, error)
	WriteRegister(port PortType, addr uint16, value uint32) error
}

// JTAGAccess gives direct access to JTAG instruction registers.
type JTAGAccess interface {
	ReadRegister(address uint32, bitLen uint) ([]byte, error)
	WriteRegister(address uint32, data []byte, bitLen uint) ([]byte, error)
}

// DebugProbe is the set of operations every probe driver implements.
//
// DAP and JTAG return nil when the probe does not offer the interface.
type DebugProbe interface {
	Name() string

	Speed() uint32
	SetSpeed(khz uint32) (uint32, error)

	Attach() error
	Detach() error
	TargetReset() error
	SelectProtocol(protocol WireProtocol) error

	DAP() DAPAccess
	JTAG() JTAGAccess

	Close() error
}
