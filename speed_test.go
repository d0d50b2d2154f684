// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package stlinkprobe

import (
	"errors"
	"testing"

	"github.com/bbnote/stlinkprobe/probe"
)

func TestFindSettingReturnsTableEntries(t *testing.T) {
	tables := map[string][]speedMap{
		"swd":  swdKHzToSpeedMap[:],
		"jtag": jTAGkHzToSpeedMap[:],
	}

	for name, table := range tables {
		for khz := uint32(0); khz <= 20000; khz++ {
			setting, ok := findSetting(table, khz)

			var want speedMap
			found := false

			for _, s := range table {
				if s.speed <= khz && (!found || s.speed > want.speed) {
					want = s
					found = true
				}
			}

			if ok != found || setting != want {
				t.Fatalf("%s: findSetting(%d) = (%v, %v), want (%v, %v)", name, khz, setting, ok, want, found)
			}

			if ok && setting.speed > khz {
				t.Fatalf("%s: findSetting(%d) exceeded request with %d", name, khz, setting.speed)
			}
		}
	}
}

func TestSelectFrequency(t *testing.T) {
	available := []uint32{24000, 8000, 3300, 1000, 200, 50, 5}

	for khz := uint32(0); khz <= 24000; khz++ {
		got, ok := selectFrequency(available, khz)

		if khz < 5 {
			if ok {
				t.Fatalf("selectFrequency(%d) = %d, want none", khz, got)
			}
			continue
		}

		if !ok || got > khz {
			t.Fatalf("selectFrequency(%d) = (%d, %v)", khz, got, ok)
		}

		for _, f := range available {
			if f <= khz && f > got {
				t.Fatalf("selectFrequency(%d) = %d, but %d is closer", khz, got, f)
			}
		}
	}
}

func TestSetSpeedV2Swd(t *testing.T) {
	h, f := newStLinkWithVersion(2, 28, probe.WireProtocolSwd)
	f.queue(statusOk())

	khz, err := h.SetSpeed(2000)
	if err != nil {
		t.Fatal(err)
	}

	if khz != 1800 || h.Speed() != 1800 {
		t.Errorf("achieved %d kHz, recorded %d kHz, want 1800", khz, h.Speed())
	}

	f.expectCommands(t, []byte{cmdDebug, debugApiV2SwdSetFreq, 0x01, 0x00})
}

func TestSetSpeedV2JtagWideDivisor(t *testing.T) {
	h, f := newStLinkWithVersion(2, 28, probe.WireProtocolJtag)
	f.queue(statusOk())

	khz, err := h.SetSpeed(150)
	if err != nil {
		t.Fatal(err)
	}

	if khz != 140 || h.jtagSpeedKhz != 140 || h.swdSpeedKhz != defaultSwdSpeedKhz {
		t.Errorf("achieved %d kHz, jtag %d, swd %d", khz, h.jtagSpeedKhz, h.swdSpeedKhz)
	}

	f.expectCommands(t, []byte{cmdDebug, debugApiV2JTagSetFreq, 0x00, 0x01})
}

func TestSetSpeedV2Unsupported(t *testing.T) {
	tests := []struct {
		protocol probe.WireProtocol
		khz      uint32
	}{
		{probe.WireProtocolSwd, 4},
		{probe.WireProtocolSwd, 0},
		{probe.WireProtocolJtag, 139},
	}

	for _, tt := range tests {
		h, f := newStLinkWithVersion(2, 28, tt.protocol)

		_, err := h.SetSpeed(tt.khz)

		var speedErr *probe.UnsupportedSpeedError
		if !errors.As(err, &speedErr) || speedErr.Khz != tt.khz {
			t.Errorf("%v %d kHz: got %v", tt.protocol, tt.khz, err)
		}

		f.expectCommands(t)
	}
}

func TestSetSpeedV2StatusFailure(t *testing.T) {
	h, f := newStLinkWithVersion(2, 28, probe.WireProtocolSwd)
	f.queue(reply(byte(StatusJtagFreqNotSupported), 0))

	_, err := h.SetSpeed(4000)

	var cmdErr *CommandFailedError
	if !errors.As(err, &cmdErr) || cmdErr.Status != StatusJtagFreqNotSupported {
		t.Fatalf("got %v", err)
	}

	if h.Speed() != defaultSwdSpeedKhz {
		t.Errorf("speed changed to %d after failure", h.Speed())
	}
}

func TestSetSpeedV3(t *testing.T) {
	available := []uint32{24000, 8000, 3300, 1000, 200, 50, 5}

	tests := []struct {
		khz  uint32
		want uint32
	}{
		{5000, 3300},
		{8000, 8000},
		{100000, 24000},
		{5, 5},
	}

	for _, tt := range tests {
		h, f := newStLinkWithVersion(3, 7, probe.WireProtocolSwd)
		f.queue(comFreqReply(1000, available...), reply(byte(StatusJtagOk), 0, 0, 0, 0, 0, 0, 0))

		got, err := h.SetSpeed(tt.khz)
		if err != nil {
			t.Fatalf("SetSpeed(%d): %v", tt.khz, err)
		}

		if got != tt.want || h.Speed() != tt.want {
			t.Errorf("SetSpeed(%d) = %d (recorded %d), want %d", tt.khz, got, h.Speed(), tt.want)
		}

		buf := NewBuffer(8)
		buf.WriteByte(cmdDebug)
		buf.WriteByte(debugApiV3SetComFreq)
		buf.WriteByte(comFreqProtoSwd)
		buf.WriteByte(0)
		buf.WriteUint32LE(tt.want)

		f.expectCommands(t, []byte{cmdDebug, debugApiV3GetComFreq, comFreqProtoSwd}, buf.Bytes())
	}
}

func TestSetSpeedV3BelowMinimum(t *testing.T) {
	h, f := newStLinkWithVersion(3, 7, probe.WireProtocolJtag)
	f.queue(comFreqReply(1000, 21333, 1000, 10))

	_, err := h.SetSpeed(9)

	var speedErr *probe.UnsupportedSpeedError
	if !errors.As(err, &speedErr) {
		t.Fatalf("got %v", err)
	}

	f.expectCommands(t, []byte{cmdDebug, debugApiV3GetComFreq, comFreqProtoJtag})
}

func TestSetSpeedUnsupportedGeneration(t *testing.T) {
	h, f := newStLinkWithVersion(4, 1, probe.WireProtocolSwd)

	_, err := h.SetSpeed(1000)

	var hwErr *UnsupportedHardwareError
	if !errors.As(err, &hwErr) || hwErr.Version != 4 {
		t.Fatalf("got %v", err)
	}

	f.expectCommands(t)
}

func TestGetComFreqCapsCount(t *testing.T) {
	h, f := newStLinkWithVersion(3, 7, probe.WireProtocolSwd)

	resp := comFreqReply(1234, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	resp.resp[8] = 42 // claims more entries than the response holds
	f.queue(resp)

	available, current, err := h.usbGetComFreq(probe.WireProtocolSwd)
	if err != nil {
		t.Fatal(err)
	}

	if current != 1234 {
		t.Errorf("current = %d", current)
	}

	if len(available) != v3MaxFreqNb || available[0] != 1 || available[9] != 10 {
		t.Errorf("available = %v", available)
	}
}

func TestGetComFreqRequiresV3(t *testing.T) {
	h, f := newStLinkWithVersion(2, 30, probe.WireProtocolSwd)

	if _, _, err := h.usbGetComFreq(probe.WireProtocolSwd); err == nil {
		t.Fatal("expected error on V2")
	}

	f.expectCommands(t)
}
