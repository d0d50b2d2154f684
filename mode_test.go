// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package stlinkprobe

import (
	"errors"
	"testing"

	"github.com/bbnote/stlinkprobe/probe"
)

func TestModeString(t *testing.T) {
	tests := map[Mode]string{
		ModeDfu:         "DFU",
		ModeMassStorage: "mass storage",
		ModeDebug:       "JTAG/SWD",
		ModeSwim:        "SWIM",
		Mode(0x04):      "unknown",
	}

	for m, want := range tests {
		if got := m.String(); got != want {
			t.Errorf("Mode(%d) = %q, want %q", uint8(m), got, want)
		}
	}
}

func TestEnterIdle(t *testing.T) {
	tests := []struct {
		mode Mode
		exit []byte
	}{
		{ModeDfu, []byte{cmdDfu, dfuExit}},
		{ModeSwim, []byte{cmdSwim, swimExit}},
		{ModeMassStorage, nil},
		{ModeDebug, nil},
	}

	for _, tt := range tests {
		h, f := newStLinkWithVersion(2, 30, probe.WireProtocolSwd)

		f.queue(modeReply(tt.mode))
		want := [][]byte{{cmdGetCurrentMode}}

		if tt.exit != nil {
			f.queue(reply())
			want = append(want, tt.exit)
		}

		if err := h.usbEnterIdle(); err != nil {
			t.Errorf("%v: %v", tt.mode, err)
			continue
		}

		f.expectCommands(t, want...)
	}
}

func TestCurrentModeUnknownByte(t *testing.T) {
	for _, b := range []byte{0x04, 0x10, 0xFF} {
		h, f := newStLinkWithVersion(2, 30, probe.WireProtocolSwd)
		f.queue(reply(b, 0))

		if _, err := h.usbCurrentMode(); !errors.Is(err, ErrUnknownMode) {
			t.Errorf("mode byte 0x%02x: got %v", b, err)
		}
	}
}

func TestModeEnterCommands(t *testing.T) {
	tests := []struct {
		protocol probe.WireProtocol
		selector byte
	}{
		{probe.WireProtocolSwd, debugEnterSwdNoReset},
		{probe.WireProtocolJtag, debugEnterJTagNoReset},
	}

	for _, tt := range tests {
		h, f := newStLinkWithVersion(2, 30, tt.protocol)
		f.queue(statusOk())

		if err := h.usbModeEnter(tt.protocol); err != nil {
			t.Errorf("%v: %v", tt.protocol, err)
			continue
		}

		f.expectCommands(t, []byte{cmdDebug, debugApiV2Enter, tt.selector, 0})
	}
}
