// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package stlinkprobe

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/bbnote/stlinkprobe/probe"
)

// step is one scripted reply of fakeTransport.
type step struct {
	resp []byte
	err  error
}

// fakeTransport records every command and replays scripted replies.
type fakeTransport struct {
	steps    []step
	commands [][]byte
	resets   int
	resetErr error
	closed   bool
}

func newFakeTransport(steps ...step) *fakeTransport {
	return &fakeTransport{steps: steps}
}

func (f *fakeTransport) Write(cmd []byte, writeData []byte, readData []byte, timeout time.Duration) error {
	f.commands = append(f.commands, append([]byte(nil), cmd...))

	if len(f.steps) == 0 {
		return fmt.Errorf("unexpected command % x", cmd)
	}

	s := f.steps[0]
	f.steps = f.steps[1:]

	if s.err != nil {
		return s.err
	}

	if len(s.resp) < len(readData) {
		return ErrNotEnoughBytesRead
	}

	copy(readData, s.resp)

	return nil
}

func (f *fakeTransport) Reset() error {
	f.resets++
	return f.resetErr
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

func (f *fakeTransport) queue(steps ...step) {
	f.steps = append(f.steps, steps...)
}

// clear forgets recorded commands.
func (f *fakeTransport) clear() {
	f.commands = nil
}

func (f *fakeTransport) expectCommands(t *testing.T, want ...[]byte) {
	t.Helper()

	if len(f.commands) != len(want) {
		t.Fatalf("got %d commands %s, want %d %s", len(f.commands), hexList(f.commands), len(want), hexList(want))
	}

	for i := range want {
		if !bytes.Equal(f.commands[i], want[i]) {
			t.Errorf("command %d = % x, want % x", i, f.commands[i], want[i])
		}
	}

	if len(f.steps) != 0 {
		t.Errorf("%d scripted replies were not consumed", len(f.steps))
	}
}

func hexList(cmds [][]byte) string {
	s := "["
	for i, c := range cmds {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("% x", c)
	}
	return s + "]"
}

func reply(b ...byte) step {
	return step{resp: b}
}

func fail(err error) step {
	return step{err: err}
}

func statusOk() step {
	return reply(byte(StatusJtagOk), 0)
}

func modeReply(m Mode) step {
	return reply(byte(m), 0)
}

func versionReply(hw, jtag, swim uint8) step {
	word := uint16(hw)<<12 | uint16(jtag)<<6 | uint16(swim)
	return reply(byte(word>>8), byte(word), 0x83, 0x04, 0x4b, 0x37)
}

func versionExReply(hw, swim, jtag uint8) step {
	return reply(hw, swim, jtag, 0, 0, 0, 0, 0, 0x83, 0x04, 0x4f, 0x37)
}

func voltageReply(a0, a1 uint32) step {
	buf := NewBuffer(8)
	buf.WriteUint32LE(a0)
	buf.WriteUint32LE(a1)
	return reply(buf.Bytes()...)
}

func comFreqReply(current uint32, available ...uint32) step {
	buf := NewBuffer(respSizeFreqList)
	buf.WriteUint32LE(uint32(StatusJtagOk))
	buf.WriteUint32LE(current)
	buf.WriteUint32LE(uint32(len(available)))
	for _, f := range available {
		buf.WriteUint32LE(f)
	}
	out := make([]byte, respSizeFreqList)
	copy(out, buf.Bytes())
	return reply(out...)
}

func dapReadReply(value uint32) step {
	buf := NewBuffer(8)
	buf.WriteUint32LE(uint32(StatusJtagOk))
	buf.WriteUint32LE(value)
	return reply(buf.Bytes()...)
}

// initSteps scripts a successful initialization of a probe in debug mode.
func initSteps(hw, jtag uint8, swdKhz, jtagKhz uint32) []step {
	if hw < 3 {
		return []step{modeReply(ModeDebug), versionReply(hw, jtag, 7), voltageReply(1000, 1375)}
	}

	return []step{
		modeReply(ModeDebug),
		versionReply(hw, 0, 0),
		versionExReply(hw, 0, jtag),
		comFreqReply(swdKhz, 24000, 8000, 3300, 1000, 200, 50, 5),
		comFreqReply(jtagKhz, 21333, 16000, 12000, 8000, 1000),
		voltageReply(1000, 1375),
	}
}

// newTestStLink returns an initialized driver with an empty command log.
func newTestStLink(t *testing.T, hw, jtag uint8) (*StLink, *fakeTransport) {
	t.Helper()

	f := newFakeTransport(initSteps(hw, jtag, 4000, 8000)...)

	h, err := New(f, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	f.clear()

	return h, f
}

// newStLinkWithVersion skips initialization and pretends the given versions
// were reported.
func newStLinkWithVersion(hw, jtag uint8, protocol probe.WireProtocol) (*StLink, *fakeTransport) {
	f := newFakeTransport()

	h := &StLink{
		transport:    f,
		timeout:      defaultUsbTimeout,
		version:      Version{Hardware: hw, Jtag: jtag, flags: featureFlags(hw, jtag)},
		protocol:     protocol,
		swdSpeedKhz:  defaultSwdSpeedKhz,
		jtagSpeedKhz: defaultJtagSpeedKhz,
	}

	return h, f
}
