// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

// this code is mainly inspired and based on the openocd project source code
// for detailed information see

// https://sourceforge.net/p/openocd/code

package stlinkprobe

import "time"

// Transport is the synchronous command/response channel to the probe.
//
// Write sends cmd, then writeData if not empty, then fills readData
// completely. A response shorter than readData is ErrNotEnoughBytesRead.
type Transport interface {
	Write(cmd []byte, writeData []byte, readData []byte, timeout time.Duration) error
	Reset() error
	Close() error
}

type transferCtx struct {
	cmdBuf    *Buffer
	writeData []byte
	dataBuf   []byte
}

func (ctx *transferCtx) DataBytes() []byte {
	return ctx.dataBuf
}

// initTransfer prepares a command whose response is exactly respSize bytes.
func (h *StLink) initTransfer(respSize int) *transferCtx {
	return &transferCtx{
		cmdBuf:  NewBuffer(usbCmdBlockSize),
		dataBuf: make([]byte, respSize),
	}
}

func (h *StLink) usbTransferNoErrCheck(ctx *transferCtx) error {
	log().Tracef("write command % x, expect %d bytes", ctx.cmdBuf.Bytes(), len(ctx.dataBuf))

	return h.transport.Write(ctx.cmdBuf.Bytes(), ctx.writeData, ctx.dataBuf, h.timeout)
}

func (h *StLink) usbTransferErrCheck(ctx *transferCtx) error {
	if err := h.usbTransferNoErrCheck(ctx); err != nil {
		return err
	}

	return checkStatus(ctx.dataBuf)
}
