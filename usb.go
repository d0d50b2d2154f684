// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package stlinkprobe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/gousb"

	"github.com/bbnote/stlinkprobe/probe"
)

var stLinkSupportedPids = []gousb.ID{stLinkV2Pid, stLinkV21Pid, stLinkV21NoMsdPid, stLinkV3UsbLoaderPid,
	stLinkV3EPid, stLinkV3SPid, stLinkV32VcpPid}

// UsbTransport talks to an ST-Link over its bulk endpoints.
type UsbTransport struct {
	usbCtx       *gousb.Context
	usbDevice    *gousb.Device
	usbConfig    *gousb.Config
	usbInterface *gousb.Interface

	rxEndpoint *gousb.InEndpoint
	txEndpoint *gousb.OutEndpoint

	info probe.ProbeInfo
}

func isSupportedDevice(desc *gousb.DeviceDesc) bool {
	return desc.Vendor == stLinkVid && idExists(stLinkSupportedPids, desc.Product)
}

// ListProbes returns all ST-Links attached to the host.
func ListProbes() ([]probe.ProbeInfo, error) {
	usbCtx := gousb.NewContext()
	defer usbCtx.Close()

	devices, err := usbCtx.OpenDevices(isSupportedDevice)

	defer func() {
		for _, dev := range devices {
			dev.Close()
		}
	}()

	if err != nil {
		return nil, &TransportError{Op: "enumerate", Err: err}
	}

	infos := make([]probe.ProbeInfo, 0, len(devices))

	for _, dev := range devices {
		infos = append(infos, probeInfoFromDevice(dev))
	}

	log().Infof("found %d ST-Link probe(s)", len(infos))

	return infos, nil
}

func probeInfoFromDevice(dev *gousb.Device) probe.ProbeInfo {
	serialNo, err := dev.SerialNumber()

	if err != nil {
		log().Debugf("could not read serial number of [%04x:%04x]: %v",
			uint16(dev.Desc.Vendor), uint16(dev.Desc.Product), err)
	}

	return probe.ProbeInfo{
		Identifier:   stLinkName,
		VendorID:     uint16(dev.Desc.Vendor),
		ProductID:    uint16(dev.Desc.Product),
		SerialNumber: serialNo,
	}
}

func matchesProbeInfo(info probe.ProbeInfo, desc *gousb.DeviceDesc) bool {
	if !isSupportedDevice(desc) {
		return false
	}

	if info.VendorID != 0 && gousb.ID(info.VendorID) != desc.Vendor {
		return false
	}

	if info.ProductID != 0 && gousb.ID(info.ProductID) != desc.Product {
		return false
	}

	return true
}

// OpenUsbTransport opens the probe described by info. Zero vendor or product
// ids match any ST-Link, an empty serial number requires a unique match.
func OpenUsbTransport(info probe.ProbeInfo) (*UsbTransport, error) {
	usbCtx := gousb.NewContext()

	devices, err := usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if matchesProbeInfo(info, desc) {
			log().Infof("found USB device [%04x:%04x] on bus %03d:%03d",
				uint16(desc.Vendor), uint16(desc.Product), desc.Bus, desc.Address)
			return true
		}

		return false
	})

	if err != nil && len(devices) == 0 {
		usbCtx.Close()
		return nil, &TransportError{Op: "enumerate", Err: err}
	}

	device, err := selectDevice(devices, info.SerialNumber)

	for _, dev := range devices {
		if dev != device {
			dev.Close()
		}
	}

	if err != nil {
		usbCtx.Close()
		return nil, err
	}

	t := &UsbTransport{
		usbCtx:    usbCtx,
		usbDevice: device,
		info:      probeInfoFromDevice(device),
	}

	if err := t.claim(); err != nil {
		t.Close()
		return nil, err
	}

	return t, nil
}

func selectDevice(devices []*gousb.Device, serial string) (*gousb.Device, error) {
	if len(devices) == 0 {
		return nil, ErrProbeNotFound
	}

	if serial == "" {
		if len(devices) > 1 {
			return nil, errors.New("could not identify exact ST-Link by given parameters (perhaps a serial number is missing?)")
		}

		return devices[0], nil
	}

	for _, dev := range devices {
		devSerialNo, _ := dev.SerialNumber()

		log().Debugf("compare serial no %s with number %s", devSerialNo, serial)

		if devSerialNo == serial {
			return dev, nil
		}
	}

	return nil, fmt.Errorf("no ST-Link with serial number %s: %w", serial, ErrProbeNotFound)
}

func (t *UsbTransport) claim() error {
	var err error

	if err = t.usbDevice.SetAutoDetach(true); err != nil {
		log().Debugf("could not enable kernel driver auto detach: %v", err)
	}

	t.usbConfig, err = t.usbDevice.Config(defaultUsbConfig)
	if err != nil {
		return &TransportError{Op: "config", Err: err}
	}

	t.usbInterface, err = t.usbConfig.Interface(defaultUsbInterface, defaultUsbAltSetting)
	if err != nil {
		return &TransportError{Op: "claim interface", Err: err}
	}

	txEndpointNo := usbTxEndpointApi2v1
	if t.usbDevice.Desc.Product == stLinkV2Pid {
		txEndpointNo = usbTxEndpointNo
	}

	t.rxEndpoint, err = t.usbInterface.InEndpoint(usbRxEndpointNo)
	if err != nil {
		return fmt.Errorf("rx endpoint %d: %w", usbRxEndpointNo, ErrEndpointNotFound)
	}

	t.txEndpoint, err = t.usbInterface.OutEndpoint(txEndpointNo)
	if err != nil {
		return fmt.Errorf("tx endpoint %d: %w", txEndpointNo, ErrEndpointNotFound)
	}

	log().Debugf("claimed %v (tx ep %d, rx ep %d)", t.info, txEndpointNo, usbRxEndpointNo)

	return nil
}

// Info describes the opened probe.
func (t *UsbTransport) Info() probe.ProbeInfo {
	return t.info
}

func (t *UsbTransport) Write(cmd []byte, writeData []byte, readData []byte, timeout time.Duration) error {
	if len(cmd) > usbCmdBlockSize {
		return fmt.Errorf("command of %d bytes exceeds the %d byte command block", len(cmd), usbCmdBlockSize)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmdBlock := make([]byte, usbCmdBlockSize)
	copy(cmdBlock, cmd)

	if err := usbWrite(ctx, t.txEndpoint, cmdBlock); err != nil {
		return err
	}

	if len(writeData) > 0 {
		if err := usbWrite(ctx, t.txEndpoint, writeData); err != nil {
			return err
		}
	}

	if len(readData) > 0 {
		bytesRead, err := t.rxEndpoint.ReadContext(ctx, readData)

		if err != nil {
			return &TransportError{Op: "read", Err: err}
		}

		log().Tracef("read %d bytes from in endpoint", bytesRead)

		if bytesRead != len(readData) {
			return fmt.Errorf("read %d of %d bytes: %w", bytesRead, len(readData), ErrNotEnoughBytesRead)
		}
	}

	return nil
}

func usbWrite(ctx context.Context, endpoint *gousb.OutEndpoint, buffer []byte) error {
	bytesWritten, err := endpoint.WriteContext(ctx, buffer)

	if err != nil {
		return &TransportError{Op: "write", Err: err}
	}

	if bytesWritten != len(buffer) {
		return &TransportError{Op: "write", Err: fmt.Errorf("wrote %d of %d bytes", bytesWritten, len(buffer))}
	}

	log().Tracef("wrote %d bytes to endpoint", bytesWritten)

	return nil
}

func (t *UsbTransport) Reset() error {
	log().Debugf("resetting %v", t.info)

	if err := t.usbDevice.Reset(); err != nil {
		return &TransportError{Op: "reset", Err: err}
	}

	return nil
}

func (t *UsbTransport) Close() error {
	var err error

	if t.usbInterface != nil {
		t.usbInterface.Close()
		t.usbInterface = nil
	}

	if t.usbConfig != nil {
		err = t.usbConfig.Close()
		t.usbConfig = nil
	}

	if t.usbDevice != nil {
		log().Debugf("close ST-Link device %v", t.info)

		if closeErr := t.usbDevice.Close(); err == nil {
			err = closeErr
		}
		t.usbDevice = nil
	}

	if t.usbCtx != nil {
		if closeErr := t.usbCtx.Close(); err == nil {
			err = closeErr
		}
		t.usbCtx = nil
	}

	return err
}
