// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

// Package flash holds the errors a flash loader reports when programming a
// target through a debug probe fails.
package flash

import (
	"errors"
	"fmt"
)

var (
	ErrFlashAlgorithmNotLoaded = errors.New("the RAM contents did not match the expected contents after loading the flash algorithm")
	ErrNoFlashLoaderAttached   = errors.New("trying to write flash, but no flash loader algorithm is attached")
)

// Region is a named address range [Start, End) of target flash.
type Region struct {
	Name  string
	Start uint32
	End   uint32
}

func (r Region) Contains(address uint32) bool {
	return address >= r.Start && address < r.End
}

func (r Region) String() string {
	return fmt.Sprintf("%s [0x%08x..0x%08x)", r.Name, r.Start, r.End)
}

type RoutineCallFailedError struct {
	Name string
	Code uint32
}

func (e *RoutineCallFailedError) Error() string {
	return fmt.Sprintf("the execution of '%s' failed with code %d", e.Name, e.Code)
}

type NotSupportedError struct {
	Name string
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("'%s' is not supported", e.Name)
}

type InvalidBufferNumberError struct {
	N   int
	Max int
}

func (e *InvalidBufferNumberError) Error() string {
	return fmt.Sprintf("buffer %d/%d does not exist", e.N, e.Max)
}

// MemoryError wraps a failure while reading or writing target memory.
type MemoryError struct {
	Err error
}

func (e *MemoryError) Error() string {
	return fmt.Sprintf("something during memory interaction went wrong: %v", e.Err)
}

func (e *MemoryError) Unwrap() error {
	return e.Err
}

// CoreError wraps a failure while halting, running or inspecting the core.
type CoreError struct {
	Err error
}

func (e *CoreError) Error() string {
	return fmt.Sprintf("something during the interaction with the core went wrong: %v", e.Err)
}

func (e *CoreError) Unwrap() error {
	return e.Err
}

type AddressNotInRegionError struct {
	Address uint32
	Region  Region
}

func (e *AddressNotInRegionError) Error() string {
	return fmt.Sprintf("0x%08x is not contained in %v", e.Address, e.Region)
}

type PageWriteError struct {
	PageAddress uint32
	Code        uint32
}

func (e *PageWriteError) Error() string {
	return fmt.Sprintf("the page write of the page at address 0x%08X failed with error code %d", e.PageAddress, e.Code)
}

type DataOverlapError struct {
	Address uint32
}

func (e *DataOverlapError) Error() string {
	return fmt.Sprintf("overlap in data, address 0x%08x was already written earlier", e.Address)
}

type InvalidFlashAddressError struct {
	Address uint32
}

func (e *InvalidFlashAddressError) Error() string {
	return fmt.Sprintf("address 0x%08x is not a valid address in the flash area", e.Address)
}

type DuplicateDataEntryError struct {
	Address uint32
}

func (e *DuplicateDataEntryError) Error() string {
	return fmt.Sprintf("there is already an other entry for address 0x%08x", e.Address)
}

// PageSizeMismatchError is an internal consistency failure between the
// sector configuration and the page actually being programmed.
type PageSizeMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *PageSizeMismatchError) Error() string {
	return fmt.Sprintf("the sector configuration is expecting page size %d, but the actual page size is %d",
		e.Expected, e.Actual)
}

type MaxPageCountExceededError struct {
	Limit         int
	SectorAddress uint32
}

func (e *MaxPageCountExceededError) Error() string {
	return fmt.Sprintf("the maximum page count %d for the sector at address 0x%08x was exceeded",
		e.Limit, e.SectorAddress)
}

type NoSuitableFlashError struct {
	Start uint32
	End   uint32
}

func (e *NoSuitableFlashError) Error() string {
	return fmt.Sprintf("no flash memory contains the entire requested memory range 0x%08X..0x%08X", e.Start, e.End)
}

// CheckRange returns a NoSuitableFlashError unless one region holds all of
// [start, end).
func CheckRange(regions []Region, start, end uint32) (*Region, error) {
	for i := range regions {
		r := &regions[i]

		if r.Contains(start) && end <= r.End {
			return r, nil
		}
	}

	return nil, &NoSuitableFlashError{Start: start, End: end}
}
