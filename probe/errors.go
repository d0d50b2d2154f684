// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package probe

import (
	"errors"
	"fmt"
)

var (
	ErrJTAGNotSupportedOnProbe = errors.New("JTAG is not supported on this probe")
	ErrProbeFirmwareOutdated   = errors.New("probe firmware is outdated")
)

// UnsupportedSpeedError is returned when no achievable setting exists for a
// requested communication speed.
type UnsupportedSpeedError struct {
	Khz uint32
}

func (e *UnsupportedSpeedError) Error() string {
	return fmt.Sprintf("unsupported speed: %d kHz", e.Khz)
}
