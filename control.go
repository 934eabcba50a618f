// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mfrc522

import (
	"fmt"
	"time"
)

// setBitmask sets mask bits in a register via read-modify-write. Not atomic:
// callers must not interleave register access from another goroutine.
func (d *Device) setBitmask(reg, mask byte) error {
	value, err := d.transport.ReadRegister(reg)
	if err != nil {
		return fmt.Errorf("read register 0x%02X: %w", reg, err)
	}
	if err := d.transport.WriteRegister(reg, value|mask); err != nil {
		return fmt.Errorf("write register 0x%02X: %w", reg, err)
	}
	return nil
}

// clearBitmask clears mask bits in a register via read-modify-write
func (d *Device) clearBitmask(reg, mask byte) error {
	value, err := d.transport.ReadRegister(reg)
	if err != nil {
		return fmt.Errorf("read register 0x%02X: %w", reg, err)
	}
	if err := d.transport.WriteRegister(reg, value&^mask); err != nil {
		return fmt.Errorf("write register 0x%02X: %w", reg, err)
	}
	return nil
}

// flushFIFO discards any bytes left in the chip's FIFO buffer
func (d *Device) flushFIFO() error {
	if err := d.transport.WriteRegister(regFIFOLevel, fifoFlush); err != nil {
		return fmt.Errorf("flush FIFO: %w", err)
	}
	return nil
}

// softReset resets the chip and waits for the oscillator to settle. No
// register access is valid during the settle window.
func (d *Device) softReset() error {
	if err := d.transport.WriteRegister(regCommand, cmdSoftReset); err != nil {
		return fmt.Errorf("soft reset: %w", err)
	}
	time.Sleep(d.config.ResetSettle)
	return nil
}

// antennaOn enables the antenna drivers. Idempotent: an already-enabled
// antenna is left alone so the RF field never drops mid-session.
func (d *Device) antennaOn() error {
	value, err := d.transport.ReadRegister(regTxControl)
	if err != nil {
		return fmt.Errorf("read tx control: %w", err)
	}
	if value&antennaDriverMask == antennaDriverMask {
		return nil
	}
	return d.setBitmask(regTxControl, antennaDriverMask)
}

// AntennaOn enables the RF field. Init does this automatically unless the
// device was created with WithoutAntenna.
func (d *Device) AntennaOn() error {
	return d.antennaOn()
}

// AntennaOff disables the RF field. Cards in the field lose power and
// return to the idle state.
func (d *Device) AntennaOff() error {
	return d.clearBitmask(regTxControl, antennaDriverMask)
}

// Version reads the chip version register. Genuine MFRC522 silicon reports
// 0x91 or 0x92; clones commonly report 0x88 or 0xB2.
func (d *Device) Version() (byte, error) {
	version, err := d.transport.ReadRegister(regVersion)
	if err != nil {
		return 0, fmt.Errorf("read version: %w", err)
	}
	return version, nil
}
