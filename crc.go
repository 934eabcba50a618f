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

import "fmt"

// calcCRC runs data through the chip's CRC16 coprocessor and returns the
// result in wire order (low byte first). Completion is detected by polling
// the CRC interrupt bit for up to CRCBudget iterations; exhausting the
// budget returns ErrCRCTimeout and the result registers are never read,
// so stale values from a previous calculation cannot leak into a frame.
func (d *Device) calcCRC(data []byte) ([2]byte, error) {
	var crc [2]byte

	if err := d.transport.WriteRegister(regCommand, cmdIdle); err != nil {
		return crc, fmt.Errorf("calc CRC: %w", err)
	}
	// Clear a leftover completion flag from an earlier calculation.
	if err := d.transport.WriteRegister(regDivIrq, irqCRC); err != nil {
		return crc, fmt.Errorf("calc CRC: %w", err)
	}
	if err := d.flushFIFO(); err != nil {
		return crc, err
	}
	if err := d.transport.WriteFIFO(data); err != nil {
		return crc, fmt.Errorf("calc CRC: load FIFO: %w", err)
	}
	if err := d.transport.WriteRegister(regCommand, cmdCalcCRC); err != nil {
		return crc, fmt.Errorf("calc CRC: %w", err)
	}

	done := false
	for i := 0; i < d.config.CRCBudget; i++ {
		irq, err := d.transport.ReadRegister(regDivIrq)
		if err != nil {
			return crc, fmt.Errorf("calc CRC: poll: %w", err)
		}
		if irq&irqCRC != 0 {
			done = true
			break
		}
	}
	if !done {
		return crc, ErrCRCTimeout
	}

	// Stop the coprocessor before touching the FIFO again.
	if err := d.transport.WriteRegister(regCommand, cmdIdle); err != nil {
		return crc, fmt.Errorf("calc CRC: %w", err)
	}

	low, err := d.transport.ReadRegister(regCRCResultL)
	if err != nil {
		return crc, fmt.Errorf("calc CRC: read result: %w", err)
	}
	high, err := d.transport.ReadRegister(regCRCResultH)
	if err != nil {
		return crc, fmt.Errorf("calc CRC: read result: %w", err)
	}

	crc[0] = low
	crc[1] = high
	return crc, nil
}
