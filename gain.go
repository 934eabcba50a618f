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

// maxGain is the highest receiver gain index the RFCfg field can hold.
const maxGain = 7

// gainDecibels maps the 3-bit RxGain field to the datasheet's dB curve.
// Indexes 0 and 1 alias 18 dB, 2 and 3 alias 23 dB.
var gainDecibels = [maxGain + 1]int{18, 18, 23, 23, 33, 38, 43, 48}

// GainDB returns the antenna gain in decibels for a gain index
func GainDB(gain byte) int {
	if gain > maxGain {
		gain = maxGain
	}
	return gainDecibels[gain]
}

// Gain reads the receiver gain index (0-7) from the RF configuration
// register
func (d *Device) Gain() (byte, error) {
	value, err := d.transport.ReadRegister(regRFCfg)
	if err != nil {
		return 0, fmt.Errorf("read gain: %w", err)
	}
	return (value & rxGainMask) >> rxGainShift, nil
}

// SetGain writes the receiver gain index, clamping to the valid 0-7 range.
// When the requested gain already matches the register, no write is issued,
// so repeated calls with the same value are a read-only no-op. The two-step
// clear-then-set is not atomic against concurrent register access.
func (d *Device) SetGain(gain byte) error {
	if gain > maxGain {
		gain = maxGain
	}

	current, err := d.Gain()
	if err != nil {
		return err
	}
	if current == gain {
		return nil
	}

	if err := d.clearBitmask(regRFCfg, rxGainMask); err != nil {
		return err
	}
	return d.setBitmask(regRFCfg, (gain<<rxGainShift)&rxGainMask)
}
