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

// Option is a functional option for configuring a Device
type Option func(*Device) error

// WithTransceiveBudget sets the iteration budget for transceive completion
// polling. The budget bounds worst-case latency in bus transactions, not
// wall-clock time.
func WithTransceiveBudget(budget int) Option {
	return func(d *Device) error {
		if budget < 1 {
			return fmt.Errorf("%w: transceive budget must be at least 1, got %d", ErrInvalidParameter, budget)
		}
		d.config.TransceiveBudget = budget
		return nil
	}
}

// WithCRCBudget sets the iteration budget for CRC coprocessor completion
// polling
func WithCRCBudget(budget int) Option {
	return func(d *Device) error {
		if budget < 1 {
			return fmt.Errorf("%w: CRC budget must be at least 1, got %d", ErrInvalidParameter, budget)
		}
		d.config.CRCBudget = budget
		return nil
	}
}

// WithTimeout sets the per-call bus timeout for device operations
func WithTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		return d.SetTimeout(timeout)
	}
}

// WithGain applies a receiver gain setting (0-7) during Init
func WithGain(gain byte) Option {
	return func(d *Device) error {
		if gain > maxGain {
			return fmt.Errorf("%w: gain must be 0-%d, got %d", ErrInvalidParameter, maxGain, gain)
		}
		g := gain
		d.config.Gain = &g
		return nil
	}
}

// WithoutAntenna leaves the antenna drivers off after Init. The caller must
// invoke AntennaOn before any card operation.
func WithoutAntenna() Option {
	return func(d *Device) error {
		d.config.SkipAntenna = true
		return nil
	}
}

// WithResetSettle overrides the settle delay after a soft reset
func WithResetSettle(settle time.Duration) Option {
	return func(d *Device) error {
		if settle < 0 {
			return fmt.Errorf("%w: reset settle must not be negative", ErrInvalidParameter)
		}
		d.config.ResetSettle = settle
		return nil
	}
}
