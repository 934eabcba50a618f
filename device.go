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

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	// TransceiveBudget bounds the completion-poll loop of a transceive.
	// Worst-case latency is this many bus reads, not wall-clock time.
	TransceiveBudget int
	// CRCBudget bounds the completion-poll loop of the CRC coprocessor
	CRCBudget int
	// ResetSettle is how long the chip needs after a soft reset before
	// register access is valid again
	ResetSettle time.Duration
	// Timeout is the per-call bus timeout passed to the transport
	Timeout time.Duration
	// Gain is the receiver gain (0-7) applied during Init; nil keeps the
	// chip's power-on default
	Gain *byte
	// SkipAntenna leaves the antenna drivers off after Init
	SkipAntenna bool
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		TransceiveBudget: 2000,
		CRCBudget:        500,
		ResetSettle:      50 * time.Millisecond,
		Timeout:          time.Second,
	}
}

// Device represents an MFRC522 reader instance.
//
// Thread Safety: Device is NOT thread-safe. Every operation is a multi-step
// register sequence over a single shared bus; interleaving calls corrupts
// the chip's interrupt and error state. All methods must be called from a
// single goroutine or protected with external synchronization. For multiple
// readers, use separate Device instances with separate transports.
type Device struct {
	transport RegisterTransport
	config    *DeviceConfig
	uid       []byte
	sak       byte
}

// New creates a new MFRC522 device with the given transport
func New(transport RegisterTransport, opts ...Option) (*Device, error) {
	device := &Device{
		transport: transport,
		config:    DefaultDeviceConfig(),
	}

	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	return device, nil
}

// Transport returns the underlying transport
func (d *Device) Transport() RegisterTransport {
	return d.transport
}

// Init resets and configures the chip. The order is fixed: the timeout
// timer and modulation registers must be stable before the antenna drivers
// are switched on.
func (d *Device) Init() error {
	if err := d.softReset(); err != nil {
		return err
	}

	timerSetup := []RegisterWrite{
		{regTMode, initTMode},
		{regTPrescaler, initTPrescaler},
		{regTReloadL, initTReload},
		{regTReloadH, 0x00},
		{regTxASK, initTxASK},
		{regMode, initMode},
	}
	for _, w := range timerSetup {
		if err := d.transport.WriteRegister(w.Reg, w.Value); err != nil {
			return fmt.Errorf("init register 0x%02X: %w", w.Reg, err)
		}
	}

	if d.config.Gain != nil {
		if err := d.SetGain(*d.config.Gain); err != nil {
			return err
		}
	}

	if d.config.SkipAntenna {
		return nil
	}
	return d.antennaOn()
}

// UID returns a copy of the UID from the last successful ReadCard, or nil
// if no card has been read since creation or since a failed attempt.
func (d *Device) UID() []byte {
	if d.uid == nil {
		return nil
	}
	uid := make([]byte, len(d.uid))
	copy(uid, d.uid)
	return uid
}

// SAK returns the select-acknowledge byte from the last successful ReadCard
func (d *Device) SAK() byte {
	return d.sak
}

// SetTimeout sets the per-call bus timeout
func (d *Device) SetTimeout(timeout time.Duration) error {
	d.config.Timeout = timeout
	if err := d.transport.SetTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set timeout on transport: %w", err)
	}
	return nil
}

// Close closes the device connection
func (d *Device) Close() error {
	if d.transport != nil {
		if err := d.transport.Close(); err != nil {
			return fmt.Errorf("failed to close transport: %w", err)
		}
	}
	return nil
}
