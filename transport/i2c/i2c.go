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

// Package i2c provides the I2C register transport for the MFRC522
package i2c

import (
	"fmt"
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

const (
	// Default 7-bit I2C address when the EA pin is tied high and the
	// address pins are grounded (datasheet section 8.1.3).
	defaultAddr = 0x28

	// regFIFOData is the FIFO access register used for burst transfers.
	regFIFOData = 0x09

	// Single FIFO transfer ceiling, matching the chip's 64-byte FIFO.
	maxFIFOChunk = 64
)

// Transport implements mfrc522.RegisterTransport over I2C. Register
// addresses go on the wire unframed: the bus protocol already carries the
// read/write direction, so no address shifting is needed.
type Transport struct {
	dev     *i2c.Dev
	bus     i2c.BusCloser // Held so Close() can release the OS file descriptor
	busName string
	timeout time.Duration
}

// New creates a new I2C transport on the given bus (e.g. "/dev/i2c-1" or
// "1") using the chip's default address.
func New(busName string) (*Transport, error) {
	return NewWithAddress(busName, defaultAddr)
}

// NewWithAddress creates a new I2C transport with an explicit 7-bit device
// address, for boards that strap the address pins.
func NewWithAddress(busName string, addr uint16) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %s: %w", busName, err)
	}

	return &Transport{
		dev:     &i2c.Dev{Bus: bus, Addr: addr},
		bus:     bus,
		busName: busName,
		timeout: 50 * time.Millisecond,
	}, nil
}

// WriteRegister writes a single value to a chip register
func (t *Transport) WriteRegister(reg, value byte) error {
	if t.dev == nil {
		return mfrc522.NewTransportClosedError("WriteRegister", t.busName)
	}
	if err := t.dev.Tx([]byte{reg, value}, nil); err != nil {
		return mfrc522.NewTransportWriteError("WriteRegister", t.busName)
	}
	return nil
}

// ReadRegister reads a single chip register
func (t *Transport) ReadRegister(reg byte) (byte, error) {
	if t.dev == nil {
		return 0, mfrc522.NewTransportClosedError("ReadRegister", t.busName)
	}
	rx := make([]byte, 1)
	if err := t.dev.Tx([]byte{reg}, rx); err != nil {
		return 0, mfrc522.NewTransportReadError("ReadRegister", t.busName)
	}
	return rx[0], nil
}

// WriteFIFO burst-writes data to the FIFO register. The chip keeps the
// register pointer on the FIFO for repeated data bytes within one
// transaction, so the whole payload goes out as [reg, data...].
func (t *Transport) WriteFIFO(data []byte) error {
	if t.dev == nil {
		return mfrc522.NewTransportClosedError("WriteFIFO", t.busName)
	}
	if len(data) == 0 {
		return nil
	}
	if len(data) > maxFIFOChunk {
		return fmt.Errorf("%w: FIFO write of %d bytes exceeds %d",
			mfrc522.ErrInvalidParameter, len(data), maxFIFOChunk)
	}
	tx := make([]byte, 0, len(data)+1)
	tx = append(tx, regFIFOData)
	tx = append(tx, data...)
	if err := t.dev.Tx(tx, nil); err != nil {
		return mfrc522.NewTransportWriteError("WriteFIFO", t.busName)
	}
	return nil
}

// ReadFIFO burst-reads len(buf) bytes from the FIFO register
func (t *Transport) ReadFIFO(buf []byte) error {
	if t.dev == nil {
		return mfrc522.NewTransportClosedError("ReadFIFO", t.busName)
	}
	if len(buf) == 0 {
		return nil
	}
	if err := t.dev.Tx([]byte{regFIFOData}, buf); err != nil {
		return mfrc522.NewTransportReadError("ReadFIFO", t.busName)
	}
	return nil
}

// SetTimeout sets the per-call timeout. The Linux i2c-dev layer manages
// bus timeouts itself, so this only records the caller's preference.
func (t *Transport) SetTimeout(timeout time.Duration) error {
	t.timeout = timeout
	return nil
}

// Close closes the transport connection
func (t *Transport) Close() error {
	if t.bus == nil {
		return nil
	}
	err := t.bus.Close()
	t.bus = nil
	t.dev = nil
	if err != nil {
		return fmt.Errorf("I2C close failed: %w", err)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	return t.dev != nil
}

// Type returns the transport type
func (*Transport) Type() mfrc522.TransportType {
	return mfrc522.TransportI2C
}
