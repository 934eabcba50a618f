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

// Package spi provides the SPI register transport for the MFRC522, the
// chip's native bus.
package spi

import (
	"fmt"
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const (
	// regFIFOData is the FIFO access register used for burst transfers.
	regFIFOData = 0x09

	// The chip tolerates up to 10 MHz; 1 MHz leaves margin for long
	// jumper wires on hobbyist boards.
	defaultFreq = 1 * physic.MegaHertz
	mode        = spi.Mode0
)

// readAddress frames a register address for an SPI read: bit 7 set, the
// address in bits 6:1, bit 0 clear (datasheet section 8.1.2.3).
func readAddress(reg byte) byte {
	return 0x80 | (reg << 1 & 0x7E)
}

// writeAddress frames a register address for an SPI write: bit 7 clear.
func writeAddress(reg byte) byte {
	return reg << 1 & 0x7E
}

// Transport implements mfrc522.RegisterTransport over SPI
type Transport struct {
	port     spi.PortCloser
	conn     spi.Conn
	portName string
	timeout  time.Duration
}

// New creates a new SPI transport
func New(portName string) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %s: %w", portName, err)
	}

	conn, err := port.Connect(defaultFreq, mode, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to connect SPI: %w", err)
	}

	return &Transport{
		port:     port,
		conn:     conn,
		portName: portName,
		timeout:  50 * time.Millisecond,
	}, nil
}

// WriteRegister writes a single value to a chip register
func (t *Transport) WriteRegister(reg, value byte) error {
	if t.conn == nil {
		return mfrc522.NewTransportClosedError("WriteRegister", t.portName)
	}
	if err := t.conn.Tx([]byte{writeAddress(reg), value}, nil); err != nil {
		return mfrc522.NewTransportWriteError("WriteRegister", t.portName)
	}
	return nil
}

// ReadRegister reads a single chip register
func (t *Transport) ReadRegister(reg byte) (byte, error) {
	if t.conn == nil {
		return 0, mfrc522.NewTransportClosedError("ReadRegister", t.portName)
	}
	rx := make([]byte, 2)
	if err := t.conn.Tx([]byte{readAddress(reg), 0x00}, rx); err != nil {
		return 0, mfrc522.NewTransportReadError("ReadRegister", t.portName)
	}
	return rx[1], nil
}

// WriteFIFO burst-writes data to the FIFO register in one transaction
func (t *Transport) WriteFIFO(data []byte) error {
	if t.conn == nil {
		return mfrc522.NewTransportClosedError("WriteFIFO", t.portName)
	}
	if len(data) == 0 {
		return nil
	}
	tx := make([]byte, 0, len(data)+1)
	tx = append(tx, writeAddress(regFIFOData))
	tx = append(tx, data...)
	if err := t.conn.Tx(tx, nil); err != nil {
		return mfrc522.NewTransportWriteError("WriteFIFO", t.portName)
	}
	return nil
}

// ReadFIFO burst-reads len(buf) bytes from the FIFO register. The address
// byte is repeated for every byte clocked out, with a trailing zero to end
// the transaction (datasheet section 8.1.2.1).
func (t *Transport) ReadFIFO(buf []byte) error {
	if t.conn == nil {
		return mfrc522.NewTransportClosedError("ReadFIFO", t.portName)
	}
	if len(buf) == 0 {
		return nil
	}
	tx := make([]byte, len(buf)+1)
	for i := 0; i < len(buf); i++ {
		tx[i] = readAddress(regFIFOData)
	}
	tx[len(buf)] = 0x00

	rx := make([]byte, len(buf)+1)
	if err := t.conn.Tx(tx, rx); err != nil {
		return mfrc522.NewTransportReadError("ReadFIFO", t.portName)
	}
	copy(buf, rx[1:])
	return nil
}

// SetTimeout sets the per-call timeout. SPI transactions complete in bus
// clock cycles, so this only bounds pathological kernel stalls.
func (t *Transport) SetTimeout(timeout time.Duration) error {
	t.timeout = timeout
	return nil
}

// Close closes the transport connection
func (t *Transport) Close() error {
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	t.conn = nil
	if err != nil {
		return fmt.Errorf("SPI close failed: %w", err)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	return t.conn != nil
}

// Type returns the transport type
func (*Transport) Type() mfrc522.TransportType {
	return mfrc522.TransportSPI
}
