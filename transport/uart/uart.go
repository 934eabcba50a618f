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

// Package uart provides the serial register transport for the MFRC522.
//
// In UART mode the chip frames each access as a single address byte: bit 7
// selects read (1) or write (0) and bits 5:0 carry the register address. A
// write is followed by the data byte and acknowledged by the chip echoing
// the address; a read is answered with the register value.
package uart

import (
	"fmt"
	"runtime"
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"go.bug.st/serial"
)

const (
	// Power-on default baud rate (datasheet table 10).
	defaultBaudRate = 9600

	// regFIFOData is the FIFO access register. UART mode has no burst
	// addressing, so FIFO transfers loop over single-byte accesses.
	regFIFOData = 0x09
)

// readAddress frames a register address for a UART read.
func readAddress(reg byte) byte {
	return 0x80 | reg&0x3F
}

// writeAddress frames a register address for a UART write.
func writeAddress(reg byte) byte {
	return reg & 0x3F
}

// defaultTimeout returns the platform read timeout. 50ms is proven on
// Linux/Mac; Windows serial drivers need more headroom.
func defaultTimeout() time.Duration {
	if runtime.GOOS == "windows" {
		return 100 * time.Millisecond
	}
	return 50 * time.Millisecond
}

// Transport implements mfrc522.RegisterTransport over a serial port.
type Transport struct {
	port     serial.Port
	portName string
	timeout  time.Duration
}

// New creates a new UART transport at the chip's power-on baud rate.
func New(portName string) (*Transport, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: defaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open UART port %s: %w", portName, err)
	}

	timeout := defaultTimeout()
	if err := port.SetReadTimeout(timeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set UART read timeout: %w", err)
	}

	return &Transport{
		port:     port,
		portName: portName,
		timeout:  timeout,
	}, nil
}

// readByte reads a single response byte, retrying short reads until the
// transport timeout elapses. go.bug.st/serial reports a timeout as a
// zero-length read with a nil error.
func (t *Transport) readByte(op string) (byte, error) {
	buf := make([]byte, 1)
	deadline := time.Now().Add(t.timeout)
	for {
		n, err := t.port.Read(buf)
		if err != nil {
			return 0, mfrc522.NewTransportReadError(op, t.portName)
		}
		if n > 0 {
			return buf[0], nil
		}
		if time.Now().After(deadline) {
			return 0, mfrc522.NewTimeoutError(op, t.portName)
		}
	}
}

func (t *Transport) writeRegister(op string, reg, value byte) error {
	if _, err := t.port.Write([]byte{writeAddress(reg), value}); err != nil {
		return mfrc522.NewTransportWriteError(op, t.portName)
	}
	// The chip acks a write by echoing the address byte.
	echo, err := t.readByte(op)
	if err != nil {
		return err
	}
	if echo != writeAddress(reg) {
		return fmt.Errorf("%w: register 0x%02X write echoed 0x%02X",
			mfrc522.ErrTransportWrite, reg, echo)
	}
	return nil
}

func (t *Transport) readRegister(op string, reg byte) (byte, error) {
	if _, err := t.port.Write([]byte{readAddress(reg)}); err != nil {
		return 0, mfrc522.NewTransportWriteError(op, t.portName)
	}
	return t.readByte(op)
}

// WriteRegister writes a single value to a chip register
func (t *Transport) WriteRegister(reg, value byte) error {
	if t.port == nil {
		return mfrc522.NewTransportClosedError("WriteRegister", t.portName)
	}
	return t.writeRegister("WriteRegister", reg, value)
}

// ReadRegister reads a single chip register
func (t *Transport) ReadRegister(reg byte) (byte, error) {
	if t.port == nil {
		return 0, mfrc522.NewTransportClosedError("ReadRegister", t.portName)
	}
	return t.readRegister("ReadRegister", reg)
}

// WriteFIFO writes data to the FIFO register one byte at a time
func (t *Transport) WriteFIFO(data []byte) error {
	if t.port == nil {
		return mfrc522.NewTransportClosedError("WriteFIFO", t.portName)
	}
	for _, b := range data {
		if err := t.writeRegister("WriteFIFO", regFIFOData, b); err != nil {
			return err
		}
	}
	return nil
}

// ReadFIFO reads len(buf) bytes from the FIFO register one byte at a time
func (t *Transport) ReadFIFO(buf []byte) error {
	if t.port == nil {
		return mfrc522.NewTransportClosedError("ReadFIFO", t.portName)
	}
	for i := range buf {
		value, err := t.readRegister("ReadFIFO", regFIFOData)
		if err != nil {
			return err
		}
		buf[i] = value
	}
	return nil
}

// SetTimeout sets the read timeout for transport operations
func (t *Transport) SetTimeout(timeout time.Duration) error {
	if t.port == nil {
		return mfrc522.NewTransportClosedError("SetTimeout", t.portName)
	}
	if err := t.port.SetReadTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set UART read timeout: %w", err)
	}
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
	if err != nil {
		return fmt.Errorf("UART close failed: %w", err)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	return t.port != nil
}

// Type returns the transport type
func (*Transport) Type() mfrc522.TransportType {
	return mfrc522.TransportUART
}
