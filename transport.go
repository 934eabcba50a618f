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
	"sync"
	"time"
)

// RegisterTransport defines the register-level bus interface to an MFRC522.
// This can be implemented by SPI, I2C, or UART backends.
//
// Every call is synchronous: it either completes or fails the enclosing
// driver operation. The core performs no retries on transport faults.
type RegisterTransport interface {
	// WriteRegister writes a single value to a chip register
	WriteRegister(reg, value byte) error

	// ReadRegister reads a single chip register
	ReadRegister(reg byte) (byte, error)

	// WriteFIFO burst-writes data into the chip's FIFO buffer
	WriteFIFO(data []byte) error

	// ReadFIFO burst-reads len(buf) bytes from the chip's FIFO buffer
	ReadFIFO(buf []byte) error

	// Close closes the transport connection
	Close() error

	// SetTimeout sets the per-call timeout for the underlying bus
	SetTimeout(timeout time.Duration) error

	// IsConnected returns true if the transport is connected
	IsConnected() bool

	// Type returns the transport type
	Type() TransportType
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportSPI represents SPI bus transport (the chip's native bus).
	TransportSPI TransportType = "spi"
	// TransportI2C represents I2C bus transport.
	TransportI2C TransportType = "i2c"
	// TransportUART represents UART/serial transport.
	TransportUART TransportType = "uart"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

// RegisterWrite records one register write observed by the mock transport.
type RegisterWrite struct {
	Reg   byte
	Value byte
}

// MockTransport provides a mock implementation of RegisterTransport for
// testing. Register reads return scripted values first (queued per register,
// consumed in order) and fall back to the last written value, so polling
// loops can be driven through arbitrary interrupt sequences.
type MockTransport struct {
	regs       map[byte]byte
	readQueues map[byte][]byte
	readErrs   map[byte]error
	writeErrs  map[byte]error
	writes     []RegisterWrite
	fifoOut    []byte
	fifoIn     []byte
	fifoErr    error
	timeout    time.Duration
	mu         sync.Mutex
	connected  bool
}

// NewMockTransport creates a new mock transport
func NewMockTransport() *MockTransport {
	return &MockTransport{
		regs:       make(map[byte]byte),
		readQueues: make(map[byte][]byte),
		readErrs:   make(map[byte]error),
		writeErrs:  make(map[byte]error),
		timeout:    time.Second,
		connected:  true,
	}
}

// WriteRegister implements RegisterTransport
func (m *MockTransport) WriteRegister(reg, value byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return ErrTransportClosed
	}
	if err, ok := m.writeErrs[reg]; ok {
		return err
	}
	m.regs[reg] = value
	m.writes = append(m.writes, RegisterWrite{Reg: reg, Value: value})
	return nil
}

// ReadRegister implements RegisterTransport
func (m *MockTransport) ReadRegister(reg byte) (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return 0, ErrTransportClosed
	}
	if err, ok := m.readErrs[reg]; ok {
		return 0, err
	}
	if queue := m.readQueues[reg]; len(queue) > 0 {
		value := queue[0]
		m.readQueues[reg] = queue[1:]
		return value, nil
	}
	return m.regs[reg], nil
}

// WriteFIFO implements RegisterTransport
func (m *MockTransport) WriteFIFO(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return ErrTransportClosed
	}
	if m.fifoErr != nil {
		return m.fifoErr
	}
	m.fifoIn = append(m.fifoIn, data...)
	return nil
}

// ReadFIFO implements RegisterTransport
func (m *MockTransport) ReadFIFO(buf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return ErrTransportClosed
	}
	if m.fifoErr != nil {
		return m.fifoErr
	}
	for i := range buf {
		if len(m.fifoOut) == 0 {
			buf[i] = 0
			continue
		}
		buf[i] = m.fifoOut[0]
		m.fifoOut = m.fifoOut[1:]
	}
	return nil
}

// Close implements RegisterTransport
func (m *MockTransport) Close() error {
	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()
	return nil
}

// SetTimeout implements RegisterTransport
func (m *MockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	m.timeout = timeout
	m.mu.Unlock()
	return nil
}

// IsConnected implements RegisterTransport
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Type implements RegisterTransport
func (*MockTransport) Type() TransportType {
	return TransportMock
}

// Test helper methods

// SetRegister seeds a register's backing value
func (m *MockTransport) SetRegister(reg, value byte) {
	m.mu.Lock()
	m.regs[reg] = value
	m.mu.Unlock()
}

// QueueReads appends scripted read values for a register, consumed in order
// before the backing value is used
func (m *MockTransport) QueueReads(reg byte, values ...byte) {
	m.mu.Lock()
	m.readQueues[reg] = append(m.readQueues[reg], values...)
	m.mu.Unlock()
}

// QueueFIFO appends bytes returned by subsequent ReadFIFO calls
func (m *MockTransport) QueueFIFO(data ...byte) {
	m.mu.Lock()
	m.fifoOut = append(m.fifoOut, data...)
	m.mu.Unlock()
}

// SetReadError configures an error returned when reading a register
func (m *MockTransport) SetReadError(reg byte, err error) {
	m.mu.Lock()
	m.readErrs[reg] = err
	m.mu.Unlock()
}

// SetWriteError configures an error returned when writing a register
func (m *MockTransport) SetWriteError(reg byte, err error) {
	m.mu.Lock()
	m.writeErrs[reg] = err
	m.mu.Unlock()
}

// SetFIFOError configures an error returned by FIFO burst operations
func (m *MockTransport) SetFIFOError(err error) {
	m.mu.Lock()
	m.fifoErr = err
	m.mu.Unlock()
}

// Writes returns a copy of every register write seen so far
func (m *MockTransport) Writes() []RegisterWrite {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RegisterWrite, len(m.writes))
	copy(out, m.writes)
	return out
}

// WriteCount returns how many times a register was written
func (m *MockTransport) WriteCount(reg byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, w := range m.writes {
		if w.Reg == reg {
			count++
		}
	}
	return count
}

// FIFOWritten returns a copy of all bytes burst-written to the FIFO
func (m *MockTransport) FIFOWritten() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.fifoIn))
	copy(out, m.fifoIn)
	return out
}

// Reset clears scripted reads, logs, and reconnects the transport
func (m *MockTransport) Reset() {
	m.mu.Lock()
	m.readQueues = make(map[byte][]byte)
	m.readErrs = make(map[byte]error)
	m.writeErrs = make(map[byte]error)
	m.writes = nil
	m.fifoOut = nil
	m.fifoIn = nil
	m.fifoErr = nil
	m.connected = true
	m.mu.Unlock()
}
