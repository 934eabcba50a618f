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

// Package simulator provides a register-level MFRC522 chip model with a
// virtual ISO14443 Type A card for end-to-end driver tests without
// hardware. It implements the driver's RegisterTransport contract.
package simulator

import (
	"errors"
	"sync"
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
)

// Register addresses and bits mirrored from the chip datasheet. The
// simulator keeps its own copies so it stays import-free.
const (
	regCommand    = 0x01
	regComIrq     = 0x04
	regDivIrq     = 0x05
	regError      = 0x06
	regFIFOLevel  = 0x0A
	regControl    = 0x0C
	regBitFraming = 0x0D
	regCRCResultH = 0x21
	regCRCResultL = 0x22
	regTxControl  = 0x14
	regVersion    = 0x37

	cmdIdle       = 0x00
	cmdCalcCRC    = 0x03
	cmdTransceive = 0x0C
	cmdSoftReset  = 0x0F

	irqTimer = 0x01
	irqIdle  = 0x10
	irqRx    = 0x20
	irqCRC   = 0x04

	startSend  = 0x80
	fifoFlush  = 0x80
	cascadeTag = 0x88

	piccREQA = 0x26
	piccWUPA = 0x52
	piccSel1 = 0x93
	piccSel2 = 0x95
	piccSel3 = 0x97

	nvbAnticollision = 0x20
	nvbSelect        = 0x70
)

// ChipVersion is the version byte the simulator reports.
const ChipVersion = 0x92

// Card models a single ISO14443 Type A card in the simulated field.
type Card struct {
	// UID must be 4, 7, or 10 bytes
	UID []byte
	// SAK is returned at the final cascade level; non-final levels
	// answer 0x04 (cascade continues) automatically
	SAK byte
}

// Fault selects a misbehavior the simulator injects into card responses.
type Fault int

const (
	// FaultNone leaves responses untouched
	FaultNone Fault = iota
	// FaultShortAnticollision truncates anticollision responses below
	// the 5 bytes the protocol requires
	FaultShortAnticollision
	// FaultCorruptBCC flips a bit in the anticollision check byte
	FaultCorruptBCC
	// FaultChipError raises collision bits in the error register after
	// the next transceive
	FaultChipError
	// FaultCRCStall keeps the CRC completion flag from ever rising
	FaultCRCStall
	// FaultMuteSelect makes the card answer anticollision but stay
	// silent on select frames
	FaultMuteSelect
	// FaultEmptyATQA completes the REQA transceive with zero response
	// bytes
	FaultEmptyATQA
)

// Transport is a simulated MFRC522 on a virtual register bus. It satisfies
// the driver's RegisterTransport interface. Safe for use from one test
// goroutine at a time, with a mutex guarding card swaps from others.
type Transport struct {
	mu        sync.Mutex
	regs      [0x40]byte
	fifo      []byte
	card      *Card
	fault     Fault
	connected bool
	armed     bool // transceive command loaded, waiting for StartSend
	timeout   time.Duration
}

// New creates a simulated chip with an empty RF field
func New() *Transport {
	t := &Transport{connected: true, timeout: time.Second}
	t.reset()
	return t
}

func (t *Transport) reset() {
	t.regs = [0x40]byte{}
	t.regs[regVersion] = ChipVersion
	t.fifo = nil
	t.armed = false
}

// PlaceCard puts a card into the simulated RF field
func (t *Transport) PlaceCard(card *Card) {
	t.mu.Lock()
	t.card = card
	t.mu.Unlock()
}

// RemoveCard empties the simulated RF field
func (t *Transport) RemoveCard() {
	t.mu.Lock()
	t.card = nil
	t.mu.Unlock()
}

// InjectFault arms a single misbehavior for subsequent operations
func (t *Transport) InjectFault(fault Fault) {
	t.mu.Lock()
	t.fault = fault
	t.mu.Unlock()
}

// WriteRegister implements the register bus contract
func (t *Transport) WriteRegister(reg, value byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected {
		return errors.New("simulator: transport closed")
	}

	switch reg {
	case regCommand:
		t.runCommand(value)
	case regComIrq:
		// Bit 7 low: writing ones clears the addressed requests.
		if value&0x80 == 0 {
			t.regs[regComIrq] &^= value & 0x7F
		}
		return nil
	case regDivIrq:
		if value&0x80 == 0 {
			t.regs[regDivIrq] &^= value & 0x7F
		}
		return nil
	case regFIFOLevel:
		if value&fifoFlush != 0 {
			t.fifo = nil
		}
		return nil
	case regBitFraming:
		t.regs[regBitFraming] = value
		if value&startSend != 0 && t.armed {
			t.armed = false
			t.executeTransceive(value & 0x07)
		}
		return nil
	}

	t.regs[reg] = value
	return nil
}

// ReadRegister implements the register bus contract
func (t *Transport) ReadRegister(reg byte) (byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected {
		return 0, errors.New("simulator: transport closed")
	}
	if reg == regFIFOLevel {
		return byte(len(t.fifo)), nil
	}
	return t.regs[reg], nil
}

// WriteFIFO implements the register bus contract
func (t *Transport) WriteFIFO(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected {
		return errors.New("simulator: transport closed")
	}
	t.fifo = append(t.fifo, data...)
	return nil
}

// ReadFIFO implements the register bus contract
func (t *Transport) ReadFIFO(buf []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected {
		return errors.New("simulator: transport closed")
	}
	for i := range buf {
		if len(t.fifo) == 0 {
			buf[i] = 0
			continue
		}
		buf[i] = t.fifo[0]
		t.fifo = t.fifo[1:]
	}
	return nil
}

// Close implements the register bus contract
func (t *Transport) Close() error {
	t.mu.Lock()
	t.connected = false
	t.mu.Unlock()
	return nil
}

// SetTimeout implements the register bus contract
func (t *Transport) SetTimeout(timeout time.Duration) error {
	t.mu.Lock()
	t.timeout = timeout
	t.mu.Unlock()
	return nil
}

// IsConnected implements the register bus contract
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// Type implements the register bus contract
func (*Transport) Type() mfrc522.TransportType {
	return "simulator"
}

// runCommand handles writes to the command register
func (t *Transport) runCommand(cmd byte) {
	t.regs[regCommand] = cmd
	switch cmd {
	case cmdSoftReset:
		t.reset()
	case cmdCalcCRC:
		if t.fault == FaultCRCStall {
			t.fifo = nil
			return
		}
		crc := crc16A(t.fifo)
		t.fifo = nil
		t.regs[regCRCResultL] = byte(crc)
		t.regs[regCRCResultH] = byte(crc >> 8)
		t.regs[regDivIrq] |= irqCRC
	case cmdTransceive:
		t.armed = true
	case cmdIdle:
		t.armed = false
	}
}

// executeTransceive consumes the FIFO as the transmitted frame and loads
// the card's answer, driving the interrupt and error registers the way
// the real chip does.
func (t *Transport) executeTransceive(txLastBits byte) {
	frame := t.fifo
	t.fifo = nil
	t.regs[regError] = 0
	t.regs[regControl] = 0

	if t.fault == FaultChipError {
		t.fault = FaultNone
		t.regs[regError] = 0x08 // collision
		t.regs[regComIrq] |= irqRx
		return
	}

	response, answered := t.cardResponse(frame, txLastBits)
	if !answered {
		// Silence: the chip's timeout timer fires.
		t.regs[regComIrq] |= irqTimer
		return
	}

	t.fifo = response
	t.regs[regComIrq] |= irqRx
}

// cardResponse computes the virtual card's answer to one frame
func (t *Transport) cardResponse(frame []byte, txLastBits byte) ([]byte, bool) {
	if t.card == nil || len(frame) == 0 {
		return nil, false
	}

	// REQA/WUPA short frames.
	if len(frame) == 1 && txLastBits == 7 && (frame[0] == piccREQA || frame[0] == piccWUPA) {
		if t.fault == FaultEmptyATQA {
			t.fault = FaultNone
			return nil, true
		}
		return t.atqa(), true
	}

	level, ok := cascadeLevel(frame[0])
	if !ok {
		return nil, false
	}
	fragment, finalLevel := cascadeFragment(t.card.UID, level)
	if fragment == nil {
		return nil, false
	}

	// Anticollision request: full fragment plus check byte.
	if len(frame) == 2 && frame[1] == nvbAnticollision {
		bcc := fragment[0] ^ fragment[1] ^ fragment[2] ^ fragment[3]
		response := append(append([]byte{}, fragment...), bcc)
		switch t.fault {
		case FaultShortAnticollision:
			t.fault = FaultNone
			return response[:3], true
		case FaultCorruptBCC:
			t.fault = FaultNone
			response[4] ^= 0xFF
			return response, true
		}
		return response, true
	}

	// Full select: SEL + NVB + fragment + BCC + CRC_A.
	if len(frame) == 9 && frame[1] == nvbSelect {
		if t.fault == FaultMuteSelect {
			t.fault = FaultNone
			return nil, false
		}
		if crc16A(frame[:7]) != uint16(frame[7])|uint16(frame[8])<<8 {
			return nil, false
		}
		for i, b := range fragment {
			if frame[2+i] != b {
				return nil, false
			}
		}
		sak := t.card.SAK
		if !finalLevel {
			sak = 0x04
		}
		response := []byte{sak}
		crc := crc16A(response)
		return append(response, byte(crc), byte(crc>>8)), true
	}

	return nil, false
}

// atqa returns the answer-to-request for the card's UID size
func (t *Transport) atqa() []byte {
	switch len(t.card.UID) {
	case 7:
		return []byte{0x44, 0x00}
	case 10:
		return []byte{0x84, 0x00}
	default:
		return []byte{0x04, 0x00}
	}
}

// cascadeLevel maps a select code to a zero-based cascade level
func cascadeLevel(code byte) (int, bool) {
	switch code {
	case piccSel1:
		return 0, true
	case piccSel2:
		return 1, true
	case piccSel3:
		return 2, true
	}
	return 0, false
}

// cascadeFragment returns the 4-byte body a card presents at a cascade
// level, inserting the cascade tag on non-final levels, and whether the
// level is the card's final one.
func cascadeFragment(uid []byte, level int) ([]byte, bool) {
	switch len(uid) {
	case 4:
		if level != 0 {
			return nil, false
		}
		return uid[:4], true
	case 7:
		switch level {
		case 0:
			return []byte{cascadeTag, uid[0], uid[1], uid[2]}, false
		case 1:
			return uid[3:7], true
		}
	case 10:
		switch level {
		case 0:
			return []byte{cascadeTag, uid[0], uid[1], uid[2]}, false
		case 1:
			return []byte{cascadeTag, uid[3], uid[4], uid[5]}, false
		case 2:
			return uid[6:10], true
		}
	}
	return nil, false
}

// crc16A computes the ISO14443-3 CRC_A (polynomial 0x8408 reflected,
// initial value 0x6363), matching the chip's coprocessor output.
func crc16A(data []byte) uint16 {
	crc := uint16(0x6363)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ 0x8408
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}
