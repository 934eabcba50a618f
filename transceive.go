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

// TransceiveResult holds the card's answer to one transceive transaction.
type TransceiveResult struct {
	// Data is the raw response read from the FIFO
	Data []byte
	// ValidBits is the number of valid bits in the last byte of Data;
	// zero means the whole byte is valid
	ValidBits byte
}

// transceive transmits tx and collects the card's response as one logical
// transaction. txLastBits is the number of valid bits in the final outgoing
// byte (0 = all eight), used for the 7-bit REQA/WUPA short frames.
//
// Completion is detected by polling the interrupt register for up to
// TransceiveBudget iterations. A timer interrupt means the card never
// answered (ErrProtocolTimeout); spending the budget with no interrupt at
// all is ErrBudgetExhausted. Both leave the FIFO unread. There is no
// cancellation mid-poll: the budget is the only bound.
func (d *Device) transceive(tx []byte, txLastBits byte) (*TransceiveResult, error) {
	if len(tx) == 0 {
		return nil, fmt.Errorf("%w: empty transmit frame", ErrInvalidParameter)
	}

	// Force idle and clear pending interrupts so a stale flag from a
	// previous operation cannot be misread as this one's completion.
	if err := d.transport.WriteRegister(regCommand, cmdIdle); err != nil {
		return nil, fmt.Errorf("transceive: %w", err)
	}
	if err := d.transport.WriteRegister(regComIrq, irqClearAll); err != nil {
		return nil, fmt.Errorf("transceive: %w", err)
	}
	if err := d.flushFIFO(); err != nil {
		return nil, err
	}
	if err := d.transport.WriteFIFO(tx); err != nil {
		return nil, fmt.Errorf("transceive: load FIFO: %w", err)
	}
	if err := d.transport.WriteRegister(regBitFraming, txLastBits&txLastBitsMask); err != nil {
		return nil, fmt.Errorf("transceive: %w", err)
	}
	if err := d.transport.WriteRegister(regCommand, cmdTransceive); err != nil {
		return nil, fmt.Errorf("transceive: %w", err)
	}
	if err := d.setBitmask(regBitFraming, startSend); err != nil {
		return nil, err
	}

	waitErr := d.waitTransceiveDone()

	// Stop the transmitter whatever the outcome.
	if err := d.clearBitmask(regBitFraming, startSend); err != nil {
		return nil, err
	}
	if waitErr != nil {
		return nil, waitErr
	}

	errBits, err := d.transport.ReadRegister(regError)
	if err != nil {
		return nil, fmt.Errorf("transceive: read error register: %w", err)
	}
	if errBits&errTransceiveMask != 0 {
		return nil, &ChipError{Op: "transceive", Bits: errBits & errTransceiveMask}
	}

	return d.readResponse()
}

// waitTransceiveDone polls the interrupt register within the iteration budget
func (d *Device) waitTransceiveDone() error {
	for i := 0; i < d.config.TransceiveBudget; i++ {
		irq, err := d.transport.ReadRegister(regComIrq)
		if err != nil {
			return fmt.Errorf("transceive: poll: %w", err)
		}
		if irq&(irqRx|irqIdle) != 0 {
			return nil
		}
		if irq&irqTimer != 0 {
			return ErrProtocolTimeout
		}
	}
	return ErrBudgetExhausted
}

// readResponse drains the FIFO after a completed transceive
func (d *Device) readResponse() (*TransceiveResult, error) {
	level, err := d.transport.ReadRegister(regFIFOLevel)
	if err != nil {
		return nil, fmt.Errorf("transceive: read FIFO level: %w", err)
	}

	data := make([]byte, level)
	if level > 0 {
		if err := d.transport.ReadFIFO(data); err != nil {
			return nil, fmt.Errorf("transceive: read FIFO: %w", err)
		}
	}

	control, err := d.transport.ReadRegister(regControl)
	if err != nil {
		return nil, fmt.Errorf("transceive: read control: %w", err)
	}

	return &TransceiveResult{
		Data:      data,
		ValidBits: control & rxLastBitsMask,
	}, nil
}
