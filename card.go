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
	"encoding/hex"
	"errors"
	"fmt"
)

// CardType classifies a card from its select-acknowledge byte.
type CardType string

const (
	// CardTypeMifareMini represents MIFARE Mini (SAK 0x09).
	CardTypeMifareMini CardType = "MIFARE_MINI"
	// CardTypeMifare1K represents MIFARE Classic 1K (SAK 0x08).
	CardTypeMifare1K CardType = "MIFARE_1K"
	// CardTypeMifare4K represents MIFARE Classic 4K (SAK 0x18).
	CardTypeMifare4K CardType = "MIFARE_4K"
	// CardTypeUltralight represents MIFARE Ultralight / NTAG (SAK 0x00).
	CardTypeUltralight CardType = "ULTRALIGHT"
	// CardTypeISO14443_4 represents ISO14443-4 capable cards such as
	// DESFire (SAK bit 5 set).
	CardTypeISO14443_4 CardType = "ISO14443_4"
	// CardTypeUnknown represents unrecognized SAK values.
	CardTypeUnknown CardType = "UNKNOWN"
)

// sakCascade is SAK bit 2: the UID continues at the next cascade level.
const sakCascade = 0x04

// sakISO14443_4 is SAK bit 5: the card speaks ISO14443-4.
const sakISO14443_4 = 0x20

// ClassifySAK maps a select-acknowledge byte to a coarse card type
func ClassifySAK(sak byte) CardType {
	switch sak {
	case 0x09:
		return CardTypeMifareMini
	case 0x08:
		return CardTypeMifare1K
	case 0x18:
		return CardTypeMifare4K
	case 0x00:
		return CardTypeUltralight
	}
	if sak&sakISO14443_4 != 0 {
		return CardTypeISO14443_4
	}
	return CardTypeUnknown
}

// Manufacturer represents the chip manufacturer identified from the UID.
// The first byte of a 7-byte UID carries the manufacturer code per
// ISO/IEC 7816-6.
type Manufacturer string

const (
	// ManufacturerNXP is NXP Semiconductors (0x04).
	ManufacturerNXP Manufacturer = "NXP"
	// ManufacturerST is STMicroelectronics (0x02).
	ManufacturerST Manufacturer = "STMicroelectronics"
	// ManufacturerInfineon is Infineon Technologies (0x05).
	ManufacturerInfineon Manufacturer = "Infineon"
	// ManufacturerTI is Texas Instruments (0x07).
	ManufacturerTI Manufacturer = "Texas Instruments"
	// ManufacturerUnknown indicates an unrecognized manufacturer code,
	// typically a clone chip.
	ManufacturerUnknown Manufacturer = "Unknown"
)

// GetManufacturer returns the chip manufacturer based on the UID's first
// byte. Reliable for 7-byte UIDs; 4-byte UIDs reuse the code space.
func GetManufacturer(uid []byte) Manufacturer {
	if len(uid) == 0 {
		return ManufacturerUnknown
	}

	switch uid[0] {
	case 0x04:
		return ManufacturerNXP
	case 0x02:
		return ManufacturerST
	case 0x05:
		return ManufacturerInfineon
	case 0x07:
		return ManufacturerTI
	default:
		return ManufacturerUnknown
	}
}

// Card is the result of a successful anticollision/select sequence.
type Card struct {
	// UID is the complete unique identifier, 4, 7, or 10 bytes
	UID []byte
	// SAK is the select-acknowledge byte from the final cascade level
	SAK byte
	// Type is the coarse classification derived from SAK
	Type CardType
}

// UIDString returns the UID as an uppercase hex string
func (c *Card) UIDString() string {
	return fmt.Sprintf("%X", c.UID)
}

// String implements fmt.Stringer
func (c *Card) String() string {
	return fmt.Sprintf("%s card %s (SAK 0x%02X)", c.Type, hex.EncodeToString(c.UID), c.SAK)
}

// IsCardPresent probes the RF field with a REQA short frame. It returns
// true only when a card answered with at least one byte (the ATQA). A
// silent field is (false, nil); bus faults are returned as errors. No
// driver state is retained by the probe.
func (d *Device) IsCardPresent() (bool, error) {
	result, err := d.transceive([]byte{piccREQA}, 7)
	if err != nil {
		if IsNoCard(err) {
			return false, nil
		}
		var ce *ChipError
		if errors.As(err, &ce) {
			// A garbled ATQA still means something is in the field,
			// but the card is unusable until it answers cleanly.
			return false, nil
		}
		return false, err
	}
	return len(result.Data) > 0, nil
}

// ReadCard runs the ISO14443-3 cascade against a card already awoken by a
// REQA (see IsCardPresent) and assembles its full UID and SAK. The UID
// accumulates in a local buffer and is committed to the device only when
// every cascade level succeeded: a failed attempt leaves UID() empty and
// never exposes a partial identifier.
func (d *Device) ReadCard() (*Card, error) {
	// Discard the previous card before the field is touched.
	d.uid = nil
	d.sak = 0

	uid := make([]byte, 0, 10)
	selectCodes := []byte{piccCascade1, piccCascade2, piccCascade3}

	for level, code := range selectCodes {
		fragment, bcc, err := d.anticollision(code)
		if err != nil {
			return nil, err
		}

		sak, err := d.selectFragment(code, fragment, bcc)
		if err != nil {
			return nil, err
		}

		// A cascade tag leading a non-final level's fragment is a
		// continuation marker, not UID data. At the last possible
		// level the byte can only be ordinary data.
		body := fragment[:]
		if body[0] == cascadeTag && level < len(selectCodes)-1 {
			body = body[1:]
		}
		uid = append(uid, body...)

		if sak&sakCascade == 0 {
			if len(uid) == 0 {
				return nil, ErrNoResponse
			}
			d.uid = uid
			d.sak = sak
			return &Card{UID: d.UID(), SAK: sak, Type: ClassifySAK(sak)}, nil
		}
	}

	return nil, ErrCascadeExhausted
}

// anticollision asks the chip to arbitrate one cascade level and returns
// the 4-byte UID fragment after validating its check byte.
func (d *Device) anticollision(code byte) ([4]byte, byte, error) {
	var fragment [4]byte

	result, err := d.transceive([]byte{code, nvbAnticollision}, 0)
	if err != nil {
		return fragment, 0, err
	}
	if len(result.Data) < 5 {
		return fragment, 0, fmt.Errorf("%w: anticollision returned %d bytes, want 5",
			ErrShortResponse, len(result.Data))
	}

	copy(fragment[:], result.Data[:4])
	bcc := result.Data[4]

	if checksum := fragment[0] ^ fragment[1] ^ fragment[2] ^ fragment[3]; checksum != bcc {
		return fragment, 0, fmt.Errorf("%w: BCC 0x%02X, fragment XOR 0x%02X",
			ErrChecksumMismatch, bcc, checksum)
	}
	return fragment, bcc, nil
}

// selectFragment issues the full select frame for one cascade level and
// returns the card's SAK
func (d *Device) selectFragment(code byte, fragment [4]byte, bcc byte) (byte, error) {
	frame := []byte{code, nvbSelect, fragment[0], fragment[1], fragment[2], fragment[3], bcc}

	crc, err := d.calcCRC(frame)
	if err != nil {
		return 0, fmt.Errorf("select: %w", err)
	}
	frame = append(frame, crc[0], crc[1])

	result, err := d.transceive(frame, 0)
	if err != nil {
		return 0, err
	}
	if len(result.Data) == 0 {
		return 0, fmt.Errorf("select: %w", ErrNoResponse)
	}
	return result.Data[0], nil
}
