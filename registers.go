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

// MFRC522 register addresses (datasheet section 9).
const (
	regCommand     = 0x01 // Starts and stops command execution
	regComIEn      = 0x02 // Interrupt request enable/disable
	regDivIEn      = 0x03 // Interrupt request enable/disable (CRC, MFIN)
	regComIrq      = 0x04 // Interrupt request bits
	regDivIrq      = 0x05 // Interrupt request bits (CRC, MFIN)
	regError       = 0x06 // Error status of the last command executed
	regStatus1     = 0x07 // Communication status bits
	regStatus2     = 0x08 // Receiver and transmitter status bits
	regFIFOData    = 0x09 // Input and output of the 64-byte FIFO buffer
	regFIFOLevel   = 0x0A // Number of bytes stored in the FIFO buffer
	regWaterLevel  = 0x0B // FIFO underflow and overflow warning level
	regControl     = 0x0C // Miscellaneous control, RxLastBits field
	regBitFraming  = 0x0D // Bit-oriented frame adjustments, StartSend
	regColl        = 0x0E // First bit-collision position
	regMode        = 0x11 // General transmit and receive mode
	regTxMode      = 0x12 // Transmission data rate and framing
	regRxMode      = 0x13 // Reception data rate and framing
	regTxControl   = 0x14 // Antenna driver pins TX1 and TX2 control
	regTxASK       = 0x15 // Transmission modulation setting
	regTxSel       = 0x16 // Antenna driver input selection
	regRxSel       = 0x17 // Receiver input selection
	regRxThreshold = 0x18 // Bit decoder thresholds
	regDemod       = 0x19 // Demodulator settings
	regCRCResultH  = 0x21 // MSB of the CRC calculation result
	regCRCResultL  = 0x22 // LSB of the CRC calculation result
	regModWidth    = 0x24 // Modulation width setting
	regRFCfg       = 0x26 // Receiver gain configuration
	regGsN         = 0x27 // Conductance of the antenna drivers when on
	regCWGsP       = 0x28 // Conductance of the p-driver output, no modulation
	regModGsP      = 0x29 // Conductance of the p-driver output, modulation
	regTMode       = 0x2A // Timer mode and prescaler high bits
	regTPrescaler  = 0x2B // Timer prescaler low bits
	regTReloadH    = 0x2C // Timer reload value, high byte
	regTReloadL    = 0x2D // Timer reload value, low byte
	regTCounterH   = 0x2E // Timer counter value, high byte
	regTCounterL   = 0x2F // Timer counter value, low byte
	regVersion     = 0x37 // Chip version
)

// MFRC522 command codes written to regCommand.
const (
	cmdIdle       = 0x00 // Cancel any running command
	cmdMem        = 0x01 // Transfer 25 bytes between FIFO and internal buffer
	cmdRandomID   = 0x02 // Generate a 10-byte random ID number
	cmdCalcCRC    = 0x03 // Activate the CRC coprocessor
	cmdTransmit   = 0x04 // Transmit data from the FIFO buffer
	cmdNoChange   = 0x07 // Modify command register bits without a new command
	cmdReceive    = 0x08 // Activate the receiver circuits
	cmdTransceive = 0x0C // Transmit FIFO data and activate receiver after
	cmdMFAuthent  = 0x0E // MIFARE Classic authentication (not used here)
	cmdSoftReset  = 0x0F // Reset the chip
)

// ISO14443-3 Type A frame bytes sent to the card.
const (
	piccREQA     = 0x26 // Request, 7-bit short frame
	piccWUPA     = 0x52 // Wake-up, 7-bit short frame
	piccHalt     = 0x50 // Halt
	piccCascade1 = 0x93 // Anticollision/select, cascade level 1
	piccCascade2 = 0x95 // Anticollision/select, cascade level 2
	piccCascade3 = 0x97 // Anticollision/select, cascade level 3

	// cascadeTag marks a UID fragment that continues at the next cascade
	// level. It is never part of the UID itself on non-final levels.
	cascadeTag = 0x88

	// nvbAnticollision requests the whole 4-byte fragment plus BCC
	// (2 whole command bytes valid, no UID bits supplied).
	nvbAnticollision = 0x20
	// nvbSelect marks a complete 7-byte select frame (7 bytes, 0 bits).
	nvbSelect = 0x70
)

// regComIrq bits.
const (
	irqTimer = 0x01 // Timer finished counting down
	irqErr   = 0x02 // Any bit set in the error register
	irqLoAl  = 0x04 // FIFO below the water level
	irqHiAl  = 0x08 // FIFO above the water level
	irqIdle  = 0x10 // Command terminated
	irqRx    = 0x20 // Receiver detected the end of a valid data stream
	irqTx    = 0x40 // Last bit of transmitted data was sent

	// irqClearAll written to regComIrq clears every pending request
	// (bit 7 low selects the clear operation).
	irqClearAll = 0x7F
)

// regDivIrq bits.
const (
	irqCRC = 0x04 // CalcCRC command finished
)

// regError bits reported after a transceive.
const (
	errProtocol = 0x01 // SOF incorrect or command framing violated
	errParity   = 0x02 // Parity check failed
	errCRC      = 0x04 // RxCRCEn set and CRC check failed
	errColl     = 0x08 // Bit collision detected
	errBufferOv = 0x10 // FIFO overflowed

	// errTransceiveMask covers the faults that invalidate a card response.
	errTransceiveMask = errProtocol | errParity | errCRC | errColl
)

// regBitFraming fields.
const (
	startSend = 0x80 // Starts transmission, valid with cmdTransceive only
	// txLastBitsMask selects how many bits of the last byte are sent;
	// zero means all eight.
	txLastBitsMask = 0x07
)

// regControl fields.
const (
	// rxLastBitsMask holds the number of valid bits in the last received
	// byte; zero means the whole byte is valid.
	rxLastBitsMask = 0x07
)

// regTxControl bits.
const (
	tx1RFEn = 0x01 // Output delivers the carrier on TX1
	tx2RFEn = 0x02 // Output delivers the carrier on TX2

	antennaDriverMask = tx1RFEn | tx2RFEn
)

// regFIFOLevel bits.
const (
	fifoFlush = 0x80 // Immediately clears the FIFO buffer
)

// regRFCfg receiver gain field (bits 6:4).
const (
	rxGainShift = 4
	rxGainMask  = 0x70
)

// Fixed init values establishing the chip's internal timeout timer and
// modulation, written once by Init. The timer runs at 13.56 MHz / (2 *
// prescaler + 1) and auto-starts at the end of every transmission, so a
// silent card trips irqTimer after roughly 25 ms.
const (
	initTMode      = 0x8D // TAuto on, prescaler high nibble
	initTPrescaler = 0x3E // Prescaler low byte: f_timer ~= 40 kHz
	initTReload    = 0x1E // 30 ticks before the timeout interrupt
	initTxASK      = 0x40 // Force 100% ASK modulation
	initMode       = 0x3D // CRC preset 0x6363 per ISO14443-3
)
