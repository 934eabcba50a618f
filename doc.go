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

/*
Package mfrc522 provides a pure Go driver for the MFRC522 contactless
reader IC.

The MFRC522 is a register-oriented 13.56 MHz reader for ISO14443 Type A
cards. This library drives the chip over a pluggable register transport
(SPI, I2C, or UART), runs the ISO14443-3 anticollision/select cascade to
read 4-, 7-, and 10-byte UIDs, and classifies cards from their SAK byte.

Features:
  - Multiple transport support: SPI (native), I2C, UART
  - Full 3-level cascade anticollision with BCC validation
  - Deterministic bounded-iteration completion polling (no wall clock)
  - Receiver gain control
  - Background presence polling with callbacks (polling subpackage)
  - Comprehensive error taxonomy with retry classification

Basic Usage:

	import (
	    "github.com/ZaparooProject/go-mfrc522"
	    "github.com/ZaparooProject/go-mfrc522/transport/spi"
	)

	transport, err := spi.New("/dev/spidev0.0")
	if err != nil {
	    log.Fatal(err)
	}

	device, err := mfrc522.New(transport)
	if err != nil {
	    log.Fatal(err)
	}
	defer device.Close()

	if err := device.Init(); err != nil {
	    log.Fatal(err)
	}

	present, err := device.IsCardPresent()
	if err != nil {
	    log.Fatal(err)
	}
	if present {
	    card, err := device.ReadCard()
	    if err == nil {
	        fmt.Printf("%s\n", card)
	    }
	}

A Device is not safe for concurrent use: every operation is a multi-step
register sequence over one shared bus. Use the polling subpackage for a
single cooperative background loop, or guard the device externally.
*/
package mfrc522
