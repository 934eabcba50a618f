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

package detection

import "fmt"

// GradeVersion interprets a version register value read during a probe and
// updates the device's confidence and metadata. It returns false when the
// value indicates a floating or shorted bus rather than a responding chip.
func GradeVersion(version byte, device *DeviceInfo) bool {
	// 0x00 and 0xFF are what a floating SPI MISO line reads as.
	if version == 0x00 || version == 0xFF {
		return false
	}

	device.Metadata["version"] = fmt.Sprintf("0x%02X", version)

	switch version {
	case 0x91, 0x92:
		// Genuine silicon, version 1.0 / 2.0.
		device.Confidence = High
		device.Name = fmt.Sprintf("MFRC522 v%d.0 at %s", version&0x0F, device.Path)
	case 0x88, 0xB2:
		// Common clone chips that speak the same register map.
		device.Confidence = High
		device.Name = fmt.Sprintf("MFRC522 clone at %s", device.Path)
	default:
		// Something answered, but not with a known version.
		device.Confidence = Medium
	}
	return true
}
