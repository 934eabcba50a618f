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

package uart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressFraming(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		reg       byte
		wantRead  byte
		wantWrite byte
	}{
		{"CommandReg", 0x01, 0x81, 0x01},
		{"FIFODataReg", 0x09, 0x89, 0x09},
		{"VersionReg", 0x37, 0xB7, 0x37},
		{"HighestReg", 0x3F, 0xBF, 0x3F},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantRead, readAddress(tt.reg))
			assert.Equal(t, tt.wantWrite, writeAddress(tt.reg))
		})
	}
}

func TestAddressFraming_AddressBitsOnly(t *testing.T) {
	t.Parallel()

	// The serial framing only has six address bits; anything above must
	// be masked off rather than corrupt the direction bit.
	assert.Equal(t, byte(0x01), writeAddress(0x41))
	assert.Equal(t, byte(0x81), readAddress(0x41))
}

func TestDefaultTimeout(t *testing.T) {
	t.Parallel()

	assert.Positive(t, defaultTimeout())
}
