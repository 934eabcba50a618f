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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGradeVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		wantName       string
		version        byte
		wantAnswered   bool
		wantConfidence Confidence
	}{
		{
			name:         "FloatingBusLow",
			version:      0x00,
			wantAnswered: false,
		},
		{
			name:         "FloatingBusHigh",
			version:      0xFF,
			wantAnswered: false,
		},
		{
			name:           "GenuineV1",
			version:        0x91,
			wantAnswered:   true,
			wantConfidence: High,
			wantName:       "MFRC522 v1.0 at /dev/spidev0.0",
		},
		{
			name:           "GenuineV2",
			version:        0x92,
			wantAnswered:   true,
			wantConfidence: High,
			wantName:       "MFRC522 v2.0 at /dev/spidev0.0",
		},
		{
			name:           "CloneFM17522",
			version:        0x88,
			wantAnswered:   true,
			wantConfidence: High,
			wantName:       "MFRC522 clone at /dev/spidev0.0",
		},
		{
			name:           "CloneB2",
			version:        0xB2,
			wantAnswered:   true,
			wantConfidence: High,
			wantName:       "MFRC522 clone at /dev/spidev0.0",
		},
		{
			name:           "UnknownResponder",
			version:        0x3A,
			wantAnswered:   true,
			wantConfidence: Medium,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			device := &DeviceInfo{
				Transport: "spi",
				Path:      "/dev/spidev0.0",
				Metadata:  map[string]string{},
			}
			answered := GradeVersion(tt.version, device)
			assert.Equal(t, tt.wantAnswered, answered)

			if !tt.wantAnswered {
				assert.Empty(t, device.Metadata)
				return
			}

			assert.Equal(t, tt.wantConfidence, device.Confidence)
			assert.NotEmpty(t, device.Metadata["version"])
			if tt.wantName != "" {
				assert.Equal(t, tt.wantName, device.Name)
			}
		})
	}
}
