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

package polling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	assert.Equal(t, 250*time.Millisecond, config.PollInterval)
	assert.Equal(t, 600*time.Millisecond, config.CardRemovalTimeout)
	assert.True(t, config.SleepRecovery.Enabled)
	assert.Equal(t, 2*time.Second, config.SleepRecovery.TimeDiscontinuityThreshold)
}

func TestSleepRecoveryConfig_DetectSleep(t *testing.T) {
	t.Parallel()

	cfg := DefaultSleepRecoveryConfig()
	pollInterval := 250 * time.Millisecond

	tests := []struct {
		name    string
		elapsed time.Duration
		want    bool
	}{
		{"NormalCycle", 250 * time.Millisecond, false},
		{"SlowButAwake", 2 * time.Second, false},
		{"JustUnderThreshold", pollInterval + 2*time.Second, false},
		{"SleepDetected", pollInterval + 2*time.Second + time.Millisecond, true},
		{"LongSleep", time.Hour, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, cfg.DetectSleep(tt.elapsed, pollInterval))
		})
	}
}

func TestSleepRecoveryConfig_DetectSleep_Disabled(t *testing.T) {
	t.Parallel()

	cfg := DefaultSleepRecoveryConfig()
	cfg.Enabled = false
	assert.False(t, cfg.DetectSleep(time.Hour, 250*time.Millisecond))
}
