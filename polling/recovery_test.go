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
	"context"
	"errors"
	"testing"
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createMockDeviceWithTransport builds an uninitialized device over a mock
// register bus.
func createMockDeviceWithTransport(t *testing.T) (*mfrc522.Device, *mfrc522.MockTransport) {
	t.Helper()
	mock := mfrc522.NewMockTransport()
	device, err := mfrc522.New(mock, mfrc522.WithResetSettle(0))
	require.NoError(t, err)
	return device, mock
}

func TestNewDefaultRecoverer(t *testing.T) {
	t.Parallel()

	device, _ := createMockDeviceWithTransport(t)

	t.Run("WithDefaults", func(t *testing.T) {
		t.Parallel()
		r := NewDefaultRecoverer(device, nil, 0, 0)
		assert.NotNil(t, r)
		assert.Equal(t, 3, r.maxAttempts)
		assert.Equal(t, 500*time.Millisecond, r.backoff)
	})

	t.Run("WithCustomValues", func(t *testing.T) {
		t.Parallel()
		r := NewDefaultRecoverer(device, nil, 100*time.Millisecond, 5)
		assert.Equal(t, 5, r.maxAttempts)
		assert.Equal(t, 100*time.Millisecond, r.backoff)
	})
}

func TestDefaultRecoverer_ReinitSuccess(t *testing.T) {
	t.Parallel()

	device, _ := createMockDeviceWithTransport(t)
	r := NewDefaultRecoverer(device, nil, 10*time.Millisecond, 3)

	err := r.AttemptRecovery(context.Background())
	require.NoError(t, err)
	assert.Equal(t, device, r.GetDevice())
}

func TestDefaultRecoverer_FallsBackToReopen(t *testing.T) {
	t.Parallel()

	device, mock := createMockDeviceWithTransport(t)
	// Re-init over the old transport fails at the soft reset.
	mock.SetWriteError(0x01, errors.New("bus gone"))

	newDevice, _ := createMockDeviceWithTransport(t)
	reopen := func() (*mfrc522.Device, error) {
		if err := newDevice.Init(); err != nil {
			return nil, err
		}
		return newDevice, nil
	}

	r := NewDefaultRecoverer(device, reopen, time.Millisecond, 3)

	err := r.AttemptRecovery(context.Background())
	require.NoError(t, err)
	assert.Equal(t, newDevice, r.GetDevice())
	assert.False(t, mock.IsConnected())
}

func TestDefaultRecoverer_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	device, mock := createMockDeviceWithTransport(t)
	busErr := errors.New("bus gone")
	mock.SetWriteError(0x01, busErr)

	r := NewDefaultRecoverer(device, nil, time.Millisecond, 2)

	err := r.AttemptRecovery(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, busErr)
}

func TestDefaultRecoverer_ContextCancellation(t *testing.T) {
	t.Parallel()

	device, mock := createMockDeviceWithTransport(t)
	mock.SetWriteError(0x01, errors.New("bus gone"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Cancelled context aborts before the second attempt's backoff.
	r := NewDefaultRecoverer(device, nil, time.Hour, 3)
	err := r.AttemptRecovery(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
