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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device, err := New(mock)
	require.NoError(t, err)
	assert.NotNil(t, device)
	assert.Equal(t, mock, device.Transport())
	assert.Nil(t, device.UID())
}

func TestNew_OptionError(t *testing.T) {
	t.Parallel()

	device, err := New(NewMockTransport(), WithTransceiveBudget(0))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidParameter)
	assert.Nil(t, device)
}

func TestDevice_Init_WriteOrder(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device, err := New(mock, WithResetSettle(0))
	require.NoError(t, err)

	require.NoError(t, device.Init())

	want := []RegisterWrite{
		{regCommand, cmdSoftReset},
		{regTMode, initTMode},
		{regTPrescaler, initTPrescaler},
		{regTReloadL, initTReload},
		{regTReloadH, 0x00},
		{regTxASK, initTxASK},
		{regMode, initMode},
		{regTxControl, antennaDriverMask},
	}
	assert.Equal(t, want, mock.Writes())
}

func TestDevice_Init_SkipAntenna(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device, err := New(mock, WithResetSettle(0), WithoutAntenna())
	require.NoError(t, err)

	require.NoError(t, device.Init())
	assert.Zero(t, mock.WriteCount(regTxControl))
}

func TestDevice_Init_AntennaAlreadyOn(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.SetRegister(regTxControl, antennaDriverMask)
	device, err := New(mock, WithResetSettle(0))
	require.NoError(t, err)

	require.NoError(t, device.Init())
	// Idempotent: no write when both driver bits are already set.
	assert.Zero(t, mock.WriteCount(regTxControl))
}

func TestDevice_Init_AppliesGain(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device, err := New(mock, WithResetSettle(0), WithGain(5))
	require.NoError(t, err)

	require.NoError(t, device.Init())

	gain, err := device.Gain()
	require.NoError(t, err)
	assert.Equal(t, byte(5), gain)
}

func TestDevice_Init_TransportError(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.SetWriteError(regTMode, ErrTransportWrite)
	device, err := New(mock, WithResetSettle(0))
	require.NoError(t, err)

	err = device.Init()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTransportWrite)
}

func TestDevice_UID_ReturnsCopy(t *testing.T) {
	t.Parallel()

	device, err := New(NewMockTransport())
	require.NoError(t, err)
	device.uid = []byte{0x04, 0xA1, 0xB2, 0xC3}

	uid := device.UID()
	uid[0] = 0xFF
	assert.Equal(t, []byte{0x04, 0xA1, 0xB2, 0xC3}, device.UID())
}

func TestDevice_SetTimeout(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device, err := New(mock)
	require.NoError(t, err)

	require.NoError(t, device.SetTimeout(250*time.Millisecond))
	assert.Equal(t, 250*time.Millisecond, device.config.Timeout)
}

func TestDevice_Close(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device, err := New(mock)
	require.NoError(t, err)

	require.NoError(t, device.Close())
	assert.False(t, mock.IsConnected())
}
