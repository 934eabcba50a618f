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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetBitmask_PreservesUnrelatedBits(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.SetRegister(regTxControl, 0x40)
	device, err := New(mock)
	require.NoError(t, err)

	require.NoError(t, device.setBitmask(regTxControl, 0x03))

	value, err := mock.ReadRegister(regTxControl)
	require.NoError(t, err)
	assert.Equal(t, byte(0x43), value)
}

func TestClearBitmask(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.SetRegister(regTxControl, 0x43)
	device, err := New(mock)
	require.NoError(t, err)

	require.NoError(t, device.clearBitmask(regTxControl, 0x03))

	value, err := mock.ReadRegister(regTxControl)
	require.NoError(t, err)
	assert.Equal(t, byte(0x40), value)
}

func TestAntennaOnOff(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device, err := New(mock)
	require.NoError(t, err)

	require.NoError(t, device.AntennaOn())
	value, err := mock.ReadRegister(regTxControl)
	require.NoError(t, err)
	assert.Equal(t, byte(antennaDriverMask), value&antennaDriverMask)

	require.NoError(t, device.AntennaOff())
	value, err = mock.ReadRegister(regTxControl)
	require.NoError(t, err)
	assert.Zero(t, value&antennaDriverMask)
}

func TestAntennaOn_PartiallyEnabled(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	// Only one driver bit set: not fully on, must be completed.
	mock.SetRegister(regTxControl, tx1RFEn)
	device, err := New(mock)
	require.NoError(t, err)

	require.NoError(t, device.AntennaOn())
	value, err := mock.ReadRegister(regTxControl)
	require.NoError(t, err)
	assert.Equal(t, byte(antennaDriverMask), value&antennaDriverMask)
}

func TestVersion(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.SetRegister(regVersion, 0x92)
	device, err := New(mock)
	require.NoError(t, err)

	version, err := device.Version()
	require.NoError(t, err)
	assert.Equal(t, byte(0x92), version)
}

func TestFlushFIFO(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device, err := New(mock)
	require.NoError(t, err)

	require.NoError(t, device.flushFIFO())

	writes := mock.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, RegisterWrite{Reg: regFIFOLevel, Value: fifoFlush}, writes[0])
}
