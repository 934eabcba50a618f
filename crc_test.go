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

func TestCalcCRC_Success(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device, err := New(mock)
	require.NoError(t, err)

	mock.QueueReads(regDivIrq, irqCRC)
	mock.SetRegister(regCRCResultL, 0x28)
	mock.SetRegister(regCRCResultH, 0xDF)

	crc, err := device.calcCRC([]byte{piccCascade1, nvbSelect})
	require.NoError(t, err)

	// Wire order: low byte first.
	assert.Equal(t, [2]byte{0x28, 0xDF}, crc)
	assert.Equal(t, []byte{piccCascade1, nvbSelect}, mock.FIFOWritten())
}

func TestCalcCRC_BudgetExhausted(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device, err := New(mock, WithCRCBudget(4))
	require.NoError(t, err)

	// The completion flag never rises within the budget.
	mock.QueueReads(regDivIrq, 0x00, 0x00, 0x00, 0x00)
	mock.SetRegister(regCRCResultL, 0xAA)
	mock.SetRegister(regCRCResultH, 0xBB)

	_, err = device.calcCRC([]byte{0x01, 0x02})
	require.ErrorIs(t, err, ErrCRCTimeout)
}

func TestCalcCRC_StopsCoprocessorBeforeReadingResult(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device, err := New(mock)
	require.NoError(t, err)

	mock.QueueReads(regDivIrq, irqCRC)

	_, err = device.calcCRC([]byte{0x01})
	require.NoError(t, err)

	// The last command written must be idle, issued after the completion
	// flag and before the result registers are read.
	var lastCmd byte
	for _, w := range mock.Writes() {
		if w.Reg == regCommand {
			lastCmd = w.Value
		}
	}
	assert.Equal(t, byte(cmdIdle), lastCmd)
}

func TestCalcCRC_TransportError(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device, err := New(mock)
	require.NoError(t, err)

	mock.SetFIFOError(ErrTransportWrite)

	_, err = device.calcCRC([]byte{0x01})
	require.ErrorIs(t, err, ErrTransportWrite)
}
