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
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()
	tests := getIsRetryableTestCases()

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := IsRetryable(tt.err)
			if got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func getIsRetryableTestCases() []struct {
	err  error
	name string
	want bool
} {
	return []struct {
		err  error
		name string
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "transport timeout retryable",
			err:  ErrTransportTimeout,
			want: true,
		},
		{
			name: "transport read retryable",
			err:  ErrTransportRead,
			want: true,
		},
		{
			name: "transport write retryable",
			err:  ErrTransportWrite,
			want: true,
		},
		{
			name: "protocol timeout retryable",
			err:  ErrProtocolTimeout,
			want: true,
		},
		{
			name: "budget exhausted retryable",
			err:  ErrBudgetExhausted,
			want: true,
		},
		{
			name: "checksum mismatch retryable",
			err:  ErrChecksumMismatch,
			want: true,
		},
		{
			name: "short response retryable",
			err:  ErrShortResponse,
			want: true,
		},
		{
			name: "invalid parameter not retryable",
			err:  ErrInvalidParameter,
			want: false,
		},
		{
			name: "wrapped retryable",
			err:  fmt.Errorf("select: %w", ErrProtocolTimeout),
			want: true,
		},
		{
			name: "transport error transient",
			err:  NewTransportReadError("ReadRegister", "/dev/spidev0.0"),
			want: true,
		},
		{
			name: "transport error permanent",
			err:  NewTransportClosedError("WriteRegister", "/dev/spidev0.0"),
			want: false,
		},
		{
			name: "chip collision retryable",
			err:  &ChipError{Op: "transceive", Bits: errColl},
			want: true,
		},
		{
			name: "chip parity retryable",
			err:  &ChipError{Op: "transceive", Bits: errParity},
			want: true,
		},
		{
			name: "chip protocol not retryable",
			err:  &ChipError{Op: "transceive", Bits: errProtocol},
			want: false,
		},
	}
}

func TestIsNoCard(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "protocol timeout", err: ErrProtocolTimeout, want: true},
		{name: "budget exhausted", err: ErrBudgetExhausted, want: true},
		{name: "wrapped protocol timeout", err: fmt.Errorf("poll: %w", ErrProtocolTimeout), want: true},
		{name: "checksum mismatch", err: ErrChecksumMismatch, want: false},
		{name: "transport read", err: ErrTransportRead, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsNoCard(tt.err); got != tt.want {
				t.Errorf("IsNoCard() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "transport closed", err: ErrTransportClosed, want: true},
		{name: "EOF", err: io.EOF, want: true},
		{name: "closed pipe", err: io.ErrClosedPipe, want: true},
		{name: "device gone EIO", err: fmt.Errorf("read: %w", syscall.EIO), want: true},
		{name: "device gone ENODEV", err: syscall.ENODEV, want: true},
		{name: "permanent transport error", err: NewTransportClosedError("Close", ""), want: true},
		{name: "transient transport error", err: NewTransportReadError("ReadRegister", ""), want: false},
		{name: "protocol timeout", err: ErrProtocolTimeout, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransportError_Format(t *testing.T) {
	t.Parallel()

	err := NewTimeoutError("ReadRegister", "/dev/ttyUSB0")
	msg := err.Error()
	if !strings.Contains(msg, "ReadRegister") || !strings.Contains(msg, "/dev/ttyUSB0") {
		t.Errorf("unexpected error format: %q", msg)
	}
	if !errors.Is(err, ErrTransportTimeout) {
		t.Error("timeout error must unwrap to ErrTransportTimeout")
	}
}

func TestChipError_Describe(t *testing.T) {
	t.Parallel()

	err := &ChipError{Op: "transceive", Bits: errColl | errParity}
	msg := err.Error()
	if !strings.Contains(msg, "collision") || !strings.Contains(msg, "parity") {
		t.Errorf("unexpected chip error description: %q", msg)
	}

	if !err.IsCollision() || !err.IsParity() || err.IsCRC() || err.IsProtocol() {
		t.Error("error bit accessors disagree with the raised bits")
	}
}
