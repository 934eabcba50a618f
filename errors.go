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
	"runtime"
	"strings"
	"syscall"
)

// Error categories for error handling and retry logic
var (
	// Transport errors - potentially retryable
	ErrTransportTimeout = errors.New("transport timeout")
	ErrTransportWrite   = errors.New("transport write failed")
	ErrTransportRead    = errors.New("transport read failed")
	ErrTransportClosed  = errors.New("transport is closed")

	// Protocol outcomes - expected during normal polling
	ErrProtocolTimeout = errors.New("card did not answer before the chip timer expired")
	ErrBudgetExhausted = errors.New("completion flag not observed within the iteration budget")
	ErrCRCTimeout      = errors.New("CRC coprocessor did not finish within the iteration budget")

	// Card selection errors - abort the whole read attempt
	ErrChecksumMismatch = errors.New("anticollision check byte mismatch")
	ErrCascadeExhausted = errors.New("cascade levels exhausted without UID completion")
	ErrShortResponse    = errors.New("card response shorter than expected")
	ErrNoResponse       = errors.New("card returned no response bytes")

	// Data errors - not retryable
	ErrInvalidParameter = errors.New("invalid parameter")
)

// ErrorType represents the category of error for retry logic
type ErrorType int

const (
	// ErrorTypeTransient indicates a potentially retryable error
	ErrorTypeTransient ErrorType = iota
	// ErrorTypePermanent indicates a non-retryable error
	ErrorTypePermanent
	// ErrorTypeTimeout indicates a timeout error (special handling)
	ErrorTypeTimeout
)

// TransportError wraps bus-level errors with additional context
type TransportError struct {
	Err       error     // Underlying error
	Op        string    // Operation that failed
	Port      string    // Port or device identifier
	Type      ErrorType // Error category
	Retryable bool      // Whether the error is retryable
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ChipError reports error-register bits raised by the chip after a
// transceive. The bits are from regError, datasheet section 9.3.1.4.
type ChipError struct {
	Op   string
	Bits byte
}

func (e *ChipError) Error() string {
	return fmt.Sprintf("%s: chip error bits 0x%02X (%s)", e.Op, e.Bits, describeErrorBits(e.Bits))
}

// IsCollision returns true if more than one card answered at once
func (e *ChipError) IsCollision() bool {
	return e.Bits&errColl != 0
}

// IsParity returns true if the parity check failed
func (e *ChipError) IsParity() bool {
	return e.Bits&errParity != 0
}

// IsCRC returns true if the hardware CRC check failed
func (e *ChipError) IsCRC() bool {
	return e.Bits&errCRC != 0
}

// IsProtocol returns true if the card's frame violated ISO14443 framing
func (e *ChipError) IsProtocol() bool {
	return e.Bits&errProtocol != 0
}

// describeErrorBits decodes regError bits into a readable list
func describeErrorBits(bits byte) string {
	names := []struct {
		bit  byte
		name string
	}{
		{errProtocol, "protocol"},
		{errParity, "parity"},
		{errCRC, "crc"},
		{errColl, "collision"},
		{errBufferOv, "buffer overflow"},
	}

	var set []string
	for _, n := range names {
		if bits&n.bit != 0 {
			set = append(set, n.name)
		}
	}
	if len(set) == 0 {
		return "none"
	}
	return strings.Join(set, ",")
}

// IsRetryable returns true if the error is potentially retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	// Collisions and parity faults clear up when the card settles in the
	// field; a fresh read attempt is worthwhile.
	var ce *ChipError
	if errors.As(err, &ce) {
		return ce.IsCollision() || ce.IsParity() || ce.IsCRC()
	}

	switch {
	case errors.Is(err, ErrTransportTimeout),
		errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrProtocolTimeout),
		errors.Is(err, ErrBudgetExhausted),
		errors.Is(err, ErrChecksumMismatch),
		errors.Is(err, ErrShortResponse),
		errors.Is(err, ErrNoResponse):
		return true
	default:
		return false
	}
}

// IsNoCard returns true if the error only means no card answered in the RF
// field. Polling loops treat this as an idle cycle, not a fault.
func IsNoCard(err error) bool {
	return errors.Is(err, ErrProtocolTimeout) || errors.Is(err, ErrBudgetExhausted)
}

// IsFatal returns true if the error indicates the device/connection is gone
// and polling should stop entirely. This is distinct from IsRetryable which
// indicates whether a single operation can be retried.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type == ErrorTypePermanent
	}

	if isDeviceGoneError(err) {
		return true
	}

	switch {
	case errors.Is(err, ErrTransportClosed),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrClosedPipe):
		return true
	default:
		return false
	}
}

// Windows error codes for device disconnection detection.
// These are defined here because they're not available on non-Windows platforms.
const (
	errAccessDenied syscall.Errno = 5   // ERROR_ACCESS_DENIED
	errGenFailure   syscall.Errno = 31  // ERROR_GEN_FAILURE
	errNoSuchDevice syscall.Errno = 433 // ERROR_NO_SUCH_DEVICE
)

// isDeviceGoneError checks for OS-level errors indicating device
// disconnection, such as a USB bus adapter being unplugged mid-operation.
func isDeviceGoneError(err error) bool {
	if err == nil {
		return false
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		//nolint:exhaustive // Only checking specific device-gone errors, not all errno values
		switch errno {
		case syscall.EIO, syscall.ENXIO, syscall.ENODEV:
			return true
		}

		if runtime.GOOS == "windows" {
			//nolint:exhaustive // Only checking specific device-gone errors, not all errno values
			switch errno {
			case errAccessDenied, errGenFailure, errNoSuchDevice:
				return true
			}
		}
	}

	return false
}

// Error constructors for consistent error creation

// NewTransportError creates a standard transport error with consistent formatting
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType == ErrorTypeTransient || errType == ErrorTypeTimeout,
	}
}

// NewTimeoutError creates a timeout error for transport operations
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, ErrorTypeTimeout)
}

// NewTransportWriteError creates a write error (transient)
func NewTransportWriteError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportWrite, ErrorTypeTransient)
}

// NewTransportReadError creates a read error (transient)
func NewTransportReadError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportRead, ErrorTypeTransient)
}

// NewTransportClosedError creates a closed-transport error (permanent)
func NewTransportClosedError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportClosed, ErrorTypePermanent)
}
