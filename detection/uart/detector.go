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

// Package uart detects MFRC522 readers on serial ports
package uart

import (
	"context"
	"fmt"
	"path/filepath"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/detection"
	uarttransport "github.com/ZaparooProject/go-mfrc522/transport/uart"
	"go.bug.st/serial"
)

// detector implements the Detector interface for serial devices
type detector struct{}

// New creates a new UART detector
func New() detection.Detector {
	return &detector{}
}

// init registers the detector on package import
func init() {
	detection.RegisterDetector(New())
}

// Transport returns the transport type
func (*detector) Transport() string {
	return "uart"
}

// Detect searches for readers on serial ports
func (*detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	ports, err := serial.GetPortsList()
	if err != nil || len(ports) == 0 {
		return nil, detection.ErrNoDevicesFound
	}

	var devices []detection.DeviceInfo
	for _, port := range ports {
		select {
		case <-ctx.Done():
			return devices, detection.ErrDetectionTimeout
		default:
		}

		if detection.IsPathIgnored(port, opts.IgnorePaths) {
			continue
		}
		if !detection.PathAccessible(port) {
			continue
		}

		device := detection.DeviceInfo{
			Transport:  "uart",
			Path:       port,
			Name:       fmt.Sprintf("serial port %s", filepath.Base(port)),
			Confidence: detection.Low,
			Metadata:   make(map[string]string),
		}

		// A serial port could be anything, so passive mode reports
		// nothing here.
		if opts.Mode == detection.Passive {
			continue
		}

		if probeDevice(port, &device) {
			devices = append(devices, device)
		}
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

// probeDevice reads the version register over the serial port
func probeDevice(port string, device *detection.DeviceInfo) bool {
	transport, err := uarttransport.New(port)
	if err != nil {
		return false
	}
	defer func() { _ = transport.Close() }()

	dev, err := mfrc522.New(transport)
	if err != nil {
		return false
	}
	version, err := dev.Version()
	if err != nil {
		return false
	}

	return detection.GradeVersion(version, device)
}
