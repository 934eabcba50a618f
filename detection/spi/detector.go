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

// Package spi detects MFRC522 readers on SPI buses
package spi

import (
	"context"
	"fmt"
	"path/filepath"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/detection"
	spitransport "github.com/ZaparooProject/go-mfrc522/transport/spi"
)

// detector implements the Detector interface for SPI devices
type detector struct{}

// New creates a new SPI detector
func New() detection.Detector {
	return &detector{}
}

// init registers the detector on package import
func init() {
	detection.RegisterDetector(New())
}

// Transport returns the transport type
func (*detector) Transport() string {
	return "spi"
}

// Detect searches for readers on SPI buses
func (*detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	paths, err := filepath.Glob("/dev/spidev*")
	if err != nil || len(paths) == 0 {
		return nil, detection.ErrNoDevicesFound
	}

	var devices []detection.DeviceInfo
	for _, path := range paths {
		select {
		case <-ctx.Done():
			return devices, detection.ErrDetectionTimeout
		default:
		}

		if detection.IsPathIgnored(path, opts.IgnorePaths) {
			continue
		}
		if !detection.PathAccessible(path) {
			continue
		}

		device := detection.DeviceInfo{
			Transport:  "spi",
			Path:       path,
			Name:       fmt.Sprintf("SPI device %s", filepath.Base(path)),
			Confidence: detection.Low,
			Metadata:   make(map[string]string),
		}

		if opts.Mode == detection.Passive {
			devices = append(devices, device)
			continue
		}

		if probeDevice(path, &device) {
			devices = append(devices, device)
		}
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

// probeDevice reads the version register over the candidate bus and
// upgrades confidence when an MFRC522 (or a known clone) answers.
func probeDevice(path string, device *detection.DeviceInfo) bool {
	transport, err := spitransport.New(path)
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
