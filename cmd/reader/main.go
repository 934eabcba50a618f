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

// Command reader connects to an MFRC522 and either reads a single card or
// continuously monitors for cards.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/detection"
	_ "github.com/ZaparooProject/go-mfrc522/detection/i2c"
	_ "github.com/ZaparooProject/go-mfrc522/detection/spi"
	_ "github.com/ZaparooProject/go-mfrc522/detection/uart"
	"github.com/ZaparooProject/go-mfrc522/polling"
	"github.com/ZaparooProject/go-mfrc522/transport/i2c"
	"github.com/ZaparooProject/go-mfrc522/transport/spi"
	"github.com/ZaparooProject/go-mfrc522/transport/uart"
)

type config struct {
	devicePath string
	gain       int
	once       bool
	debug      bool
}

// Package-level flag variables
var (
	flagDevicePath string
	flagGain       int
	flagOnce       bool
	flagDebug      bool
)

func init() {
	flag.StringVar(&flagDevicePath, "device", "", "Device path (auto-detect if empty)")
	flag.IntVar(&flagGain, "gain", -1, "Receiver gain step 0-7 (chip default if negative)")
	flag.BoolVar(&flagOnce, "once", false, "Read a single card and exit")
	flag.BoolVar(&flagDebug, "debug", false, "Enable debug output")
}

func parseConfig() *config {
	cfg := &config{
		devicePath: flagDevicePath,
		gain:       flagGain,
		once:       flagOnce,
		debug:      flagDebug,
	}

	if cfg.debug {
		mfrc522.SetDebugEnabled(true)
	}

	return cfg
}

// newTransport creates a transport from a device path by inspecting its shape.
func newTransport(path string) (mfrc522.RegisterTransport, error) {
	if path == "" {
		return nil, errors.New("empty device path")
	}

	pathLower := strings.ToLower(path)

	if strings.Contains(pathLower, "i2c") {
		transport, err := i2c.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create I2C transport for %s: %w", path, err)
		}
		return transport, nil
	}

	if strings.Contains(pathLower, "spi") {
		transport, err := spi.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SPI transport for %s: %w", path, err)
		}
		return transport, nil
	}

	// Default to UART for serial ports
	transport, err := uart.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create UART transport for %s: %w", path, err)
	}
	return transport, nil
}

// autoDetectPath finds the first reader the detection package can confirm.
func autoDetectPath(ctx context.Context, cfg *config) (string, error) {
	if cfg.debug {
		_, _ = fmt.Println("Auto-detecting MFRC522 devices...")
	}

	opts := detection.DefaultOptions()
	detectCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	devices, err := detection.DetectAll(detectCtx, &opts)
	if err != nil {
		return "", fmt.Errorf("device detection failed: %w", err)
	}

	// Prefer the highest-confidence device.
	best := devices[0]
	for _, device := range devices[1:] {
		if device.Confidence > best.Confidence {
			best = device
		}
	}
	if cfg.debug {
		_, _ = fmt.Printf("Found: %s\n", best)
	}
	return best.Path, nil
}

func connectToDevice(ctx context.Context, cfg *config) (*mfrc522.Device, error) {
	path := cfg.devicePath
	if path == "" {
		detected, err := autoDetectPath(ctx, cfg)
		if err != nil {
			return nil, err
		}
		path = detected
	} else if cfg.debug {
		_, _ = fmt.Printf("Opening device: %s\n", path)
	}

	transport, err := newTransport(path)
	if err != nil {
		return nil, err
	}

	var opts []mfrc522.Option
	if cfg.gain >= 0 {
		opts = append(opts, mfrc522.WithGain(byte(cfg.gain)))
	}

	device, err := mfrc522.New(transport, opts...)
	if err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("failed to create device: %w", err)
	}
	if err := device.Init(); err != nil {
		_ = device.Close()
		return nil, fmt.Errorf("failed to initialize device: %w", err)
	}

	if cfg.debug {
		if version, versionErr := device.Version(); versionErr == nil {
			_, _ = fmt.Printf("MFRC522 version register: 0x%02X\n", version)
		}
	}

	return device, nil
}

// runOnceMode polls until one card is read, prints it, and exits.
func runOnceMode(ctx context.Context, device *mfrc522.Device) error {
	_, _ = fmt.Println("Waiting for a card...")

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		present, err := device.IsCardPresent()
		if err != nil {
			return fmt.Errorf("card detection failed: %w", err)
		}
		if present {
			// A marginal card often garbles one cascade pass; retry the
			// whole read with backoff before giving up on this tick.
			var card *mfrc522.Card
			err := mfrc522.RetryWithConfig(ctx, mfrc522.DefaultRetryConfig(), func() error {
				var readErr error
				card, readErr = device.ReadCard()
				return readErr
			})
			if err == nil {
				_, _ = fmt.Printf("%s\n", card)
				_, _ = fmt.Printf("Manufacturer: %s\n", mfrc522.GetManufacturer(card.UID))
				return nil
			}
			if !mfrc522.IsNoCard(err) && !mfrc522.IsRetryable(err) {
				return fmt.Errorf("card read failed: %w", err)
			}
			// Card left during the cascade, try again next tick.
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// runMonitorMode continuously monitors for cards until interrupted.
func runMonitorMode(ctx context.Context, device *mfrc522.Device) error {
	session := polling.NewSession(device, polling.DefaultConfig())

	// Ensure session cleanup for fast shutdown
	defer func() {
		if err := session.Close(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close session: %v\n", err)
		}
	}()

	_, _ = fmt.Println("Starting continuous card monitoring. Press Ctrl+C to stop...")

	session.OnCardDetected = func(card *mfrc522.Card) error {
		_, _ = fmt.Printf("Card detected: %s\n", card)
		return nil // Continue monitoring
	}
	session.OnCardChanged = func(card *mfrc522.Card) error {
		_, _ = fmt.Printf("Card changed: %s\n", card)
		return nil
	}
	session.OnCardRemoved = func() {
		_, _ = fmt.Println("Card removed - ready for next card...")
	}

	// Start the session in a goroutine to allow for immediate cancellation
	done := make(chan error, 1)
	go func() {
		done <- session.Start(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
		return nil
	case <-ctx.Done():
		// Context cancelled - session.Close() will be called by defer
		return ctx.Err()
	}
}

func run(ctx context.Context, cfg *config) error {
	device, err := connectToDevice(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := device.Close(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close device: %v\n", err)
		}
	}()

	if cfg.once {
		return runOnceMode(ctx, device)
	}
	return runMonitorMode(ctx, device)
}

func main() {
	flag.Parse()
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	cfg := parseConfig()

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		_, _ = fmt.Print("\nShutting down gracefully...\n")
		cancel()
	}()

	if err := run(ctx, cfg); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
