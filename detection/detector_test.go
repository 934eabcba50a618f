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

package detection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDetector is a scriptable detector registered under a unique
// transport name so tests sharing the global registry stay independent.
type fakeDetector struct {
	err       error
	transport string
	devices   []DeviceInfo
	calls     int
}

func (f *fakeDetector) Detect(_ context.Context, opts *Options) ([]DeviceInfo, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return filterDevices(f.devices, opts), nil
}

func (f *fakeDetector) Transport() string { return f.transport }

// Registration is not synchronized (real detectors register from package
// init), so the fakes must register before any parallel test runs.
var (
	fakeOK = &fakeDetector{
		transport: "fake-ok",
		devices:   []DeviceInfo{{Transport: "fake-ok", Path: "/dev/fake1", Confidence: High}},
	}
	fakeCached = &fakeDetector{
		transport: "fake-cached",
		devices:   []DeviceInfo{{Transport: "fake-cached", Path: "/dev/fake2"}},
	}
	fakeErrDetector = &fakeDetector{transport: "fake-err", err: errBusUnreadable}
)

var errBusUnreadable = errors.New("bus unreadable")

func init() {
	RegisterDetector(fakeOK)
	RegisterDetector(fakeCached)
	RegisterDetector(fakeErrDetector)
	RegisterDetector(&fakeDetector{transport: "fake-empty"})
	RegisterDetector(&fakeDetector{transport: "fake-slow"})
}

func TestDeviceInfo_String(t *testing.T) {
	t.Parallel()

	info := DeviceInfo{Transport: "spi", Path: "/dev/spidev0.0", Confidence: High}
	assert.Equal(t, "spi device at /dev/spidev0.0 (confidence: high)", info.String())

	info.Confidence = Low
	assert.Contains(t, info.String(), "confidence: low")
}

func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	assert.Equal(t, Safe, opts.Mode)
	assert.Equal(t, 5*time.Second, opts.Timeout)
	assert.True(t, opts.EnableCache)
	assert.Equal(t, 30*time.Second, opts.CacheTTL)
}

func TestIsPathIgnored(t *testing.T) {
	t.Parallel()

	ignore := []string{"/dev/ttyUSB0", "/dev/spidev0.1"}
	assert.True(t, IsPathIgnored("/dev/ttyUSB0", ignore))
	assert.False(t, IsPathIgnored("/dev/ttyUSB1", ignore))
	assert.False(t, IsPathIgnored("/dev/ttyUSB0", nil))
}

func TestFilterDevices(t *testing.T) {
	t.Parallel()

	devices := []DeviceInfo{
		{Transport: "spi", Path: "/dev/spidev0.0"},
		{Transport: "spi", Path: "/dev/spidev0.1"},
	}

	opts := &Options{IgnorePaths: []string{"/dev/spidev0.1"}}
	filtered := filterDevices(devices, opts)
	require.Len(t, filtered, 1)
	assert.Equal(t, "/dev/spidev0.0", filtered[0].Path)

	// No ignore list passes everything through.
	assert.Len(t, filterDevices(devices, &Options{}), 2)
}

func TestCache_SetGetExpiry(t *testing.T) {
	t.Parallel()

	devices := []DeviceInfo{{Transport: "cache-test", Path: "/dev/fake0"}}
	setCached("cache-test", devices)

	got, found := getCached("cache-test", time.Minute)
	require.True(t, found)
	require.Len(t, got, 1)
	assert.Equal(t, "/dev/fake0", got[0].Path)

	// Mutating the returned slice must not affect the cache.
	got[0].Path = "/dev/mutated"
	again, found := getCached("cache-test", time.Minute)
	require.True(t, found)
	assert.Equal(t, "/dev/fake0", again[0].Path)

	// A zero TTL expires everything immediately.
	_, found = getCached("cache-test", 0)
	assert.False(t, found)

	clearCacheForTransport("cache-test")
	_, found = getCached("cache-test", time.Minute)
	assert.False(t, found)
}

func TestDetectAll_ReturnsDevices(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.Transports = []string{"fake-ok"}
	opts.EnableCache = false

	devices, err := DetectAll(context.Background(), &opts)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "/dev/fake1", devices[0].Path)
}

func TestDetectAll_NoDevices(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.Transports = []string{"fake-empty"}
	opts.EnableCache = false

	_, err := DetectAll(context.Background(), &opts)
	require.ErrorIs(t, err, ErrNoDevicesFound)
}

func TestDetectAll_DetectorError(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.Transports = []string{"fake-err"}
	opts.EnableCache = false

	_, err := DetectAll(context.Background(), &opts)
	require.ErrorIs(t, err, errBusUnreadable)
}

func TestDetectAll_UnknownTransport(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.Transports = []string{"no-such-transport"}

	_, err := DetectAll(context.Background(), &opts)
	require.Error(t, err)
}

func TestDetectAll_UsesCache(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.Transports = []string{"fake-cached"}

	_, err := DetectAll(context.Background(), &opts)
	require.NoError(t, err)
	require.Equal(t, 1, fakeCached.calls)

	// Second run inside the TTL is served from cache.
	devices, err := DetectAll(context.Background(), &opts)
	require.NoError(t, err)
	assert.Equal(t, 1, fakeCached.calls)
	require.Len(t, devices, 1)

	// Ignore paths still apply to cached results.
	opts.IgnorePaths = []string{"/dev/fake2"}
	_, err = DetectAll(context.Background(), &opts)
	require.ErrorIs(t, err, ErrNoDevicesFound)

	clearCacheForTransport("fake-cached")
}

func TestDetectAll_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := DefaultOptions()
	opts.Transports = []string{"fake-slow"}
	opts.EnableCache = false

	// The result channel is buffered, so either the result or the
	// timeout may win; both are acceptable terminal states.
	_, err := DetectAll(ctx, &opts)
	require.Error(t, err)
}
