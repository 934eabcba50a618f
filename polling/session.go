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

// Package polling provides continuous card monitoring on top of a reader
// device. A Session drives wakeup and anticollision cycles at a fixed
// interval and reports card arrival, change and removal through callbacks.
package polling

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/internal/syncutil"
)

// Session handles continuous card monitoring with a state machine
type Session struct {
	config         *Config
	OnCardDetected func(card *mfrc522.Card) error
	OnCardRemoved  func()
	OnCardChanged  func(card *mfrc522.Card) error
	pauseChan      chan struct{}
	resumeChan     chan struct{}
	ackChan        chan struct{}
	device         *mfrc522.Device
	recoverer      DeviceRecoverer
	lastCycle      time.Time
	state          CardState
	stateMutex     syncutil.RWMutex
	opMutex        syncutil.Mutex
	closed         atomic.Bool
	isPaused       atomic.Bool
}

// NewSession creates a new card monitoring session
func NewSession(device *mfrc522.Device, config *Config) *Session {
	if config == nil {
		config = DefaultConfig()
	}
	return &Session{
		device:     device,
		config:     config,
		state:      CardState{},
		pauseChan:  make(chan struct{}, 1),
		resumeChan: make(chan struct{}, 1),
		ackChan:    make(chan struct{}, 1),
	}
}

// SetRecoverer installs a recoverer used after host sleep/wake cycles and
// fatal device errors. Without one the session returns such errors to the
// caller of Start.
func (s *Session) SetRecoverer(recoverer DeviceRecoverer) {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()
	s.recoverer = recoverer
}

// Start begins continuous monitoring for cards. It blocks until the
// context is cancelled or an unrecoverable error occurs.
func (s *Session) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		if err := s.handleContextAndPause(ctx); err != nil {
			return err
		}

		if err := s.executePollingCycle(ctx); err != nil {
			return err
		}

		if err := s.waitForNextPollOrPause(ctx, ticker); err != nil {
			return err
		}
	}
}

// GetState returns the current card state
func (s *Session) GetState() CardState {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return s.state
}

// GetDevice returns the underlying reader device
func (s *Session) GetDevice() *mfrc522.Device {
	return s.device
}

// SetOnCardDetected sets the callback for when a card is detected.
func (s *Session) SetOnCardDetected(callback func(*mfrc522.Card) error) {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()
	s.OnCardDetected = callback
}

// SetOnCardRemoved sets the callback for when a card is removed.
func (s *Session) SetOnCardRemoved(callback func()) {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()
	s.OnCardRemoved = callback
}

// SetOnCardChanged sets the callback for when the card changes.
func (s *Session) SetOnCardChanged(callback func(*mfrc522.Card) error) {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()
	s.OnCardChanged = callback
}

// Close cleans up the monitor resources
func (s *Session) Close() error {
	// Mark session as closed to prevent timer callbacks from executing
	s.closed.Store(true)

	// Stop any running removal timer
	s.stateMutex.Lock()
	if s.state.RemovalTimer != nil {
		safeTimerStop(s.state.RemovalTimer)
		s.state.RemovalTimer = nil
	}
	s.stateMutex.Unlock()

	// Reset pause state and drain channels to prevent corruption
	s.isPaused.Store(false)
	select {
	case <-s.pauseChan:
	default:
	}
	select {
	case <-s.resumeChan:
	default:
	}

	return nil
}

// Pause temporarily stops the polling loop
func (s *Session) Pause() {
	if s.isPaused.CompareAndSwap(false, true) {
		// Non-blocking send for when no loop is running - the isPaused
		// flag alone is enough in that case.
		select {
		case s.pauseChan <- struct{}{}:
		default:
		}
	}
}

// Resume restarts the polling loop after a pause
func (s *Session) Resume() {
	if s.isPaused.CompareAndSwap(true, false) {
		select {
		case s.resumeChan <- struct{}{}:
		default:
		}
	}
}

// pauseWithAck pauses polling and waits for acknowledgment
func (s *Session) pauseWithAck(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if s.isPaused.Load() {
		return nil
	}
	if !s.isPaused.CompareAndSwap(false, true) {
		return nil // Another goroutine beat us to it
	}

	select {
	case s.pauseChan <- struct{}{}:
		// Wait for the polling goroutine to acknowledge, with a timeout
		// for when no loop is running.
		ackTimeout := time.NewTimer(100 * time.Millisecond)
		defer ackTimeout.Stop()

		select {
		case <-s.ackChan:
			return nil
		case <-ackTimeout.C:
			return nil
		case <-ctx.Done():
			s.isPaused.Store(false)
			return ctx.Err()
		}
	case <-ctx.Done():
		s.isPaused.Store(false)
		return ctx.Err()
	default:
		// Channel full or no receiver - isPaused flag is set, that's enough
		return nil
	}
}

// WithExclusiveAccess pauses polling, runs fn with exclusive use of the
// device, then resumes polling. Card-level transactions from other
// goroutines must go through this to avoid interleaving with poll cycles.
func (s *Session) WithExclusiveAccess(ctx context.Context, fn func(*mfrc522.Device) error) error {
	s.opMutex.Lock()
	defer s.opMutex.Unlock()

	if err := s.pauseWithAck(ctx); err != nil {
		return fmt.Errorf("failed to pause polling: %w", err)
	}
	defer s.Resume()

	return fn(s.device)
}

// handleContextAndPause checks for cancellation and pause requests before
// a polling cycle runs
func (s *Session) handleContextAndPause(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.pauseChan:
		return s.waitForResume(ctx)
	default:
		return nil
	}
}

// waitForNextPollOrPause waits for the next poll interval or handles pause signals
func (s *Session) waitForNextPollOrPause(ctx context.Context, ticker *time.Ticker) error {
	select {
	case <-ticker.C:
		return nil
	case <-s.pauseChan:
		// Acknowledge so pauseWithAck callers know the loop is idle
		select {
		case s.ackChan <- struct{}{}:
		default:
		}
		return s.waitForResume(ctx)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) waitForResume(ctx context.Context) error {
	select {
	case <-s.resumeChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// executePollingCycle performs one polling cycle and processes results
func (s *Session) executePollingCycle(ctx context.Context) error {
	if err := s.checkSleepRecovery(ctx); err != nil {
		return err
	}

	card, err := s.performSinglePoll()
	if err != nil {
		if !errors.Is(err, ErrNoCardInPoll) {
			if fatalErr := s.handlePollingError(ctx, err); fatalErr != nil {
				return fatalErr
			}
		}
		return nil
	}

	if err := s.processPollingResults(card); err != nil {
		return fmt.Errorf("callback error during polling: %w", err)
	}
	return nil
}

// checkSleepRecovery detects a host sleep/wake gap between cycles and runs
// the recoverer if one is installed
func (s *Session) checkSleepRecovery(ctx context.Context) error {
	now := time.Now()
	last := s.lastCycle
	s.lastCycle = now

	if last.IsZero() {
		return nil
	}
	if !s.config.SleepRecovery.DetectSleep(now.Sub(last), s.config.PollInterval) {
		return nil
	}

	mfrc522.Debugf("polling: time discontinuity of %v detected, re-initializing", now.Sub(last))

	s.stateMutex.RLock()
	recoverer := s.recoverer
	s.stateMutex.RUnlock()

	if recoverer == nil {
		// No recoverer: a plain re-init over the existing transport is
		// still worth attempting before giving up.
		if err := s.device.Init(); err != nil {
			return fmt.Errorf("re-init after sleep failed: %w", err)
		}
		return nil
	}

	if err := recoverer.AttemptRecovery(ctx); err != nil {
		return fmt.Errorf("sleep recovery failed: %w", err)
	}
	s.device = recoverer.GetDevice()
	return nil
}

// performSinglePoll performs a single wakeup and read cycle
func (s *Session) performSinglePoll() (*mfrc522.Card, error) {
	present, err := s.device.IsCardPresent()
	if err != nil {
		return nil, fmt.Errorf("card detection failed: %w", err)
	}
	if !present {
		return nil, ErrNoCardInPoll
	}

	card, err := s.device.ReadCard()
	if err != nil {
		// The card answered the wakeup but left before the cascade
		// finished. Treat as not present; the removal timer decides.
		if mfrc522.IsNoCard(err) || mfrc522.IsRetryable(err) {
			return nil, ErrNoCardInPoll
		}
		return nil, fmt.Errorf("card read failed: %w", err)
	}
	return card, nil
}

// handlePollingError handles errors from polling operations. It returns a
// non-nil error only when the session should stop.
func (s *Session) handlePollingError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return nil
	}

	if mfrc522.IsFatal(err) {
		s.stateMutex.RLock()
		recoverer := s.recoverer
		s.stateMutex.RUnlock()

		if recoverer != nil {
			if recErr := recoverer.AttemptRecovery(ctx); recErr == nil {
				s.device = recoverer.GetDevice()
				s.handleCardRemoval()
				return nil
			}
		}
		return err
	}

	// Transient device error: treat like an empty field and let the
	// removal timer handle the card state.
	s.handleCardRemoval()
	return nil
}

// handleCardRemoval handles card removal state changes
func (s *Session) handleCardRemoval() {
	// Bail out if session is closed to prevent timer callbacks from
	// executing after cleanup
	if s.closed.Load() {
		return
	}

	s.stateMutex.Lock()
	// If we're in reading state, a new poll cycle is actively processing.
	// This handles the edge case where timer.Stop() returned false (the
	// callback already spawned) but the callback runs after
	// TransitionToReading() released the lock.
	if s.state.DetectionState == StateReading {
		s.stateMutex.Unlock()
		return
	}
	wasPresent := s.state.Present
	if wasPresent {
		s.state.TransitionToIdle()
	}
	onRemoved := s.OnCardRemoved
	s.stateMutex.Unlock()

	// Call callback outside the lock to avoid potential deadlocks
	if wasPresent && onRemoved != nil {
		onRemoved()
	}
}

// processPollingResults processes the detected card and returns any callback errors
func (s *Session) processPollingResults(card *mfrc522.Card) error {
	if card == nil {
		return nil
	}

	// Stop any existing removal timer and transition to reading state
	// BEFORE calling callbacks, so the old timer cannot fire during
	// callback execution.
	s.stateMutex.Lock()
	s.state.TransitionToReading()
	s.stateMutex.Unlock()

	cardChanged, err := s.updateCardState(card)
	if err != nil {
		return err
	}

	// After callbacks complete, set up the appropriate timer
	s.stateMutex.Lock()
	if cardChanged {
		s.state.TransitionToPostReadGrace(s.config.CardRemovalTimeout, func() {
			s.handleCardRemoval()
		})
	} else {
		s.state.TransitionToDetected(s.config.CardRemovalTimeout, func() {
			s.handleCardRemoval()
		})
	}
	s.stateMutex.Unlock()

	return nil
}

// safeCallCallback executes a callback with panic recovery
func (*Session) safeCallCallback(
	callback func(*mfrc522.Card) error,
	card *mfrc522.Card,
	callbackName string,
) error {
	var callbackErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				callbackErr = fmt.Errorf("%s callback panicked: %v", callbackName, r)
			}
		}()
		callbackErr = callback(card)
	}()
	if callbackErr != nil {
		return fmt.Errorf("%s callback failed: %w", callbackName, callbackErr)
	}
	return nil
}

// updateCardState updates the card state and returns whether the card
// changed and any callback error
func (s *Session) updateCardState(card *mfrc522.Card) (bool, error) {
	currentUID := card.UIDString()
	cardType := string(card.Type)

	// Capture state and callbacks under lock to avoid races
	s.stateMutex.RLock()
	wasPresent := s.state.Present
	wasChanged := wasPresent && s.state.LastUID != currentUID
	onDetected := s.OnCardDetected
	onChanged := s.OnCardChanged
	s.stateMutex.RUnlock()

	// Call callbacks outside of lock with panic recovery
	if !wasPresent && onDetected != nil {
		if err := s.safeCallCallback(onDetected, card, "OnCardDetected"); err != nil {
			return false, err
		}
	} else if wasChanged && onChanged != nil {
		if err := s.safeCallCallback(onChanged, card, "OnCardChanged"); err != nil {
			return false, err
		}
	}

	// Update state under lock
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()

	if !wasPresent || wasChanged {
		s.state.Present = true
		s.state.LastUID = currentUID
		s.state.LastType = cardType
		return true, nil
	}

	return false, nil
}
