// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package session runs balance board capture sessions: the receive loop, the
// bounded sampling window and the epoch controller.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/Thermoquad/balanceboard/pkg/wiiboard"
)

// SampleRate is the nominal extension report rate of the board
const SampleRate = 100 // samples/sec

// Defaults
const (
	DefaultDuration   = 20 * time.Minute
	DefaultMaxEpochs  = 0
	DefaultEpochPause = 2 * time.Second
)

// Config holds the capture session parameters
type Config struct {
	SampleCount int           // Samples per epoch
	MaxEpochs   int           // Session ends once the epoch counter exceeds this
	EpochPause  time.Duration // Pause between epochs
	BatteryMax  float64       // Raw battery reading of a full battery
}

// SampleCountFor returns the number of samples the board sends in d
func SampleCountFor(d time.Duration) int {
	return int(d / (time.Second / SampleRate))
}

// DefaultConfig returns a single 20 minute epoch
func DefaultConfig() Config {
	return Config{
		SampleCount: SampleCountFor(DefaultDuration),
		MaxEpochs:   DefaultMaxEpochs,
		EpochPause:  DefaultEpochPause,
		BatteryMax:  wiiboard.DefaultBatteryMax,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.SampleCount <= 0 {
		return fmt.Errorf("sample count must be positive, got %d", c.SampleCount)
	}
	if c.MaxEpochs < 0 {
		return fmt.Errorf("max epochs must not be negative, got %d", c.MaxEpochs)
	}
	if c.EpochPause < 0 {
		return errors.New("epoch pause must not be negative")
	}
	if c.BatteryMax <= 0 {
		return fmt.Errorf("battery maximum must be positive, got %g", c.BatteryMax)
	}
	return nil
}
