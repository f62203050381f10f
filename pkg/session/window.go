// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import "github.com/Thermoquad/balanceboard/pkg/wiiboard"

// Window is a bounded, ordered buffer of weight samples.
// It is owned by the receive loop and is not safe for concurrent use.
type Window struct {
	samples  []wiiboard.WeightSample
	capacity int
}

// NewWindow creates a window holding up to capacity samples
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{
		samples:  make([]wiiboard.WeightSample, 0, capacity),
		capacity: capacity,
	}
}

// Push appends a sample and reports whether the window is now full.
// Pushing into a full window evicts the oldest sample.
func (w *Window) Push(s wiiboard.WeightSample) bool {
	if len(w.samples) == w.capacity {
		copy(w.samples, w.samples[1:])
		w.samples[len(w.samples)-1] = s
		return true
	}
	w.samples = append(w.samples, s)
	return w.Full()
}

// Full reports whether the window holds capacity samples
func (w *Window) Full() bool {
	return len(w.samples) == w.capacity
}

// Len returns the number of buffered samples
func (w *Window) Len() int {
	return len(w.samples)
}

// Cap returns the window capacity
func (w *Window) Cap() int {
	return w.capacity
}

// Clear empties the window
func (w *Window) Clear() {
	w.samples = w.samples[:0]
}

// Samples returns a copy of the buffered samples, oldest first
func (w *Window) Samples() []wiiboard.WeightSample {
	out := make([]wiiboard.WeightSample, len(w.samples))
	copy(out, w.samples)
	return out
}
