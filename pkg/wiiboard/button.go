// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wiiboard

// ButtonEvent is a press or release edge
type ButtonEvent int

// Button edges
const (
	ButtonNone ButtonEvent = iota
	ButtonPressed
	ButtonReleased
)

func (e ButtonEvent) String() string {
	switch e {
	case ButtonPressed:
		return "pressed"
	case ButtonReleased:
		return "released"
	default:
		return "none"
	}
}

// ButtonEdgeDetector turns the level-valued button mask into edges
type ButtonEdgeDetector struct {
	pressed bool
}

// Update feeds one mask and returns the edge it produced, if any
func (d *ButtonEdgeDetector) Update(mask uint16) ButtonEvent {
	if mask == ButtonDownMask {
		if !d.pressed {
			d.pressed = true
			return ButtonPressed
		}
		return ButtonNone
	}
	if d.pressed {
		d.pressed = false
		return ButtonReleased
	}
	return ButtonNone
}

// Pressed returns the last observed level
func (d *ButtonEdgeDetector) Pressed() bool {
	return d.pressed
}
