// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wiiboard

import "fmt"

// Mass converts a raw corner reading to kilograms by interpolating between
// the 0, 17 and 34 kg reference readings. Readings above the 34 kg point are
// extrapolated along the upper segment. A zero-width upper segment yields its
// lower bound instead of dividing by zero.
func Mass(raw uint16, cal [LoadPoints]float64) float64 {
	r := float64(raw)
	switch {
	case r < cal[0]:
		return 0.0
	case r < cal[1]:
		return ReferenceLoad * (r - cal[0]) / (cal[1] - cal[0])
	case cal[2] == cal[1]:
		return ReferenceLoad
	default:
		return ReferenceLoad + ReferenceLoad*(r-cal[1])/(cal[2]-cal[1])
	}
}

// WeightSample holds one decoded reading per corner in kilograms
type WeightSample struct {
	TopRight    float64
	BottomRight float64
	TopLeft     float64
	BottomLeft  float64
}

// NewWeightSample converts four raw corner readings in report order
func NewWeightSample(raw [Corners]uint16, table CalibrationTable) WeightSample {
	return WeightSample{
		TopRight:    Mass(raw[TopRight], table.Corner(TopRight)),
		BottomRight: Mass(raw[BottomRight], table.Corner(BottomRight)),
		TopLeft:     Mass(raw[TopLeft], table.Corner(TopLeft)),
		BottomLeft:  Mass(raw[BottomLeft], table.Corner(BottomLeft)),
	}
}

// Values returns the corners in sink column order: TR, BR, TL, BL
func (s WeightSample) Values() [Corners]float64 {
	return [Corners]float64{s.TopRight, s.BottomRight, s.TopLeft, s.BottomLeft}
}

// Total returns the sum of the four corners
func (s WeightSample) Total() float64 {
	return s.TopRight + s.BottomRight + s.TopLeft + s.BottomLeft
}

func (s WeightSample) String() string {
	return fmt.Sprintf("TR=%.2f BR=%.2f TL=%.2f BL=%.2f kg", s.TopRight, s.BottomRight, s.TopLeft, s.BottomLeft)
}
