// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wiiboard

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// CalibrationSentinel is the value of an unset calibration entry. It is above
// every 16-bit reading, so uncalibrated corners always read 0 kg.
const CalibrationSentinel = 65536.0

// CalibrationTable holds raw readings at 0, 17 and 34 kg for each corner.
// Rows are load points, columns are corners in report order.
type CalibrationTable [LoadPoints][Corners]float64

// NewCalibrationTable returns a table filled with the sentinel
func NewCalibrationTable() CalibrationTable {
	var t CalibrationTable
	for row := range t {
		t[row] = sentinelRow()
	}
	return t
}

func sentinelRow() [Corners]float64 {
	return [Corners]float64{CalibrationSentinel, CalibrationSentinel, CalibrationSentinel, CalibrationSentinel}
}

// Corner returns the three reference readings for one corner
func (t CalibrationTable) Corner(corner int) [LoadPoints]float64 {
	return [LoadPoints]float64{t[0][corner], t[1][corner], t[2][corner]}
}

// Degenerate reports whether any corner lacks strictly increasing reference
// points, which would make the interpolation divide by zero.
func (t CalibrationTable) Degenerate() bool {
	for c := 0; c < Corners; c++ {
		if !(t[0][c] < t[1][c] && t[1][c] < t[2][c]) {
			return true
		}
	}
	return false
}

// String formats the table one load point per line
func (t CalibrationTable) String() string {
	var sb strings.Builder
	for row, kg := range []int{0, 17, 34} {
		if row > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%dkg=[%.0f %.0f %.0f %.0f]", kg, t[row][0], t[row][1], t[row][2], t[row][3])
	}
	return sb.String()
}

// CalibrationState tracks the two-fragment calibration read
type CalibrationState int

// Calibration states
const (
	CalibrationIdle CalibrationState = iota
	AwaitingCalibration
	CalibrationStagedFirst
	Calibrated
)

func (s CalibrationState) String() string {
	switch s {
	case CalibrationIdle:
		return "idle"
	case AwaitingCalibration:
		return "awaiting"
	case CalibrationStagedFirst:
		return "staged"
	case Calibrated:
		return "calibrated"
	default:
		return fmt.Sprintf("CalibrationState(%d)", int(s))
	}
}

// CalibrationStore assembles the calibration table from register read
// fragments. It is owned by a single decoder and is not safe for concurrent use.
type CalibrationStore struct {
	table CalibrationTable
	state CalibrationState
}

// NewCalibrationStore creates a store with a sentinel table
func NewCalibrationStore() *CalibrationStore {
	return &CalibrationStore{table: NewCalibrationTable()}
}

// Request marks the calibration read as issued
func (s *CalibrationStore) Request() {
	if s.state == Calibrated {
		return
	}
	s.state = AwaitingCalibration
}

// Requested reports whether calibration fragments are expected
func (s *CalibrationStore) Requested() bool {
	return s.state == AwaitingCalibration || s.state == CalibrationStagedFirst
}

// State returns the current assembly state
func (s *CalibrationStore) State() CalibrationState {
	return s.state
}

// Table returns a copy of the current table
func (s *CalibrationStore) Table() CalibrationTable {
	return s.table
}

// Apply stores a register read fragment. It returns true once the third row
// has been stored and the table is complete.
func (s *CalibrationStore) Apply(fragment []byte) (bool, error) {
	if len(fragment) < 8 {
		return false, protocolError(ReportReadData, ErrTruncated, "calibration fragment has %d bytes", len(fragment))
	}

	if len(fragment) >= fullFragmentSize {
		s.table[0] = decodeRow(fragment[0:8])
		s.table[1] = decodeRow(fragment[8:16])
		s.table[2] = sentinelRow()
		s.state = CalibrationStagedFirst
		return false, nil
	}

	if s.state != CalibrationStagedFirst {
		return false, protocolError(ReportReadData, ErrOutOfSequence, "%d byte fragment in state %s", len(fragment), s.state)
	}

	row := decodeRow(fragment[0:8])
	candidate := s.table
	candidate[2] = row
	if candidate.Degenerate() {
		return false, protocolError(ReportReadData, ErrDegenerateCalibration, "%s", candidate)
	}

	s.table = candidate
	s.state = Calibrated
	return true, nil
}

// decodeRow converts 8 bytes into four big-endian 16-bit readings
func decodeRow(b []byte) [Corners]float64 {
	var row [Corners]float64
	for i := range row {
		row[i] = float64(binary.BigEndian.Uint16(b[i*2:]))
	}
	return row
}
