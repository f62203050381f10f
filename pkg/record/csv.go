// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package record

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/Thermoquad/balanceboard/pkg/wiiboard"
)

// CSVSink writes one row per sample: top-right, bottom-right, top-left,
// bottom-left, in kilograms. There is no header row.
type CSVSink struct {
	out io.Writer
	w   *csv.Writer
	row []string
}

// NewCSVSink creates a CSV sink writing to w
func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{
		out: w,
		w:   csv.NewWriter(w),
		row: make([]string, wiiboard.Corners),
	}
}

// WriteSample writes and flushes one row
func (s *CSVSink) WriteSample(sample wiiboard.WeightSample) error {
	for i, v := range sample.Values() {
		s.row[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	if err := s.w.Write(s.row); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

// Close flushes pending rows and closes the writer
func (s *CSVSink) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		closeWriter(s.out)
		return err
	}
	return closeWriter(s.out)
}
