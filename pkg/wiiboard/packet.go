// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wiiboard

import "time"

// Report is a raw input report as read from the interrupt channel
type Report struct {
	raw       []byte
	timestamp time.Time
}

// NewReport copies raw so the caller can reuse its receive buffer
func NewReport(raw []byte) *Report {
	b := make([]byte, len(raw))
	copy(b, raw)
	return &Report{raw: b, timestamp: time.Now()}
}

// Tag returns the report type, or 0 for a short report
func (r *Report) Tag() byte {
	if len(r.raw) < MinReportSize {
		return 0
	}
	return r.raw[1]
}

// Raw returns the complete report bytes
func (r *Report) Raw() []byte {
	return r.raw
}

// Payload returns the bytes after the header and tag
func (r *Report) Payload() []byte {
	if len(r.raw) < MinReportSize {
		return nil
	}
	return r.raw[MinReportSize:]
}

// Len returns the report size in bytes
func (r *Report) Len() int {
	return len(r.raw)
}

// Timestamp returns when the report was received
func (r *Report) Timestamp() time.Time {
	return r.timestamp
}

// Status is the content of a status report
type Status struct {
	RawBattery uint16
	Battery    float64 // Fraction of the configured maximum, 0..1
	Light      bool
}
