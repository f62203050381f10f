// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wiiboard

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks report counts and error rates
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalReports     uint64
	StatusReports    uint64
	ReadDataReports  uint64
	ExtensionReports uint64
	ShortPackets     uint64
	UnknownReports   uint64
	TruncatedReports uint64
	ProtocolErrors   uint64

	// Rates (calculated)
	ReportRate float64 // reports/sec
	ErrorRate  float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update records one received report and the error decoding it returned
func (s *Statistics) Update(raw []byte, decodeErr error) {
	s.TotalReports++
	s.LastUpdateTime = time.Now()

	if len(raw) < MinReportSize || errors.Is(decodeErr, ErrShortPacket) {
		s.ShortPackets++
		return
	}

	if decodeErr != nil {
		switch {
		case errors.Is(decodeErr, ErrUnknownReport):
			s.UnknownReports++
		case errors.Is(decodeErr, ErrTruncated):
			s.TruncatedReports++
		}
		s.ProtocolErrors++
		return
	}

	switch raw[1] {
	case ReportStatus:
		s.StatusReports++
	case ReportReadData:
		s.ReadDataReports++
	case ReportExtension:
		s.ExtensionReports++
	}
}

// CalculateRates calculates report and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.ReportRate = float64(s.TotalReports) / elapsed
		s.ErrorRate = float64(s.ShortPackets+s.ProtocolErrors) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	percent := func(n uint64) float64 {
		if s.TotalReports == 0 {
			return 0
		}
		return float64(n) * 100.0 / float64(s.TotalReports)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Reports:   %8d\n", s.TotalReports)
	result += fmt.Sprintf("Extension:       %8d (%.1f%%)\n", s.ExtensionReports, percent(s.ExtensionReports))
	result += fmt.Sprintf("Status:          %8d\n", s.StatusReports)
	result += fmt.Sprintf("Read Data:       %8d\n", s.ReadDataReports)

	if s.ShortPackets > 0 {
		result += fmt.Sprintf("Short Packets:   %8d (%.1f%%)\n", s.ShortPackets, percent(s.ShortPackets))
	}
	if s.ProtocolErrors > 0 {
		result += fmt.Sprintf("Protocol Errors: %8d (%.1f%%)\n", s.ProtocolErrors, percent(s.ProtocolErrors))
		if s.UnknownReports > 0 {
			result += fmt.Sprintf("  Unknown Tag:      %5d\n", s.UnknownReports)
		}
		if s.TruncatedReports > 0 {
			result += fmt.Sprintf("  Truncated:        %5d\n", s.TruncatedReports)
		}
	}

	result += fmt.Sprintf("Report Rate:     %8.1f reports/sec\n", s.ReportRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
