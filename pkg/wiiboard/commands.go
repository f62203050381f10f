// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wiiboard

import "encoding/binary"

// Command builders return complete output reports, including the 0x52
// prefix, ready to be written to the control channel.

func outputReport(opcode byte, data ...byte) []byte {
	report := make([]byte, 0, 2+len(data))
	report = append(report, OutputHeader, opcode)
	return append(report, data...)
}

// NewReadRegister requests size bytes starting at a register address.
// The board answers with one or more read data reports of up to 16 bytes.
func NewReadRegister(address uint32, size uint16) []byte {
	data := make([]byte, 6)
	binary.BigEndian.PutUint32(data[0:4], address)
	binary.BigEndian.PutUint16(data[4:6], size)
	return outputReport(CmdReadRegister, data...)
}

// NewWriteRegister writes data at a register address
func NewWriteRegister(address uint32, data ...byte) []byte {
	payload := make([]byte, 4, 4+len(data))
	binary.BigEndian.PutUint32(payload, address)
	return outputReport(CmdWriteRegister, append(payload, data...)...)
}

// NewCalibrationRequest reads the factory calibration block
func NewCalibrationRequest() []byte {
	return NewReadRegister(CalibrationAddress, CalibrationSize)
}

// NewExtensionEnable arms the balance board extension data source
func NewExtensionEnable() []byte {
	return NewWriteRegister(ExtensionAddress, 0x00)
}

// NewStatusRequest asks for a status report. The board stops streaming
// extension reports until the reporting mode is set again.
func NewStatusRequest() []byte {
	return outputReport(CmdRequestStatus, 0x00)
}

// NewReportingMode selects continuous core+extension reports
func NewReportingMode() []byte {
	return outputReport(CmdReportingMode, ReportingContinuous, ReportExtension)
}

// NewLight switches the front indicator
func NewLight(on bool) []byte {
	if on {
		return outputReport(CmdLight, LED1Mask)
	}
	return outputReport(CmdLight, 0x00)
}
