// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package wiiboard implements the balance board report protocol.
//
// The board speaks the Wii remote HID output/input report format over two
// L2CAP channels. This package decodes input reports (status, register read
// data, extension data), assembles the factory calibration table, converts
// raw load cell readings to kilograms and builds the output reports needed to
// drive the board.
package wiiboard

// Report headers
const (
	InputHeader  = 0xA1 // Byte 0 of every input report
	OutputHeader = 0x52 // Prefix of every output report on the control channel
)

// L2CAP channel identifiers
const (
	ControlPSM   = 0x11
	InterruptPSM = 0x13
)

// Input report tags (byte 1)
const (
	ReportStatus    = 0x20
	ReportReadData  = 0x21
	ReportExtension = 0x32 // Core buttons + 8 extension bytes
)

// Output report opcodes
const (
	CmdLight         = 0x11
	CmdReportingMode = 0x12
	CmdRequestStatus = 0x15
	CmdWriteRegister = 0x16
	CmdReadRegister  = 0x17
)

// ReportingContinuous asks the board to send reports even when nothing changed
const ReportingContinuous = 0x04

// Register locations
const (
	CalibrationAddress = 0x04A40024
	CalibrationSize    = 0x18 // 24 bytes, delivered as a 16 byte and an 8 byte fragment
	ExtensionAddress   = 0x04A40040
)

// Masks
const (
	ButtonDownMask = 0x0008
	LED1Mask       = 0x10
)

// Report layout
const (
	MinReportSize       = 2
	ReceiveChunkSize    = 25
	statusFlagsOffset   = 4
	statusBatteryOffset = 7
	readInfoOffset      = 4
	readDataOffset      = 7
	buttonOffset        = 2
	massOffset          = 4
	massSize            = 8
	fullFragmentSize    = 16
)

// Calibration reference loads in kilograms
const (
	ReferenceLoad = 17.0
	LoadPoints    = 3
	Corners       = 4
)

// DefaultBatteryMax is the raw battery reading of a full set of cells
const DefaultBatteryMax = 200.0

// Corner indexes, in report order
const (
	TopRight = iota
	BottomRight
	TopLeft
	BottomLeft
)
