// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wiiboard

import (
	"encoding/binary"
	"io"
)

// Handlers receives decoded board events. Nil fields are skipped.
type Handlers struct {
	OnStatus     func(Status)
	OnCalibrated func(CalibrationTable)
	OnMass       func(WeightSample)
	OnPressed    func()
	OnReleased   func()
}

// Decoder dispatches input reports and sequences the connection handshake.
// It writes output reports to the control channel when the protocol requires
// it. A Decoder is driven by a single receive loop and is not safe for
// concurrent use.
type Decoder struct {
	control    io.Writer
	batteryMax float64
	handlers   Handlers

	calibration *CalibrationStore
	button      ButtonEdgeDetector
	status      Status
}

// NewDecoder creates a decoder writing commands to control.
// A non-positive batteryMax selects DefaultBatteryMax.
func NewDecoder(control io.Writer, batteryMax float64, handlers Handlers) *Decoder {
	if batteryMax <= 0 {
		batteryMax = DefaultBatteryMax
	}
	return &Decoder{
		control:     control,
		batteryMax:  batteryMax,
		handlers:    handlers,
		calibration: NewCalibrationStore(),
	}
}

// Send writes one output report to the control channel
func (d *Decoder) Send(report []byte) error {
	if _, err := d.control.Write(report); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}

// Handshake requests the factory calibration, arms the extension and asks for
// a status report. The status report in turn re-arms continuous reporting.
func (d *Decoder) Handshake() error {
	if err := d.Send(NewCalibrationRequest()); err != nil {
		return err
	}
	d.calibration.Request()

	if err := d.Send(NewExtensionEnable()); err != nil {
		return err
	}
	return d.Send(NewStatusRequest())
}

// State returns the calibration assembly state
func (d *Decoder) State() CalibrationState {
	return d.calibration.State()
}

// Calibration returns a copy of the calibration table
func (d *Decoder) Calibration() CalibrationTable {
	return d.calibration.Table()
}

// CalibrationRequested reports whether calibration fragments are expected
func (d *Decoder) CalibrationRequested() bool {
	return d.calibration.Requested()
}

// LastStatus returns the most recent status report
func (d *Decoder) LastStatus() Status {
	return d.status
}

// ButtonPressed returns the last observed button level
func (d *Decoder) ButtonPressed() bool {
	return d.button.Pressed()
}

// Decode processes one input report. It returns the weight sample carried by
// an extension report, or nil for any other report.
func (d *Decoder) Decode(raw []byte) (*WeightSample, error) {
	if len(raw) < MinReportSize {
		return nil, ErrShortPacket
	}

	switch tag := raw[1]; tag {
	case ReportStatus:
		return nil, d.decodeStatus(raw)
	case ReportReadData:
		return nil, d.decodeReadData(raw)
	case ReportExtension:
		return d.decodeExtension(raw)
	default:
		return nil, protocolError(tag, ErrUnknownReport, "%d byte report", len(raw))
	}
}

func (d *Decoder) decodeStatus(raw []byte) error {
	if len(raw) < statusBatteryOffset+2 {
		return protocolError(ReportStatus, ErrTruncated, "status report has %d bytes", len(raw))
	}

	level := binary.BigEndian.Uint16(raw[statusBatteryOffset:])
	battery := float64(level) / d.batteryMax
	if battery > 1 {
		battery = 1
	}
	d.status = Status{
		RawBattery: level,
		Battery:    battery,
		Light:      raw[statusFlagsOffset]&LED1Mask == LED1Mask,
	}

	if d.handlers.OnStatus != nil {
		d.handlers.OnStatus(d.status)
	}

	// The board drops back to core-only reports after every status report
	return d.Send(NewReportingMode())
}

func (d *Decoder) decodeReadData(raw []byte) error {
	if !d.calibration.Requested() {
		return nil
	}
	if len(raw) <= readInfoOffset {
		return protocolError(ReportReadData, ErrTruncated, "read data report has %d bytes", len(raw))
	}

	// High nibble of byte 4 encodes size-1
	length := int(raw[readInfoOffset]>>4) + 1
	if len(raw) < readDataOffset+length {
		return protocolError(ReportReadData, ErrTruncated, "fragment of %d bytes in a %d byte report", length, len(raw))
	}

	complete, err := d.calibration.Apply(raw[readDataOffset : readDataOffset+length])
	if err != nil {
		return err
	}
	if complete && d.handlers.OnCalibrated != nil {
		d.handlers.OnCalibrated(d.calibration.Table())
	}
	return nil
}

func (d *Decoder) decodeExtension(raw []byte) (*WeightSample, error) {
	if len(raw) < massOffset+massSize {
		return nil, protocolError(ReportExtension, ErrTruncated, "extension report has %d bytes", len(raw))
	}

	switch d.button.Update(binary.BigEndian.Uint16(raw[buttonOffset:])) {
	case ButtonPressed:
		if d.handlers.OnPressed != nil {
			d.handlers.OnPressed()
		}
	case ButtonReleased:
		if d.handlers.OnReleased != nil {
			d.handlers.OnReleased()
		}
	}

	var corners [Corners]uint16
	for i := range corners {
		corners[i] = binary.BigEndian.Uint16(raw[massOffset+i*2:])
	}
	sample := NewWeightSample(corners, d.calibration.Table())

	if d.handlers.OnMass != nil {
		d.handlers.OnMass(sample)
	}
	return &sample, nil
}
