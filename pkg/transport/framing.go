// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"errors"
	"fmt"
)

// Bridge framing bytes
const (
	StartByte = 0x7E
	EndByte   = 0x7F
	EscByte   = 0x7D
	EscXor    = 0x20
)

const (
	crcPolynomial = 0x1021
	crcInitial    = 0xFFFF
	crcSize       = 2

	// MaxFrameSize bounds the unstuffed frame body (report + CRC)
	MaxFrameSize = 64
)

// Framing errors
var (
	ErrCRCMismatch   = errors.New("frame CRC mismatch")
	ErrFrameTooLong  = errors.New("frame exceeds maximum size")
	ErrFrameTooShort = errors.New("frame too short")
)

// CalculateCRC computes CRC-16-CCITT checksum for the given data
func CalculateCRC(data []byte) uint16 {
	crc := uint16(crcInitial)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ crcPolynomial
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// EncodeFrame wraps one report for a serial bridge:
// START | stuffed(report, CRC big-endian) | END
func EncodeFrame(report []byte) []byte {
	crc := CalculateCRC(report)

	body := make([]byte, 0, len(report)+crcSize)
	body = append(body, report...)
	body = append(body, byte(crc>>8), byte(crc&0xFF))

	frame := make([]byte, 0, len(body)*2+2)
	frame = append(frame, StartByte)
	for _, b := range body {
		if b == StartByte || b == EndByte || b == EscByte {
			frame = append(frame, EscByte, b^EscXor)
		} else {
			frame = append(frame, b)
		}
	}
	return append(frame, EndByte)
}

// FrameDecoder reassembles reports from a framed byte stream
type FrameDecoder struct {
	buf        []byte
	inFrame    bool
	escapeNext bool
}

// NewFrameDecoder creates an idle frame decoder
func NewFrameDecoder() *FrameDecoder {
	return &FrameDecoder{buf: make([]byte, 0, MaxFrameSize)}
}

// Reset drops any partial frame
func (d *FrameDecoder) Reset() {
	d.buf = d.buf[:0]
	d.inFrame = false
	d.escapeNext = false
}

// DecodeByte feeds one byte. It returns the report once a complete frame
// with a valid CRC has been received. Bytes outside a frame are ignored.
func (d *FrameDecoder) DecodeByte(b byte) ([]byte, error) {
	switch {
	case b == StartByte:
		d.Reset()
		d.inFrame = true
		return nil, nil
	case !d.inFrame:
		return nil, nil
	case b == EndByte:
		defer d.Reset()
		if d.escapeNext {
			return nil, fmt.Errorf("incomplete escape sequence at end of frame")
		}
		return d.finish()
	case b == EscByte:
		d.escapeNext = true
		return nil, nil
	}

	if d.escapeNext {
		b ^= EscXor
		d.escapeNext = false
	}
	if len(d.buf) >= MaxFrameSize {
		d.Reset()
		return nil, ErrFrameTooLong
	}
	d.buf = append(d.buf, b)
	return nil, nil
}

func (d *FrameDecoder) finish() ([]byte, error) {
	if len(d.buf) < crcSize+1 {
		return nil, ErrFrameTooShort
	}

	n := len(d.buf) - crcSize
	expected := CalculateCRC(d.buf[:n])
	got := uint16(d.buf[n])<<8 | uint16(d.buf[n+1])
	if got != expected {
		return nil, fmt.Errorf("%w: expected 0x%04X, got 0x%04X", ErrCRCMismatch, expected, got)
	}

	report := make([]byte, n)
	copy(report, d.buf[:n])
	return report, nil
}
