// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wiiboard

import (
	"errors"
	"fmt"
)

// ErrShortPacket is returned for reports too short to carry a tag.
// Callers drop these silently.
var ErrShortPacket = errors.New("short packet")

// Protocol error causes
var (
	ErrUnknownReport         = errors.New("unrecognized report tag")
	ErrTruncated             = errors.New("truncated report")
	ErrOutOfSequence         = errors.New("calibration fragment out of sequence")
	ErrDegenerateCalibration = errors.New("degenerate calibration table")
)

// ProtocolError describes a report that could not be applied
type ProtocolError struct {
	Tag    byte
	Reason error
	Detail string
}

// Error implements the error interface
func (e *ProtocolError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("protocol error: %v (tag 0x%02X): %s", e.Reason, e.Tag, e.Detail)
	}
	return fmt.Sprintf("protocol error: %v (tag 0x%02X)", e.Reason, e.Tag)
}

// Unwrap exposes the cause for errors.Is
func (e *ProtocolError) Unwrap() error {
	return e.Reason
}

// Fatal reports whether the error breaks the handshake and must be surfaced
// instead of discarding the packet.
func (e *ProtocolError) Fatal() bool {
	return errors.Is(e.Reason, ErrOutOfSequence) || errors.Is(e.Reason, ErrDegenerateCalibration)
}

func protocolError(tag byte, reason error, format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{Tag: tag, Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// IsFatal reports whether err is a protocol error that must stop the session
func IsFatal(err error) bool {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Fatal()
	}
	return false
}

// TransportError wraps a failed read or write on a board channel.
// Transport errors are fatal for the session.
type TransportError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

// Unwrap exposes the cause for errors.Is
func (e *TransportError) Unwrap() error {
	return e.Err
}
