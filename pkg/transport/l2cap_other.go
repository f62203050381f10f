// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build !linux

package transport

import (
	"errors"
	"time"
)

// ErrL2CAPUnsupported is returned by DialL2CAP outside Linux
var ErrL2CAPUnsupported = errors.New("L2CAP sockets require Linux (BlueZ); use a serial or WebSocket bridge")

// L2CAP is unavailable on this platform
type L2CAP struct{}

// DialL2CAP always fails on this platform
func DialL2CAP(address string, readTimeout time.Duration) (*L2CAP, error) {
	if _, err := ParseAddress(address); err != nil {
		return nil, err
	}
	return nil, ErrL2CAPUnsupported
}

func (l *L2CAP) Read(p []byte) (int, error)  { return 0, ErrL2CAPUnsupported }
func (l *L2CAP) Write(p []byte) (int, error) { return 0, ErrL2CAPUnsupported }
func (l *L2CAP) Close() error                { return nil }
