// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package transport provides connections to a balance board: direct L2CAP
// sockets on Linux, and serial or WebSocket bridges that relay reports from
// a separate Bluetooth host.
package transport

import (
	"net"

	pkgerrors "github.com/pkg/errors"
)

// ParseAddress parses a Bluetooth device address in aa:bb:cc:dd:ee:ff form
func ParseAddress(address string) ([6]byte, error) {
	var bdaddr [6]byte

	mac, err := net.ParseMAC(address)
	if err != nil {
		return bdaddr, pkgerrors.Wrapf(err, "invalid device address %q", address)
	}
	if len(mac) != len(bdaddr) {
		return bdaddr, pkgerrors.Errorf("invalid device address %q: want 6 bytes, got %d", address, len(mac))
	}

	copy(bdaddr[:], mac)
	return bdaddr, nil
}
