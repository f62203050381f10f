// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build linux

package transport

import (
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/Thermoquad/balanceboard/pkg/wiiboard"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// L2CAP is a direct connection to the board: commands go to the control
// channel and reports are read from the interrupt channel.
type L2CAP struct {
	control   int
	interrupt int

	closeOnce sync.Once
	closeErr  error
}

// DialL2CAP connects both channels to the board at address
// (aa:bb:cc:dd:ee:ff). A positive readTimeout bounds each Read.
func DialL2CAP(address string, readTimeout time.Duration) (*L2CAP, error) {
	bdaddr, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}

	control, err := connectL2CAP(bdaddr, wiiboard.ControlPSM)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to connect control channel to %s", address)
	}

	interrupt, err := connectL2CAP(bdaddr, wiiboard.InterruptPSM)
	if err != nil {
		unix.Close(control)
		return nil, pkgerrors.Wrapf(err, "failed to connect interrupt channel to %s", address)
	}

	if readTimeout > 0 {
		tv := unix.NsecToTimeval(readTimeout.Nanoseconds())
		if err := unix.SetsockoptTimeval(interrupt, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
			unix.Close(control)
			unix.Close(interrupt)
			return nil, pkgerrors.Wrap(err, "failed to set receive timeout")
		}
	}

	return &L2CAP{control: control, interrupt: interrupt}, nil
}

func connectL2CAP(bdaddr [6]byte, psm uint16) (int, error) {
	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_SEQPACKET, unix.BTPROTO_L2CAP)
	if err != nil {
		return -1, pkgerrors.Wrap(err, "socket")
	}
	if err := unix.Connect(fd, &unix.SockaddrL2{PSM: psm, Addr: bdaddr}); err != nil {
		unix.Close(fd)
		return -1, pkgerrors.Wrapf(err, "connect psm 0x%02X", psm)
	}
	return fd, nil
}

// Read receives one report from the interrupt channel
func (l *L2CAP) Read(p []byte) (int, error) {
	n, err := unix.Read(l.interrupt, p)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			return 0, os.ErrDeadlineExceeded
		}
		return 0, pkgerrors.Wrap(err, "l2cap read")
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write sends one output report on the control channel
func (l *L2CAP) Write(p []byte) (int, error) {
	n, err := unix.Write(l.control, p)
	if err != nil {
		return n, pkgerrors.Wrap(err, "l2cap write")
	}
	return n, nil
}

// Close closes both channels
func (l *L2CAP) Close() error {
	l.closeOnce.Do(func() {
		errControl := unix.Close(l.control)
		errInterrupt := unix.Close(l.interrupt)
		if errControl != nil {
			l.closeErr = errControl
		} else {
			l.closeErr = errInterrupt
		}
	})
	return l.closeErr
}
