// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"io"
	"os"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/smallnest/ringbuffer"
	"go.bug.st/serial"
)

const (
	serialChunkSize  = 256
	serialBufferSize = 1024
)

// DefaultBaudRate of the serial bridge firmware
const DefaultBaudRate = 115200

// SerialBridge carries framed reports over a serial link to a bridge device
// that holds the Bluetooth connection to the board.
type SerialBridge struct {
	port    io.ReadWriteCloser
	rbuf    *ringbuffer.RingBuffer
	decoder *FrameDecoder
	chunk   []byte
	log     logrus.FieldLogger

	closeOnce sync.Once
	closeErr  error
}

// NewSerialBridge frames reports over port. A port read returning no bytes
// and no error is treated as a read timeout.
func NewSerialBridge(port io.ReadWriteCloser, log logrus.FieldLogger) *SerialBridge {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SerialBridge{
		port:    port,
		rbuf:    ringbuffer.New(serialBufferSize),
		decoder: NewFrameDecoder(),
		chunk:   make([]byte, serialChunkSize),
		log:     log,
	}
}

// OpenSerial opens a serial bridge. readTimeout bounds each Read so that a
// cancelled session is noticed.
func OpenSerial(portName string, baudRate int, readTimeout time.Duration, log logrus.FieldLogger) (*SerialBridge, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open serial port %s", portName)
	}

	if readTimeout > 0 {
		if err := port.SetReadTimeout(readTimeout); err != nil {
			port.Close()
			return nil, pkgerrors.Wrapf(err, "failed to set read timeout on %s", portName)
		}
	}

	return NewSerialBridge(port, log), nil
}

// Read returns one report per call
func (s *SerialBridge) Read(p []byte) (int, error) {
	for {
		for !s.rbuf.IsEmpty() {
			b, err := s.rbuf.ReadByte()
			if err != nil {
				break
			}
			report, err := s.decoder.DecodeByte(b)
			if err != nil {
				s.log.WithError(err).Debug("Dropping serial frame")
				continue
			}
			if report != nil {
				return copy(p, report), nil
			}
		}

		n, err := s.port.Read(s.chunk)
		if err != nil {
			return 0, pkgerrors.Wrap(err, "serial read")
		}
		if n == 0 {
			return 0, os.ErrDeadlineExceeded
		}
		if _, err := s.rbuf.Write(s.chunk[:n]); err != nil {
			s.rbuf.Reset()
			s.decoder.Reset()
			return 0, pkgerrors.Wrap(err, "serial receive buffer")
		}
	}
}

// Write frames and sends one output report
func (s *SerialBridge) Write(p []byte) (int, error) {
	if _, err := s.port.Write(EncodeFrame(p)); err != nil {
		return 0, pkgerrors.Wrap(err, "serial write")
	}
	return len(p), nil
}

// Close closes the serial port
func (s *SerialBridge) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.port.Close()
	})
	return s.closeErr
}
