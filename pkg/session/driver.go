// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/Thermoquad/balanceboard/pkg/wiiboard"
	"github.com/sirupsen/logrus"
)

// Transport is a bidirectional channel to the board. Reads return one input
// report each. A read that times out returns an error reporting
// Timeout() == true or wrapping os.ErrDeadlineExceeded.
type Transport interface {
	io.Reader
	io.Writer
	io.Closer
}

// Sink receives every decoded weight sample
type Sink interface {
	WriteSample(s wiiboard.WeightSample) error
}

// Options configures a Driver. All fields are optional.
type Options struct {
	Handlers wiiboard.Handlers
	Sink     Sink
	Logger   logrus.FieldLogger

	// OnEpoch is called after each completed epoch
	OnEpoch func(epoch int)

	// OnReport is called with every received report before it is decoded
	OnReport func(r *wiiboard.Report)
}

// Driver owns a board session: the transport, the report decoder and the
// epoch controller.
type Driver struct {
	transport Transport
	decoder   *wiiboard.Decoder
	control   *Controller
	sink      Sink
	log       logrus.FieldLogger
	onReport  func(r *wiiboard.Report)

	statsMu sync.Mutex
	stats   *wiiboard.Statistics

	closeOnce sync.Once
	closeErr  error
}

// NewDriver creates a driver over t. The handshake is not sent until Connect.
func NewDriver(t Transport, cfg Config, opts Options) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	d := &Driver{
		transport: t,
		sink:      opts.Sink,
		log:       log,
		onReport:  opts.OnReport,
		stats:     wiiboard.NewStatistics(),
	}
	d.decoder = wiiboard.NewDecoder(t, cfg.BatteryMax, opts.Handlers)
	d.control = NewController(cfg, d.decoder, d.Close, log)
	d.control.OnEpoch = opts.OnEpoch
	return d, nil
}

// Connect sends the connection handshake. The transport is closed if any
// command fails.
func (d *Driver) Connect() error {
	d.log.Debug("Sending handshake")
	if err := d.decoder.Handshake(); err != nil {
		d.Close()
		return err
	}
	return nil
}

// SetLight switches the board indicator
func (d *Driver) SetLight(on bool) error {
	return d.decoder.Send(wiiboard.NewLight(on))
}

// RequestStatus asks the board for a status report
func (d *Driver) RequestStatus() error {
	return d.decoder.Send(wiiboard.NewStatusRequest())
}

// Decoder returns the report decoder
func (d *Driver) Decoder() *wiiboard.Decoder {
	return d.decoder
}

// Controller returns the epoch controller
func (d *Driver) Controller() *Controller {
	return d.control
}

// Calibration returns the current calibration table
func (d *Driver) Calibration() wiiboard.CalibrationTable {
	return d.decoder.Calibration()
}

// Statistics returns a snapshot of the report counters
func (d *Driver) Statistics() wiiboard.Statistics {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	d.stats.CalculateRates()
	return *d.stats
}

// ResetStatistics clears the report counters
func (d *Driver) ResetStatistics() {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	d.stats.Reset()
}

// Close releases the transport. It is safe to call more than once.
func (d *Driver) Close() error {
	d.closeOnce.Do(func() {
		d.log.Debug("Closing transport")
		d.closeErr = d.transport.Close()
	})
	return d.closeErr
}

// Run reads and dispatches reports until the session terminates, ctx is
// done, or a fatal error occurs. It returns nil when the configured epoch
// count completes.
func (d *Driver) Run(ctx context.Context) error {
	buf := make([]byte, wiiboard.ReceiveChunkSize)

	for {
		if err := ctx.Err(); err != nil {
			d.Close()
			return err
		}

		n, err := d.transport.Read(buf)
		if err != nil {
			if IsTimeout(err) {
				continue
			}
			d.Close()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &wiiboard.TransportError{Op: "read", Err: err}
		}

		done, err := d.dispatch(ctx, buf[:n])
		if err != nil {
			d.Close()
			return err
		}
		if done {
			return nil
		}
	}
}

func (d *Driver) dispatch(ctx context.Context, raw []byte) (bool, error) {
	if d.onReport != nil {
		d.onReport(wiiboard.NewReport(raw))
	}

	sample, err := d.decoder.Decode(raw)

	d.statsMu.Lock()
	d.stats.Update(raw, err)
	d.statsMu.Unlock()

	if err != nil {
		var te *wiiboard.TransportError
		switch {
		case errors.Is(err, wiiboard.ErrShortPacket):
			return false, nil
		case wiiboard.IsFatal(err), errors.As(err, &te):
			return false, err
		default:
			d.log.WithField("tag", fmt.Sprintf("0x%02X", raw[1])).WithError(err).Debug("Discarding report")
			return false, nil
		}
	}

	if sample == nil {
		return false, nil
	}

	if d.sink != nil {
		if err := d.sink.WriteSample(*sample); err != nil {
			return false, err
		}
	}
	return d.control.Observe(ctx, *sample)
}

// IsTimeout reports whether err is a transport read timeout
func IsTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
