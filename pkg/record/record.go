// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package record writes weight samples to files
package record

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Thermoquad/balanceboard/pkg/wiiboard"
	pkgerrors "github.com/pkg/errors"
)

// Format of a recording file
type Format string

// Supported formats
const (
	FormatCSV  Format = "csv"
	FormatCBOR Format = "cbor"
)

// fileTimeLayout is the date stamp used in recording file names
const fileTimeLayout = "2006-01-02@15-04"

// Sink receives samples and owns the underlying file
type Sink interface {
	WriteSample(s wiiboard.WeightSample) error
	Close() error
}

// ParseFormat validates a format name
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatCSV, FormatCBOR:
		return f, nil
	default:
		return "", fmt.Errorf("unknown recording format %q (use csv or cbor)", name)
	}
}

// FileName returns the recording file name for a session started at t
func FileName(format Format, t time.Time) string {
	return fmt.Sprintf("mass %s.%s", t.Format(fileTimeLayout), format)
}

// Create opens a new recording in dir and returns the sink and its path
func Create(dir string, format Format, t time.Time) (Sink, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", pkgerrors.Wrapf(err, "failed to create output directory %s", dir)
	}

	path := filepath.Join(dir, FileName(format, t))
	f, err := os.Create(path)
	if err != nil {
		return nil, "", pkgerrors.Wrapf(err, "failed to create %s", path)
	}

	return NewSink(f, format), path, nil
}

// NewSink wraps w in a sink of the given format. Close closes w when it is
// an io.Closer.
func NewSink(w io.Writer, format Format) Sink {
	if format == FormatCBOR {
		return NewCBORSink(w)
	}
	return NewCSVSink(w)
}

func closeWriter(w io.Writer) error {
	if c, ok := w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
