// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package record

import (
	"errors"
	"io"
	"time"

	"github.com/Thermoquad/balanceboard/pkg/wiiboard"
	"github.com/fxamacker/cbor/v2"
)

// Sample is one CBOR record. Records are written back to back as a CBOR
// sequence.
type Sample struct {
	Time        int64   `cbor:"1,keyasint"` // Unix milliseconds
	TopRight    float64 `cbor:"2,keyasint"`
	BottomRight float64 `cbor:"3,keyasint"`
	TopLeft     float64 `cbor:"4,keyasint"`
	BottomLeft  float64 `cbor:"5,keyasint"`
}

// WeightSample returns the corner masses of the record
func (s Sample) WeightSample() wiiboard.WeightSample {
	return wiiboard.WeightSample{
		TopRight:    s.TopRight,
		BottomRight: s.BottomRight,
		TopLeft:     s.TopLeft,
		BottomLeft:  s.BottomLeft,
	}
}

// CBORSink writes timestamped samples as a CBOR sequence
type CBORSink struct {
	out io.Writer
	enc *cbor.Encoder
	now func() time.Time
}

// NewCBORSink creates a CBOR sink writing to w
func NewCBORSink(w io.Writer) *CBORSink {
	return &CBORSink{
		out: w,
		enc: cbor.NewEncoder(w),
		now: time.Now,
	}
}

// WriteSample encodes one record stamped with the current time
func (s *CBORSink) WriteSample(sample wiiboard.WeightSample) error {
	return s.enc.Encode(Sample{
		Time:        s.now().UnixMilli(),
		TopRight:    sample.TopRight,
		BottomRight: sample.BottomRight,
		TopLeft:     sample.TopLeft,
		BottomLeft:  sample.BottomLeft,
	})
}

// Close closes the writer
func (s *CBORSink) Close() error {
	return closeWriter(s.out)
}

// ReadCBOR decodes every record of a CBOR recording
func ReadCBOR(r io.Reader) ([]Sample, error) {
	dec := cbor.NewDecoder(r)

	var samples []Sample
	for {
		var s Sample
		if err := dec.Decode(&s); err != nil {
			if errors.Is(err, io.EOF) {
				return samples, nil
			}
			return samples, err
		}
		samples = append(samples, s)
	}
}
