// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/Thermoquad/balanceboard/pkg/wiiboard"
	"github.com/sirupsen/logrus"
)

// ============================================================
// Test Helpers
// ============================================================

type read struct {
	data []byte
	err  error
}

// fakeTransport replays scripted reads and records writes
type fakeTransport struct {
	reads    []read
	writes   [][]byte
	writeErr error
	closed   int
}

func (f *fakeTransport) Read(p []byte) (int, error) {
	if f.closed > 0 {
		return 0, io.ErrClosedPipe
	}
	if len(f.reads) == 0 {
		return 0, io.EOF
	}
	r := f.reads[0]
	f.reads = f.reads[1:]
	if r.err != nil {
		return 0, r.err
	}
	return copy(p, r.data), nil
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	b := make([]byte, len(p))
	copy(b, p)
	f.writes = append(f.writes, b)
	return len(p), nil
}

func (f *fakeTransport) Close() error {
	f.closed++
	return nil
}

func (f *fakeTransport) queue(reports ...[]byte) {
	for _, r := range reports {
		f.reads = append(f.reads, read{data: r})
	}
}

type timeoutError struct{}

func (timeoutError) Error() string { return "i/o timeout" }
func (timeoutError) Timeout() bool { return true }

// recordingCommander captures output reports sent by the controller
type recordingCommander struct {
	sent [][]byte
}

func (c *recordingCommander) Send(report []byte) error {
	c.sent = append(c.sent, report)
	return nil
}

// memorySink keeps every sample written to it
type memorySink struct {
	samples []wiiboard.WeightSample
}

func (s *memorySink) WriteSample(sample wiiboard.WeightSample) error {
	s.samples = append(s.samples, sample)
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func row(a, b, c, d uint16) []byte {
	out := make([]byte, 8)
	for i, v := range []uint16{a, b, c, d} {
		binary.BigEndian.PutUint16(out[i*2:], v)
	}
	return out
}

func statusReport(battery uint16) []byte {
	raw := []byte{wiiboard.InputHeader, wiiboard.ReportStatus, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	binary.BigEndian.PutUint16(raw[7:], battery)
	return raw
}

func readDataReport(data []byte) []byte {
	raw := []byte{wiiboard.InputHeader, wiiboard.ReportReadData, 0x00, 0x00, byte(len(data)-1) << 4, 0x00, 0x24}
	padded := make([]byte, 16)
	copy(padded, data)
	return append(raw, padded...)
}

func extensionReport(mask uint16, tr, br, tl, bl uint16) []byte {
	raw := []byte{wiiboard.InputHeader, wiiboard.ReportExtension, 0x00, 0x00}
	binary.BigEndian.PutUint16(raw[2:], mask)
	return append(raw, row(tr, br, tl, bl)...)
}

func calibrationReports() [][]byte {
	first := append(row(100, 100, 100, 100), row(200, 200, 200, 200)...)
	return [][]byte{readDataReport(first), readDataReport(row(300, 300, 300, 300))}
}

func testConfig(samples, epochs int) Config {
	return Config{SampleCount: samples, MaxEpochs: epochs, BatteryMax: wiiboard.DefaultBatteryMax}
}

func sample(kg float64) wiiboard.WeightSample {
	return wiiboard.WeightSample{TopRight: kg}
}

// ============================================================
// Config Tests
// ============================================================

func TestSampleCountFor(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want int
	}{
		{20 * time.Minute, 120000},
		{90 * time.Second, 9000},
		{time.Second, 100},
		{0, 0},
	}
	for _, tt := range tests {
		if got := SampleCountFor(tt.d); got != tt.want {
			t.Errorf("SampleCountFor(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero samples", Config{SampleCount: 0, BatteryMax: 200}},
		{"negative epochs", Config{SampleCount: 1, MaxEpochs: -1, BatteryMax: 200}},
		{"negative pause", Config{SampleCount: 1, EpochPause: -time.Second, BatteryMax: 200}},
		{"zero battery", Config{SampleCount: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

// ============================================================
// Window Tests
// ============================================================

func TestWindow_FullAtCapacity(t *testing.T) {
	w := NewWindow(3)
	for i := 0; i < 2; i++ {
		if w.Push(sample(float64(i))) {
			t.Fatalf("Push %d reported full", i)
		}
	}
	if !w.Push(sample(2)) {
		t.Fatal("third Push should report full")
	}
	if w.Len() != 3 || !w.Full() {
		t.Errorf("Len = %d, Full = %v", w.Len(), w.Full())
	}

	w.Clear()
	if w.Len() != 0 || w.Full() {
		t.Errorf("after Clear: Len = %d, Full = %v", w.Len(), w.Full())
	}
}

func TestWindow_NeverExceedsCapacity(t *testing.T) {
	w := NewWindow(4)
	for i := 0; i < 10; i++ {
		w.Push(sample(float64(i)))
		if w.Len() > w.Cap() {
			t.Fatalf("Len %d exceeds capacity %d", w.Len(), w.Cap())
		}
	}

	got := w.Samples()
	for i, s := range got {
		if want := float64(6 + i); s.TopRight != want {
			t.Errorf("Samples()[%d] = %v, want %v (oldest evicted)", i, s.TopRight, want)
		}
	}
}

func TestWindow_SamplesIsCopy(t *testing.T) {
	w := NewWindow(2)
	w.Push(sample(1))
	snap := w.Samples()
	snap[0].TopRight = 99
	if w.Samples()[0].TopRight != 1 {
		t.Error("modifying the snapshot changed the window")
	}
}

func TestWindow_MinimumCapacity(t *testing.T) {
	w := NewWindow(0)
	if w.Cap() != 1 {
		t.Errorf("Cap = %d, want 1", w.Cap())
	}
	if !w.Push(sample(1)) {
		t.Error("single slot window should be full after one Push")
	}
}

// ============================================================
// Controller Tests
// ============================================================

func TestController_EpochCycle(t *testing.T) {
	board := &recordingCommander{}
	released := 0
	c := NewController(Config{SampleCount: 2, MaxEpochs: 1, EpochPause: time.Second, BatteryMax: 200}, board, func() error {
		released++
		return nil
	}, quietLogger())

	var pauses []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		return nil
	}
	var epochs []int
	c.OnEpoch = func(n int) { epochs = append(epochs, n) }

	ctx := context.Background()
	results := []bool{}
	for i := 0; i < 4; i++ {
		done, err := c.Observe(ctx, sample(1))
		if err != nil {
			t.Fatalf("Observe %d error: %v", i, err)
		}
		results = append(results, done)
	}

	want := []bool{false, false, false, true}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("Observe %d terminated = %v, want %v", i, results[i], want[i])
		}
	}
	if c.Epoch() != 2 || c.State() != StateTerminated {
		t.Errorf("Epoch = %d, State = %s", c.Epoch(), c.State())
	}
	if released != 1 {
		t.Errorf("release called %d times, want 1", released)
	}
	if len(epochs) != 2 || epochs[0] != 1 || epochs[1] != 2 {
		t.Errorf("OnEpoch calls = %v", epochs)
	}
	if len(pauses) != 1 || pauses[0] != time.Second {
		t.Errorf("pauses = %v, want one 1s pause", pauses)
	}

	expected := [][]byte{
		wiiboard.NewStatusRequest(),
		wiiboard.NewLight(false),
		wiiboard.NewStatusRequest(),
	}
	if len(board.sent) != len(expected) {
		t.Fatalf("sent %d commands, want %d", len(board.sent), len(expected))
	}
	for i := range expected {
		if !bytes.Equal(board.sent[i], expected[i]) {
			t.Errorf("command %d = % X, want % X", i, board.sent[i], expected[i])
		}
	}

	// Terminal state ignores further samples
	if done, _ := c.Observe(ctx, sample(1)); !done || c.Window().Len() != 0 {
		t.Error("terminated controller should not buffer samples")
	}
}

func TestController_TerminatesAfterMaxEpochsPlusOne(t *testing.T) {
	for _, maxEpochs := range []int{0, 1, 3} {
		c := NewController(Config{SampleCount: 5, MaxEpochs: maxEpochs, BatteryMax: 200}, &recordingCommander{}, nil, quietLogger())
		c.sleep = func(context.Context, time.Duration) error { return nil }

		count := 0
		for {
			count++
			done, err := c.Observe(context.Background(), sample(1))
			if err != nil {
				t.Fatalf("Observe error: %v", err)
			}
			if c.Window().Len() > 5 {
				t.Fatalf("window length %d exceeds 5", c.Window().Len())
			}
			if done {
				break
			}
		}
		if want := 5 * (maxEpochs + 1); count != want {
			t.Errorf("maxEpochs %d: terminated after %d samples, want %d", maxEpochs, count, want)
		}
		if c.Epoch() != maxEpochs+1 {
			t.Errorf("maxEpochs %d: epoch = %d", maxEpochs, c.Epoch())
		}
	}
}

func TestController_PauseCancelled(t *testing.T) {
	c := NewController(Config{SampleCount: 1, MaxEpochs: 2, EpochPause: time.Hour, BatteryMax: 200}, &recordingCommander{}, nil, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Observe(ctx, sample(1))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Observe error = %v, want context.Canceled", err)
	}
}

// ============================================================
// Driver Tests
// ============================================================

func TestDriver_EndToEnd(t *testing.T) {
	tr := &fakeTransport{}
	tr.queue(statusReport(100))
	tr.queue(calibrationReports()...)
	for i := 0; i < 4; i++ {
		tr.queue(extensionReport(0, 150, 100, 100, 100))
	}

	sink := &memorySink{}
	var statuses []wiiboard.Status
	calibrated := false
	d, err := NewDriver(tr, testConfig(2, 1), Options{
		Sink:   sink,
		Logger: quietLogger(),
		Handlers: wiiboard.Handlers{
			OnStatus:     func(s wiiboard.Status) { statuses = append(statuses, s) },
			OnCalibrated: func(wiiboard.CalibrationTable) { calibrated = true },
		},
	})
	if err != nil {
		t.Fatalf("NewDriver error: %v", err)
	}
	if err := d.Connect(); err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if tr.closed != 1 {
		t.Errorf("transport closed %d times, want 1", tr.closed)
	}
	if len(statuses) != 1 || statuses[0].Battery != 0.5 {
		t.Errorf("statuses = %+v, want one at 0.5", statuses)
	}
	if !calibrated || d.Decoder().State() != wiiboard.Calibrated {
		t.Errorf("calibrated = %v, state = %s", calibrated, d.Decoder().State())
	}
	if len(sink.samples) != 4 {
		t.Fatalf("sink got %d samples, want 4", len(sink.samples))
	}
	if got := sink.samples[0].TopRight; got != 8.5 {
		t.Errorf("TopRight = %f, want 8.5", got)
	}
	if got := sink.samples[0].BottomRight; got != 0 {
		t.Errorf("BottomRight = %f, want 0", got)
	}

	expected := [][]byte{
		wiiboard.NewCalibrationRequest(),
		wiiboard.NewExtensionEnable(),
		wiiboard.NewStatusRequest(),
		wiiboard.NewReportingMode(),
		wiiboard.NewStatusRequest(),
		wiiboard.NewLight(false),
		wiiboard.NewStatusRequest(),
	}
	if len(tr.writes) != len(expected) {
		t.Fatalf("wrote %d reports, want %d", len(tr.writes), len(expected))
	}
	for i := range expected {
		if !bytes.Equal(tr.writes[i], expected[i]) {
			t.Errorf("write %d = % X, want % X", i, tr.writes[i], expected[i])
		}
	}

	stats := d.Statistics()
	if stats.ExtensionReports != 4 || stats.ReadDataReports != 2 || stats.StatusReports != 1 {
		t.Errorf("statistics = %+v", stats)
	}
}

func TestDriver_ConnectFailureCloses(t *testing.T) {
	tr := &fakeTransport{writeErr: errors.New("broken pipe")}
	d, err := NewDriver(tr, testConfig(1, 0), Options{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("NewDriver error: %v", err)
	}

	err = d.Connect()
	var te *wiiboard.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Connect error = %v, want TransportError", err)
	}
	if tr.closed != 1 {
		t.Errorf("transport closed %d times, want 1", tr.closed)
	}
}

func TestDriver_OutOfSequenceIsFatal(t *testing.T) {
	tr := &fakeTransport{}
	tr.queue(readDataReport(row(300, 300, 300, 300)))
	tr.queue(extensionReport(0, 150, 150, 150, 150))

	sink := &memorySink{}
	d, _ := NewDriver(tr, testConfig(10, 0), Options{Sink: sink, Logger: quietLogger()})
	if err := d.Connect(); err != nil {
		t.Fatalf("Connect error: %v", err)
	}

	err := d.Run(context.Background())
	if !errors.Is(err, wiiboard.ErrOutOfSequence) {
		t.Fatalf("Run error = %v, want ErrOutOfSequence", err)
	}
	if tr.closed != 1 {
		t.Errorf("transport closed %d times, want 1", tr.closed)
	}
	if len(sink.samples) != 0 {
		t.Errorf("sink got %d samples after fatal error", len(sink.samples))
	}
}

func TestDriver_RecoverableErrorsContinue(t *testing.T) {
	tr := &fakeTransport{}
	tr.queue([]byte{wiiboard.InputHeader})
	tr.reads = append(tr.reads, read{err: timeoutError{}}, read{err: os.ErrDeadlineExceeded})
	tr.queue([]byte{wiiboard.InputHeader, 0x3D, 0x00})
	tr.queue([]byte{wiiboard.InputHeader, wiiboard.ReportExtension, 0x00})
	tr.queue(extensionReport(0, 0, 0, 0, 0))

	sink := &memorySink{}
	var reports []*wiiboard.Report
	d, _ := NewDriver(tr, testConfig(1, 0), Options{
		Sink:     sink,
		Logger:   quietLogger(),
		OnReport: func(r *wiiboard.Report) { reports = append(reports, r) },
	})

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(sink.samples) != 1 {
		t.Errorf("sink got %d samples, want 1", len(sink.samples))
	}
	if len(reports) != 4 {
		t.Errorf("OnReport called %d times, want 4", len(reports))
	}

	stats := d.Statistics()
	if stats.ShortPackets != 1 || stats.UnknownReports != 1 || stats.TruncatedReports != 1 {
		t.Errorf("statistics = %+v", stats)
	}
}

func TestDriver_ReadErrorIsTransportError(t *testing.T) {
	tr := &fakeTransport{}
	d, _ := NewDriver(tr, testConfig(1, 0), Options{Logger: quietLogger()})

	err := d.Run(context.Background())
	var te *wiiboard.TransportError
	if !errors.As(err, &te) || te.Op != "read" || !errors.Is(err, io.EOF) {
		t.Fatalf("Run error = %v, want read TransportError wrapping EOF", err)
	}
	if tr.closed != 1 {
		t.Errorf("transport closed %d times, want 1", tr.closed)
	}
}

func TestDriver_ContextCancelled(t *testing.T) {
	tr := &fakeTransport{}
	tr.queue(extensionReport(0, 0, 0, 0, 0))
	d, _ := NewDriver(tr, testConfig(10, 0), Options{Logger: quietLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if tr.closed != 1 {
		t.Errorf("transport closed %d times, want 1", tr.closed)
	}
}

func TestNewDriver_InvalidConfig(t *testing.T) {
	if _, err := NewDriver(&fakeTransport{}, Config{}, Options{}); err == nil {
		t.Error("expected error for zero config")
	}
}
