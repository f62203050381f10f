// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/Thermoquad/balanceboard/pkg/wiiboard"
	"github.com/sirupsen/logrus"
)

// State of the epoch controller
type State int

// Controller states
const (
	StateSampling State = iota
	StateEpochComplete
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateSampling:
		return "sampling"
	case StateEpochComplete:
		return "epoch_complete"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Commander sends output reports to the board
type Commander interface {
	Send(report []byte) error
}

// Controller fills the sampling window and runs the epoch cycle
type Controller struct {
	cfg     Config
	window  *Window
	board   Commander
	release func() error
	log     logrus.FieldLogger

	epoch int
	state State

	// OnEpoch is called with the epoch number after each completed epoch
	OnEpoch func(epoch int)

	sleep func(ctx context.Context, d time.Duration) error
}

// NewController creates a controller. release is called once when the
// session terminates.
func NewController(cfg Config, board Commander, release func() error, log logrus.FieldLogger) *Controller {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Controller{
		cfg:     cfg,
		window:  NewWindow(cfg.SampleCount),
		board:   board,
		release: release,
		log:     log,
		sleep:   sleepContext,
	}
}

// Epoch returns the number of completed epochs
func (c *Controller) Epoch() int {
	return c.epoch
}

// State returns the controller state
func (c *Controller) State() State {
	return c.state
}

// Window returns the sampling window
func (c *Controller) Window() *Window {
	return c.window
}

// Observe adds a sample to the window. When the window fills it completes
// the epoch and returns true once the session has terminated.
func (c *Controller) Observe(ctx context.Context, s wiiboard.WeightSample) (bool, error) {
	if c.state == StateTerminated {
		return true, nil
	}
	if !c.window.Push(s) {
		return false, nil
	}

	c.window.Clear()
	c.state = StateEpochComplete

	// Stops the extension stream until the status handler re-arms reporting
	if err := c.board.Send(wiiboard.NewStatusRequest()); err != nil {
		return false, err
	}

	c.epoch++
	c.log.WithFields(logrus.Fields{"epoch": c.epoch, "samples": c.cfg.SampleCount}).Info("Epoch complete")
	if c.OnEpoch != nil {
		c.OnEpoch(c.epoch)
	}

	if c.epoch > c.cfg.MaxEpochs {
		c.state = StateTerminated
		c.log.WithField("epochs", c.epoch).Info("Session terminated")
		if c.release != nil {
			if err := c.release(); err != nil {
				return true, err
			}
		}
		return true, nil
	}

	if err := c.board.Send(wiiboard.NewLight(false)); err != nil {
		return false, err
	}
	if err := c.sleep(ctx, c.cfg.EpochPause); err != nil {
		return false, err
	}

	c.state = StateSampling
	return false, nil
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
