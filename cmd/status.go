// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/balanceboard/pkg/session"
	"github.com/Thermoquad/balanceboard/pkg/wiiboard"
	"github.com/spf13/cobra"
)

var (
	statusTimeout int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Test connection by waiting for a status report and calibration",
	Long: `Send the connection handshake and wait until the board has answered with a
status report and its factory calibration.

Exit codes:
  0 - Status and calibration received before timeout
  1 - Timeout reached
  2 - Connection or protocol error

Useful for testing pairing, bridges and the battery level.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().IntVar(&statusTimeout, "timeout", 10, "Timeout in seconds to wait for the board")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, connInfo, err := OpenConnection(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	statusChan := make(chan wiiboard.Status, 1)
	calChan := make(chan wiiboard.CalibrationTable, 1)

	cfg := session.DefaultConfig()
	cfg.BatteryMax = batteryMax
	driver, err := session.NewDriver(conn, cfg, session.Options{
		Handlers: wiiboard.Handlers{
			OnStatus: func(s wiiboard.Status) {
				select {
				case statusChan <- s:
				default:
				}
			},
			OnCalibrated: func(t wiiboard.CalibrationTable) {
				calChan <- t
			},
		},
	})
	if err != nil {
		conn.Close()
		return err
	}
	defer driver.Close()

	printBanner("Status", connInfo, fmt.Sprintf("Timeout: %d seconds", statusTimeout))

	if err := driver.Connect(); err != nil {
		fmt.Fprintf(os.Stderr, "Handshake error: %v\n", err)
		os.Exit(2)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- driver.Run(ctx)
	}()

	var status *wiiboard.Status
	var calibration *wiiboard.CalibrationTable
	timeout := time.After(time.Duration(statusTimeout) * time.Second)

	for status == nil || calibration == nil {
		select {
		case s := <-statusChan:
			status = &s
		case t := <-calChan:
			calibration = &t
		case err := <-errChan:
			fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Read error: %v", err)))
			os.Exit(2)
		case <-timeout:
			fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf(
				"TIMEOUT: board did not answer within %d seconds (status: %v, calibration: %v)",
				statusTimeout, status != nil, calibration != nil)))
			os.Exit(1)
		}
	}

	fmt.Println(valueStyle.Render("SUCCESS: Board is ready"))
	fmt.Printf("  %s (raw %d)\n", labelStyle.Render("Battery:")+" "+batteryText(*status), status.RawBattery)
	fmt.Printf("  %s\n", field("Light", onOff(status.Light)))
	fmt.Println(formatCalibration(*calibration))

	if err := driver.SetLight(true); err != nil {
		fmt.Fprintln(os.Stderr, warningStyle.Render(fmt.Sprintf("Failed to switch light on: %v", err)))
	}

	cancel()
	driver.Close()
	os.Exit(0)
	return nil
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
