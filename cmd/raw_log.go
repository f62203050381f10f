// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thermoquad/balanceboard/pkg/session"
	"github.com/Thermoquad/balanceboard/pkg/wiiboard"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	statsInterval int
	hideExtension bool
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display raw report log in human-readable format",
	Long: `Send the connection handshake, then continuously decode and display board
reports as they arrive.

Each report is shown with timestamp, report type, and decoded payload data.
Statistics (report counts by type, short and malformed reports) are printed at
--stats-interval; 0 disables them.

Supports L2CAP, serial and WebSocket connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	rawLogCmd.Flags().BoolVar(&hideExtension, "hide-extension", false, "Do not print extension (weight) reports")
}

type received struct {
	report *wiiboard.Report
	err    error
}

func runRawLog(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, connInfo, err := OpenConnection(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	printBanner("Raw Report Log", connInfo, "Press Ctrl+C to exit")

	decoder := wiiboard.NewDecoder(conn, batteryMax, wiiboard.Handlers{
		OnCalibrated: func(t wiiboard.CalibrationTable) {
			fmt.Println(formatCalibration(t))
		},
		OnPressed:  func() { fmt.Println(warningStyle.Render("Button pressed")) },
		OnReleased: func() { fmt.Println(warningStyle.Render("Button released")) },
	})
	if err := decoder.Handshake(); err != nil {
		return err
	}

	reports := make(chan received, 16)
	go readReports(ctx, conn, reports)

	stats := wiiboard.NewStatistics()
	var tick <-chan time.Time
	if statsInterval > 0 {
		ticker := time.NewTicker(time.Duration(statsInterval) * time.Second)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			fmt.Print(stats.String())
			return nil

		case <-tick:
			stats.CalculateRates()
			fmt.Print(stats.String())

		case r := <-reports:
			if r.err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logrus.WithError(r.err).Error("Connection closed")
				return r.err
			}

			_, decodeErr := decoder.Decode(r.report.Raw())
			stats.Update(r.report.Raw(), decodeErr)
			if decodeErr != nil {
				fmt.Println(errorStyle.Render(fmt.Sprintf("[ERROR] %v", decodeErr)))
				if wiiboard.IsFatal(decodeErr) {
					return decodeErr
				}
				continue
			}
			if hideExtension && r.report.Tag() == wiiboard.ReportExtension {
				continue
			}
			fmt.Print(wiiboard.FormatReport(r.report, batteryMax))
		}
	}
}

// readReports forwards reports from conn until a read fails or ctx is done.
// Read timeouts are skipped.
func readReports(ctx context.Context, conn session.Transport, out chan<- received) {
	buf := make([]byte, wiiboard.ReceiveChunkSize)
	for ctx.Err() == nil {
		n, err := conn.Read(buf)
		if err != nil {
			if session.IsTimeout(err) {
				continue
			}
			select {
			case out <- received{err: err}:
			case <-ctx.Done():
			}
			return
		}

		select {
		case out <- received{report: wiiboard.NewReport(buf[:n])}:
		case <-ctx.Done():
			return
		}
	}
}
