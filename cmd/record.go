// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thermoquad/balanceboard/pkg/record"
	"github.com/Thermoquad/balanceboard/pkg/session"
	"github.com/Thermoquad/balanceboard/pkg/wiiboard"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	outputDir    string
	outputFormat string
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record weight samples to a file",
	Long: `Connect to the board, wait for calibration and record every weight sample.

Each epoch lasts --minutes/--seconds at 100 samples per second. After an epoch
the board light is switched off for --pause, then the next epoch starts. The
session ends once --epochs additional epochs have completed.

Samples are written to "mass <date>.csv" (or .cbor) in the output directory,
one row per sample: top-right, bottom-right, top-left, bottom-left in kg.`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringVarP(&outputDir, "output", "o", "./RawData", "Output directory")
	recordCmd.Flags().StringVarP(&outputFormat, "format", "f", string(record.FormatCSV), "Output format (csv or cbor)")
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg := sessionConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}
	format, err := record.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, connInfo, err := OpenConnection(ctx)
	if err != nil {
		return err
	}

	sink, path, err := record.Create(outputDir, format, time.Now())
	if err != nil {
		conn.Close()
		return err
	}
	defer sink.Close()

	log := logrus.StandardLogger()
	var driver *session.Driver
	lightOn := func() {
		if err := driver.SetLight(true); err != nil {
			log.WithError(err).Warn("Failed to switch light on")
		}
	}

	handlers := wiiboard.Handlers{
		OnStatus: func(s wiiboard.Status) {
			log.WithFields(logrus.Fields{
				"battery": fmt.Sprintf("%.2f%%", s.Battery*100),
				"light":   s.Light,
			}).Info("Status")
			lightOn()
		},
		OnCalibrated: func(t wiiboard.CalibrationTable) {
			log.WithField("calibration", t.String()).Info("Board calibrated")
			fmt.Println(formatCalibration(t))
			fmt.Println(titleStyle.Render("MEASUREMENT IN PROGRESS"))
			lightOn()
		},
		OnMass: func(s wiiboard.WeightSample) {
			log.WithField("total", s.Total()).Debug("New mass data")
		},
		OnPressed:  func() { log.Info("Button pressed") },
		OnReleased: func() { log.Info("Button released") },
	}

	driver, err = session.NewDriver(conn, cfg, session.Options{
		Handlers: handlers,
		Sink:     sink,
		Logger:   log,
		OnEpoch: func(epoch int) {
			fmt.Printf("\n%s\n\n", titleStyle.Render(fmt.Sprintf(
				"SESSION %d OF LENGTH %d MINUTES AND %d SECONDS HAS BEEN COMPLETED", epoch, minutes, seconds)))
		},
	})
	if err != nil {
		conn.Close()
		return err
	}

	printBanner("Record", connInfo,
		"Output: "+path,
		fmt.Sprintf("Epoch: %d samples, %d additional epochs, %s pause", cfg.SampleCount, cfg.MaxEpochs, cfg.EpochPause),
		"Press Ctrl+C to stop")

	// WebSocket reads have no timeout; closing the driver unblocks them
	go func() {
		<-ctx.Done()
		driver.Close()
	}()

	if err := driver.Connect(); err != nil {
		return err
	}
	log.Info("Wait for calibration")

	err = driver.Run(ctx)
	stats := driver.Statistics()
	log.WithFields(logrus.Fields{
		"reports": stats.TotalReports,
		"samples": stats.ExtensionReports,
		"errors":  stats.ProtocolErrors,
	}).Info("Session finished")

	if errors.Is(err, context.Canceled) {
		log.Info("Interrupted")
		return nil
	}
	return err
}
