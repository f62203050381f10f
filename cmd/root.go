// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"time"

	"github.com/Thermoquad/balanceboard/pkg/session"
	"github.com/Thermoquad/balanceboard/pkg/transport"
	"github.com/Thermoquad/balanceboard/pkg/wiiboard"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Direct L2CAP connection flags
	boardAddress string
	readTimeout  time.Duration

	// Serial bridge flags
	portName string
	baudRate int

	// WebSocket bridge flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Session flags
	minutes    int
	seconds    int
	maxEpochs  int
	epochPause time.Duration
	batteryMax float64

	configFile string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "balanceboard",
	Short: "Balance Board Recorder",
	Long: `Balanceboard - A CLI tool for recording weight samples from a balance board.

Connects to the board, reads the factory calibration and records per-corner
weights in fixed length sessions.

Connection modes:
  L2CAP:     --address 00:1E:35:3B:7E:6D (Linux, board already paired)
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

Settings may also come from a YAML/TOML/JSON file given with --config, or
from BALANCEBOARD_* environment variables (e.g. BALANCEBOARD_ADDRESS).

For WebSocket authentication, the password is read from the BALANCEBOARD_PASSWORD
environment variable, or prompted interactively if not set.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&boardAddress, "address", "a", "", "Board Bluetooth address (L2CAP)")
	rootCmd.PersistentFlags().DurationVar(&readTimeout, "read-timeout", time.Second, "Receive timeout per read (L2CAP and serial)")

	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial bridge device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", transport.DefaultBaudRate, "Baud rate (serial only)")

	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket bridge URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().IntVar(&minutes, "minutes", int(session.DefaultDuration/time.Minute), "Epoch length, minutes part")
	rootCmd.PersistentFlags().IntVar(&seconds, "seconds", 0, "Epoch length, seconds part")
	rootCmd.PersistentFlags().IntVar(&maxEpochs, "epochs", session.DefaultMaxEpochs, "Additional epochs after the first")
	rootCmd.PersistentFlags().DurationVar(&epochPause, "pause", session.DefaultEpochPause, "Pause between epochs")
	rootCmd.PersistentFlags().Float64Var(&batteryMax, "battery-max", wiiboard.DefaultBatteryMax, "Raw battery reading of a full battery")

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func setup(cmd *cobra.Command, args []string) error {
	if err := loadConfig(cmd.Flags()); err != nil {
		return err
	}
	setupLogging()
	return nil
}

func setupLogging() {
	logrus.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05.000",
		FullTimestamp:   true,
	})
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// sessionConfig builds the session configuration from the flags
func sessionConfig() session.Config {
	d := time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second
	return session.Config{
		SampleCount: session.SampleCountFor(d),
		MaxEpochs:   maxEpochs,
		EpochPause:  epochPause,
		BatteryMax:  batteryMax,
	}
}
