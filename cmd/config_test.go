// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.IntVar(&minutes, "minutes", 20, "")
	fs.IntVar(&seconds, "seconds", 0, "")
	fs.IntVar(&maxEpochs, "epochs", 0, "")
	fs.DurationVar(&epochPause, "pause", 2*time.Second, "")
	fs.Float64Var(&batteryMax, "battery-max", 200, "")
	fs.StringVar(&configFile, "config", "", "")
	return fs
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	data := "minutes: 1\nseconds: 30\nepochs: 3\npause: 5s\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := testFlags()
	if err := fs.Parse([]string{"--config", path, "--epochs", "7"}); err != nil {
		t.Fatal(err)
	}
	if err := loadConfig(fs); err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}

	if minutes != 1 || seconds != 30 || epochPause != 5*time.Second {
		t.Errorf("minutes=%d seconds=%d pause=%v", minutes, seconds, epochPause)
	}
	if maxEpochs != 7 {
		t.Errorf("epochs = %d, command line should win over the file", maxEpochs)
	}

	cfg := sessionConfig()
	if cfg.SampleCount != 9000 || cfg.MaxEpochs != 7 {
		t.Errorf("sessionConfig = %+v", cfg)
	}
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("BALANCEBOARD_BATTERY_MAX", "180")

	fs := testFlags()
	if err := fs.Parse(nil); err != nil {
		t.Fatal(err)
	}
	if err := loadConfig(fs); err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if batteryMax != 180 {
		t.Errorf("battery-max = %v, want 180", batteryMax)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	fs := testFlags()
	if err := fs.Parse([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}); err != nil {
		t.Fatal(err)
	}
	if err := loadConfig(fs); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadConfig_InvalidValue(t *testing.T) {
	t.Setenv("BALANCEBOARD_EPOCHS", "many")

	fs := testFlags()
	if err := fs.Parse(nil); err != nil {
		t.Fatal(err)
	}
	if err := loadConfig(fs); err == nil {
		t.Error("expected error for non-numeric epochs")
	}
}
