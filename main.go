// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Balanceboard - Balance Board Recorder
//
// A CLI tool for reading calibrated per-corner weights from a balance board
// and recording them in fixed length sessions.

package main

import (
	"os"

	"github.com/Thermoquad/balanceboard/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
