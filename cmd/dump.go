// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/balanceboard/pkg/record"
	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var dumpSummary bool

var dumpCmd = &cobra.Command{
	Use:   "dump <file.cbor>",
	Short: "Convert a CBOR recording to CSV",
	Long: `Read a recording written with --format cbor and print it as CSV on stdout.

Columns: timestamp (RFC 3339), top-right, bottom-right, top-left, bottom-left.
With --summary only the record count, time span and mean total weight are printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().BoolVar(&dumpSummary, "summary", false, "Print a summary instead of every record")
}

func runDump(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open %s", args[0])
	}
	defer f.Close()

	samples, err := record.ReadCBOR(f)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to decode %s after %d records", args[0], len(samples))
	}

	if dumpSummary {
		if len(samples) == 0 {
			fmt.Println(field("Records", 0))
			return nil
		}
		total := 0.0
		for _, s := range samples {
			total += s.WeightSample().Total()
		}
		first := time.UnixMilli(samples[0].Time)
		last := time.UnixMilli(samples[len(samples)-1].Time)
		fmt.Println(field("Records", len(samples)))
		fmt.Println(field("Start", first.Format(time.RFC3339)))
		fmt.Println(field("Duration", last.Sub(first)))
		fmt.Println(field("Mean total", fmt.Sprintf("%.2f kg", total/float64(len(samples)))))
		return nil
	}

	for _, s := range samples {
		fmt.Printf("%s,%g,%g,%g,%g\n", time.UnixMilli(s.Time).Format(time.RFC3339Nano),
			s.TopRight, s.BottomRight, s.TopLeft, s.BottomLeft)
	}
	return nil
}
