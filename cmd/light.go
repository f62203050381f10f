// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/Thermoquad/balanceboard/pkg/wiiboard"
	"github.com/spf13/cobra"
)

var lightCmd = &cobra.Command{
	Use:       "light <on|off>",
	Short:     "Switch the board light",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"on", "off"},
	RunE:      runLight,
}

func init() {
	rootCmd.AddCommand(lightCmd)
}

func runLight(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection(cmd.Context())
	if err != nil {
		return err
	}
	defer conn.Close()

	on := args[0] == "on"
	if _, err := conn.Write(wiiboard.NewLight(on)); err != nil {
		return fmt.Errorf("failed to send %s: %v", wiiboard.FormatCommand(wiiboard.CmdLight), err)
	}

	fmt.Printf("%s %s\n", headerStyle.Render(connInfo), field("Light", args[0]))
	return nil
}
