// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/Thermoquad/balanceboard/pkg/wiiboard"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// printBanner prints the command title and connection details
func printBanner(title, connInfo string, lines ...string) {
	fmt.Println(titleStyle.Render("Balanceboard - " + title))
	fmt.Println(headerStyle.Render("Connection: " + connInfo))
	for _, l := range lines {
		fmt.Println(headerStyle.Render(l))
	}
	fmt.Println()
}

// field renders a label/value pair
func field(label string, value interface{}) string {
	return labelStyle.Render(label+":") + " " + valueStyle.Render(fmt.Sprint(value))
}

// batteryText colours the battery level by charge
func batteryText(s wiiboard.Status) string {
	text := fmt.Sprintf("%.1f%%", s.Battery*100)
	switch {
	case s.Battery < 0.1:
		return errorStyle.Render(text)
	case s.Battery < 0.25:
		return warningStyle.Render(text)
	default:
		return valueStyle.Render(text)
	}
}

// formatCalibration renders the calibration table in a box
func formatCalibration(t wiiboard.CalibrationTable) string {
	corners := []string{"TR", "BR", "TL", "BL"}
	out := headerStyle.Render(fmt.Sprintf("%-4s %8s %8s %8s", "", "0 kg", "17 kg", "34 kg"))
	for i, name := range corners {
		c := t.Corner(i)
		out += "\n" + labelStyle.Render(fmt.Sprintf("%-4s", name)) +
			valueStyle.Render(fmt.Sprintf(" %8.0f %8.0f %8.0f", c[0], c[1], c[2]))
	}
	return boxStyle.Render(out)
}
