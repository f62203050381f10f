// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wiiboard

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// FormatReport formats a report into a human-readable string.
// batteryMax scales the battery reading of status reports.
func FormatReport(r *Report, batteryMax float64) string {
	timestamp := r.timestamp.Format("15:04:05.000")
	result := fmt.Sprintf("[%s] %s (0x%02X) len=%d\n", timestamp, FormatReportType(r.Tag()), r.Tag(), r.Len())
	return result + formatPayload(r.raw, batteryMax)
}

// FormatReportType returns the human-readable name for a report tag
func FormatReportType(tag byte) string {
	switch tag {
	case ReportStatus:
		return "STATUS"
	case ReportReadData:
		return "READ_DATA"
	case ReportExtension:
		return "EXTENSION_8"
	default:
		return "UNKNOWN"
	}
}

// FormatCommand returns the human-readable name for an output report opcode
func FormatCommand(opcode byte) string {
	switch opcode {
	case CmdLight:
		return "LIGHT"
	case CmdReportingMode:
		return "REPORTING_MODE"
	case CmdRequestStatus:
		return "REQUEST_STATUS"
	case CmdWriteRegister:
		return "WRITE_REGISTER"
	case CmdReadRegister:
		return "READ_REGISTER"
	default:
		return "UNKNOWN"
	}
}

func formatPayload(raw []byte, batteryMax float64) string {
	if batteryMax <= 0 {
		batteryMax = DefaultBatteryMax
	}

	if len(raw) >= MinReportSize {
		switch raw[1] {
		case ReportStatus:
			if len(raw) >= statusBatteryOffset+2 {
				level := binary.BigEndian.Uint16(raw[statusBatteryOffset:])
				light := "off"
				if raw[statusFlagsOffset]&LED1Mask != 0 {
					light = "on"
				}
				return fmt.Sprintf("  Battery: %d (%.1f%%), Light: %s\n", level, float64(level)*100.0/batteryMax, light)
			}

		case ReportReadData:
			if len(raw) >= readDataOffset {
				size := int(raw[readInfoOffset]>>4) + 1
				errCode := raw[readInfoOffset] & 0x0F
				offset := binary.BigEndian.Uint16(raw[5:7])
				return fmt.Sprintf("  Size: %d, Error: 0x%X, Offset: 0x%04X\n%s", size, errCode, offset, hexDump(raw[readDataOffset:]))
			}

		case ReportExtension:
			if len(raw) >= massOffset+massSize {
				buttons := binary.BigEndian.Uint16(raw[buttonOffset:])
				var sb strings.Builder
				fmt.Fprintf(&sb, "  Buttons: 0x%04X", buttons)
				for i, name := range []string{"TR", "BR", "TL", "BL"} {
					fmt.Fprintf(&sb, ", %s=%d", name, binary.BigEndian.Uint16(raw[massOffset+i*2:]))
				}
				sb.WriteString("\n")
				return sb.String()
			}
		}
	}

	return hexDump(raw)
}

// hexDump formats bytes 16 per line
func hexDump(b []byte) string {
	result := "  Payload: "
	for i, v := range b {
		if i > 0 && i%16 == 0 {
			result += "\n           "
		}
		result += fmt.Sprintf("%02X ", v)
	}
	return result + "\n"
}
