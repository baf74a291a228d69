// Package format renders elapsed time for display.
package format

import "fmt"

// Clock formats a second count as zero-padded HH:MM:SS. Hours are unbounded.
func Clock(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	secs := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}

// Minutes renders a minute total as a compact human string, e.g. "2h 15m".
func Minutes(totalMinutes int) string {
	if totalMinutes < 0 {
		totalMinutes = 0
	}
	if totalMinutes < 60 {
		return fmt.Sprintf("%dm", totalMinutes)
	}
	hours := totalMinutes / 60
	mins := totalMinutes % 60
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, mins)
}
