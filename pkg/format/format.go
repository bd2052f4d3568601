// Package format holds the numeric display helpers shared by module
// renderers: padded floats, byte quantities, and transfer rates.
package format

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// PadFloat renders a float with two decimals, collapsing whole numbers
// to their integer form ("7" rather than "7.00").
func PadFloat(n float64) string {
	if n == float64(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%.2f", n)
}

// Bytes renders a byte count in binary units ("1.2 GiB").
func Bytes(n uint64) string {
	return humanize.IBytes(n)
}

// Percent renders a percentage with at most one decimal.
func Percent(n float64) string {
	if n == float64(int64(n)) {
		return fmt.Sprintf("%d%%", int64(n))
	}
	return fmt.Sprintf("%.1f%%", n)
}

// Rate renders a bytes-per-second transfer rate in binary units.
func Rate(bytesPerSec float64) string {
	n := bytesPerSec
	for _, unit := range []string{"", "Ki", "Mi", "Gi", "Ti", "Pi"} {
		if n < 1024 {
			return fmt.Sprintf("%s %sB/s", PadFloat(n), unit)
		}
		n /= 1024
	}
	return fmt.Sprintf("%s EiB/s", PadFloat(n))
}

// Hertz renders a processor frequency with an SI prefix.
func Hertz(hz float64) string {
	n := hz
	for _, unit := range []string{"", "K", "M", "G"} {
		if n < 1000 {
			return fmt.Sprintf("%s %sHz", PadFloat(n), unit)
		}
		n /= 1000
	}
	return fmt.Sprintf("%s THz", PadFloat(n))
}

// SI renders a large count with an SI suffix ("2.95T").
func SI(n float64) string {
	return strings.ReplaceAll(humanize.SIWithDigits(n, 2, ""), " ", "")
}

// Duration renders an uptime as "3d 4h 12m".
func Duration(seconds uint64) string {
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	parts = append(parts, fmt.Sprintf("%dm", minutes))
	return strings.Join(parts, " ")
}

// AlignKeys renders "key : value" lines with the colons aligned, the
// tooltip layout every module shares.
func AlignKeys(pairs [][2]string) string {
	width := 0
	for _, p := range pairs {
		if len(p[0]) > width {
			width = len(p[0])
		}
	}
	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		lines = append(lines, fmt.Sprintf("%-*s : %s", width, p[0], p[1]))
	}
	return strings.Join(lines, "\n")
}
