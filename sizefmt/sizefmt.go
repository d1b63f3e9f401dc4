// Package sizefmt renders byte counts as human-readable strings, for
// presenting volume capacity and free space.
package sizefmt

import "fmt"

var units = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// Bytes renders n using the binary (1024-based) ladder, e.g. 1536 ->
// "1.5KB". Values under 1024 are rendered as a bare integer with the "B"
// suffix.
func Bytes(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%dB", n)
	}
	f := float64(n)
	unit := 0
	for f >= 1024 && unit < len(units)-1 {
		f /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f%s", f, units[unit])
}
