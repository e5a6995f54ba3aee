package utils

import "fmt"

const byteUnitStep = 1024

var byteUnitSuffixes = []string{"KiB", "MiB", "GiB", "TiB"}

// FormatFileSize renders a byte count for the bundle summary, e.g. "512 B" or "1.5 KiB".
func FormatFileSize(bytes int64) string {
	if bytes < byteUnitStep {
		if bytes < 0 {
			bytes = 0
		}
		return fmt.Sprintf("%d B", bytes)
	}
	value := float64(bytes) / byteUnitStep
	suffixIndex := 0
	for value >= byteUnitStep && suffixIndex < len(byteUnitSuffixes)-1 {
		value /= byteUnitStep
		suffixIndex++
	}
	return fmt.Sprintf("%.1f %s", value, byteUnitSuffixes[suffixIndex])
}
