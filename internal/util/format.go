package util

import (
	"fmt"
	"strconv"
	"strings"
)

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// FormatSize renders a byte count as a human readable string with two
// decimal places, e.g. 1536 -> "1.50 KB".
func FormatSize(sizeBytes int64) string {
	size := float64(sizeBytes)
	unit := 0
	for size >= 1024 && unit < len(sizeUnits)-1 {
		size /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", size, sizeUnits[unit])
}

// ParseCompactInt parses the source site's compact view-count notation
// into a plain integer: "1.2M" -> 1200000, "3.5K" -> 3500, "834" -> 834.
func ParseCompactInt(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty value")
	}

	multiplier := int64(1)
	switch value[len(value)-1] {
	case 'K', 'k':
		multiplier = 1_000
		value = value[:len(value)-1]
	case 'M', 'm':
		multiplier = 1_000_000
		value = value[:len(value)-1]
	}

	if multiplier == 1 {
		return strconv.ParseInt(strings.ReplaceAll(value, ",", ""), 10, 64)
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid compact integer %q: %w", value, err)
	}
	return int64(f * float64(multiplier)), nil
}
