package util

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatSeconds renders a duration in seconds as "SS.mmms", truncating
// (not rounding) the millisecond part. 12.3456 -> "12.345s".
func FormatSeconds(seconds float64) string {
	whole := int64(seconds)
	ms := int64((seconds - float64(whole)) * 1000)
	return fmt.Sprintf("%d.%03ds", whole, ms)
}

// ParseTimestamp reads a "SS.mmm" value with an optional trailing "s"
// suffix, e.g. "90", "12.345s", " 0.5s ".
func ParseTimestamp(raw string) (float64, error) {
	cleaned := strings.TrimRight(strings.TrimSpace(raw), "s")
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q", raw)
	}
	return value, nil
}
