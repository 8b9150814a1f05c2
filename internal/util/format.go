package util

import (
	"fmt"
	"time"
)

const (
	HourLayout  = "2006-01-02 15:04"
	ShortLayout = "01-02 15:04"
)

// FormatCount renders a count compactly
func FormatCount(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	} else if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

// FormatHour renders a bucket start in the configured timezone
func FormatHour(t time.Time) string {
	return GetTimeProvider().Format(t, HourLayout)
}

// FormatRange renders an optional time window; nil bounds are open
func FormatRange(start, end *time.Time) string {
	if start == nil && end == nil {
		return "all time"
	}
	from, to := "…", "…"
	if start != nil {
		from = GetTimeProvider().Format(*start, ShortLayout)
	}
	if end != nil {
		to = GetTimeProvider().Format(*end, ShortLayout)
	}
	return from + " → " + to
}

func FormatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
