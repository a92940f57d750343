package timing

import (
	"fmt"
	"strings"
	"time"
)

// Placeholder is shown for a time that cannot be computed yet.
const Placeholder = "**:**"

// FormatDuration renders d as [h:]mm:ss, with tenths of a second when detailed.
// Negative durations are rendered by magnitude; callers add the sign.
func FormatDuration(d time.Duration, detailed bool) string {
	if d < 0 {
		d = -d
	}
	var tenths int64
	if detailed {
		tenths = int64(d.Round(100*time.Millisecond) / (100 * time.Millisecond))
	} else {
		tenths = int64(d/time.Second) * 10
	}
	totalSecs := tenths / 10
	hh := totalSecs / 3600
	mm := (totalSecs % 3600) / 60
	ss := totalSecs % 60

	var b strings.Builder
	if hh > 0 {
		fmt.Fprintf(&b, "%d:", hh)
	}
	fmt.Fprintf(&b, "%02d:%02d", mm, ss)
	if detailed {
		fmt.Fprintf(&b, ".%d", tenths%10)
	}
	return b.String()
}

// FormatOpt renders an optional duration, or the placeholder when absent.
func FormatOpt(o OptDuration, detailed bool) string {
	d, ok := o.Get()
	if !ok {
		return Placeholder
	}
	return FormatDuration(d, detailed)
}
