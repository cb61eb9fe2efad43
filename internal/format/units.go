package format

import (
	"fmt"
	"time"

	"github.com/docker/go-units"
)

// NA is shown for values that could not be measured.
const NA = "N/A"

var binaryAbbrs = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// Bytes renders n in binary multiples with one decimal, e.g. 45.2 MB.
func Bytes(n uint64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	return units.CustomSize("%.1f %s", float64(n), 1024.0, binaryAbbrs)
}

// CPUPercent converts engine CPU counters into a percentage of one core
// times the number of online CPUs. The result is clamped to [0, cpus*100].
// ok is false when the sample cannot be interpreted.
func CPUPercent(cpuDelta, systemDelta uint64, cpus uint32) (pct float64, ok bool) {
	if systemDelta == 0 || cpus == 0 {
		return 0, false
	}
	pct = float64(cpuDelta) / float64(systemDelta) * float64(cpus) * 100
	if limit := float64(cpus) * 100; pct > limit {
		pct = limit
	}
	if pct < 0 {
		pct = 0
	}
	return pct, true
}

// Percent renders v with one decimal and a percent sign.
func Percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// Ago renders the age of t relative to now, e.g. "2 hours ago".
func Ago(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	return units.HumanDuration(d) + " ago"
}
