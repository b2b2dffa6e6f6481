package report

import (
	"fmt"

	"github.com/perfgraph/perfgraph/component"
)

// unitScale maps a raw measurement to a human-scaled value and suffix.
type unitScale struct {
	divisor float64
	suffix  string
}

var timingScales = []unitScale{
	{1e9, "s"},
	{1e6, "ms"},
	{1e3, "us"},
	{1, "ns"},
}

var memoryScales = []unitScale{
	{1 << 30, "GB"},
	{1 << 20, "MB"},
	{1 << 10, "KB"},
	{1, "B"},
}

func pickScale(scales []unitScale, v float64) unitScale {
	if v < 0 {
		v = -v
	}
	for _, s := range scales {
		if v >= s.divisor {
			return s
		}
	}
	return scales[len(scales)-1]
}

// formatValue renders a raw measurement in the units of the component kind,
// scaled to the largest unit that keeps the value at or above one.
func formatValue(kind component.Kind, raw int64) string {
	caps := component.Capabilities(kind)
	v := float64(raw)
	switch {
	case caps.UsesTimingUnits:
		s := pickScale(timingScales, v)
		return fmt.Sprintf("%.3f %s", v/s.divisor, s.suffix)
	case caps.UsesMemoryUnits:
		s := pickScale(memoryScales, v)
		return fmt.Sprintf("%.3f %s", v/s.divisor, s.suffix)
	case caps.UsesPercentUnits:
		return fmt.Sprintf("%.1f %%", v)
	default:
		return fmt.Sprintf("%d", raw)
	}
}

// formatMean divides the accumulated value by the lap count before scaling.
func formatMean(kind component.Kind, accum int64, laps uint64) string {
	if laps == 0 {
		return formatValue(kind, accum)
	}
	return formatValue(kind, accum/int64(laps))
}
