package protocol

import "math"

// PercentPerLevel is the width of one speed level on the 0-100 scale the
// host uses. The device itself only understands levels 0-3.
const PercentPerLevel = 33.33

// MaxLevel is the highest speed level the device accepts.
const MaxLevel = 3

// LevelToPercent converts a device speed level to the host's percentage
// scale.
func LevelToPercent(level int) float64 {
	return float64(level) * PercentPerLevel
}

// PercentToLevel converts a host percentage to the nearest device speed
// level, clamped to [0,MaxLevel]. Rounding is half-away-from-zero, so
// 50% maps to level 2 (50/33.33 = 1.50, rounds up).
func PercentToLevel(pct float64) int {
	level := int(math.Round(pct / PercentPerLevel))
	if level < 0 {
		return 0
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// Active reports whether a speed level means the fan is running.
func Active(level int) bool {
	return level > 0
}
