package domain

import "math"

// Percentage turns a raw measurement into a display percentage in [0, 100].
// A target of zero or less is degenerate and yields 0 instead of dividing.
// Over-achievement is capped at 100; the raw current value is left untouched.
func Percentage(current, target float64) int {
	if target <= 0 {
		return 0
	}
	return clamp(roundHalfUp(current / target * 100))
}

func IsCompleted(current, target float64) bool {
	return target > 0 && current >= target
}

// ObjectivePercentage is the mean of the key results' percentages, each key
// result weighted equally regardless of its target magnitude.
func ObjectivePercentage(o Objective) int {
	if len(o.KeyResults) == 0 {
		return 0
	}

	sum := 0
	for _, kr := range o.KeyResults {
		sum += kr.Percentage()
	}

	return clamp(roundHalfUp(float64(sum) / float64(len(o.KeyResults))))
}

// roundHalfUp is the single rounding policy for item and rollup percentages.
// v is bounded to [0, 100] before the conversion so huge ratios cannot
// overflow int.
func roundHalfUp(v float64) int {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 100:
		return 100
	}
	return int(math.Floor(v + 0.5))
}

func clamp(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
