package repository

const (
	DefaultWindowDays = 30
	MaxWindowDays     = 365
)

// NormalizeWindowDays clamps a requested history window to [1, MaxWindowDays],
// using DefaultWindowDays for non-positive input.
func NormalizeWindowDays(days int) int {
	if days <= 0 {
		return DefaultWindowDays
	}
	if days > MaxWindowDays {
		return MaxWindowDays
	}
	return days
}
