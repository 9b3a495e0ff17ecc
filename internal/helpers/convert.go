// Package helpers provides small numeric utilities shared across paleofed,
// most notably clamping values into a valid range before they're used to
// configure a budget (retry counts, timeouts).
package helpers

// ClampInt restricts v to the range [lowerLimit, upperLimit].
func ClampInt(v, lowerLimit, upperLimit int) int {
	if v < lowerLimit {
		return lowerLimit
	}
	if v > upperLimit {
		return upperLimit
	}
	return v
}
