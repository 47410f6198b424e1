package retry

import "time"

// ExponentialBackoff returns base * 2^attempt, capped at max when max > 0.
func ExponentialBackoff(attempt int, base, max time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := base * (1 << attempt)
	if max > 0 && (d > max || d <= 0) {
		return max
	}
	return d
}
