package util

// Round2 rounds to two decimal places, the precision the dashboard shows for
// percentage deltas.
func Round2(v float64) float64 {
	if v >= 0 {
		return float64(int64(v*100+0.5)) / 100
	}
	return float64(int64(v*100-0.5)) / 100
}
