// Package mathutil provides small numeric helpers shared across the
// resolver, store, and sync packages.
package mathutil

// Min returns the smaller of a and b.
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
