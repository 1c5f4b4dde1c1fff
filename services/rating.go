package services

import "math"

// RoundRating rounds a mean rating to one decimal, ties to even
// (4.25 -> 4.2, 4.75 -> 4.8).
func RoundRating(avg float64) float64 {
	if math.IsNaN(avg) || math.IsInf(avg, 0) {
		return 0
	}
	return math.RoundToEven(avg*10) / 10
}
