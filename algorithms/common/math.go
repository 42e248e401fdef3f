package common

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Basic statistical functions used across algorithms using gonum for robustness

// Median calculates the median of a slice, averaging the two middle elements
// for even-length input. The input is left untouched; a sorted copy is made
// internally.
func Median(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2.0
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	sumSquares := 0.0
	for _, val := range data {
		sumSquares += val * val
	}

	return math.Sqrt(sumSquares / float64(len(data)))
}

// Sum calculates the sum of a slice using gonum
func Sum(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Sum(data)
}

// Dot calculates the dot product of two equal-length slices using gonum.
// Returns 0 for mismatched lengths.
func Dot(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}
	return floats.Dot(a, b)
}

// MaxAbs returns the maximum absolute value in a slice
func MaxAbs(data []float64) float64 {
	maxVal := 0.0
	for _, val := range data {
		if abs := math.Abs(val); abs > maxVal {
			maxVal = abs
		}
	}
	return maxVal
}

// Clamp restricts a value to the closed interval [lo, hi]
func Clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// IsFinite reports whether a value is neither NaN nor infinite
func IsFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
