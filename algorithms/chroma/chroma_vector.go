package chroma

import (
	"github.com/tonalhq/keysense/algorithms/common"
)

// PitchClasses is the number of chroma bins (one per semitone of the octave)
const PitchClasses = 12

// energyEpsilon is the total-energy floor below which a chroma vector is
// considered to carry no tonal content
const energyEpsilon = 1e-12

// Vector is a fixed 12-bin pitch-class energy vector indexed by pitch class
// (0 = C, 1 = C#/Db, ..., 11 = B). A valid vector is non-negative and sums
// to 1; the all-zero vector is the sentinel for atonal or silent input.
type Vector [PitchClasses]float64

// Sum returns the total energy of the vector
func (v Vector) Sum() float64 {
	return common.Sum(v[:])
}

// IsZero reports whether the vector is the all-zero sentinel
func (v Vector) IsZero() bool {
	for _, val := range v {
		if val != 0 {
			return false
		}
	}
	return true
}

// NormalizeSum scales the vector to unit sum. When the total energy is below
// epsilon or non-finite, it returns the all-zero sentinel and false.
func (v Vector) NormalizeSum() (Vector, bool) {
	sum := v.Sum()
	if sum <= energyEpsilon || !common.IsFinite(sum) {
		return Vector{}, false
	}

	var normalized Vector
	for i, val := range v {
		normalized[i] = val / sum
	}
	return normalized, true
}

// Rotate returns the vector cyclically shifted by offset pitch classes,
// so Rotate(k)[i] == v[(i-k) mod 12].
func (v Vector) Rotate(offset int) Vector {
	var rotated Vector
	for i := range v {
		src := ((i - offset) % PitchClasses + PitchClasses) % PitchClasses
		rotated[i] = v[src]
	}
	return rotated
}

// Aggregate collapses a time-by-pitch-class chromagram into a single vector
// by taking the per-pitch-class median across frames. The median is robust
// to outlier frames (transients, dropouts) compared to a mean.
func Aggregate(frames [][]float64) Vector {
	var vec Vector
	if len(frames) == 0 {
		return vec
	}

	column := make([]float64, 0, len(frames))
	for pc := range PitchClasses {
		column = column[:0]
		for _, frame := range frames {
			if pc < len(frame) {
				column = append(column, frame[pc])
			}
		}
		vec[pc] = common.Median(column)
	}

	return vec
}
