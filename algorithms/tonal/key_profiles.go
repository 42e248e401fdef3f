package tonal

import (
	"github.com/tonalhq/keysense/algorithms/chroma"
	"github.com/tonalhq/keysense/algorithms/common"
)

// KeyMode represents major or minor mode
type KeyMode int

const (
	KeyModeMajor KeyMode = iota
	KeyModeMinor
)

func (m KeyMode) String() string {
	if m == KeyModeMinor {
		return "minor"
	}
	return "major"
}

// Krumhansl-Schmuckler tonal-hierarchy profiles, rooted at pitch class 0.
// Empirically derived from listener probe-tone ratings; the de facto
// standard weights for template-based key finding.
var (
	majorProfile = chroma.Vector{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88}
	minorProfile = chroma.Vector{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17}
)

// NumCandidates is the number of (tonic, mode) candidates scored
const NumCandidates = 2 * chroma.PitchClasses

// rotatedTemplates holds all 24 candidate templates, rotated once at package
// initialization and shared read-only by all concurrent analyses.
// Index layout follows enumeration order: 2*tonic for major, 2*tonic+1 for
// minor, tonics ascending.
var rotatedTemplates = buildRotatedTemplates()

func buildRotatedTemplates() [NumCandidates]chroma.Vector {
	var templates [NumCandidates]chroma.Vector
	for tonic := range chroma.PitchClasses {
		templates[2*tonic] = majorProfile.Rotate(tonic)
		templates[2*tonic+1] = minorProfile.Rotate(tonic)
	}
	return templates
}

// MajorProfile returns a copy of the major tonal-hierarchy profile
func MajorProfile() chroma.Vector {
	return majorProfile
}

// MinorProfile returns a copy of the minor tonal-hierarchy profile
func MinorProfile() chroma.Vector {
	return minorProfile
}

// KeyCorrelation is the outcome of correlating a chroma vector against all
// 24 rotated key templates.
type KeyCorrelation struct {
	Tonic       int       `json:"tonic"`      // Winning tonic pitch class (0 = C ... 11 = B)
	Mode        KeyMode   `json:"mode"`       // Winning mode
	BestScore   float64   `json:"best_score"` // Highest correlation score
	SecondScore float64   `json:"second_score"`
	Confidence  float64   `json:"confidence"` // BestScore - SecondScore, >= 0
	Scores      []float64 `json:"scores"`     // All 24 scores in enumeration order
}

// Score computes the correlation of a chroma vector with the template for
// one (tonic, mode) candidate as a plain dot product.
func Score(vec chroma.Vector, tonic int, mode KeyMode) float64 {
	idx := 2 * (((tonic % chroma.PitchClasses) + chroma.PitchClasses) % chroma.PitchClasses)
	if mode == KeyModeMinor {
		idx++
	}

	return common.Dot(vec[:], rotatedTemplates[idx][:])
}

// CorrelateProfiles scores a normalized chroma vector against all 24 rotated
// templates in one pass and returns the best candidate with its confidence
// margin (best minus second-best score, non-negative by construction).
//
// Enumeration order is deterministic and doubles as the tie-break rule:
// tonics ascending 0..11, major evaluated before minor for each tonic, and
// the first candidate reaching the maximum score wins.
func CorrelateProfiles(vec chroma.Vector) KeyCorrelation {
	scores := make([]float64, NumCandidates)

	bestScore := -1e18
	secondScore := -1e18
	bestIdx := 0

	for idx := range rotatedTemplates {
		score := common.Dot(vec[:], rotatedTemplates[idx][:])
		scores[idx] = score

		if score > bestScore {
			secondScore = bestScore
			bestScore = score
			bestIdx = idx
		} else if score > secondScore {
			secondScore = score
		}
	}

	mode := KeyModeMajor
	if bestIdx%2 == 1 {
		mode = KeyModeMinor
	}

	return KeyCorrelation{
		Tonic:       bestIdx / 2,
		Mode:        mode,
		BestScore:   bestScore,
		SecondScore: secondScore,
		Confidence:  bestScore - secondScore,
		Scores:      scores,
	}
}
