package keyfind

import (
	"math"
	"sort"

	"github.com/tonalhq/keysense/algorithms/chroma"
)

// RankNotes derives the dominant-note list from a sum-normalized chroma
// vector: pitch classes ordered by energy share descending, at most maxNotes
// entries, entries below minPercent dropped, percentages rounded to one
// decimal. Ties are broken by ascending pitch class so the listing is
// reproducible. Diagnostic only; never influences the key decision.
func RankNotes(vec chroma.Vector, maxNotes int, minPercent float64) []Note {
	order := make([]int, chroma.PitchClasses)
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		return vec[order[a]] > vec[order[b]]
	})

	notes := make([]Note, 0, maxNotes)
	for _, pc := range order {
		if len(notes) >= maxNotes {
			break
		}

		percent := vec[pc] * 100.0
		if percent < minPercent {
			continue
		}

		notes = append(notes, Note{
			Name:    NoteNames[pc],
			Percent: math.Round(percent*10) / 10,
		})
	}

	return notes
}
