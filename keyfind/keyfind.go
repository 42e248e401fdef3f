// Package keyfind estimates the musical key (tonic + major/minor mode) of a
// short audio clip. Two interchangeable estimators feed one canonical result
// contract: a local signal-processing pipeline (pre-emphasis, harmonic/
// percussive separation, constant-Q chroma, tonal-profile correlation) and a
// remote-inference estimator that recovers structured data from free-form
// model text. Both paths terminate in a KeyEstimate.
package keyfind

// Provenance identifies which estimator produced a KeyEstimate
type Provenance string

const (
	ProvenanceLocal  Provenance = "local"
	ProvenanceRemote Provenance = "remote"
)

// NoteNames maps pitch classes to display names. Flat spellings are
// preferred for the black keys, matching common key-signature practice.
var NoteNames = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

// Note is one ranked pitch-class observation, diagnostic only
type Note struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent,omitempty"` // Share of total chroma energy; zero on the remote path
}

// KeyEstimate is the canonical key-estimation result shared by both
// estimators. When OK is false, Tonic/Mode/Confidence are unspecified and
// Error carries the failure message; diagnostics that were available at the
// point of failure (duration/peak/RMS locally, raw model text remotely) are
// still populated.
//
// Confidence is not on one scale across provenances: the local path reports
// the unbounded correlation margin between the best and second-best key
// candidates, while the remote path reports the model's self-assessed
// confidence clamped to [0, 1]. Consumers must branch on Provenance before
// comparing confidences.
type KeyEstimate struct {
	OK         bool       `json:"ok"`
	Tonic      string     `json:"tonic,omitempty"` // One of the 12 pitch-class symbols
	Mode       string     `json:"mode,omitempty"`  // "major" or "minor"
	Confidence float64    `json:"confidence"`
	Notes      []Note     `json:"notes,omitempty"`
	Provenance Provenance `json:"provenance"`
	Error      string     `json:"error,omitempty"`

	// Local-path diagnostics, reported on success and failure alike
	Duration float64 `json:"duration,omitempty"` // Seconds
	Peak     float64 `json:"peak,omitempty"`     // Peak absolute amplitude before normalization
	RMS      float64 `json:"rms,omitempty"`      // Root-mean-square energy before normalization

	// RawText is the unmodified remote model reply, retained for the
	// lifetime of the request for audit. Never persisted by this package.
	RawText string `json:"raw_text,omitempty"`
}

// FailedEstimate builds the ok=false form of a KeyEstimate from an error
func FailedEstimate(provenance Provenance, err error) *KeyEstimate {
	return &KeyEstimate{
		OK:         false,
		Provenance: provenance,
		Error:      err.Error(),
	}
}
