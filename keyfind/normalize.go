package keyfind

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tonalhq/keysense/algorithms/common"
)

// tonicPattern accepts one letter A-G with an optional trailing # or b
var tonicPattern = regexp.MustCompile(`^[A-G](#|b)?$`)

// RawEstimate is an estimator's output before validation. The remote path
// fills it from untrusted model output via CoerceRawFields; the local path
// fills it from the correlation result.
type RawEstimate struct {
	Tonic      string
	Mode       string
	Confidence float64
	Notes      []Note
	RawText    string
}

// Normalizer validates and canonicalizes a RawEstimate into a KeyEstimate.
// Validation is all-or-nothing: any invalid field yields an error and no
// partial ok=true result.
type Normalizer struct {
	// ClampConfidence restricts confidence to [0, 1]. Enabled on the
	// remote path; the local path's correlation margin is left unscaled.
	ClampConfidence bool

	// MaxNotes caps the note list (7 locally, 12 remotely)
	MaxNotes int
}

// NewLocalNormalizer creates the normalizer for the local pipeline
func NewLocalNormalizer() *Normalizer {
	return &Normalizer{ClampConfidence: false, MaxNotes: 7}
}

// NewRemoteNormalizer creates the normalizer for the remote path
func NewRemoteNormalizer() *Normalizer {
	return &Normalizer{ClampConfidence: true, MaxNotes: 12}
}

// Normalize validates the raw fields and produces an ok=true KeyEstimate.
// The raw source text is carried through for audit even on success.
func (n *Normalizer) Normalize(raw RawEstimate, provenance Provenance) (*KeyEstimate, error) {
	tonic, err := NormalizeTonic(raw.Tonic)
	if err != nil {
		return nil, err
	}

	mode, err := NormalizeMode(raw.Mode)
	if err != nil {
		return nil, err
	}

	confidence := raw.Confidence
	if !common.IsFinite(confidence) {
		confidence = 0.0
	}
	if n.ClampConfidence {
		confidence = common.Clamp(confidence, 0.0, 1.0)
	}

	notes := raw.Notes
	if len(notes) > n.MaxNotes {
		notes = notes[:n.MaxNotes]
	}

	return &KeyEstimate{
		OK:         true,
		Tonic:      tonic,
		Mode:       mode,
		Confidence: confidence,
		Notes:      notes,
		Provenance: provenance,
		RawText:    raw.RawText,
	}, nil
}

// NormalizeTonic canonicalizes a tonic symbol: whitespace trimmed, Unicode
// flat/sharp glyphs mapped to ASCII, then matched against A-G with an
// optional # or b suffix.
func NormalizeTonic(tonic string) (string, error) {
	cleaned := strings.TrimSpace(tonic)
	cleaned = strings.ReplaceAll(cleaned, "♭", "b") // ♭
	cleaned = strings.ReplaceAll(cleaned, "♯", "#") // ♯
	cleaned = strings.ReplaceAll(cleaned, " ", "")

	if !tonicPattern.MatchString(cleaned) {
		return "", &InvalidTonicError{Tonic: cleaned}
	}

	return cleaned, nil
}

// NormalizeMode canonicalizes a mode string, accepting the maj/min
// abbreviations case-insensitively.
func NormalizeMode(mode string) (string, error) {
	cleaned := strings.ToLower(strings.TrimSpace(mode))

	switch cleaned {
	case "maj", "major":
		return "major", nil
	case "min", "minor":
		return "minor", nil
	default:
		return "", &InvalidModeError{Mode: cleaned}
	}
}

// CoerceRawFields projects an untrusted decoded JSON object into a
// RawEstimate without assuming field presence or type. Confidence values
// that cannot be coerced default to 0; a non-list notes field is treated
// as empty.
func CoerceRawFields(data map[string]any) RawEstimate {
	raw := RawEstimate{
		Tonic:      coerceString(data["tonic"]),
		Mode:       coerceString(data["mode"]),
		Confidence: coerceFloat(data["confidence"]),
	}

	noteList, ok := data["notes_heard"]
	if !ok {
		noteList = data["notes"]
	}
	raw.Notes = coerceNotes(noteList)

	return raw
}

func coerceString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return ""
	}
}

func coerceFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0.0
		}
		return parsed
	default:
		return 0.0
	}
}

func coerceNotes(value any) []Note {
	list, ok := value.([]any)
	if !ok {
		return nil
	}

	notes := make([]Note, 0, len(list))
	for _, entry := range list {
		if name, ok := entry.(string); ok {
			notes = append(notes, Note{Name: name})
		}
	}

	return notes
}
