package keyfind

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTonic(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"C", "C"},
		{" G ", "G"},
		{"F#", "F#"},
		{"Bb", "Bb"},
		{"E♭", "Eb"},
		{"C♯", "C#"},
		{"A b", "Ab"},
	}

	for _, tt := range tests {
		got, err := NormalizeTonic(tt.input)
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestNormalizeTonicRejectsInvalid(t *testing.T) {
	for _, input := range []string{"", "H", "c", "C##", "Cx", "G minor", "1"} {
		_, err := NormalizeTonic(input)

		var invalid *InvalidTonicError
		assert.ErrorAs(t, err, &invalid, "input %q", input)
	}
}

func TestNormalizeMode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"major", "major"},
		{"minor", "minor"},
		{"Maj", "major"},
		{"MIN", "minor"},
		{" Minor ", "minor"},
	}

	for _, tt := range tests {
		got, err := NormalizeMode(tt.input)
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got)
	}

	for _, input := range []string{"", "weird", "dorian", "majorish"} {
		_, err := NormalizeMode(input)

		var invalid *InvalidModeError
		assert.ErrorAs(t, err, &invalid, "input %q", input)
	}
}

func TestNormalizeClampsRemoteConfidence(t *testing.T) {
	remote := NewRemoteNormalizer()

	estimate, err := remote.Normalize(RawEstimate{Tonic: "C", Mode: "major", Confidence: 1.4}, ProvenanceRemote)
	require.NoError(t, err)
	assert.Equal(t, 1.0, estimate.Confidence)

	estimate, err = remote.Normalize(RawEstimate{Tonic: "C", Mode: "major", Confidence: -0.3}, ProvenanceRemote)
	require.NoError(t, err)
	assert.Equal(t, 0.0, estimate.Confidence)
}

func TestNormalizeLeavesLocalConfidenceUnscaled(t *testing.T) {
	local := NewLocalNormalizer()

	estimate, err := local.Normalize(RawEstimate{Tonic: "A", Mode: "minor", Confidence: 3.7}, ProvenanceLocal)
	require.NoError(t, err)
	assert.Equal(t, 3.7, estimate.Confidence)
}

func TestNormalizeNonFiniteConfidence(t *testing.T) {
	remote := NewRemoteNormalizer()

	estimate, err := remote.Normalize(RawEstimate{Tonic: "D", Mode: "major", Confidence: math.NaN()}, ProvenanceRemote)
	require.NoError(t, err)
	assert.Equal(t, 0.0, estimate.Confidence)
}

func TestNormalizeAllOrNothing(t *testing.T) {
	remote := NewRemoteNormalizer()

	estimate, err := remote.Normalize(RawEstimate{Tonic: "X", Mode: "major"}, ProvenanceRemote)
	assert.Nil(t, estimate)
	assert.Error(t, err)

	estimate, err = remote.Normalize(RawEstimate{Tonic: "C", Mode: "phrygian"}, ProvenanceRemote)
	assert.Nil(t, estimate)
	assert.Error(t, err)
}

func TestNormalizeCapsNotes(t *testing.T) {
	remote := NewRemoteNormalizer()

	notes := make([]Note, 20)
	for i := range notes {
		notes[i] = Note{Name: "C"}
	}

	estimate, err := remote.Normalize(RawEstimate{Tonic: "C", Mode: "major", Notes: notes}, ProvenanceRemote)
	require.NoError(t, err)
	assert.Len(t, estimate.Notes, 12)
}

func TestNormalizeCarriesRawText(t *testing.T) {
	remote := NewRemoteNormalizer()

	estimate, err := remote.Normalize(RawEstimate{Tonic: "G", Mode: "major", RawText: "reply"}, ProvenanceRemote)
	require.NoError(t, err)
	assert.True(t, estimate.OK)
	assert.Equal(t, "reply", estimate.RawText)
	assert.Equal(t, ProvenanceRemote, estimate.Provenance)
}

func TestCoerceRawFields(t *testing.T) {
	data := map[string]any{
		"tonic":       "F#",
		"mode":        "minor",
		"confidence":  0.85,
		"notes_heard": []any{"F#", "A", "C#"},
	}

	raw := CoerceRawFields(data)

	assert.Equal(t, "F#", raw.Tonic)
	assert.Equal(t, "minor", raw.Mode)
	assert.Equal(t, 0.85, raw.Confidence)
	assert.Equal(t, []Note{{Name: "F#"}, {Name: "A"}, {Name: "C#"}}, raw.Notes)
}

func TestCoerceRawFieldsDefensive(t *testing.T) {
	t.Run("missing fields", func(t *testing.T) {
		raw := CoerceRawFields(map[string]any{})
		assert.Equal(t, "", raw.Tonic)
		assert.Equal(t, "", raw.Mode)
		assert.Equal(t, 0.0, raw.Confidence)
		assert.Nil(t, raw.Notes)
	})

	t.Run("wrong types", func(t *testing.T) {
		raw := CoerceRawFields(map[string]any{
			"tonic":       12.0,
			"mode":        []any{"major"},
			"confidence":  map[string]any{},
			"notes_heard": "G B D",
		})
		assert.Equal(t, "", raw.Tonic)
		assert.Equal(t, "", raw.Mode)
		assert.Equal(t, 0.0, raw.Confidence)
		assert.Nil(t, raw.Notes)
	})

	t.Run("string confidence", func(t *testing.T) {
		raw := CoerceRawFields(map[string]any{"confidence": " 0.75 "})
		assert.Equal(t, 0.75, raw.Confidence)

		raw = CoerceRawFields(map[string]any{"confidence": "high"})
		assert.Equal(t, 0.0, raw.Confidence)
	})

	t.Run("notes fallback key", func(t *testing.T) {
		raw := CoerceRawFields(map[string]any{"notes": []any{"C", "E"}})
		assert.Equal(t, []Note{{Name: "C"}, {Name: "E"}}, raw.Notes)
	})

	t.Run("non-string note entries skipped", func(t *testing.T) {
		raw := CoerceRawFields(map[string]any{"notes_heard": []any{"C", 4.0, "E"}})
		assert.Equal(t, []Note{{Name: "C"}, {Name: "E"}}, raw.Notes)
	})
}
