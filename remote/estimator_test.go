package remote

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonalhq/keysense/keyfind"
)

type mockProvider struct {
	reply string
	err   error
	calls atomic.Int32

	lastPrompt string
	lastMIME   string
	lastAudio  []byte
}

func (m *mockProvider) GenerateFromAudio(_ context.Context, prompt string, audio []byte, mimeType string) (string, error) {
	m.calls.Add(1)
	m.lastPrompt = prompt
	m.lastAudio = audio
	m.lastMIME = mimeType
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockProvider) Name() string { return "mock" }

func TestEstimateClipFencedReply(t *testing.T) {
	provider := &mockProvider{
		reply: "```json\n{\"tonic\":\"G\",\"mode\":\"Major\",\"confidence\":1.4,\"notes_heard\":[\"G\",\"B\",\"D\"]}\n```",
	}
	estimator := NewEstimator(provider)

	estimate, err := estimator.EstimateClip(context.Background(), []byte{1, 2, 3}, "audio/wav")

	require.NoError(t, err)
	require.NotNil(t, estimate)
	assert.True(t, estimate.OK)
	assert.Equal(t, "G", estimate.Tonic)
	assert.Equal(t, "major", estimate.Mode)
	assert.Equal(t, 1.0, estimate.Confidence)
	assert.Equal(t, []keyfind.Note{{Name: "G"}, {Name: "B"}, {Name: "D"}}, estimate.Notes)
	assert.Equal(t, keyfind.ProvenanceRemote, estimate.Provenance)
	assert.Equal(t, provider.reply, estimate.RawText)

	assert.Equal(t, "audio/wav", provider.lastMIME)
	assert.Equal(t, []byte{1, 2, 3}, provider.lastAudio)
	assert.Contains(t, provider.lastPrompt, "notes_heard")
	assert.Contains(t, provider.lastPrompt, "Return only JSON")
}

func TestEstimateClipClampsConfidence(t *testing.T) {
	provider := &mockProvider{reply: `{"tonic": "E♭", "mode": "Min", "confidence": 1.7}`}
	estimator := NewEstimator(provider)

	estimate, err := estimator.EstimateClip(context.Background(), []byte{1}, "audio/wav")

	require.NoError(t, err)
	assert.Equal(t, "Eb", estimate.Tonic)
	assert.Equal(t, "minor", estimate.Mode)
	assert.Equal(t, 1.0, estimate.Confidence)
}

func TestEstimateClipNoProvider(t *testing.T) {
	estimator := NewEstimator(nil)

	estimate, err := estimator.EstimateClip(context.Background(), []byte{1}, "audio/wav")

	var unavailable *keyfind.RemoteUnavailableError
	require.ErrorAs(t, err, &unavailable)
	require.NotNil(t, estimate)
	assert.False(t, estimate.OK)
	assert.Equal(t, keyfind.ProvenanceRemote, estimate.Provenance)
}

func TestEstimateClipProviderFailure(t *testing.T) {
	provider := &mockProvider{err: errors.New("upstream 503")}
	estimator := NewEstimator(provider)

	estimate, err := estimator.EstimateClip(context.Background(), []byte{1}, "audio/wav")

	var network *keyfind.NetworkError
	require.ErrorAs(t, err, &network)
	require.NotNil(t, estimate)
	assert.False(t, estimate.OK)
	assert.Contains(t, estimate.Error, "upstream 503")
}

func TestEstimateClipCanceledContext(t *testing.T) {
	provider := &mockProvider{err: context.Canceled}
	estimator := NewEstimator(provider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := estimator.EstimateClip(ctx, []byte{1}, "audio/wav")

	var canceled *keyfind.CanceledError
	require.ErrorAs(t, err, &canceled)

	var network *keyfind.NetworkError
	assert.False(t, errors.As(err, &network), "cancellation must not look like a service failure")
}

func TestEstimateClipMalformedReply(t *testing.T) {
	provider := &mockProvider{reply: "the key is probably G major"}
	estimator := NewEstimator(provider)

	estimate, err := estimator.EstimateClip(context.Background(), []byte{1}, "audio/wav")

	var malformed *keyfind.MalformedOutputError
	require.ErrorAs(t, err, &malformed)
	require.NotNil(t, estimate)
	assert.False(t, estimate.OK)
	assert.Equal(t, provider.reply, estimate.RawText, "raw text is retained for audit on failure")
}

func TestEstimateClipInvalidFields(t *testing.T) {
	provider := &mockProvider{reply: `{"tonic": "H", "mode": "major"}`}
	estimator := NewEstimator(provider)

	estimate, err := estimator.EstimateClip(context.Background(), []byte{1}, "audio/wav")

	var invalid *keyfind.InvalidTonicError
	require.ErrorAs(t, err, &invalid)
	assert.False(t, estimate.OK)
	assert.Equal(t, provider.reply, estimate.RawText)
}
