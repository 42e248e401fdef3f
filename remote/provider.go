// Package remote implements the remote-inference key estimator: a clip is
// uploaded to an external multimodal model with a fixed schema prompt, and
// the model's free-form textual reply is defensively parsed back into the
// canonical key-estimation contract.
package remote

import "context"

// Provider is the interface for multimodal inference backends. A provider
// wraps one external service (e.g. a hosted Gemini-class model) and exposes
// a single audio+prompt completion call.
//
// Implementations must be safe for concurrent use and must honor context
// cancellation on the underlying transport.
type Provider interface {
	// GenerateFromAudio sends the prompt and the encoded audio clip to the
	// model and returns its raw textual reply. No structure is guaranteed
	// on the reply; callers must treat it as opaque text.
	GenerateFromAudio(ctx context.Context, prompt string, audio []byte, mimeType string) (string, error)

	// Name identifies the backend for logs and provenance
	Name() string
}
