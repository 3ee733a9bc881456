package tts

import (
	"context"
	"errors"
)

// SynthesisRequest holds the parameters for text-to-speech generation.
// Voice is a friendly name (e.g. "female", "abeo"); each provider maps it
// to its own voice identifier.
type SynthesisRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

// SynthesisResult holds the generated audio and its content type.
type SynthesisResult struct {
	Audio       []byte
	ContentType string // "audio/mpeg" (edge-tts, OpenAI) or "audio/wav"
}

// Provider is the interface for text-to-speech backends.
type Provider interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error)
	Name() string
}

// HealthChecker is implemented by providers that can report availability
// without performing a full synthesis. Used by the diagnose endpoint.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// Static errors.
var (
	ErrNoProviders        = errors.New("no TTS providers configured")
	ErrAllProvidersFailed = errors.New("all TTS providers failed")
	ErrAudioTooSmall      = errors.New("audio output below minimum size")
	ErrBadAudioFormat     = errors.New("audio output has invalid format")
)
