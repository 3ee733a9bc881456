package tts

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAITTSConfig holds configuration for the OpenAI speech backend.
type OpenAITTSConfig struct {
	APIKey  string
	Model   string        // default: "tts-1"
	Timeout time.Duration // default: 30s
}

// openaiVoices maps the gateway's friendly names to the closest OpenAI
// voices. OpenAI has no Nigerian-accented voices, so this backend is a
// last-resort fallback rather than a peer of edge-tts.
var openaiVoices = map[string]openai.SpeechVoice{
	"female": openai.VoiceNova,
	"male":   openai.VoiceOnyx,
	"ezinne": openai.VoiceNova,
	"abeo":   openai.VoiceOnyx,
	"lexi":   openai.VoiceShimmer,
	"atlas":  openai.VoiceEcho,
	"jenny":  openai.VoiceAlloy,
}

// OpenAITTS synthesizes speech through the OpenAI speech API.
type OpenAITTS struct {
	cfg    OpenAITTSConfig
	client *openai.Client
}

// NewOpenAITTS creates an OpenAITTS with defaults applied.
func NewOpenAITTS(cfg OpenAITTSConfig) *OpenAITTS {
	if cfg.Model == "" {
		cfg.Model = string(openai.TTSModel1)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &OpenAITTS{
		cfg:    cfg,
		client: openai.NewClient(cfg.APIKey),
	}
}

func (o *OpenAITTS) Name() string { return "openai-tts" }

// openaiVoice resolves a friendly name the same way ResolveVoice does:
// case and whitespace insensitive, with the default female voice as
// fallback for unknown names.
func openaiVoice(name string) openai.SpeechVoice {
	if v, ok := openaiVoices[strings.ToLower(strings.TrimSpace(name))]; ok {
		return v
	}
	return openaiVoices[DefaultVoice]
}

func (o *OpenAITTS) Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error) {
	voice := openaiVoice(req.Voice)

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.cfg.Model),
		Input:          req.Text,
		Voice:          voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read openai audio: %w", err)
	}

	return &SynthesisResult{
		Audio:       audio,
		ContentType: "audio/mpeg",
	}, nil
}
