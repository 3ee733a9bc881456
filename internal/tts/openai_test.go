package tts

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

func TestOpenAIVoiceResolution(t *testing.T) {
	t.Parallel()

	require.Equal(t, openai.VoiceOnyx, openaiVoice("male"))
	require.Equal(t, openai.VoiceNova, openaiVoice("ezinne"))

	// Case and whitespace are forgiven, matching ResolveVoice.
	require.Equal(t, openai.VoiceNova, openaiVoice("Female"))
	require.Equal(t, openai.VoiceOnyx, openaiVoice(" male "))

	// Unknown names fall back to the default female voice.
	require.Equal(t, openai.VoiceNova, openaiVoice("yoruba-supreme"))
	require.Equal(t, openai.VoiceNova, openaiVoice(""))
}
