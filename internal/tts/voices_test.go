package tts_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odiadev/tts-gateway/internal/tts"
)

func TestResolveVoice(t *testing.T) {
	t.Parallel()

	require.Equal(t, "en-NG-EzinneNeural", tts.ResolveVoice("female"))
	require.Equal(t, "en-NG-AbeoNeural", tts.ResolveVoice("male"))
	require.Equal(t, "en-NG-AbeoNeural", tts.ResolveVoice("abeo"))
	require.Equal(t, "en-US-AriaNeural", tts.ResolveVoice("lexi"))

	// Case and whitespace are forgiven.
	require.Equal(t, "en-NG-EzinneNeural", tts.ResolveVoice("  Ezinne "))

	// Unknown names fall back to the default female voice.
	require.Equal(t, "en-NG-EzinneNeural", tts.ResolveVoice("yoruba-supreme"))
	require.Equal(t, "en-NG-EzinneNeural", tts.ResolveVoice(""))
}

func TestKnownVoice(t *testing.T) {
	t.Parallel()

	require.True(t, tts.KnownVoice("female"))
	require.True(t, tts.KnownVoice("Atlas"))
	require.False(t, tts.KnownVoice("nonexistent"))
}

func TestVoiceNamesSorted(t *testing.T) {
	t.Parallel()

	names := tts.VoiceNames()
	require.Contains(t, names, "female")
	require.Contains(t, names, "male")
	require.IsIncreasing(t, names)
}
