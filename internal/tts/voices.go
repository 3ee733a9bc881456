package tts

import (
	"sort"
	"strings"
)

// DefaultVoice is used when the caller does not specify one.
const DefaultVoice = "female"

// nigerianVoices maps friendly voice names to edge-tts neural voice IDs.
// The Nigerian voices are first-class; the en-US entries are aliases kept
// for callers migrating from other platforms.
var nigerianVoices = map[string]string{
	"female": "en-NG-EzinneNeural",
	"male":   "en-NG-AbeoNeural",
	"ezinne": "en-NG-EzinneNeural",
	"abeo":   "en-NG-AbeoNeural",
	"lexi":   "en-US-AriaNeural",
	"atlas":  "en-US-GuyNeural",
	"jenny":  "en-US-JennyNeural",
}

// ResolveVoice returns the provider voice ID for a friendly name,
// falling back to the default female Nigerian voice for unknown names.
func ResolveVoice(name string) string {
	if id, ok := nigerianVoices[strings.ToLower(strings.TrimSpace(name))]; ok {
		return id
	}
	return nigerianVoices[DefaultVoice]
}

// KnownVoice reports whether name resolves to a configured voice.
func KnownVoice(name string) bool {
	_, ok := nigerianVoices[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// VoiceNames returns the friendly voice names in sorted order.
func VoiceNames() []string {
	names := make([]string, 0, len(nigerianVoices))
	for name := range nigerianVoices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
