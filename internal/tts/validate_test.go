package tts_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odiadev/tts-gateway/internal/tts"
)

func mp3WithHeader(header []byte, size int) []byte {
	b := make([]byte, size)
	copy(b, header)
	return b
}

func TestValidatorRejectsUndersizedAudio(t *testing.T) {
	t.Parallel()

	v := tts.NewValidator(1000)
	res := &tts.SynthesisResult{
		Audio:       mp3WithHeader([]byte("ID3"), 999),
		ContentType: "audio/mpeg",
	}

	err := v.Validate(res)
	require.ErrorIs(t, err, tts.ErrAudioTooSmall)
}

func TestValidatorMP3Magic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		header  []byte
		wantErr error
	}{
		{name: "id3 tag", header: []byte("ID3\x04\x00"), wantErr: nil},
		{name: "frame sync 0xFFFB", header: []byte{0xFF, 0xFB, 0x90}, wantErr: nil},
		{name: "frame sync 0xFFE0", header: []byte{0xFF, 0xE0, 0x00}, wantErr: nil},
		{name: "second byte sync bits unset", header: []byte{0xFF, 0x00, 0x00}, wantErr: tts.ErrBadAudioFormat},
		{name: "html error page", header: []byte("<html>"), wantErr: tts.ErrBadAudioFormat},
		{name: "zeroes", header: []byte{0x00, 0x00, 0x00}, wantErr: tts.ErrBadAudioFormat},
	}

	v := tts.NewValidator(100)
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := v.Validate(&tts.SynthesisResult{
				Audio:       mp3WithHeader(tc.header, 2048),
				ContentType: "audio/mpeg",
			})
			if tc.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestValidatorWAV(t *testing.T) {
	t.Parallel()

	v := tts.NewValidator(100)

	wav := bytes.Join([][]byte{[]byte("RIFF"), {0, 0, 0, 0}, []byte("WAVE"), make([]byte, 2048)}, nil)
	require.NoError(t, v.Validate(&tts.SynthesisResult{Audio: wav, ContentType: "audio/wav"}))

	err := v.Validate(&tts.SynthesisResult{
		Audio:       mp3WithHeader([]byte("ID3"), 2048),
		ContentType: "audio/wav",
	})
	require.ErrorIs(t, err, tts.ErrBadAudioFormat)
}

func TestNewValidatorDefaultThreshold(t *testing.T) {
	t.Parallel()

	v := tts.NewValidator(0)
	require.Equal(t, tts.DefaultMinAudioBytes, v.MinBytes)
}
