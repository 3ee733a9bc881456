package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odiadev/tts-gateway/internal/auth"
	"github.com/odiadev/tts-gateway/internal/models"
)

func TestHashKey(t *testing.T) {
	t.Parallel()

	h1 := auth.HashKey("pepper", "odia_key")
	h2 := auth.HashKey("pepper", "odia_key")
	require.Equal(t, h1, h2)
	require.Len(t, h1, 64) // sha256 hex

	// Pepper and key both change the hash.
	require.NotEqual(t, h1, auth.HashKey("other-pepper", "odia_key"))
	require.NotEqual(t, h1, auth.HashKey("pepper", "other_key"))
}

func TestStaticValidator(t *testing.T) {
	t.Parallel()

	v := auth.NewStaticValidator([]string{"my_key", "test_key", "demo_key"})

	ak, err := v.Validate(context.Background(), "test_key")
	require.NoError(t, err)
	require.Equal(t, models.KeyStatusActive, ak.Status)
	require.Equal(t, "test_key", ak.KeyPrefix)

	_, err = v.Validate(context.Background(), "stolen_key")
	require.ErrorIs(t, err, auth.ErrUnauthorized)

	_, err = v.Validate(context.Background(), "")
	require.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestQuotaExhausted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		usage int64
		quota int64
		want  bool
	}{
		{name: "under quota", usage: 5, quota: 10, want: false},
		{name: "at quota", usage: 10, quota: 10, want: true},
		{name: "over quota", usage: 11, quota: 10, want: true},
		{name: "zero quota is unlimited", usage: 1 << 40, quota: 0, want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ak := &models.APIKey{UsageCount: tc.usage, Quota: tc.quota}
			require.Equal(t, tc.want, ak.QuotaExhausted())
		})
	}
}

func TestStaticValidatorEmptyList(t *testing.T) {
	t.Parallel()

	v := auth.NewStaticValidator(nil)
	_, err := v.Validate(context.Background(), "anything")
	require.ErrorIs(t, err, auth.ErrUnauthorized)
}
