package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"128-bit token", TokenSize128},
		{"256-bit token", TokenSize256},
		{"custom size", 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateToken(tt.size)
			require.NoError(t, err)
			require.NotEmpty(t, token)

			token2, err := GenerateToken(tt.size)
			require.NoError(t, err)
			require.NotEqual(t, token, token2, "tokens should be unique")
		})
	}
}

func TestGenerateToken_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		token, err := GenerateToken(size)
		require.Error(t, err)
		require.Empty(t, token)
	}
}

func TestFingerprintToken(t *testing.T) {
	a := FingerprintToken("refresh-abc")
	require.Len(t, a, 43)
	require.Equal(t, a, FingerprintToken("refresh-abc"))
	require.NotEqual(t, a, FingerprintToken("refresh-abd"))
}

func TestLogFingerprint(t *testing.T) {
	require.Empty(t, LogFingerprint(""))
	require.Len(t, LogFingerprint("token"), 10)
	require.NotContains(t, LogFingerprint("secret-token"), "secret")
}
