package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("margherita-4-life")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	require.NoError(t, VerifyPassword("margherita-4-life", hash))
	require.ErrorIs(t, VerifyPassword("quattro-formaggi", hash), ErrPasswordMismatch)
}

func TestVerifyPasswordRejectsGarbage(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, VerifyPassword("pw", "not-a-hash"), ErrPasswordMismatch)
	require.ErrorIs(t, VerifyPassword("pw", "$bcrypt$whatever"), ErrPasswordMismatch)
	require.ErrorIs(t, VerifyPassword("pw", ""), ErrPasswordMismatch)
}

func TestSentinelHashNeverVerifies(t *testing.T) {
	t.Parallel()

	sentinel := SentinelHash()
	require.ErrorIs(t, VerifyPassword("", sentinel), ErrPasswordMismatch)
	require.ErrorIs(t, VerifyPassword("anything", sentinel), ErrPasswordMismatch)
}

func TestGenerateHexLength(t *testing.T) {
	t.Parallel()

	tok, err := GenerateHex(TokenSize128)
	require.NoError(t, err)
	require.Len(t, tok, TokenSize128*2)

	other, err := GenerateHex(TokenSize128)
	require.NoError(t, err)
	require.NotEqual(t, tok, other)
}
