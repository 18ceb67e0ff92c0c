package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, ComparePassword(hash, "correct horse battery staple"))
	require.False(t, ComparePassword(hash, "wrong password"))
}

func TestHMACTokens_IssueAndVerifyRoundTrip(t *testing.T) {
	tokens := NewHMACTokens("test-secret")

	token, err := tokens.Issue("user-42", time.Hour)
	require.NoError(t, err)

	userID, err := tokens.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-42", userID)
}

func TestHMACTokens_RejectsExpiredToken(t *testing.T) {
	tokens := NewHMACTokens("test-secret")
	token, err := tokens.Issue("user-42", -time.Second)
	require.NoError(t, err)

	_, err = tokens.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestHMACTokens_RejectsTamperedToken(t *testing.T) {
	tokens := NewHMACTokens("test-secret")
	token, err := tokens.Issue("user-42", time.Hour)
	require.NoError(t, err)

	tampered := token[:len(token)-1] + "x"
	_, err = tokens.Verify(tampered)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestHMACTokens_RejectsTokenSignedWithDifferentSecret(t *testing.T) {
	tokens := NewHMACTokens("secret-a")
	other := NewHMACTokens("secret-b")

	token, err := tokens.Issue("user-42", time.Hour)
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}
