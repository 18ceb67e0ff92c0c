package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve_SpectatorRoleDoesNotChangeIDDerivation(t *testing.T) {
	r := NewResolver(NewHMACCodec("secret"))

	participant := r.Resolve(Params{Auth: AuthContext{UserID: "u1"}})
	spectator := r.Resolve(Params{Auth: AuthContext{UserID: "u1"}, Spectator: true})

	require.Equal(t, participant.Member.ID, spectator.Member.ID)
	require.Equal(t, RoleParticipant, participant.Member.Role)
	require.Equal(t, RoleSpectator, spectator.Member.Role)
}

func TestResolve_AuthenticatedGetsProfileUnlessAnonymous(t *testing.T) {
	r := NewResolver(NewHMACCodec("secret"))

	withProfile := r.Resolve(Params{Auth: AuthContext{UserID: "u1", Username: "alice"}})
	require.NotNil(t, withProfile.Member.Profile)
	require.Equal(t, "alice", withProfile.Member.Profile.Username)

	hidden := r.Resolve(Params{Auth: AuthContext{UserID: "u1", Username: "alice", Anonymous: true}})
	require.Nil(t, hidden.Member.Profile)
	require.Equal(t, withProfile.Member.ID, hidden.Member.ID, "id derivation is stable regardless of profile visibility")
}

func TestResolve_NoauthTokenRoundTripPreservesIdentity(t *testing.T) {
	r := NewResolver(NewHMACCodec("secret"))

	first := r.Resolve(Params{})
	require.NotEmpty(t, first.NoauthToken)
	require.Empty(t, first.Member.Profile)

	second := r.Resolve(Params{NoauthUnique: first.NoauthToken})
	require.Equal(t, first.Member.ID, second.Member.ID)
	require.Empty(t, second.NoauthToken, "reusing a token does not mint a new one")
}

func TestResolve_InvalidNoauthTokenMintsFreshIdentity(t *testing.T) {
	r := NewResolver(NewHMACCodec("secret"))

	resolved := r.Resolve(Params{NoauthUnique: "not-a-real-token"})
	require.NotEmpty(t, resolved.NoauthToken)
}

func TestResolve_NoAuthWithoutTokenMintsFreshUUID(t *testing.T) {
	r := NewResolver(NewHMACCodec("secret"))

	a := r.Resolve(Params{})
	b := r.Resolve(Params{})
	require.NotEqual(t, a.Member.ID, b.Member.ID)
}

func TestHMACCodec_RejectsForgedToken(t *testing.T) {
	victim := NewHMACCodec("victim-secret")
	attacker := NewHMACCodec("attacker-secret")

	token, err := attacker.Encode("someone-elses-id")
	require.NoError(t, err)

	_, ok := victim.Decode(token)
	require.False(t, ok)
}

func TestPlainCodec_IsABijection(t *testing.T) {
	var c PlainCodec
	token, err := c.Encode("member-123")
	require.NoError(t, err)

	id, ok := c.Decode(token)
	require.True(t, ok)
	require.Equal(t, "member-123", id)
}
