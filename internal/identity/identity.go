// Package identity implements C3: it maps a handshake (auth context,
// spectator/anonymous flags, an optional noauth token) to a stable
// member id and role, per spec.md §4.3.
//
// Grounded in _examples/original_source/api/src/middleware/jwt.rs
// (bearer token -> ClientSchema, falling back to a fresh anonymous
// id) and auth.rs (cookie-based client_id continuity, generalized
// here to the x-noauth-unique header spec.md §6 specifies).
package identity

import (
	"github.com/google/uuid"
)

// Role is a member's standing in a tournament room.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleSpectator   Role = "spectator"
)

// Profile is a member's public-facing identity, absent for anonymous
// and anonymous-authenticated members.
type Profile struct {
	Username string
}

// Member is a stable identity within a tournament room.
type Member struct {
	ID      string
	Profile *Profile
	Role    Role
}

// AuthContext carries whatever the transport layer resolved from the
// inbound bearer token before the socket was promoted, per spec.md
// §6.
type AuthContext struct {
	UserID    string // empty when unauthenticated
	Username  string
	Anonymous bool // caller asked to hide their profile
}

// Params bundles a single handshake's inputs.
type Params struct {
	Auth          AuthContext
	Spectator     bool
	NoauthUnique  string // raw value of the x-noauth-unique header, if any
	UserIDDeriver func(userID string) string
}

// Codec is the noauth token collaborator spec.md §6 names: a
// (nominally) bijective mapping between a member id and an opaque
// token, pluggable so the security posture (signed vs unsigned) is a
// deployment decision rather than baked into the resolver.
type Codec interface {
	Encode(memberID string) (string, error)
	Decode(token string) (memberID string, ok bool)
}

// Resolver implements C3.
type Resolver struct {
	codec Codec
}

// NewResolver builds a Resolver using codec for noauth token
// encode/decode.
func NewResolver(codec Codec) *Resolver {
	return &Resolver{codec: codec}
}

// Resolved is the outcome of a Resolve call.
type Resolved struct {
	Member      Member
	NoauthToken string // set only when a fresh anonymous id was minted
}

// Resolve applies spec.md §4.3's ordered rules.
func (r *Resolver) Resolve(p Params) Resolved {
	role := RoleParticipant
	if p.Spectator {
		role = RoleSpectator
	}

	// Rule 2: authenticated.
	if p.Auth.UserID != "" {
		id := deriveMemberID(p.Auth.UserID, p.UserIDDeriver)
		var profile *Profile
		if !p.Auth.Anonymous {
			profile = &Profile{Username: p.Auth.Username}
		}
		return Resolved{Member: Member{ID: id, Profile: profile, Role: role}}
	}

	// Rule 3: recover from a previously issued noauth token.
	if p.NoauthUnique != "" {
		if id, ok := r.codec.Decode(p.NoauthUnique); ok {
			return Resolved{Member: Member{ID: id, Role: role}}
		}
	}

	// Rule 4: mint a fresh anonymous id.
	id := uuid.NewString()
	token, err := r.codec.Encode(id)
	if err != nil {
		// Encoding a freshly minted uuid should never fail for any
		// real Codec; if it does, the member still gets a working
		// session, they just won't be able to reconnect with
		// continuity.
		token = ""
	}
	return Resolved{Member: Member{ID: id, Role: role}, NoauthToken: token}
}

func deriveMemberID(userID string, deriver func(string) string) string {
	if deriver != nil {
		return deriver(userID)
	}
	return "user:" + userID
}
