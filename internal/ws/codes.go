package ws

import (
	"errors"

	"github.com/racetype/tourney-server/internal/tournament"
)

// Numeric failure codes sent in a FailurePayload, matching spec.md
// §6/§7's table exactly: 1001 missing id, 1003 unknown tournament,
// 1004 no longer accepting participants, 1005 already ended, 2210
// member not registered, 2211 session ended, 3101 participant data
// unavailable.
//
// codeMalformedMessage, codeUnknownEvent, and codeInternal are ws-local
// extensions for failure modes spec.md's table doesn't enumerate
// (a client sending unparseable JSON or an unknown event name); they
// deliberately fall outside the reserved 1000/2000/3000 ranges the
// spec's own codes occupy so they can never be confused with one.
const (
	codeMissingID              = 1001
	codeUnknownTournament      = 1003
	codeJoinClosed             = 1004
	codeAlreadyEnded           = 1005
	codeNotRegistered          = 2210
	codeSessionEnded           = 2211
	codeParticipantUnavailable = 3101

	codeMalformedMessage = 4000
	codeUnknownEvent     = 4001
	codeInternal         = 4002
)

// errMalformed and errUnknownEvent are ws-local dispatch failures,
// distinct from the tournament package's sentinel errors.
var (
	errMalformed    = errors.New("ws: malformed event payload")
	errUnknownEvent = errors.New("ws: unknown event")
)

func codeForError(err error) int {
	switch {
	case errors.Is(err, errMalformed):
		return codeMalformedMessage
	case errors.Is(err, errUnknownEvent):
		return codeUnknownEvent
	case errors.Is(err, tournament.ErrJoinClosed):
		return codeJoinClosed
	case errors.Is(err, tournament.ErrAlreadyEnded):
		return codeAlreadyEnded
	case errors.Is(err, tournament.ErrSessionEnded):
		return codeSessionEnded
	case errors.Is(err, tournament.ErrNotRegistered):
		return codeNotRegistered
	case errors.Is(err, tournament.ErrParticipantUnavailable):
		return codeParticipantUnavailable
	default:
		return codeInternal
	}
}
