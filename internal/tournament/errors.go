package tournament

import "errors"

// Sentinel errors for the manager's public operations, matched with
// errors.Is the way the teacher's internal/engine package does
// (engine.ErrWrongTurn, engine.ErrIllegalPick, ...). Each maps to a
// numeric code in internal/ws/codes.go per spec.md §7.
var (
	ErrJoinClosed             = errors.New("tournament: no longer accepting participants")
	ErrAlreadyEnded           = errors.New("tournament: already ended")
	ErrNotRegistered          = errors.New("tournament: member not registered as a participant")
	ErrSessionEnded           = errors.New("tournament: participant session already ended")
	ErrParticipantUnavailable = errors.New("tournament: participant data unavailable")
)
