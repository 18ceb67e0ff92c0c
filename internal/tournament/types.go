// Package tournament implements C5 (the per-room tournament manager)
// and C6 (the process-wide manager registry) from spec.md §4.5-§4.6.
//
// The manager's concurrency model is a sync.RWMutex guarding
// TournamentData and the participant map, a deliberate divergence
// from the teacher's channel-actor Lobby (internal/lobby) because
// spec.md §5 explicitly distinguishes shared-read from
// exclusive-write operations; see SPEC_FULL.md §4.5 for the full
// grounding note.
package tournament

import (
	"time"

	"github.com/racetype/tourney-server/internal/challenge"
	"github.com/racetype/tourney-server/internal/identity"
)

// ParticipantState is one participant's authoritative progress
// against the tournament's challenge text, per spec.md §3.
type ParticipantState struct {
	Member identity.Member

	CurrentPosition int
	CorrectPosition int
	TotalKeystrokes int
	CurrentSpeed    float64
	CurrentAccuracy float64
	StartedAt       *time.Time
	EndedAt         *time.Time

	// LastRID is the most recently observed client request id for
	// this participant's keystrokes, carried through to the next
	// update:me flush per spec.md §6's update:me payload.
	LastRID string
}

// clone returns a value copy safe to hand out of the manager's lock.
func (p ParticipantState) clone() ParticipantState {
	return p
}

// TournamentData is a tournament's metadata plus its mutable
// lifecycle fields, per spec.md §3.
type TournamentData struct {
	ID           string
	Title        string
	CreatedBy    string
	ScheduledFor time.Time
	Description  string
	Privacy      string
	TextOptions  challenge.Options

	Text         *string
	StartedAt    *time.Time
	ScheduledEnd *time.Time
	EndedAt      *time.Time
}

// Status is the coarse lifecycle phase handle_check reports.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusStarted  Status = "started"
	StatusEnded    Status = "ended"
)

// deriveStatus computes Status from the timestamps, per spec.md
// §4.5's handle_check.
func deriveStatus(d TournamentData) Status {
	switch {
	case d.EndedAt != nil:
		return StatusEnded
	case d.StartedAt != nil:
		return StatusStarted
	default:
		return StatusUpcoming
	}
}

// Defaults mirror spec.md §4.5/§4.6's named constants.
const (
	JoinDeadline       = 15 * time.Second
	InactivityTimeout  = 30 * time.Second
	EvictionGrace      = 10 * time.Minute
	DefaultRoundLength = 10 * time.Minute

	SelfDebounce      = 200 * time.Millisecond
	SelfMaxStack       = 3
	SelfMaxWait        = time.Second

	AggregateDebounce = 400 * time.Millisecond
	AggregateMaxStack  = 15
	AggregateMaxWait   = 3 * time.Second
)
