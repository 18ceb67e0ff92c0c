package tournament

import (
	"time"

	"github.com/racetype/tourney-server/internal/identity"
)

// Wire payload shapes for the events in spec.md §6. All JSON uses
// camelCase fields.

type UserDTO struct {
	Username string `json:"username"`
}

type MemberDTO struct {
	ID          string   `json:"id"`
	User        *UserDTO `json:"user"`
	Participant bool     `json:"participant"`
}

func memberDTO(m identity.Member) MemberDTO {
	dto := MemberDTO{ID: m.ID, Participant: m.Role == identity.RoleParticipant}
	if m.Profile != nil {
		dto.User = &UserDTO{Username: m.Profile.Username}
	}
	return dto
}

type ParticipantDataDTO struct {
	Member          MemberDTO  `json:"member"`
	CurrentPosition int        `json:"currentPosition"`
	CorrectPosition int        `json:"correctPosition"`
	TotalKeystrokes int        `json:"totalKeystrokes"`
	CurrentSpeed    float64    `json:"currentSpeed"`
	CurrentAccuracy float64    `json:"currentAccuracy"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
}

func participantDataDTO(p ParticipantState) ParticipantDataDTO {
	return ParticipantDataDTO{
		Member:          memberDTO(p.Member),
		CurrentPosition: p.CurrentPosition,
		CorrectPosition: p.CorrectPosition,
		TotalKeystrokes: p.TotalKeystrokes,
		CurrentSpeed:    p.CurrentSpeed,
		CurrentAccuracy: p.CurrentAccuracy,
		StartedAt:       p.StartedAt,
		EndedAt:         p.EndedAt,
	}
}

// PartialParticipantDataDTO carries only the fields that changed
// since the last flush for a given participant, per spec.md §4.5's
// self-update and aggregate debouncer semantics.
type PartialParticipantDataDTO struct {
	CurrentPosition *int       `json:"currentPosition,omitempty"`
	CorrectPosition *int       `json:"correctPosition,omitempty"`
	TotalKeystrokes *int       `json:"totalKeystrokes,omitempty"`
	CurrentSpeed    *float64   `json:"currentSpeed,omitempty"`
	CurrentAccuracy *float64   `json:"currentAccuracy,omitempty"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
}

// diffParticipant reports the fields of curr that differ from prev,
// and whether any field differed at all.
func diffParticipant(prev, curr ParticipantState) (PartialParticipantDataDTO, bool) {
	var d PartialParticipantDataDTO
	changed := false

	if prev.CurrentPosition != curr.CurrentPosition {
		v := curr.CurrentPosition
		d.CurrentPosition = &v
		changed = true
	}
	if prev.CorrectPosition != curr.CorrectPosition {
		v := curr.CorrectPosition
		d.CorrectPosition = &v
		changed = true
	}
	if prev.TotalKeystrokes != curr.TotalKeystrokes {
		v := curr.TotalKeystrokes
		d.TotalKeystrokes = &v
		changed = true
	}
	if prev.CurrentSpeed != curr.CurrentSpeed {
		v := curr.CurrentSpeed
		d.CurrentSpeed = &v
		changed = true
	}
	if prev.CurrentAccuracy != curr.CurrentAccuracy {
		v := curr.CurrentAccuracy
		d.CurrentAccuracy = &v
		changed = true
	}
	if !timePtrEqual(prev.StartedAt, curr.StartedAt) {
		d.StartedAt = curr.StartedAt
		changed = true
	}
	if !timePtrEqual(prev.EndedAt, curr.EndedAt) {
		d.EndedAt = curr.EndedAt
		changed = true
	}

	return d, changed
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Equal(*b)
}

type UpdateMePayload struct {
	Updates PartialParticipantDataDTO `json:"updates"`
	RID     string                    `json:"rid,omitempty"`
}

type MemberUpdateDTO struct {
	MemberID string                    `json:"memberId"`
	Updates  PartialParticipantDataDTO `json:"updates"`
}

type UpdateAllPayload struct {
	Updates []MemberUpdateDTO `json:"updates"`
}

type TournamentDataDTO struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	CreatedBy    string     `json:"createdBy"`
	ScheduledFor time.Time  `json:"scheduledFor"`
	Description  string     `json:"description"`
	Text         *string    `json:"text,omitempty"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	ScheduledEnd *time.Time `json:"scheduledEnd,omitempty"`
	EndedAt      *time.Time `json:"endedAt,omitempty"`
}

func tournamentDataDTO(d TournamentData) TournamentDataDTO {
	return TournamentDataDTO{
		ID:           d.ID,
		Title:        d.Title,
		CreatedBy:    d.CreatedBy,
		ScheduledFor: d.ScheduledFor,
		Description:  d.Description,
		Text:         d.Text,
		StartedAt:    d.StartedAt,
		ScheduledEnd: d.ScheduledEnd,
		EndedAt:      d.EndedAt,
	}
}

// PartialTournamentDataDTO is update:data's payload: TournamentData
// minus id/createdAt/createdBy per spec.md §6.
type PartialTournamentDataDTO struct {
	Text         *string    `json:"text,omitempty"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	ScheduledEnd *time.Time `json:"scheduledEnd,omitempty"`
	EndedAt      *time.Time `json:"endedAt,omitempty"`
}

type UpdateDataPayload struct {
	Updates PartialTournamentDataDTO `json:"updates"`
}

type JoinSuccessPayload struct {
	Data         TournamentDataDTO    `json:"data"`
	Member       MemberDTO            `json:"member"`
	Participants []ParticipantDataDTO `json:"participants"`
	Noauth       string               `json:"noauth,omitempty"`
}

type ParticipantJoinedPayload struct {
	Participant ParticipantDataDTO `json:"participant"`
}

type ParticipantLeftPayload struct {
	MemberID string `json:"memberId"`
}

type CheckSuccessPayload struct {
	Status Status `json:"status"`
}

type LeaveSuccessPayload struct {
	Message string `json:"message"`
}

type FailurePayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
