package tournament

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/racetype/tourney-server/internal/challenge"
	"github.com/racetype/tourney-server/internal/identity"
)

type fixedGenerator struct{ text []byte }

func (g fixedGenerator) Generate(opts challenge.Options) []byte { return g.text }

func baseData(id string, scheduledFor time.Time) TournamentData {
	return TournamentData{
		ID:           id,
		Title:        "weekly sprint",
		CreatedBy:    "user:creator",
		ScheduledFor: scheduledFor,
		Privacy:      "public",
		TextOptions:  challenge.Options{WordCount: 5, Lowercase: true},
	}
}

func TestManager_ZeroParticipantsAtScheduledForEndsWithNoText(t *testing.T) {
	clock := newFakeClock(time.Now())
	bc := &fakeBroadcaster{}
	m := NewManager(baseData("t1", clock.Now().Add(time.Minute)), bc, challenge.NewWordListGenerator(1), clock, zap.NewNop(), nil)

	clock.Advance(time.Minute)

	data := m.HandleData()
	require.Nil(t, data.Text)
	require.NotNil(t, data.StartedAt)
	require.NotNil(t, data.EndedAt)
	require.True(t, data.StartedAt.Equal(*data.EndedAt))
	require.Equal(t, StatusEnded, m.HandleCheck().Status)
	require.Len(t, bc.events("update:data"), 1)
}

func TestManager_JoinRejectedWithinJoinDeadline(t *testing.T) {
	clock := newFakeClock(time.Now())
	m := NewManager(baseData("t2", clock.Now().Add(10*time.Second)), &fakeBroadcaster{}, challenge.NewWordListGenerator(1), clock, zap.NewNop(), nil)

	_, err := m.Join(identity.Member{ID: "m1", Role: identity.RoleParticipant})
	require.ErrorIs(t, err, ErrJoinClosed)
}

func TestManager_JoinAfterEndReturnsErrAlreadyEndedDistinctFromJoinClosed(t *testing.T) {
	clock := newFakeClock(time.Now())
	m := NewManager(baseData("t2b", clock.Now().Add(time.Minute)), &fakeBroadcaster{}, challenge.NewWordListGenerator(1), clock, zap.NewNop(), nil)

	clock.Advance(time.Minute)
	require.Equal(t, StatusEnded, m.HandleCheck().Status)

	_, err := m.Join(identity.Member{ID: "m1", Role: identity.RoleParticipant})
	require.ErrorIs(t, err, ErrAlreadyEnded)
	require.NotErrorIs(t, err, ErrJoinClosed)
}

func TestManager_JoinBroadcastsParticipantJoined(t *testing.T) {
	clock := newFakeClock(time.Now())
	bc := &fakeBroadcaster{}
	m := NewManager(baseData("t3", clock.Now().Add(time.Minute)), bc, challenge.NewWordListGenerator(1), clock, zap.NewNop(), nil)

	payload, err := m.Join(identity.Member{ID: "m1", Role: identity.RoleParticipant})
	require.NoError(t, err)
	require.Equal(t, "m1", payload.Member.ID)
	require.Len(t, payload.Participants, 1)

	_, err = m.Join(identity.Member{ID: "m2", Role: identity.RoleParticipant})
	require.NoError(t, err)

	joined := bc.events("participant:joined")
	require.Len(t, joined, 2)
	require.Equal(t, "m2", joined[1].except)
}

func TestManager_SpectatorJoinNeverClosesAndNeverBroadcasts(t *testing.T) {
	clock := newFakeClock(time.Now())
	bc := &fakeBroadcaster{}
	m := NewManager(baseData("t4", clock.Now().Add(5*time.Second)), bc, challenge.NewWordListGenerator(1), clock, zap.NewNop(), nil)

	payload, err := m.Join(identity.Member{ID: "s1", Role: identity.RoleSpectator})
	require.NoError(t, err)
	require.Empty(t, payload.Participants)
	require.Empty(t, bc.events("participant:joined"))
}

func TestManager_HandleTypeAdvancesProgressAndEmitsSelfUpdate(t *testing.T) {
	clock := newFakeClock(time.Now())
	bc := &fakeBroadcaster{}
	m := NewManager(baseData("t5", clock.Now().Add(20*time.Second)), bc, fixedGenerator{text: []byte("ab cd")}, clock, zap.NewNop(), nil)

	_, err := m.Join(identity.Member{ID: "m1", Role: identity.RoleParticipant})
	require.NoError(t, err)

	clock.Advance(20 * time.Second)
	data := m.HandleData()
	require.NotNil(t, data.Text)
	require.Equal(t, "ab cd", *data.Text)

	require.NoError(t, m.HandleType("m1", 'a', "r1"))
	prog, err := m.HandleMe("m1")
	require.NoError(t, err)
	require.Equal(t, 1, prog.CurrentPosition)
	require.Equal(t, 1, prog.CorrectPosition)

	time.Sleep(300 * time.Millisecond)
	updates := bc.events("update:me")
	require.NotEmpty(t, updates)
	payload, ok := updates[len(updates)-1].payload.(UpdateMePayload)
	require.True(t, ok)
	require.Equal(t, "r1", payload.RID)
	require.NotNil(t, payload.Updates.CurrentPosition)
	require.Equal(t, 1, *payload.Updates.CurrentPosition)
}

func TestManager_HandleTypeRejectsUnregisteredMember(t *testing.T) {
	clock := newFakeClock(time.Now())
	m := NewManager(baseData("t6", clock.Now().Add(20*time.Second)), &fakeBroadcaster{}, fixedGenerator{text: []byte("ab")}, clock, zap.NewNop(), nil)
	require.ErrorIs(t, m.HandleType("ghost", 'a', ""), ErrNotRegistered)
}

func TestManager_AllParticipantsFinishEndsTournamentEarly(t *testing.T) {
	clock := newFakeClock(time.Now())
	bc := &fakeBroadcaster{}
	var ended int32
	m := NewManager(baseData("t7", clock.Now().Add(20*time.Second)), bc, fixedGenerator{text: []byte("ab")}, clock, zap.NewNop(), func() {
		atomic.AddInt32(&ended, 1)
	})

	_, err := m.Join(identity.Member{ID: "m1", Role: identity.RoleParticipant})
	require.NoError(t, err)
	_, err = m.Join(identity.Member{ID: "m2", Role: identity.RoleParticipant})
	require.NoError(t, err)

	clock.Advance(20 * time.Second)

	require.NoError(t, m.HandleType("m1", 'a', ""))
	require.NoError(t, m.HandleType("m1", 'b', ""))
	require.Equal(t, StatusStarted, m.HandleCheck().Status)

	require.NoError(t, m.HandleType("m2", 'a', ""))
	require.NoError(t, m.HandleType("m2", 'b', ""))

	require.Equal(t, StatusEnded, m.HandleCheck().Status)
	require.Equal(t, int32(1), atomic.LoadInt32(&ended))

	data := m.HandleData()
	require.NotNil(t, data.EndedAt)
	require.True(t, data.EndedAt.Before(*data.ScheduledEnd))
}

func TestManager_EndTimerEndsStragglersAtScheduledEnd(t *testing.T) {
	clock := newFakeClock(time.Now())
	bc := &fakeBroadcaster{}
	m := NewManager(baseData("t8", clock.Now().Add(20*time.Second)), bc, fixedGenerator{text: []byte("abcdef")}, clock, zap.NewNop(), nil)

	_, err := m.Join(identity.Member{ID: "m1", Role: identity.RoleParticipant})
	require.NoError(t, err)

	clock.Advance(20 * time.Second)
	require.NoError(t, m.HandleType("m1", 'a', ""))

	scheduledEnd := *m.HandleData().ScheduledEnd
	clock.Advance(DefaultRoundLength)

	prog, err := m.HandleMe("m1")
	require.NoError(t, err)
	require.NotNil(t, prog.EndedAt)
	require.True(t, prog.EndedAt.Equal(scheduledEnd))
	require.Equal(t, StatusEnded, m.HandleCheck().Status)
}

func TestManager_LeaveRemovesParticipantAndBroadcasts(t *testing.T) {
	clock := newFakeClock(time.Now())
	bc := &fakeBroadcaster{}
	m := NewManager(baseData("t9", clock.Now().Add(time.Minute)), bc, challenge.NewWordListGenerator(2), clock, zap.NewNop(), nil)

	_, err := m.Join(identity.Member{ID: "m1", Role: identity.RoleParticipant})
	require.NoError(t, err)

	m.Leave("m1")

	_, err = m.HandleMe("m1")
	require.ErrorIs(t, err, ErrNotRegistered)
	require.Len(t, bc.events("participant:left"), 1)
}

func TestManager_InactivityCallbackEndsParticipantSession(t *testing.T) {
	clock := newFakeClock(time.Now())
	bc := &fakeBroadcaster{}
	m := NewManager(baseData("t10", clock.Now().Add(time.Minute)), bc, challenge.NewWordListGenerator(3), clock, zap.NewNop(), nil)

	_, err := m.Join(identity.Member{ID: "m1", Role: identity.RoleParticipant})
	require.NoError(t, err)

	m.makeTimeoutCallback("m1")()

	prog, err := m.HandleMe("m1")
	require.NoError(t, err)
	require.NotNil(t, prog.EndedAt)
}
