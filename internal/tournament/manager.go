package tournament

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/racetype/tourney-server/internal/challenge"
	"github.com/racetype/tourney-server/internal/debounce"
	"github.com/racetype/tourney-server/internal/identity"
	"github.com/racetype/tourney-server/internal/timeout"
	"github.com/racetype/tourney-server/internal/typingengine"
)

// selfItem is one entry pushed into a participant's self-update
// debouncer: a snapshot of their state plus the request id that
// produced it, per spec.md §6's update:me payload.
type selfItem struct {
	state ParticipantState
	rid   string
}

// aggregateItem is one entry pushed into the room-wide aggregate
// debouncer.
type aggregateItem struct {
	memberID string
	state    ParticipantState
}

// Manager implements C5: the authoritative state machine for a single
// tournament room, per spec.md §4.5.
//
// Its concurrency model is a sync.RWMutex guarding TournamentData and
// the participant map — readers (handle_check, handle_me, handle_all,
// handle_data) take RLock, writers (join, leave, handle_type, the
// start/end timers) take Lock. This is a deliberate divergence from
// the teacher's channel-actor internal/lobby.Lobby, which serializes
// every operation through a single goroutine's select loop; spec.md §5
// explicitly calls for concurrent readers, which an actor loop cannot
// give without its own internal fan-out. See SPEC_FULL.md §4.5.
type Manager struct {
	id string

	broadcaster Broadcaster
	generator   challenge.Generator
	clock       Clock
	logger      *zap.Logger

	// onEnded is invoked exactly once, after the tournament transitions
	// to Ended, so the registry can schedule eviction EvictionGrace
	// later without this package importing the registry.
	onEnded func()

	mu           sync.RWMutex
	data         TournamentData
	participants map[string]*ParticipantState

	monitors       map[string]*timeout.Monitor
	selfDebouncers map[string]*debounce.Debouncer[selfItem]
	selfLastFlush  map[string]ParticipantState

	aggregateDebouncer *debounce.Debouncer[aggregateItem]
	aggregateLastFlush map[string]ParticipantState

	startTimer Timer
	endTimer   Timer

	ended bool
}

// NewManager builds a Manager for data and arms its start timer. If
// data.ScheduledFor has already passed, the start timer fires on the
// next tick, matching time.AfterFunc's treatment of a non-positive
// duration.
func NewManager(data TournamentData, broadcaster Broadcaster, generator challenge.Generator, clock Clock, logger *zap.Logger, onEnded func()) *Manager {
	m := &Manager{
		id:                 data.ID,
		broadcaster:        broadcaster,
		generator:          generator,
		clock:              clock,
		logger:             logger,
		onEnded:            onEnded,
		data:               data,
		participants:       make(map[string]*ParticipantState),
		monitors:           make(map[string]*timeout.Monitor),
		selfDebouncers:     make(map[string]*debounce.Debouncer[selfItem]),
		selfLastFlush:      make(map[string]ParticipantState),
		aggregateLastFlush: make(map[string]ParticipantState),
	}

	m.aggregateDebouncer = debounce.New(m.flushAggregate, debounce.Config{
		Debounce: AggregateDebounce,
		MaxStack: AggregateMaxStack,
		MaxWait:  AggregateMaxWait,
	})

	if data.EndedAt != nil {
		m.ended = true
	} else {
		delay := data.ScheduledFor.Sub(clock.Now())
		m.startTimer = clock.AfterFunc(delay, m.onStartTimer)
	}

	return m
}

// Join registers member in the room, per spec.md §4.5's join
// operation. Callers supply the already-resolved identity.Member; the
// returned payload omits the noauth token, which only internal/ws
// knows about.
func (m *Manager) Join(member identity.Member) (JoinSuccessPayload, error) {
	m.mu.Lock()

	if member.Role == identity.RoleParticipant {
		now := m.clock.Now()
		if m.ended {
			m.mu.Unlock()
			return JoinSuccessPayload{}, ErrAlreadyEnded
		}
		if m.data.StartedAt != nil || m.data.ScheduledFor.Sub(now) < JoinDeadline {
			m.mu.Unlock()
			return JoinSuccessPayload{}, ErrJoinClosed
		}

		if _, exists := m.participants[member.ID]; !exists {
			state := &ParticipantState{Member: member}
			m.participants[member.ID] = state
			m.selfLastFlush[member.ID] = *state

			monitor := timeout.New(m.makeTimeoutCallback(member.ID), func() {})
			monitor.Arm(InactivityTimeout)
			m.monitors[member.ID] = monitor

			memberID := member.ID
			m.selfDebouncers[memberID] = debounce.New(func(batch []selfItem) {
				m.flushSelf(memberID, batch)
			}, debounce.Config{
				Debounce: SelfDebounce,
				MaxStack: SelfMaxStack,
				MaxWait:  SelfMaxWait,
			})
		} else {
			m.participants[member.ID].Member = member
		}
	}

	payload := m.snapshotLocked(member)
	m.mu.Unlock()

	if member.Role == identity.RoleParticipant {
		m.broadcaster.EmitToRoom(m.id, "participant:joined", ParticipantJoinedPayload{
			Participant: participantDataDTO(*payload.participantRef),
		}, member.ID)
	}

	return payload.JoinSuccessPayload, nil
}

// joinSnapshot bundles the public payload with the joining
// participant's own state, when applicable, for the participant:joined
// broadcast built right after the lock is released.
type joinSnapshot struct {
	JoinSuccessPayload
	participantRef *ParticipantState
}

func (m *Manager) snapshotLocked(member identity.Member) joinSnapshot {
	participants := make([]ParticipantDataDTO, 0, len(m.participants))
	for _, p := range m.participants {
		participants = append(participants, participantDataDTO(*p))
	}

	snap := joinSnapshot{
		JoinSuccessPayload: JoinSuccessPayload{
			Data:         tournamentDataDTO(m.data),
			Member:       memberDTO(member),
			Participants: participants,
		},
	}
	if p, ok := m.participants[member.ID]; ok {
		snap.participantRef = p
	}
	return snap
}

// Leave removes member from the room, idempotently. Only participants
// carry manager-side state; leaving as a spectator is a no-op beyond
// the room-membership bookkeeping internal/ws does on its own.
func (m *Manager) Leave(memberID string) {
	m.mu.Lock()
	_, ok := m.participants[memberID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.participants, memberID)
	delete(m.selfLastFlush, memberID)
	delete(m.aggregateLastFlush, memberID)
	monitor := m.monitors[memberID]
	delete(m.monitors, memberID)
	selfDeb := m.selfDebouncers[memberID]
	delete(m.selfDebouncers, memberID)
	m.mu.Unlock()

	if monitor != nil {
		monitor.Disarm()
	}
	if selfDeb != nil {
		selfDeb.Shutdown()
	}

	m.broadcaster.EmitToRoom(m.id, "participant:left", ParticipantLeftPayload{MemberID: memberID}, "")
}

// HandleType applies one keystroke for memberID, per spec.md §4.5's
// handle_type. Keystrokes that arrive before the challenge text is
// assigned (tournament still Upcoming) are silently ignored: no
// well-behaved client sends one before receiving update:data, and
// there is no dedicated failure code for it in spec.md §7.
func (m *Manager) HandleType(memberID string, input byte, rid string) error {
	now := m.clock.Now()

	m.mu.Lock()
	p, ok := m.participants[memberID]
	if !ok {
		m.mu.Unlock()
		return ErrNotRegistered
	}
	if p.EndedAt != nil {
		m.mu.Unlock()
		return ErrSessionEnded
	}
	if m.data.Text == nil {
		m.mu.Unlock()
		return nil
	}

	text := []byte(*m.data.Text)
	prev := engineState(*p)
	next := typingengine.Step(prev, input, text, now)
	applyEngineState(p, next)
	p.LastRID = rid

	finished := typingengine.Finished(next, text)
	if finished {
		endedAt := now
		p.EndedAt = &endedAt
	}

	snapshot := p.clone()
	allFinished := finished && m.allFinishedLocked()
	selfDeb := m.selfDebouncers[memberID]
	m.mu.Unlock()

	if selfDeb != nil {
		selfDeb.Push(selfItem{state: snapshot, rid: rid})
	}
	if m.aggregateDebouncer != nil {
		m.aggregateDebouncer.Push(aggregateItem{memberID: memberID, state: snapshot})
	}

	if monitor := m.monitorFor(memberID); monitor != nil {
		monitor.Touch()
	}

	if allFinished {
		m.endTournament(now)
	}

	return nil
}

func (m *Manager) monitorFor(memberID string) *timeout.Monitor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.monitors[memberID]
}

// allFinishedLocked reports whether every current participant has
// EndedAt set. Called with mu held.
func (m *Manager) allFinishedLocked() bool {
	if len(m.participants) == 0 {
		return false
	}
	for _, p := range m.participants {
		if p.EndedAt == nil {
			return false
		}
	}
	return true
}

// HandleCheck reports the room's lifecycle status.
func (m *Manager) HandleCheck() CheckSuccessPayload {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return CheckSuccessPayload{Status: deriveStatus(m.data)}
}

// HandleMe reports memberID's own progress.
func (m *Manager) HandleMe(memberID string) (ParticipantDataDTO, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.participants[memberID]
	if !ok {
		return ParticipantDataDTO{}, ErrNotRegistered
	}
	return participantDataDTO(*p), nil
}

// HandleAll reports every participant's progress.
func (m *Manager) HandleAll() []ParticipantDataDTO {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ParticipantDataDTO, 0, len(m.participants))
	for _, p := range m.participants {
		out = append(out, participantDataDTO(*p))
	}
	return out
}

// HandleData reports the room's tournament metadata.
func (m *Manager) HandleData() TournamentDataDTO {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return tournamentDataDTO(m.data)
}

// onStartTimer fires at data.ScheduledFor. With no participants the
// room goes straight to Ended with no challenge text ever assigned,
// per spec.md §4.5's zero-participant edge case.
func (m *Manager) onStartTimer() {
	now := m.clock.Now()

	m.mu.Lock()
	if m.ended || m.data.StartedAt != nil {
		m.mu.Unlock()
		return
	}

	if len(m.participants) == 0 {
		m.mu.Unlock()
		m.endZeroParticipantTournament(now)
		return
	}

	text := string(m.generator.Generate(m.data.TextOptions))
	startedAt := now
	scheduledEnd := now.Add(DefaultRoundLength)
	m.data.Text = &text
	m.data.StartedAt = &startedAt
	m.data.ScheduledEnd = &scheduledEnd
	payload := UpdateDataPayload{Updates: PartialTournamentDataDTO{
		Text:         &text,
		StartedAt:    &startedAt,
		ScheduledEnd: &scheduledEnd,
	}}
	m.endTimer = m.clock.AfterFunc(scheduledEnd.Sub(now), m.onEndTimer)
	m.mu.Unlock()

	m.broadcaster.EmitToRoom(m.id, "update:data", payload, "")
}

// onEndTimer fires at data.ScheduledEnd. Any participant still short
// of the challenge's end is marked ended at exactly scheduledEnd, not
// at whatever instant the timer actually ran, so every straggler
// shares one ended_at value.
func (m *Manager) onEndTimer() {
	m.mu.RLock()
	scheduledEnd := m.data.ScheduledEnd
	m.mu.RUnlock()
	if scheduledEnd == nil {
		return
	}
	m.endTournament(*scheduledEnd)
}

// endTournament transitions the room to Ended at endedAt, idempotently.
func (m *Manager) endTournament(endedAt time.Time) {
	m.mu.Lock()
	if m.ended {
		m.mu.Unlock()
		return
	}
	m.ended = true
	m.data.EndedAt = &endedAt

	for _, p := range m.participants {
		if p.EndedAt == nil {
			stamp := endedAt
			p.EndedAt = &stamp
		}
	}

	monitors := make([]*timeout.Monitor, 0, len(m.monitors))
	for _, mon := range m.monitors {
		monitors = append(monitors, mon)
	}
	selfDebs := make([]*debounce.Debouncer[selfItem], 0, len(m.selfDebouncers))
	for _, d := range m.selfDebouncers {
		selfDebs = append(selfDebs, d)
	}

	if m.startTimer != nil {
		m.startTimer.Stop()
	}
	if m.endTimer != nil {
		m.endTimer.Stop()
	}

	payload := UpdateDataPayload{Updates: PartialTournamentDataDTO{EndedAt: &endedAt}}
	m.mu.Unlock()

	for _, mon := range monitors {
		mon.Disarm()
	}
	for _, d := range selfDebs {
		d.Shutdown()
	}
	if m.aggregateDebouncer != nil {
		m.aggregateDebouncer.FlushNow()
	}

	m.broadcaster.EmitToRoom(m.id, "update:data", payload, "")

	if m.onEnded != nil {
		m.onEnded()
	}
}

// endZeroParticipantTournament handles the scheduled_for-with-no-
// participants edge case: spec.md §4.5 requires both started_at and
// ended_at be set to the same instant (never just ended_at alone,
// per §3's "ended_at only after started_at" invariant), with no
// challenge text ever generated. There are no participants, monitors,
// or self-debouncers to tear down, so this is a smaller variant of
// endTournament rather than a call into it.
func (m *Manager) endZeroParticipantTournament(now time.Time) {
	m.mu.Lock()
	if m.ended {
		m.mu.Unlock()
		return
	}
	m.ended = true
	m.data.StartedAt = &now
	m.data.EndedAt = &now

	if m.startTimer != nil {
		m.startTimer.Stop()
	}

	payload := UpdateDataPayload{Updates: PartialTournamentDataDTO{StartedAt: &now, EndedAt: &now}}
	m.mu.Unlock()

	if m.aggregateDebouncer != nil {
		m.aggregateDebouncer.FlushNow()
	}
	m.broadcaster.EmitToRoom(m.id, "update:data", payload, "")

	if m.onEnded != nil {
		m.onEnded()
	}
}

// makeTimeoutCallback builds the onTimeout closure timeout.New wants
// for memberID: the participant's session is force-ended at the current
// time, with their positions and keystroke counts left as they were.
func (m *Manager) makeTimeoutCallback(memberID string) func() {
	return func() {
		now := m.clock.Now()

		m.mu.Lock()
		p, ok := m.participants[memberID]
		if !ok || p.EndedAt != nil {
			m.mu.Unlock()
			return
		}
		endedAt := now
		p.EndedAt = &endedAt
		snapshot := p.clone()
		allFinished := m.allFinishedLocked()
		selfDeb := m.selfDebouncers[memberID]
		m.mu.Unlock()

		if selfDeb != nil {
			selfDeb.Push(selfItem{state: snapshot})
			selfDeb.FlushNow()
		}
		if m.aggregateDebouncer != nil {
			m.aggregateDebouncer.Push(aggregateItem{memberID: memberID, state: snapshot})
		}

		if allFinished {
			m.endTournament(now)
		}
	}
}

// flushSelf is memberID's self-update debouncer's flush callback: it
// diffs the batch's latest state against the last flush and emits
// update:me with only the changed fields, per spec.md §4.5.
func (m *Manager) flushSelf(memberID string, batch []selfItem) {
	if len(batch) == 0 {
		return
	}
	latest := batch[len(batch)-1]

	rid := latest.rid
	if rid == "" {
		for i := len(batch) - 2; i >= 0; i-- {
			if batch[i].rid != "" {
				rid = batch[i].rid
				break
			}
		}
	}

	m.mu.Lock()
	prev, ok := m.selfLastFlush[memberID]
	if !ok {
		prev = ParticipantState{}
	}
	m.selfLastFlush[memberID] = latest.state
	m.mu.Unlock()

	diff, changed := diffParticipant(prev, latest.state)
	if !changed && rid == "" {
		return
	}
	m.broadcaster.EmitToMember(m.id, memberID, "update:me", UpdateMePayload{Updates: diff, RID: rid})
}

// flushAggregate is the room-wide aggregate debouncer's flush
// callback: it coalesces to one entry per member (the last state
// observed in the batch) and emits update:all with only the members
// whose diffed fields actually changed.
func (m *Manager) flushAggregate(batch []aggregateItem) {
	if len(batch) == 0 {
		return
	}

	latestByMember := make(map[string]ParticipantState, len(batch))
	order := make([]string, 0, len(batch))
	for _, item := range batch {
		if _, seen := latestByMember[item.memberID]; !seen {
			order = append(order, item.memberID)
		}
		latestByMember[item.memberID] = item.state
	}

	m.mu.Lock()
	updates := make([]MemberUpdateDTO, 0, len(order))
	for _, memberID := range order {
		state := latestByMember[memberID]
		prev := m.aggregateLastFlush[memberID]
		diff, changed := diffParticipant(prev, state)
		m.aggregateLastFlush[memberID] = state
		if changed {
			updates = append(updates, MemberUpdateDTO{MemberID: memberID, Updates: diff})
		}
	}
	m.mu.Unlock()

	if len(updates) == 0 {
		return
	}
	m.broadcaster.EmitToRoom(m.id, "update:all", UpdateAllPayload{Updates: updates}, "")
}

func engineState(p ParticipantState) typingengine.State {
	s := typingengine.State{
		CurrentPosition: p.CurrentPosition,
		CorrectPosition: p.CorrectPosition,
		TotalKeystrokes: p.TotalKeystrokes,
		CurrentSpeed:    p.CurrentSpeed,
		CurrentAccuracy: p.CurrentAccuracy,
	}
	if p.StartedAt != nil {
		s.StartedAt = *p.StartedAt
	}
	return s
}

func applyEngineState(p *ParticipantState, s typingengine.State) {
	p.CurrentPosition = s.CurrentPosition
	p.CorrectPosition = s.CorrectPosition
	p.TotalKeystrokes = s.TotalKeystrokes
	p.CurrentSpeed = s.CurrentSpeed
	p.CurrentAccuracy = s.CurrentAccuracy
	if p.StartedAt == nil && !s.StartedAt.IsZero() {
		startedAt := s.StartedAt
		p.StartedAt = &startedAt
	}
}
