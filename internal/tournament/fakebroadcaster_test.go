package tournament

import "sync"

type recordedEmit struct {
	scope    string // "member" or "room"
	memberID string
	event    string
	payload  any
	except   string
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	emits []recordedEmit
}

func (b *fakeBroadcaster) EmitToMember(tournamentID, memberID, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.emits = append(b.emits, recordedEmit{scope: "member", memberID: memberID, event: event, payload: payload})
}

func (b *fakeBroadcaster) EmitToRoom(tournamentID, event string, payload any, exceptMemberID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.emits = append(b.emits, recordedEmit{scope: "room", event: event, payload: payload, except: exceptMemberID})
}

func (b *fakeBroadcaster) events(name string) []recordedEmit {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []recordedEmit
	for _, e := range b.emits {
		if e.event == name {
			out = append(out, e)
		}
	}
	return out
}
