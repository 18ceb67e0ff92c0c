package tournament

// Broadcaster is the socket-emission collaborator the manager depends
// on so internal/tournament never imports internal/ws (kept acyclic
// the way the teacher keeps internal/lobby free of internal/ws
// imports). internal/ws implements this by emitting over the room's
// coder/websocket connections.
//
// Implementations must swallow transport errors and log them, per
// spec.md §4.5's failure semantics; the manager does not react to a
// Broadcaster method's (absent) return value.
type Broadcaster interface {
	// EmitToMember sends event/payload to a single member's socket,
	// if currently connected. A disconnected member is a silent
	// no-op.
	EmitToMember(tournamentID, memberID, event string, payload any)

	// EmitToRoom sends event/payload to every socket subscribed to
	// tournamentID's room. If exceptMemberID is non-empty, that
	// member's socket is skipped.
	EmitToRoom(tournamentID, event string, payload any, exceptMemberID string)
}
