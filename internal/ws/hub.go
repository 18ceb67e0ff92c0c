// Package ws implements C7: the socket transport. It owns the
// handshake (identity resolution, registry lookup, manager.Join), the
// per-connection read loop that dispatches ingress events to the
// manager, and the live-connection bookkeeping that backs
// tournament.Broadcaster.
//
// Grounded in the teacher's internal/hub.Hub (a registry of live
// rooms keyed by code, guarded by a channel-actor inbox) and
// internal/ws/handler.go (the coder/websocket accept/read/write
// loop); generalized here from one lobby-wide broadcast to
// per-tournament rooms with both room-wide and single-member emission.
package ws

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// conn is one live socket's write-side handle.
type conn struct {
	socket *websocket.Conn
	mu     sync.Mutex // serializes writes to a single connection
}

func (c *conn) send(ctx context.Context, event string, payload any) error {
	data, err := encodeEnvelope(event, payload)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.socket.Write(writeCtx, websocket.MessageText, data)
}

// Hub tracks every live connection grouped by tournament room and
// implements tournament.Broadcaster over them.
type Hub struct {
	logger *zap.Logger

	mu    sync.RWMutex
	rooms map[string]map[string]*conn // tournamentID -> memberID -> conn
}

// NewHub builds an empty Hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{logger: logger, rooms: make(map[string]map[string]*conn)}
}

// Register adds memberID's connection to tournamentID's room,
// replacing any previous connection for the same member (a
// reconnect).
func (h *Hub) Register(tournamentID, memberID string, socket *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[tournamentID]
	if !ok {
		room = make(map[string]*conn)
		h.rooms[tournamentID] = room
	}
	room[memberID] = &conn{socket: socket}
}

// Unregister drops memberID's connection from tournamentID's room.
func (h *Hub) Unregister(tournamentID, memberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[tournamentID]
	if !ok {
		return
	}
	delete(room, memberID)
	if len(room) == 0 {
		delete(h.rooms, tournamentID)
	}
}

// EmitToMember implements tournament.Broadcaster.
func (h *Hub) EmitToMember(tournamentID, memberID, event string, payload any) {
	h.mu.RLock()
	c, ok := h.rooms[tournamentID][memberID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if err := c.send(context.Background(), event, payload); err != nil {
		h.logger.Debug("emit to member failed", zap.String("tournamentId", tournamentID), zap.String("memberId", memberID), zap.Error(err))
	}
}

// EmitToRoom implements tournament.Broadcaster.
func (h *Hub) EmitToRoom(tournamentID, event string, payload any, exceptMemberID string) {
	h.mu.RLock()
	room := h.rooms[tournamentID]
	targets := make(map[string]*conn, len(room))
	for memberID, c := range room {
		if memberID == exceptMemberID {
			continue
		}
		targets[memberID] = c
	}
	h.mu.RUnlock()

	for memberID, c := range targets {
		if err := c.send(context.Background(), event, payload); err != nil {
			h.logger.Debug("emit to room failed", zap.String("tournamentId", tournamentID), zap.String("memberId", memberID), zap.Error(err))
		}
	}
}
