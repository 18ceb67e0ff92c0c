package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/racetype/tourney-server/internal/auth"
	"github.com/racetype/tourney-server/internal/identity"
	"github.com/racetype/tourney-server/internal/store"
	"github.com/racetype/tourney-server/internal/tournament"
)

// Handler builds the /tournaments/{id}/ws upgrade handler. Grounded in
// the teacher's internal/ws/handler.go (coder/websocket.Accept, a
// context.WithTimeout-bounded read loop, a writer side fed by the
// manager's Broadcaster instead of a raw lobby outbox channel).
//
// Per spec.md §4.7 step 1, every handshake failure — missing id,
// unknown tournament, a closed or ended room — is reported as a
// join:failure event over the socket, not an HTTP status, since the
// wire contract promises the joining socket a `{code, message}`
// envelope rather than requiring the client to sniff the upgrade
// response.
func Handler(registry *tournament.Registry, resolver *identity.Resolver, hub *Hub, verifier auth.TokenVerifier, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tournamentID := chi.URLParam(r, "id")

		socket, err := websocket.Accept(w, r, &websocket.AcceptOptions{})
		if err != nil {
			return
		}
		defer socket.Close(websocket.StatusInternalError, "closing")

		ctx := r.Context()

		if tournamentID == "" {
			sendFailureEvent(ctx, socket, "join:failure", codeMissingID, "missing tournament id")
			socket.Close(websocket.StatusNormalClosure, "missing tournament id")
			return
		}

		manager, err := registry.GetOrCreate(tournamentID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				sendFailureEvent(ctx, socket, "join:failure", codeUnknownTournament, "unknown tournament")
				socket.Close(websocket.StatusNormalClosure, "unknown tournament")
				return
			}
			logger.Error("failed to load tournament", zap.String("tournamentId", tournamentID), zap.Error(err))
			sendFailureEvent(ctx, socket, "join:failure", codeInternal, "internal error")
			socket.Close(websocket.StatusInternalError, "internal error")
			return
		}

		params := identity.Params{
			Spectator:    r.URL.Query().Get("spectator") == "true",
			NoauthUnique: r.Header.Get("x-noauth-unique"),
		}
		if r.URL.Query().Get("anonymous") == "true" {
			params.Auth.Anonymous = true
		}
		if bearer := bearerToken(r); bearer != "" && verifier != nil {
			if userID, err := verifier.Verify(bearer); err == nil {
				params.Auth.UserID = userID
			}
		}

		resolved := resolver.Resolve(params)
		member := resolved.Member

		payload, err := manager.Join(member)
		if err != nil {
			sendFailureEvent(ctx, socket, "join:failure", codeForError(err), "unable to join tournament")
			socket.Close(websocket.StatusNormalClosure, "join rejected")
			return
		}
		payload.Noauth = resolved.NoauthToken

		hub.Register(tournamentID, member.ID, socket)
		defer func() {
			hub.Unregister(tournamentID, member.ID)
			manager.Leave(member.ID)
		}()

		if data, err := encodeEnvelope("join:success", payload); err == nil {
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			_ = socket.Write(writeCtx, websocket.MessageText, data)
			cancel()
		}

		readLoop(ctx, socket, manager, member.ID, logger)
	}
}

func readLoop(ctx context.Context, socket *websocket.Conn, manager *tournament.Manager, memberID string, logger *zap.Logger) {
	for {
		readCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
		_, data, err := socket.Read(readCtx)
		cancel()
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				logger.Debug("socket read failed", zap.String("memberId", memberID), zap.Error(err))
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			sendFailureEvent(ctx, socket, "failure", codeMalformedMessage, "malformed message")
			continue
		}

		if err := dispatch(ctx, socket, manager, memberID, env); err != nil {
			sendFailureEvent(ctx, socket, failureEventFor(env.Event), codeForError(err), err.Error())
		}
	}
}

// failureEventFor names the failure event spec.md §6's table pairs
// with a given ingress event (type:failure, me:failure); anything the
// table doesn't name a dedicated failure event for (an unknown event,
// or a handshake-adjacent failure) falls back to the generic "failure"
// event.
func failureEventFor(event string) string {
	switch event {
	case "type":
		return "type:failure"
	case "me":
		return "me:failure"
	default:
		return "failure"
	}
}

func dispatch(ctx context.Context, socket *websocket.Conn, manager *tournament.Manager, memberID string, env envelope) error {
	switch env.Event {
	case "type":
		var p typePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil || len(p.Character) == 0 {
			return errMalformed
		}
		return manager.HandleType(memberID, p.Character[0], p.RID)

	case "check":
		return sendEnvelope(ctx, socket, "check:success", manager.HandleCheck())

	case "me":
		data, err := manager.HandleMe(memberID)
		if err != nil {
			return err
		}
		return sendEnvelope(ctx, socket, "me:success", data)

	case "all":
		return sendEnvelope(ctx, socket, "all:success", manager.HandleAll())

	case "data":
		return sendEnvelope(ctx, socket, "data:success", manager.HandleData())

	case "leave":
		manager.Leave(memberID)
		return sendEnvelope(ctx, socket, "leave:success", tournament.LeaveSuccessPayload{Message: "left tournament"})

	default:
		return errUnknownEvent
	}
}

func sendEnvelope(ctx context.Context, socket *websocket.Conn, event string, payload any) error {
	data, err := encodeEnvelope(event, payload)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return socket.Write(writeCtx, websocket.MessageText, data)
}

// sendFailureEvent writes a {code, message} envelope under event,
// per spec.md §6's per-operation failure event names.
func sendFailureEvent(ctx context.Context, socket *websocket.Conn, event string, code int, message string) {
	data, err := encodeEnvelope(event, tournament.FailurePayload{Code: code, Message: message})
	if err != nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = socket.Write(writeCtx, websocket.MessageText, data)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}
