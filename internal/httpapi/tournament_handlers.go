package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/racetype/tourney-server/internal/auth"
	"github.com/racetype/tourney-server/internal/challenge"
	"github.com/racetype/tourney-server/internal/store"
)

type createTournamentRequest struct {
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	Privacy      string           `json:"privacy"`
	ScheduledFor time.Time        `json:"scheduledFor"`
	TextOptions  *challenge.Options `json:"textOptions"`
}

type tournamentResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	CreatedBy    string    `json:"createdBy"`
	Privacy      string    `json:"privacy"`
	ScheduledFor time.Time `json:"scheduledFor"`
}

func toTournamentResponse(t *store.Tournament) tournamentResponse {
	return tournamentResponse{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		CreatedBy:    t.CreatedBy,
		Privacy:      string(t.Privacy),
		ScheduledFor: t.ScheduledFor,
	}
}

// CreateTournament handles scheduling a new tournament, restoring the
// creation endpoint _examples/original_source/api/src/routers/tournament.rs
// exposes and spec.md's distillation assumes exists without
// describing. The caller must be authenticated; the resulting
// CreatedBy is taken from the verified bearer token, never a
// client-supplied field.
func CreateTournament(tournaments *store.TournamentRepo, verifier auth.TokenVerifier, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireAuth(w, r, verifier)
		if !ok {
			return
		}

		var req createTournamentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
			writeError(w, http.StatusBadRequest, "title is required")
			return
		}
		if req.ScheduledFor.Before(time.Now()) {
			writeError(w, http.StatusBadRequest, "scheduledFor must be in the future")
			return
		}

		privacy := store.Privacy(req.Privacy)
		switch privacy {
		case store.PrivacyPublic, store.PrivacyUnlisted, store.PrivacyPrivate:
		case "":
			privacy = store.PrivacyPublic
		default:
			writeError(w, http.StatusBadRequest, "invalid privacy")
			return
		}

		opts := challenge.DefaultOptions()
		if req.TextOptions != nil {
			opts = *req.TextOptions
		}

		t, err := tournaments.Create(store.CreateParams{
			Title:        req.Title,
			Description:  req.Description,
			CreatedBy:    userID,
			Privacy:      privacy,
			ScheduledFor: req.ScheduledFor,
			TextOptions: store.TextOptions{
				Uppercase:  opts.Uppercase,
				Lowercase:  opts.Lowercase,
				Numbers:    opts.Numbers,
				Symbols:    opts.Symbols,
				Meaningful: opts.Meaningful,
				WordCount:  opts.WordCount,
			},
		})
		if err != nil {
			logger.Error("create tournament failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, toTournamentResponse(t))
	}
}

// SearchTournaments lists tournaments, restoring the pagination and
// privacy filter spec.md's distillation dropped.
func SearchTournaments(tournaments *store.TournamentRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		params := store.SearchParams{Privacy: store.Privacy(q.Get("privacy"))}
		if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
			params.Limit = limit
		}
		if offset, err := strconv.Atoi(q.Get("offset")); err == nil {
			params.Offset = offset
		}

		results, err := tournaments.Search(params)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		out := make([]tournamentResponse, 0, len(results))
		for i := range results {
			out = append(out, toTournamentResponse(&results[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GetTournament fetches a single tournament's metadata by id.
func GetTournament(tournaments *store.TournamentRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		t, err := tournaments.Load(id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "tournament not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, toTournamentResponse(t))
	}
}

func requireAuth(w http.ResponseWriter, r *http.Request, verifier auth.TokenVerifier) (string, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return "", false
	}
	userID, err := verifier.Verify(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return "", false
	}
	return userID, true
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}
