package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/racetype/tourney-server/internal/auth"
	"github.com/racetype/tourney-server/internal/identity"
	"github.com/racetype/tourney-server/internal/store"
	"github.com/racetype/tourney-server/internal/tournament"
	"github.com/racetype/tourney-server/internal/ws"
)

// Deps bundles every collaborator the HTTP surface needs, replacing
// the teacher's single *hub.Hub parameter now that the surface spans
// auth, tournament CRUD, and the socket upgrade.
type Deps struct {
	Tournaments *store.TournamentRepo
	Users       *store.UserRepo
	Registry    *tournament.Registry
	Resolver    *identity.Resolver
	Hub         *ws.Hub
	Tokens      *auth.HMACTokens
	Logger      *zap.Logger
}

// SetupRoutes builds the chi router for the whole service.
func SetupRoutes(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz)

	r.Post("/auth/register", Register(d.Users, d.Tokens, d.Logger))
	r.Post("/auth/login", Login(d.Users, d.Tokens, d.Logger))

	r.Route("/tournaments", func(r chi.Router) {
		r.Post("/", CreateTournament(d.Tournaments, d.Tokens, d.Logger))
		r.Get("/", SearchTournaments(d.Tournaments))
		r.Get("/{id}", GetTournament(d.Tournaments))
		r.Get("/{id}/ws", ws.Handler(d.Registry, d.Resolver, d.Hub, d.Tokens, d.Logger))
	})

	return r
}
