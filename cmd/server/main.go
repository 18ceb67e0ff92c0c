package main

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/racetype/tourney-server/internal/auth"
	"github.com/racetype/tourney-server/internal/challenge"
	"github.com/racetype/tourney-server/internal/config"
	"github.com/racetype/tourney-server/internal/httpapi"
	"github.com/racetype/tourney-server/internal/identity"
	"github.com/racetype/tourney-server/internal/store"
	"github.com/racetype/tourney-server/internal/tournament"
	"github.com/racetype/tourney-server/internal/ws"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	if err := store.Migrate(db); err != nil {
		logger.Fatal("migrate database", zap.Error(err))
	}

	tournaments := store.NewTournamentRepo(db)
	users := store.NewUserRepo(db)

	hub := ws.NewHub(logger)
	tokens := auth.NewHMACTokens(cfg.JWTSecret)
	codec := identity.NewHMACCodec(cfg.NoauthSecret)
	resolver := identity.NewResolver(codec)
	generator := challenge.NewWordListGenerator(timeSeed())

	loader := func(id string) (tournament.TournamentData, error) {
		t, err := tournaments.Load(id)
		if err != nil {
			return tournament.TournamentData{}, err
		}
		return tournament.TournamentData{
			ID:           t.ID,
			Title:        t.Title,
			CreatedBy:    t.CreatedBy,
			ScheduledFor: t.ScheduledFor,
			Description:  t.Description,
			Privacy:      string(t.Privacy),
			TextOptions: challenge.Options{
				Uppercase:  t.TextOptions.Uppercase,
				Lowercase:  t.TextOptions.Lowercase,
				Numbers:    t.TextOptions.Numbers,
				Symbols:    t.TextOptions.Symbols,
				Meaningful: t.TextOptions.Meaningful,
				WordCount:  t.TextOptions.WordCount,
			},
			Text:         t.Text,
			StartedAt:    t.StartedAt,
			ScheduledEnd: t.ScheduledEnd,
			EndedAt:      t.EndedAt,
		}, nil
	}

	registry := tournament.NewRegistry(loader, hub, generator, tournament.RealClock, logger)

	handler := httpapi.SetupRoutes(httpapi.Deps{
		Tournaments: tournaments,
		Users:       users,
		Registry:    registry,
		Resolver:    resolver,
		Hub:         hub,
		Tokens:      tokens,
		Logger:      logger,
	})

	logger.Info("listening", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func timeSeed() int64 {
	return time.Now().UnixNano()
}
