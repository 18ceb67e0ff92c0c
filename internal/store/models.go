// Package store implements the persistence layer spec.md §6 names as
// an external collaborator: gorm models over Postgres, matching the
// teacher's go.mod (gorm.io/gorm, gorm.io/driver/postgres) which the
// distilled teacher snippet never actually wired up.
//
// Grounded in _examples/original_source/models/src/domains/tournaments.rs
// and users.rs for column shape, generalized from sea-orm to gorm the
// way the teacher's own go.mod anticipates.
package store

import (
	"time"

	"gorm.io/gorm"
)

// Privacy is the visibility of a tournament in search results,
// restored from _examples/original_source/models/src/schemas/tournament.rs's
// search filters, which spec.md's distillation dropped.
type Privacy string

const (
	PrivacyPublic   Privacy = "public"
	PrivacyUnlisted Privacy = "unlisted"
	PrivacyPrivate  Privacy = "private"
)

// TextOptions mirrors challenge.Options for storage; kept separate so
// the store package has no dependency on internal/challenge.
type TextOptions struct {
	Uppercase  bool
	Lowercase  bool
	Numbers    bool
	Symbols    bool
	Meaningful bool
	WordCount  int
}

// Tournament is the gorm model for tournament metadata. The lifecycle
// fields (Text, StartedAt, ScheduledEnd, EndedAt) are written only by
// TournamentRepo.UpdateLifecycle, which nothing in the service calls:
// the in-memory manager does not write its transitions back, and it
// is the sole source of truth while a tournament is live, per
// spec.md's non-goal on durable in-flight state.
type Tournament struct {
	ID            string `gorm:"primaryKey"`
	Title         string
	Description   string
	CreatedBy     string
	Privacy       Privacy
	TextOptions   TextOptions `gorm:"embedded;embeddedPrefix:text_opts_"`
	ScheduledFor  time.Time
	Text          *string
	StartedAt     *time.Time
	ScheduledEnd  *time.Time
	EndedAt       *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// User is the gorm model for a registered account.
type User struct {
	ID           string `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex"`
	Email        string `gorm:"uniqueIndex"`
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Migrate runs the schema migration for the models in this package.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Tournament{}, &User{})
}
