package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup finds no matching row.
var ErrNotFound = errors.New("store: not found")

// TournamentRepo is the persistence loader collaborator spec.md §6
// names: LoadTournament(id) -> TournamentMeta | NotFound | Err.
type TournamentRepo struct {
	db *gorm.DB
}

// NewTournamentRepo builds a TournamentRepo over db.
func NewTournamentRepo(db *gorm.DB) *TournamentRepo {
	return &TournamentRepo{db: db}
}

// Load fetches a tournament's metadata by id. It returns ErrNotFound
// if no such tournament exists.
func (r *TournamentRepo) Load(id string) (*Tournament, error) {
	var t Tournament
	err := r.db.First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateParams carries the fields a caller supplies when scheduling a
// new tournament.
type CreateParams struct {
	Title        string
	Description  string
	CreatedBy    string
	Privacy      Privacy
	TextOptions  TextOptions
	ScheduledFor time.Time
}

// Create inserts a new tournament row with a fresh id.
func (r *TournamentRepo) Create(p CreateParams) (*Tournament, error) {
	t := &Tournament{
		ID:           uuid.NewString(),
		Title:        p.Title,
		Description:  p.Description,
		CreatedBy:    p.CreatedBy,
		Privacy:      p.Privacy,
		TextOptions:  p.TextOptions,
		ScheduledFor: p.ScheduledFor,
	}
	if err := r.db.Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// SearchParams filters the tournament listing endpoint, restoring the
// pagination/privacy filter dropped from spec.md's distillation
// (_examples/original_source/models/src/queries/tournament.rs).
type SearchParams struct {
	Privacy Privacy
	Limit   int
	Offset  int
}

// Search lists tournaments matching p.
func (r *TournamentRepo) Search(p SearchParams) ([]Tournament, error) {
	q := r.db.Model(&Tournament{}).Order("scheduled_for desc")
	if p.Privacy != "" {
		q = q.Where("privacy = ?", p.Privacy)
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}
	var results []Tournament
	err := q.Limit(p.Limit).Offset(p.Offset).Find(&results).Error
	return results, err
}

// UpdateLifecycle persists the observable lifecycle transition of a
// tournament (start/end timestamps and the revealed text) as an audit
// trail; the in-memory manager remains authoritative while live.
func (r *TournamentRepo) UpdateLifecycle(id string, text *string, startedAt, scheduledEnd, endedAt *time.Time) error {
	updates := map[string]any{}
	if text != nil {
		updates["text"] = *text
	}
	if startedAt != nil {
		updates["started_at"] = *startedAt
	}
	if scheduledEnd != nil {
		updates["scheduled_end"] = *scheduledEnd
	}
	if endedAt != nil {
		updates["ended_at"] = *endedAt
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&Tournament{}).Where("id = ?", id).Updates(updates).Error
}
