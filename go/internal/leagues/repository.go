// Package leagues reads fantasy leagues through gorm.
package leagues

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/draft/store"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"gorm.io/gorm"
)

type leagueRow struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name           string
	CommissionerID uuid.UUID `gorm:"type:uuid"`
	Season         int
	Status         string
	DraftFormat    string
	Rounds         int
	PickTimer      int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (leagueRow) TableName() string { return "leagues" }

// Repository implements store.LeagueStore.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ store.LeagueStore = (*Repository)(nil)

func (r *Repository) GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error) {
	var row leagueRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}
	return toModel(row), nil
}

func toModel(row leagueRow) *models.League {
	return &models.League{
		ID:             row.ID,
		Name:           row.Name,
		CommissionerID: row.CommissionerID,
		Settings: models.LeagueSettings{
			DraftFormat: models.DraftFormat(row.DraftFormat),
			Rounds:      row.Rounds,
			PickTimer:   row.PickTimer,
		},
		Status:    models.LeagueStatus(row.Status),
		Season:    row.Season,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
