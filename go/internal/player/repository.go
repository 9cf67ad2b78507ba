// Package player is the draftable player directory, read through gorm.
package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/draft/store"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"github.com/sqlc-dev/pqtype"
	"gorm.io/gorm"
)

type playerRow struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	ExternalID      string
	FullName        string
	PrimaryPosition string
	MLBTeam         string `gorm:"column:mlb_team"`
	Active          bool
	Stats           pqtype.NullRawMessage `gorm:"type:jsonb"`
	CreatedAt       time.Time
}

func (playerRow) TableName() string { return "players" }

// Repository implements store.PlayerDirectory.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ store.PlayerDirectory = (*Repository)(nil)

func (r *Repository) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	var row playerRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return toModel(row)
}

// ListPlayers returns players matching filter ordered by full name, then id.
// Position matches case-insensitively.
func (r *Repository) ListPlayers(ctx context.Context, filter store.PlayerFilter) ([]*models.Player, error) {
	var rows []playerRow
	if err := listQuery(r.db.WithContext(ctx), filter).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	players := make([]*models.Player, 0, len(rows))
	for _, row := range rows {
		p, err := toModel(row)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, nil
}

func listQuery(tx *gorm.DB, filter store.PlayerFilter) *gorm.DB {
	tx = tx.Model(&playerRow{})
	if filter.Position != "" {
		tx = tx.Where("UPPER(primary_position) = UPPER(?)", filter.Position)
	}
	if len(filter.Exclude) > 0 {
		tx = tx.Where("id NOT IN ?", filter.Exclude)
	}
	tx = tx.Order("full_name, id")
	if filter.Limit > 0 {
		tx = tx.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		tx = tx.Offset(filter.Offset)
	}
	return tx
}

func toModel(row playerRow) (*models.Player, error) {
	p := &models.Player{
		ID:              row.ID,
		ExternalID:      row.ExternalID,
		FullName:        row.FullName,
		PrimaryPosition: row.PrimaryPosition,
		MLBTeam:         row.MLBTeam,
		Active:          row.Active,
		CreatedAt:       row.CreatedAt,
	}
	if row.Stats.Valid && len(row.Stats.RawMessage) > 0 {
		if err := json.Unmarshal(row.Stats.RawMessage, &p.Stats); err != nil {
			return nil, fmt.Errorf("failed to decode stats for player %s: %w", row.ID, err)
		}
	}
	return p, nil
}
