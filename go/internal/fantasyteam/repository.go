// Package fantasyteam reads fantasy teams and their rosters through gorm.
package fantasyteam

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mcdev12/bbdraft/go/internal/draft/store"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"gorm.io/gorm"
)

type teamRow struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey"`
	LeagueID      uuid.UUID      `gorm:"type:uuid"`
	OwnerID       uuid.UUID      `gorm:"type:uuid"`
	Name          string
	Abbreviation  string
	DraftPosition *int
	DraftQueue    pq.StringArray `gorm:"type:uuid[]"`
	CreatedAt     time.Time
	Roster        []rosterRow `gorm:"foreignKey:FantasyTeamID"`
}

func (teamRow) TableName() string { return "fantasy_teams" }

type rosterRow struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	FantasyTeamID   uuid.UUID `gorm:"type:uuid"`
	PlayerID        uuid.UUID `gorm:"type:uuid"`
	Position        string
	AcquisitionType string
	AcquiredAt      time.Time
}

func (rosterRow) TableName() string { return "roster" }

// Repository implements store.TeamStore.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ store.TeamStore = (*Repository)(nil)

func (r *Repository) GetTeam(ctx context.Context, id uuid.UUID) (*models.FantasyTeam, error) {
	var row teamRow
	err := r.db.WithContext(ctx).
		Preload("Roster", func(tx *gorm.DB) *gorm.DB { return tx.Order("acquired_at, id") }).
		First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fantasy team: %w", err)
	}
	return toModel(row)
}

// ListTeamsByLeague returns the league's teams in creation order with their
// rosters loaded.
func (r *Repository) ListTeamsByLeague(ctx context.Context, leagueID uuid.UUID) ([]*models.FantasyTeam, error) {
	var rows []teamRow
	err := r.db.WithContext(ctx).
		Preload("Roster", func(tx *gorm.DB) *gorm.DB { return tx.Order("acquired_at, id") }).
		Where("league_id = ?", leagueID).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list fantasy teams by league: %w", err)
	}

	teams := make([]*models.FantasyTeam, 0, len(rows))
	for _, row := range rows {
		team, err := toModel(row)
		if err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, nil
}

func (r *Repository) UpdateDraftQueue(ctx context.Context, teamID uuid.UUID, queue []uuid.UUID) error {
	ids := make(pq.StringArray, len(queue))
	for i, id := range queue {
		ids[i] = id.String()
	}
	res := r.db.WithContext(ctx).
		Model(&teamRow{}).
		Where("id = ?", teamID).
		Update("draft_queue", ids)
	if res.Error != nil {
		return fmt.Errorf("failed to update draft queue: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func toModel(row teamRow) (*models.FantasyTeam, error) {
	queue := make([]uuid.UUID, 0, len(row.DraftQueue))
	for _, raw := range row.DraftQueue {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse draft queue entry %q: %w", raw, err)
		}
		queue = append(queue, id)
	}

	roster := make([]models.Roster, len(row.Roster))
	for i, rr := range row.Roster {
		roster[i] = models.Roster{
			ID:              rr.ID,
			FantasyTeamID:   rr.FantasyTeamID,
			PlayerID:        rr.PlayerID,
			Position:        rr.Position,
			AcquiredAt:      rr.AcquiredAt,
			AcquisitionType: models.AcquisitionType(rr.AcquisitionType),
		}
	}

	return &models.FantasyTeam{
		ID:            row.ID,
		LeagueID:      row.LeagueID,
		OwnerID:       row.OwnerID,
		Name:          row.Name,
		Abbreviation:  row.Abbreviation,
		DraftPosition: row.DraftPosition,
		DraftQueue:    queue,
		Roster:        roster,
		CreatedAt:     row.CreatedAt,
	}, nil
}
