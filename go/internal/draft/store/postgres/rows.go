package postgres

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

type DraftRow struct {
	ID                 uuid.UUID
	LeagueID           uuid.UUID
	SeasonYear         int32
	Mode               string
	Status             string
	Format             string
	ScheduledStart     sql.NullTime
	ActualStart        sql.NullTime
	PausedAt           sql.NullTime
	CompletedAt        sql.NullTime
	CurrentRound       int32
	CurrentPick        int32
	CurrentOverallPick int32
	TotalRounds        int32
	TeamCount          int32
	PickTimer          int32
	DraftOrder         pq.StringArray
	ClockTeamID        uuid.NullUUID
	ClockStartedAt     sql.NullTime
	ClockExpiresAt     sql.NullTime
	Configuration      json.RawMessage
	TimeBank           pqtype.NullRawMessage
	Statistics         json.RawMessage
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type DraftPickRow struct {
	DraftID       uuid.UUID
	OverallPick   int32
	Round         int32
	PickInRound   int32
	TeamID        uuid.UUID
	PlayerID      uuid.UUID
	PlayerName    string
	Position      string
	MlbTeam       string
	PickedAt      time.Time
	PickDuration  int32
	WasAutoPick   bool
	WasCatchUp    bool
	WasFromQueue  bool
	QueuePosition sql.NullInt32
}

type SkippedPickRow struct {
	ID                 uuid.UUID
	DraftID            uuid.UUID
	TeamID             uuid.UUID
	Round              int32
	PickInRound        int32
	OverallPick        int32
	SkippedAt          time.Time
	Reason             string
	OriginalDeadline   time.Time
	CatchUpEligible    bool
	CatchUpDeadline    sql.NullTime
	CatchUpStatus      string
	CatchUpCompletedAt sql.NullTime
	PlayerID           uuid.NullUUID
}

type RosterRow struct {
	ID              uuid.UUID
	FantasyTeamID   uuid.UUID
	PlayerID        uuid.UUID
	Position        string
	AcquisitionType string
	AcquiredAt      time.Time
}

type OutboxRow struct {
	ID        uuid.UUID
	DraftID   uuid.UUID
	EventType string
	Payload   json.RawMessage
	CreatedAt time.Time
	SentAt    sql.NullTime
}
