package rpc

import (
	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/models"
)

// DraftRequest names a draft for the read-only procedures.
type DraftRequest struct {
	DraftID uuid.UUID `json:"draft_id"`
}

type DraftResponse struct {
	Draft *models.Draft `json:"draft"`
}

type PickResponse struct {
	Pick *models.DraftPick `json:"pick"`
}

type PicksResponse struct {
	Picks []models.DraftPick `json:"picks"`
}

type SkipResponse struct {
	Skip *models.SkippedPick `json:"skip"`
}
