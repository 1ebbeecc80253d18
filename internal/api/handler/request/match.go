package request

import (
	"time"

	"livescore/internal/api/models"
)

type CreateMatch struct {
	Sport     string             `json:"sport" validate:"required"`
	HomeTeam  string             `json:"homeTeam" validate:"required"`
	AwayTeam  string             `json:"awayTeam" validate:"required"`
	StartTime time.Time          `json:"startTime" validate:"required"`
	EndTime   *time.Time         `json:"endTime,omitempty"`
	Status    models.MatchStatus `json:"status,omitempty" validate:"omitempty,oneof=scheduled live finished"`
}

// UpdateScore uses pointers so a score of 0 is still required.
type UpdateScore struct {
	HomeScore *int `json:"homeScore" validate:"required,min=0"`
	AwayScore *int `json:"awayScore" validate:"required,min=0"`
}

type UpdateStatus struct {
	Status models.MatchStatus `json:"status" validate:"required,oneof=scheduled live finished"`
}
