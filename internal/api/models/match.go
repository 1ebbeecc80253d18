package models

import (
	"time"
)

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusLive      MatchStatus = "live"
	MatchStatusFinished  MatchStatus = "finished"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusScheduled, MatchStatusLive, MatchStatusFinished:
		return true
	default:
		return false
	}
}

// CanTransitionTo allows scheduled -> live -> finished, and staying put.
func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case MatchStatusScheduled:
		return next == MatchStatusLive || next == MatchStatusFinished
	case MatchStatusLive:
		return next == MatchStatusFinished
	default:
		return false
	}
}

// DeriveStatus computes the status from the kick-off and final whistle times.
func DeriveStatus(start time.Time, end *time.Time, now time.Time) MatchStatus {
	if now.Before(start) {
		return MatchStatusScheduled
	}
	if end != nil && !now.Before(*end) {
		return MatchStatusFinished
	}
	return MatchStatusLive
}

type Match struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	Sport      string      `gorm:"not null" json:"sport"`
	HomeTeam   string      `gorm:"not null;column:home_team" json:"homeTeam"`
	AwayTeam   string      `gorm:"not null;column:away_team" json:"awayTeam"`
	HomeScore  int         `gorm:"not null;default:0;column:home_score" json:"homeScore"`
	AwayScore  int         `gorm:"not null;default:0;column:away_score" json:"awayScore"`
	Status     MatchStatus `gorm:"type:varchar(20);not null;default:scheduled;index" json:"status"`
	StartTime  time.Time   `gorm:"not null;column:start_time" json:"startTime"`
	EndTime    *time.Time  `gorm:"column:end_time" json:"endTime,omitempty"`
	ExternalID *string     `gorm:"uniqueIndex;column:external_id" json:"externalId,omitempty"`
	CreatedAt  time.Time   `gorm:"autoCreateTime;column:created_at" json:"createdAt"`
	UpdatedAt  time.Time   `gorm:"autoUpdateTime;column:updated_at" json:"updatedAt"`
}

func (Match) TableName() string {
	return "matches"
}
