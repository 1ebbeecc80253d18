package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// CommentaryMetadata is free-form data attached to a commentary entry.
type CommentaryMetadata map[string]any

func (m CommentaryMetadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *CommentaryMetadata) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan CommentaryMetadata: expected []byte")
	}
	return json.Unmarshal(bytes, m)
}

type CommentaryTags []string

func (t CommentaryTags) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

func (t *CommentaryTags) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan CommentaryTags: expected []byte")
	}
	return json.Unmarshal(bytes, t)
}

type Commentary struct {
	ID        uint               `gorm:"primaryKey" json:"id"`
	MatchID   uint               `gorm:"not null;index;column:match_id" json:"matchId"`
	Minute    *int               `json:"minute,omitempty"`
	Sequence  *int               `json:"sequence,omitempty"`
	Period    string             `json:"period,omitempty"`
	EventType string             `gorm:"column:event_type" json:"eventType,omitempty"`
	Actor     string             `json:"actor,omitempty"`
	Team      string             `json:"team,omitempty"`
	Message   string             `gorm:"type:text;not null" json:"message"`
	Metadata  CommentaryMetadata `gorm:"type:jsonb" json:"metadata,omitempty"`
	Tags      CommentaryTags     `gorm:"type:jsonb" json:"tags,omitempty"`
	CreatedAt time.Time          `gorm:"autoCreateTime;column:created_at" json:"createdAt"`
}

func (Commentary) TableName() string {
	return "commentary"
}
