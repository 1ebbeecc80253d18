package mapper

import (
	"livescore/internal/api/handler/request"
	"livescore/internal/api/models"
)

// MatchMapper maps match and commentary requests to models
type MatchMapper interface {
	CreateMatch(req request.CreateMatch) models.Match
	CreateCommentary(req request.CreateCommentary) models.Commentary
}

type MatchMapperImpl struct{}

func NewMatchMapper() MatchMapper {
	return &MatchMapperImpl{}
}

func (m *MatchMapperImpl) CreateMatch(req request.CreateMatch) models.Match {
	return models.Match{
		Sport:     req.Sport,
		HomeTeam:  req.HomeTeam,
		AwayTeam:  req.AwayTeam,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    req.Status,
	}
}

func (m *MatchMapperImpl) CreateCommentary(req request.CreateCommentary) models.Commentary {
	entry := models.Commentary{
		Minute:    req.Minute,
		Sequence:  req.Sequence,
		Period:    req.Period,
		EventType: req.EventType,
		Actor:     req.Actor,
		Team:      req.Team,
		Message:   req.Message,
	}
	if req.Metadata != nil {
		entry.Metadata = models.CommentaryMetadata(req.Metadata)
	}
	if req.Tags != nil {
		entry.Tags = models.CommentaryTags(req.Tags)
	}
	return entry
}
