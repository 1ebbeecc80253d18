package service

import (
	"livescore"
	"livescore/internal/api/models"
	"livescore/internal/api/repo"
	"livescore/internal/realtime"

	"github.com/rs/zerolog"
)

type CommentaryStore interface {
	Create(entry *models.Commentary) error
	FindByMatch(matchID uint, limit int) ([]models.Commentary, error)
}

type CommentaryService struct {
	commentaryRepo CommentaryStore
	matchService   *MatchService
	publisher      realtime.Publisher
	logger         zerolog.Logger
}

func NewCommentaryService(matchService *MatchService, publisher realtime.Publisher) *CommentaryService {
	return newCommentaryService(repo.NewCommentaryRepository(), matchService, publisher, livescore.Logger)
}

func newCommentaryService(store CommentaryStore, matchService *MatchService, publisher realtime.Publisher, logger zerolog.Logger) *CommentaryService {
	return &CommentaryService{
		commentaryRepo: store,
		matchService:   matchService,
		publisher:      publisher,
		logger:         logger.With().Str("component", "commentary-service").Logger(),
	}
}

// Add persists a commentary entry for an existing match and broadcasts it.
func (slf *CommentaryService) Add(matchID uint, entry models.Commentary) (*models.Commentary, error) {
	if _, err := slf.matchService.FindByID(matchID); err != nil {
		return nil, err
	}

	entry.ID = 0
	entry.MatchID = matchID
	if err := slf.commentaryRepo.Create(&entry); err != nil {
		slf.logger.Error().Err(err).Uint("matchId", matchID).Msg("Error creating commentary")
		return nil, err
	}

	delivered := slf.publisher.Publish(matchTopic(matchID), realtime.EventNewCommentary, entry)
	slf.logger.Debug().
		Uint("matchId", matchID).
		Uint("commentaryId", entry.ID).
		Int("subscribers", delivered).
		Msg("Commentary added")
	return &entry, nil
}

// List returns the newest entries first; limit is clamped to [1, MaxListLimit].
func (slf *CommentaryService) List(matchID uint, limit int) ([]models.Commentary, error) {
	if _, err := slf.matchService.FindByID(matchID); err != nil {
		return nil, err
	}

	entries, err := slf.commentaryRepo.FindByMatch(matchID, clampLimit(limit))
	if err != nil {
		slf.logger.Error().Err(err).Uint("matchId", matchID).Msg("Error listing commentary")
		return nil, err
	}
	return entries, nil
}
