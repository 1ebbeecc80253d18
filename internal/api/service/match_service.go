package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"livescore"
	"livescore/internal/api/models"
	"livescore/internal/api/repo"
	"livescore/internal/realtime"
	"livescore/pkg"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	ErrMatchNotFound     = errors.New("match not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidStatus     = errors.New("invalid match status")
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100

	matchCacheTTL = 30 * time.Second
)

// MatchStore is the persistence the match services need.
type MatchStore interface {
	FindByID(id uint) (models.Match, error)
	FindByExternalID(externalID string) (models.Match, error)
	FindAll(limit int) ([]models.Match, error)
	Create(match *models.Match) error
	UpdateScore(id uint, home int, away int) (models.Match, error)
	UpdateStatus(id uint, from models.MatchStatus, to models.MatchStatus) (models.Match, error)
}

type MatchService struct {
	matchRepo MatchStore
	publisher realtime.Publisher
	cache     pkg.Cache
	logger    zerolog.Logger
}

func NewMatchService(publisher realtime.Publisher, cache pkg.Cache) *MatchService {
	return newMatchService(repo.NewMatchRepository(), publisher, cache, livescore.Logger)
}

func newMatchService(store MatchStore, publisher realtime.Publisher, cache pkg.Cache, logger zerolog.Logger) *MatchService {
	return &MatchService{
		matchRepo: store,
		publisher: publisher,
		cache:     cache,
		logger:    logger.With().Str("component", "match-service").Logger(),
	}
}

// Create stores a new match. The status is derived from the start and end
// times when not given.
func (slf *MatchService) Create(match models.Match) (*models.Match, error) {
	if match.Status == "" {
		match.Status = models.DeriveStatus(match.StartTime, match.EndTime, time.Now())
	}
	if !match.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	if err := slf.matchRepo.Create(&match); err != nil {
		slf.logger.Error().Err(err).Msg("Error creating match")
		return nil, err
	}
	slf.logger.Info().Uint("matchId", match.ID).Str("status", string(match.Status)).Msg("Match created")
	slf.storeInCache(match)
	return &match, nil
}

// List returns the latest matches. limit is clamped to [1, MaxListLimit].
func (slf *MatchService) List(limit int) ([]models.Match, error) {
	matches, err := slf.matchRepo.FindAll(clampLimit(limit))
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error listing matches")
		return nil, err
	}
	return matches, nil
}

// FindByID reads through the cache.
func (slf *MatchService) FindByID(id uint) (*models.Match, error) {
	var match models.Match
	if slf.cache != nil {
		found, err := pkg.CacheGetJSON(context.Background(), slf.cache, matchCacheKey(id), &match)
		if err != nil {
			slf.logger.Warn().Err(err).Uint("matchId", id).Msg("Match cache read failed")
		} else if found {
			return &match, nil
		}
	}

	match, err := slf.matchRepo.FindByID(id)
	if err != nil {
		return nil, slf.translate(err, id)
	}
	slf.storeInCache(match)
	return &match, nil
}

func (slf *MatchService) FindByExternalID(externalID string) (*models.Match, error) {
	match, err := slf.matchRepo.FindByExternalID(externalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &match, nil
}

// UpdateScore persists the new score and broadcasts the updated match to its
// subscribers.
func (slf *MatchService) UpdateScore(id uint, home int, away int) (*models.Match, error) {
	if home < 0 || away < 0 {
		return nil, fmt.Errorf("scores must not be negative: %d-%d", home, away)
	}

	match, err := slf.matchRepo.UpdateScore(id, home, away)
	if err != nil {
		return nil, slf.translate(err, id)
	}
	slf.storeInCache(match)

	delivered := slf.publisher.Publish(matchTopic(id), realtime.EventScoreUpdate, match)
	slf.logger.Info().
		Uint("matchId", id).
		Int("homeScore", home).
		Int("awayScore", away).
		Int("subscribers", delivered).
		Msg("Score updated")
	return &match, nil
}

// UpdateStatus moves a match forward (scheduled, live, finished) and
// broadcasts the updated match. The transition is checked against the stored
// row, never the cache, and the write fails if another writer got there first.
func (slf *MatchService) UpdateStatus(id uint, status models.MatchStatus) (*models.Match, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	current, err := slf.matchRepo.FindByID(id)
	if err != nil {
		return nil, slf.translate(err, id)
	}
	if !current.Status.CanTransitionTo(status) {
		slf.storeInCache(current)
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
	}

	match, err := slf.matchRepo.UpdateStatus(id, current.Status, status)
	if errors.Is(err, repo.ErrStatusChanged) {
		slf.evict(id)
		slf.logger.Warn().
			Uint("matchId", id).
			Str("from", string(current.Status)).
			Str("to", string(status)).
			Msg("Status changed concurrently")
		return nil, fmt.Errorf("%w: %s -> %s: %v", ErrInvalidTransition, current.Status, status, err)
	}
	if err != nil {
		return nil, slf.translate(err, id)
	}
	slf.storeInCache(match)

	delivered := slf.publisher.Publish(matchTopic(id), realtime.EventStatusUpdate, match)
	slf.logger.Info().
		Uint("matchId", id).
		Str("status", string(status)).
		Int("subscribers", delivered).
		Msg("Status updated")
	return &match, nil
}

func (slf *MatchService) translate(err error, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		slf.logger.Debug().Uint("matchId", id).Msg("Match not found")
		return ErrMatchNotFound
	}
	slf.logger.Error().Err(err).Uint("matchId", id).Msg("Error accessing match")
	return err
}

func (slf *MatchService) storeInCache(match models.Match) {
	if slf.cache == nil {
		return
	}
	if err := pkg.CacheSetJSON(context.Background(), slf.cache, matchCacheKey(match.ID), match, matchCacheTTL); err != nil {
		slf.logger.Warn().Err(err).Uint("matchId", match.ID).Msg("Match cache write failed")
	}
}

func (slf *MatchService) evict(id uint) {
	if slf.cache == nil {
		return
	}
	if err := slf.cache.Delete(context.Background(), matchCacheKey(id)); err != nil {
		slf.logger.Warn().Err(err).Uint("matchId", id).Msg("Match cache delete failed")
	}
}

func matchCacheKey(id uint) string {
	return "match:" + strconv.FormatUint(uint64(id), 10)
}

// matchTopic is the hub key of a match; clients subscribe with the same
// decimal id.
func matchTopic(id uint) realtime.MatchID {
	return realtime.MatchID(strconv.FormatUint(uint64(id), 10))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
