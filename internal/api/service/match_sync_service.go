package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"livescore"
	"livescore/internal/api/models"

	"github.com/rs/zerolog"
)

// Fixture is one match as reported by an external feed.
type Fixture struct {
	ExternalID string     `json:"id"`
	Sport      string     `json:"sport"`
	HomeTeam   string     `json:"homeTeam"`
	AwayTeam   string     `json:"awayTeam"`
	HomeScore  int        `json:"homeScore"`
	AwayScore  int        `json:"awayScore"`
	Status     string     `json:"status"`
	StartTime  time.Time  `json:"startTime"`
	EndTime    *time.Time `json:"endTime"`
}

// FixtureFeed fetches the current state of tracked matches.
type FixtureFeed interface {
	Fetch(ctx context.Context) ([]Fixture, error)
}

// MatchSyncService periodically pulls fixtures from a feed, upserts them and
// lets MatchService broadcast the changes.
type MatchSyncService struct {
	feed         FixtureFeed
	matchService *MatchService
	logger       zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	interval     time.Duration
	fetchTimeout time.Duration
	now          func() time.Time
}

func NewMatchSyncService(feed FixtureFeed, matchService *MatchService, interval time.Duration) *MatchSyncService {
	return newMatchSyncService(feed, matchService, interval, livescore.Logger)
}

func newMatchSyncService(feed FixtureFeed, matchService *MatchService, interval time.Duration, logger zerolog.Logger) *MatchSyncService {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &MatchSyncService{
		feed:         feed,
		matchService: matchService,
		logger:       logger.With().Str("component", "match-sync").Logger(),
		ctx:          ctx,
		cancel:       cancel,
		interval:     interval,
		fetchTimeout: 10 * time.Second,
		now:          time.Now,
	}
}

// Start begins polling in the background.
func (slf *MatchSyncService) Start() {
	slf.logger.Info().Dur("interval", slf.interval).Msg("Starting match sync service")
	slf.wg.Add(1)
	go func() {
		defer slf.wg.Done()
		slf.dispatcher()
	}()
}

// Stop cancels polling and waits for the running sync to finish.
func (slf *MatchSyncService) Stop() {
	slf.logger.Info().Msg("Stopping match sync service")
	slf.cancel()
	slf.wg.Wait()
	slf.logger.Info().Msg("Match sync service stopped")
}

func (slf *MatchSyncService) dispatcher() {
	ticker := time.NewTicker(slf.interval)
	defer ticker.Stop()

	slf.runOnce()
	for {
		select {
		case <-slf.ctx.Done():
			return
		case <-ticker.C:
			slf.runOnce()
		}
	}
}

// runOnce keeps the loop alive if a sync panics.
func (slf *MatchSyncService) runOnce() {
	defer func() {
		if r := recover(); r != nil {
			slf.logger.Error().Interface("panic", r).Msg("Match sync panicked")
		}
	}()
	if _, err := slf.Sync(slf.ctx); err != nil && !errors.Is(err, context.Canceled) {
		slf.logger.Error().Err(err).Msg("Match sync failed")
	}
}

// SyncResult counts what a sync pass did.
type SyncResult struct {
	Created int
	Updated int
	Skipped int
}

// Sync fetches the feed once and applies every fixture. A failing fixture is
// logged and skipped; the next tick retries it.
func (slf *MatchSyncService) Sync(ctx context.Context) (SyncResult, error) {
	var result SyncResult

	fetchCtx, cancel := context.WithTimeout(ctx, slf.fetchTimeout)
	defer cancel()

	fixtures, err := slf.feed.Fetch(fetchCtx)
	if err != nil {
		return result, err
	}

	for _, fixture := range fixtures {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		changed, created, err := slf.apply(fixture)
		switch {
		case err != nil:
			result.Skipped++
			slf.logger.Warn().Err(err).Str("externalId", fixture.ExternalID).Msg("Fixture skipped")
		case created:
			result.Created++
		case changed:
			result.Updated++
		}
	}

	slf.logger.Debug().
		Int("fixtures", len(fixtures)).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Msg("Match sync done")
	return result, nil
}

func (slf *MatchSyncService) apply(fixture Fixture) (changed bool, created bool, err error) {
	if fixture.ExternalID == "" {
		return false, false, errors.New("fixture without id")
	}

	status := models.MatchStatus(fixture.Status)
	if !status.Valid() {
		status = models.DeriveStatus(fixture.StartTime, fixture.EndTime, slf.now())
	}

	existing, err := slf.matchService.FindByExternalID(fixture.ExternalID)
	if errors.Is(err, ErrMatchNotFound) {
		externalID := fixture.ExternalID
		_, err = slf.matchService.Create(models.Match{
			Sport:      fixture.Sport,
			HomeTeam:   fixture.HomeTeam,
			AwayTeam:   fixture.AwayTeam,
			HomeScore:  fixture.HomeScore,
			AwayScore:  fixture.AwayScore,
			Status:     status,
			StartTime:  fixture.StartTime,
			EndTime:    fixture.EndTime,
			ExternalID: &externalID,
		})
		return err == nil, err == nil, err
	}
	if err != nil {
		return false, false, err
	}

	if existing.HomeScore != fixture.HomeScore || existing.AwayScore != fixture.AwayScore {
		if _, err = slf.matchService.UpdateScore(existing.ID, fixture.HomeScore, fixture.AwayScore); err != nil {
			return changed, false, err
		}
		changed = true
	}

	if existing.Status != status {
		if _, err = slf.matchService.UpdateStatus(existing.ID, status); err != nil {
			return changed, false, err
		}
		changed = true
	}
	return changed, false, nil
}
