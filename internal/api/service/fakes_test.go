package service

import (
	"context"
	"sync"
	"time"

	"livescore/internal/api/models"
	"livescore/internal/api/repo"
	"livescore/internal/realtime"

	"gorm.io/gorm"
)

type fakeMatchStore struct {
	mu      sync.Mutex
	nextID  uint
	matches map[uint]models.Match
	reads   int

	// beforeStatusWrite runs between the status read and the conditional
	// write, outside the lock.
	beforeStatusWrite func()
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{matches: make(map[uint]models.Match)}
}

func (f *fakeMatchStore) FindByID(id uint) (models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	m, ok := f.matches[id]
	if !ok {
		return models.Match{}, gorm.ErrRecordNotFound
	}
	return m, nil
}

// setStatus changes a row behind the service's back.
func (f *fakeMatchStore) setStatus(id uint, status models.MatchStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.matches[id]
	m.Status = status
	f.matches[id] = m
}

func (f *fakeMatchStore) FindByExternalID(externalID string) (models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.matches {
		if m.ExternalID != nil && *m.ExternalID == externalID {
			return m, nil
		}
	}
	return models.Match{}, gorm.ErrRecordNotFound
}

func (f *fakeMatchStore) FindAll(limit int) ([]models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Match, 0, len(f.matches))
	for id := f.nextID; id > 0 && len(out) < limit; id-- {
		if m, ok := f.matches[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMatchStore) Create(match *models.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	match.ID = f.nextID
	f.matches[match.ID] = *match
	return nil
}

func (f *fakeMatchStore) UpdateScore(id uint, home int, away int) (models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[id]
	if !ok {
		return models.Match{}, gorm.ErrRecordNotFound
	}
	m.HomeScore, m.AwayScore = home, away
	f.matches[id] = m
	return m, nil
}

func (f *fakeMatchStore) UpdateStatus(id uint, from models.MatchStatus, to models.MatchStatus) (models.Match, error) {
	if f.beforeStatusWrite != nil {
		f.beforeStatusWrite()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[id]
	if !ok {
		return models.Match{}, gorm.ErrRecordNotFound
	}
	if m.Status != from {
		return models.Match{}, repo.ErrStatusChanged
	}
	m.Status = to
	f.matches[id] = m
	return m, nil
}

type fakeCommentaryStore struct {
	mu      sync.Mutex
	entries []models.Commentary
}

func (f *fakeCommentaryStore) Create(entry *models.Commentary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ID = uint(len(f.entries) + 1)
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeCommentaryStore) FindByMatch(matchID uint, limit int) ([]models.Commentary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Commentary
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if f.entries[i].MatchID == matchID {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

type published struct {
	matchID realtime.MatchID
	kind    realtime.EventKind
	payload any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
}

func (f *fakePublisher) Publish(matchID realtime.MatchID, kind realtime.EventKind, payload any) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, published{matchID: matchID, kind: kind, payload: payload})
	return 1
}

func (f *fakePublisher) kinds() []realtime.EventKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]realtime.EventKind, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.kind)
	}
	return out
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte)}
}

func (m *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mapCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type fakeFeed struct {
	fixtures []Fixture
	err      error
}

func (f *fakeFeed) Fetch(_ context.Context) ([]Fixture, error) {
	return f.fixtures, f.err
}
