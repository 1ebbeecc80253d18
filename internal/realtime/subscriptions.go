package realtime

import (
	"sync"

	"github.com/rs/zerolog"
)

// MatchID is the external identifier of a match. The hub never interprets it.
type MatchID string

// SubscriptionIndex maps matches to subscribed connections and back.
//
// Every id in the index belongs to a registered connection: Subscribe checks
// liveness while holding the index lock, and the registry removes a connection
// before purging it, so a late subscribe cannot leave a dangling entry.
type SubscriptionIndex struct {
	mu      sync.RWMutex
	byMatch map[MatchID]map[ConnID]struct{}
	byConn  map[ConnID]map[MatchID]struct{}

	isOpen func(ConnID) bool
	logger zerolog.Logger
}

func NewSubscriptionIndex(isOpen func(ConnID) bool, logger zerolog.Logger) *SubscriptionIndex {
	return &SubscriptionIndex{
		byMatch: make(map[MatchID]map[ConnID]struct{}),
		byConn:  make(map[ConnID]map[MatchID]struct{}),
		isOpen:  isOpen,
		logger:  logger,
	}
}

// Subscribe adds connID to matchID's subscribers. Subscribing twice is a
// no-op. It returns false when the connection is not open.
func (s *SubscriptionIndex) Subscribe(connID ConnID, matchID MatchID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isOpen != nil && !s.isOpen(connID) {
		s.logger.Warn().
			Str("connId", string(connID)).
			Str("matchId", string(matchID)).
			Msg("Subscribe from a connection that is not open, ignored")
		return false
	}

	subs, ok := s.byMatch[matchID]
	if !ok {
		subs = make(map[ConnID]struct{})
		s.byMatch[matchID] = subs
	}
	subs[connID] = struct{}{}

	matches, ok := s.byConn[connID]
	if !ok {
		matches = make(map[MatchID]struct{})
		s.byConn[connID] = matches
	}
	matches[matchID] = struct{}{}

	s.logger.Debug().
		Str("connId", string(connID)).
		Str("matchId", string(matchID)).
		Int("subscribers", len(subs)).
		Msg("Subscribed to match")
	return true
}

// Unsubscribe removes connID from matchID. Empty entries are deleted.
func (s *SubscriptionIndex) Unsubscribe(connID ConnID, matchID MatchID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(connID, matchID)
}

// Purge removes connID from every match it joined.
func (s *SubscriptionIndex) Purge(connID ConnID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches := s.byConn[connID]
	n := 0
	for matchID := range matches {
		if s.removeLocked(connID, matchID) {
			n++
		}
	}
	delete(s.byConn, connID)
	return n
}

func (s *SubscriptionIndex) removeLocked(connID ConnID, matchID MatchID) bool {
	subs, ok := s.byMatch[matchID]
	if !ok {
		return false
	}
	if _, ok = subs[connID]; !ok {
		return false
	}
	delete(subs, connID)
	if len(subs) == 0 {
		delete(s.byMatch, matchID)
	}

	if matches, ok := s.byConn[connID]; ok {
		delete(matches, matchID)
		if len(matches) == 0 {
			delete(s.byConn, connID)
		}
	}
	return true
}

// SubscribersOf returns a copy of matchID's subscribers. The copy can be
// iterated while the index keeps changing.
func (s *SubscriptionIndex) SubscribersOf(matchID MatchID) []ConnID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := s.byMatch[matchID]
	out := make([]ConnID, 0, len(subs))
	for id := range subs {
		out = append(out, id)
	}
	return out
}

// MatchesOf returns the matches connID is subscribed to.
func (s *SubscriptionIndex) MatchesOf(connID ConnID) []MatchID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := s.byConn[connID]
	out := make([]MatchID, 0, len(matches))
	for id := range matches {
		out = append(out, id)
	}
	return out
}

// Counts returns the subscriber count of every match with subscribers.
func (s *SubscriptionIndex) Counts() map[MatchID]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[MatchID]int, len(s.byMatch))
	for matchID, subs := range s.byMatch {
		out[matchID] = len(subs)
	}
	return out
}

// Contains reports whether connID appears anywhere in the index.
func (s *SubscriptionIndex) Contains(connID ConnID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.byConn[connID]; ok {
		return true
	}
	for _, subs := range s.byMatch {
		if _, ok := subs[connID]; ok {
			return true
		}
	}
	return false
}
