package service

import (
	"fmt"
	"testing"

	"livescore/internal/api/models"
	"livescore/internal/realtime"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentaryService_AddPublishes(t *testing.T) {
	matchSvc, _, pub := newTestMatchService()
	m := createMatch(t, matchSvc, models.MatchStatusLive)
	svc := newCommentaryService(&fakeCommentaryStore{}, matchSvc, pub, zerolog.Nop())

	minute := 23
	entry, err := svc.Add(m.ID, models.Commentary{
		ID:      77,
		Minute:  &minute,
		Message: "Header just wide",
		Tags:    models.CommentaryTags{"chance"},
	})
	require.NoError(t, err)
	assert.Equal(t, m.ID, entry.MatchID)
	assert.Equal(t, uint(1), entry.ID)

	require.Len(t, pub.events, 1)
	assert.Equal(t, realtime.EventNewCommentary, pub.events[0].kind)
	assert.Equal(t, matchTopic(m.ID), pub.events[0].matchID)
	assert.Equal(t, "Header just wide", pub.events[0].payload.(models.Commentary).Message)
}

func TestCommentaryService_UnknownMatch(t *testing.T) {
	matchSvc, _, pub := newTestMatchService()
	svc := newCommentaryService(&fakeCommentaryStore{}, matchSvc, pub, zerolog.Nop())

	_, err := svc.Add(5, models.Commentary{Message: "Kick-off"})
	assert.ErrorIs(t, err, ErrMatchNotFound)
	_, err = svc.List(5, 10)
	assert.ErrorIs(t, err, ErrMatchNotFound)
	assert.Empty(t, pub.events)
}

func TestCommentaryService_ListNewestFirst(t *testing.T) {
	matchSvc, _, pub := newTestMatchService()
	m := createMatch(t, matchSvc, models.MatchStatusLive)
	other := createMatch(t, matchSvc, models.MatchStatusLive)
	svc := newCommentaryService(&fakeCommentaryStore{}, matchSvc, pub, zerolog.Nop())

	for i := 1; i <= 3; i++ {
		_, err := svc.Add(m.ID, models.Commentary{Message: fmt.Sprintf("entry %d", i)})
		require.NoError(t, err)
	}
	_, err := svc.Add(other.ID, models.Commentary{Message: "elsewhere"})
	require.NoError(t, err)

	entries, err := svc.List(m.ID, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "entry 3", entries[0].Message)
	assert.Equal(t, "entry 2", entries[1].Message)
}
