package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humphreyhhui/LanguageGames/internal/models"
)

// fakeRatingStore serves and records ratings in memory.
type fakeRatingStore struct {
	records map[string]*models.RatingRecord // playerID -> record
	upserts map[string]int                  // playerID -> last written rating
	findErr error
}

func newFakeRatingStore() *fakeRatingStore {
	return &fakeRatingStore{
		records: make(map[string]*models.RatingRecord),
		upserts: make(map[string]int),
	}
}

func (f *fakeRatingStore) Find(playerID, category string) (*models.RatingRecord, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.records[playerID], nil
}

func (f *fakeRatingStore) Upsert(playerID, category string, rating int) error {
	f.upserts[playerID] = rating
	return nil
}

type fakeSessionStore struct {
	inserted  []*models.SessionRecord
	insertErr error
}

func (f *fakeSessionStore) Insert(record *models.SessionRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, record)
	return nil
}

type statsCall struct {
	playerID string
	won      bool
}

type fakeStatsStore struct {
	sessions    []statsCall
	leaderboard map[string]int
}

func newFakeStatsStore() *fakeStatsStore {
	return &fakeStatsStore{leaderboard: make(map[string]int)}
}

func (f *fakeStatsStore) RecordSession(_ context.Context, playerID, category string, won bool) error {
	f.sessions = append(f.sessions, statsCall{playerID: playerID, won: won})
	return nil
}

func (f *fakeStatsStore) UpdateLeaderboard(_ context.Context, playerID, category string, rating int) error {
	f.leaderboard[playerID] = rating
	return nil
}

type sessionFixture struct {
	rooms    *RoomService
	sessions *SessionService
	ratings  *fakeRatingStore
	records  *fakeSessionStore
	stats    *fakeStatsStore
}

func newSessionFixture() *sessionFixture {
	rooms := NewRoomService()
	ratings := newFakeRatingStore()
	records := &fakeSessionStore{}
	stats := newFakeStatsStore()
	return &sessionFixture{
		rooms:    rooms,
		sessions: NewSessionService(rooms, NewRatingService(DefaultRatingConfig()), ratings, records, stats),
		ratings:  ratings,
		records:  records,
		stats:    stats,
	}
}

func (f *sessionFixture) rankedRoom(t *testing.T, score1, score2 int) *models.Room {
	t.Helper()
	room := f.rooms.CreateRankedRoom("vocabulary", testPlayer("alice"), testPlayer("bob"))
	f.rooms.StartSession(room.ID, &models.QuestionSet{Category: "vocabulary", ServerJudged: true})
	f.rooms.RecordScore(room.ID, "alice", score1)
	f.rooms.RecordScore(room.ID, "bob", score2)
	return room
}

func TestSessionService_EndRankedSession(t *testing.T) {
	f := newSessionFixture()
	f.ratings.records["alice"] = &models.RatingRecord{PlayerID: "alice", Category: "vocabulary", Rating: 1000, GamesPlayed: 40}
	f.ratings.records["bob"] = &models.RatingRecord{PlayerID: "bob", Category: "vocabulary", Rating: 1000, GamesPlayed: 40}
	room := f.rankedRoom(t, 7, 4)

	results, _, ok := f.sessions.EndSession(context.Background(), room.ID)
	require.True(t, ok)
	require.Len(t, results, 2)

	alice := results["alice"]
	require.NotNil(t, alice.WinnerID)
	assert.Equal(t, "alice", *alice.WinnerID)
	assert.Equal(t, 7, alice.YourScore)
	assert.Equal(t, 4, alice.OpponentScore)

	// Established K, equal ratings: winner +12, loser -12.
	require.NotNil(t, alice.RatingDelta)
	assert.Equal(t, 12, *alice.RatingDelta)
	assert.Equal(t, 1012, *alice.NewRating)

	bob := results["bob"]
	require.NotNil(t, bob.RatingDelta)
	assert.Equal(t, -12, *bob.RatingDelta)

	assert.Equal(t, 1012, f.ratings.upserts["alice"])
	assert.Equal(t, 988, f.ratings.upserts["bob"])
	assert.Equal(t, 1012, f.stats.leaderboard["alice"])

	require.Len(t, f.records.inserted, 1)
	record := f.records.inserted[0]
	assert.Equal(t, models.RoomModeRanked, record.Mode)
	assert.Len(t, record.Participants, 2)

	require.Len(t, f.stats.sessions, 2)
}

func TestSessionService_DrawHasNoWinner(t *testing.T) {
	f := newSessionFixture()
	room := f.rankedRoom(t, 5, 5)

	results, _, ok := f.sessions.EndSession(context.Background(), room.ID)
	require.True(t, ok)

	assert.Nil(t, results["alice"].WinnerID)
	for _, call := range f.stats.sessions {
		assert.False(t, call.won)
	}

	// Equal ratings, draw: no rating movement either way.
	assert.Equal(t, 0, *results["alice"].RatingDelta)
	assert.Equal(t, 0, *results["bob"].RatingDelta)
}

func TestSessionService_BotSessionSkipsRatings(t *testing.T) {
	f := newSessionFixture()
	room := f.rooms.CreateBotRoom("vocabulary", testPlayer("alice"))
	f.rooms.StartSession(room.ID, &models.QuestionSet{})
	f.rooms.RecordScore(room.ID, "alice", 6)

	results, _, ok := f.sessions.EndSession(context.Background(), room.ID)
	require.True(t, ok)

	// The human still gets a result and aggregate stats, but no rating
	// change, and the bot never appears in the result map.
	require.Len(t, results, 1)
	assert.Nil(t, results["alice"].RatingDelta)
	assert.Empty(t, f.ratings.upserts)
	assert.Empty(t, f.stats.leaderboard)
	require.Len(t, f.stats.sessions, 1)
	assert.Equal(t, "alice", f.stats.sessions[0].playerID)
}

func TestSessionService_DuplicateEndIsNoOp(t *testing.T) {
	f := newSessionFixture()
	room := f.rankedRoom(t, 3, 1)

	_, _, ok := f.sessions.EndSession(context.Background(), room.ID)
	require.True(t, ok)

	_, _, ok = f.sessions.EndSession(context.Background(), room.ID)
	assert.False(t, ok)

	assert.Len(t, f.records.inserted, 1)
	assert.Len(t, f.stats.sessions, 2)
}

func TestSessionService_PersistenceFailureStillReturnsResults(t *testing.T) {
	f := newSessionFixture()
	f.records.insertErr = errors.New("db down")
	room := f.rankedRoom(t, 3, 1)

	results, _, ok := f.sessions.EndSession(context.Background(), room.ID)
	require.True(t, ok)
	require.Len(t, results, 2)
	require.NotNil(t, results["alice"].RatingDelta)
}

func TestSessionService_RatingReadFailureFallsBackToSnapshot(t *testing.T) {
	f := newSessionFixture()
	f.ratings.findErr = errors.New("db down")
	room := f.rankedRoom(t, 3, 1)

	results, _, ok := f.sessions.EndSession(context.Background(), room.ID)
	require.True(t, ok)

	// Snapshot rating 1000 and a zero games count: provisional K applies.
	require.NotNil(t, results["alice"].RatingDelta)
	assert.Equal(t, 20, *results["alice"].RatingDelta)
	assert.Equal(t, -20, *results["bob"].RatingDelta)
}
