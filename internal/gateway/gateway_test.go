package gateway

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humphreyhhui/LanguageGames/internal/config"
	"github.com/humphreyhhui/LanguageGames/internal/models"
	"github.com/humphreyhhui/LanguageGames/internal/service"
)

// Persistence fakes: gateway tests only exercise the in-memory flow.
type nopRatingStore struct{}

func (nopRatingStore) Find(playerID, category string) (*models.RatingRecord, error) {
	return nil, nil
}
func (nopRatingStore) Upsert(playerID, category string, rating int) error { return nil }

type nopSessionStore struct{}

func (nopSessionStore) Insert(record *models.SessionRecord) error { return nil }

type nopStatsStore struct{}

func (nopStatsStore) RecordSession(ctx context.Context, playerID, category string, won bool) error {
	return nil
}
func (nopStatsStore) UpdateLeaderboard(ctx context.Context, playerID, category string, rating int) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		CORSAllowedOrigins:   []string{"http://localhost:3000", "https://game.example.com"},
		RoomPurgeGracePeriod: time.Minute,
		AuthHandshakeTimeout: time.Second,
		ActionRateLimit:      100,
		ActionRateWindow:     time.Minute,
		GameplayRateLimit:    100,
		GameplayRateWindow:   time.Minute,
	}
}

func testGateway(t *testing.T) (*Gateway, *service.RoomService) {
	t.Helper()

	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	rooms := service.NewRoomService()
	ratings := service.NewRatingService(service.DefaultRatingConfig())
	sessions := service.NewSessionService(rooms, ratings, nopRatingStore{}, nopSessionStore{}, nopStatsStore{})

	return New(hub, nil, nil, nil, rooms, sessions, ratings, testConfig()), rooms
}

func endSessionEnvelope(roomID string) *envelope {
	payload, _ := json.Marshal(endSessionPayload{RoomID: roomID})
	return &envelope{Type: EventEndSession, Payload: payload}
}

func TestGateway_EndSessionRequiresSeat(t *testing.T) {
	gw, rooms := testGateway(t)

	room := rooms.CreateBotRoom("vocabulary", &models.Participant{
		ConnectionID: "conn-alice",
		PlayerID:     "alice",
		DisplayName:  "Alice",
		Rating:       1000,
	})
	rooms.StartSession(room.ID, &models.QuestionSet{ServerJudged: true})

	// An authenticated connection that never sat in the room knows the
	// roomId but must not be able to force the session to end.
	outsider := &connState{playerID: "mallory", authenticated: true}
	gw.handleEndSession("conn-mallory", outsider, endSessionEnvelope(room.ID))

	got, ok := rooms.Get(room.ID)
	require.True(t, ok)
	assert.True(t, got.EndedAt.IsZero(), "session ended by a non-participant")

	seated := &connState{playerID: "alice", authenticated: true}
	gw.handleEndSession("conn-alice", seated, endSessionEnvelope(room.ID))

	got, ok = rooms.Get(room.ID)
	require.True(t, ok)
	assert.False(t, got.EndedAt.IsZero())
}

func TestGateway_CheckOrigin(t *testing.T) {
	gw, _ := testGateway(t)

	tests := []struct {
		name    string
		origin  string
		allowed bool
	}{
		{"no origin header", "", true},
		{"configured origin", "http://localhost:3000", true},
		{"configured origin, case-insensitive", "HTTP://LOCALHOST:3000", true},
		{"second configured origin", "https://game.example.com", true},
		{"unknown origin", "https://evil.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.allowed, gw.checkOrigin(r))
		})
	}
}

func TestGateway_CheckOriginWildcard(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	rooms := service.NewRoomService()
	ratings := service.NewRatingService(service.DefaultRatingConfig())
	sessions := service.NewSessionService(rooms, ratings, nopRatingStore{}, nopSessionStore{}, nopStatsStore{})

	cfg := testConfig()
	cfg.CORSAllowedOrigins = []string{"*"}
	gw := New(hub, nil, nil, nil, rooms, sessions, ratings, cfg)

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Origin", "https://anywhere.example.com")
	assert.True(t, gw.checkOrigin(r))
}
