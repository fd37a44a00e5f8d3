package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/humphreyhhui/LanguageGames/internal/models"
	"github.com/humphreyhhui/LanguageGames/pkg/logger"
)

// RatingStore is the slice of the rating repository session end needs.
type RatingStore interface {
	Find(playerID, category string) (*models.RatingRecord, error)
	Upsert(playerID, category string, rating int) error
}

// SessionStore persists completed sessions.
type SessionStore interface {
	Insert(record *models.SessionRecord) error
}

// StatsStore accumulates aggregate play stats and the ranked leaderboard.
type StatsStore interface {
	RecordSession(ctx context.Context, playerID, category string, won bool) error
	UpdateLeaderboard(ctx context.Context, playerID, category string, rating int) error
}

// SessionService orchestrates session end: it finalizes the room, persists
// the session record and aggregate stats, and applies rating updates for
// ranked human sessions. Persistence failures are logged and swallowed so
// players always receive their result; durability is traded for
// availability here.
type SessionService struct {
	roomService   *RoomService
	ratingService *RatingService
	ratingRepo    RatingStore
	sessionRepo   SessionStore
	statsRepo     StatsStore
}

func NewSessionService(
	roomService *RoomService,
	ratingService *RatingService,
	ratingRepo RatingStore,
	sessionRepo SessionStore,
	statsRepo StatsStore,
) *SessionService {
	return &SessionService{
		roomService:   roomService,
		ratingService: ratingService,
		ratingRepo:    ratingRepo,
		sessionRepo:   sessionRepo,
		statsRepo:     statsRepo,
	}
}

// EndSession finalizes the room and returns a personalized result per human
// participant, keyed by player id. ok is false when the room is already
// gone, making a duplicate end a no-op.
func (s *SessionService) EndSession(ctx context.Context, roomID string) (map[string]*models.SessionResult, *models.Room, bool) {
	room, ok := s.roomService.EndSession(roomID)
	if !ok {
		return nil, nil, false
	}

	var durationMs int64
	if !room.StartedAt.IsZero() {
		durationMs = time.Since(room.StartedAt).Milliseconds()
	}

	winnerID := winnerOf(room)

	record := &models.SessionRecord{
		ID:         uuid.New().String(),
		Category:   room.Category,
		Mode:       room.Mode,
		WinnerID:   winnerID,
		DurationMs: durationMs,
		CreatedAt:  time.Now(),
	}
	for _, p := range room.Participants() {
		record.Participants = append(record.Participants, models.SessionParticipant{
			PlayerID:    p.PlayerID,
			DisplayName: p.DisplayName,
			Score:       p.Score,
			IsBot:       p.IsBot,
		})
	}

	if err := s.sessionRepo.Insert(record); err != nil {
		logger.Error("Failed to persist session record", "roomId", roomID, "error", err)
	}

	for _, p := range room.Participants() {
		if p.IsBot {
			continue
		}
		won := winnerID != nil && *winnerID == p.PlayerID
		if err := s.statsRepo.RecordSession(ctx, p.PlayerID, room.Category, won); err != nil {
			logger.Error("Failed to update aggregate stats", "playerId", p.PlayerID, "error", err)
		}
	}

	var updates map[string]*models.RatingUpdate
	if room.IsRanked() {
		updates = s.applyRatingUpdates(ctx, room, winnerID)
	}

	results := make(map[string]*models.SessionResult)
	for _, p := range room.Participants() {
		if p.IsBot {
			continue
		}
		result := &models.SessionResult{
			RoomID:     room.ID,
			Category:   room.Category,
			WinnerID:   winnerID,
			YourScore:  p.Score,
			DurationMs: durationMs,
		}
		if opp := room.Opponent(p.PlayerID); opp != nil {
			result.OpponentScore = opp.Score
		}
		if update, exists := updates[p.PlayerID]; exists {
			result.RatingDelta = &update.Delta
			result.NewRating = &update.NewRating
		}
		results[p.PlayerID] = result
	}

	logger.Info("Session ended",
		"roomId", room.ID,
		"category", room.Category,
		"mode", room.Mode,
		"durationMs", durationMs,
		"ranked", room.IsRanked(),
	)

	return results, room, true
}

// applyRatingUpdates moves both players' ratings. Current ratings and games
// counts come from the store, never from the client or the room snapshot.
func (s *SessionService) applyRatingUpdates(ctx context.Context, room *models.Room, winnerID *string) map[string]*models.RatingUpdate {
	p1, p2 := room.Player1, room.Player2
	r1, g1 := s.storedRating(room.Category, p1)
	r2, g2 := s.storedRating(room.Category, p2)

	res1 := resultFor(p1.PlayerID, winnerID)
	res2 := 1.0 - res1

	new1 := s.ratingService.NewRating(r1, r2, res1, s.ratingService.KFactor(g1))
	new2 := s.ratingService.NewRating(r2, r1, res2, s.ratingService.KFactor(g2))

	updates := map[string]*models.RatingUpdate{
		p1.PlayerID: {PlayerID: p1.PlayerID, OldRating: r1, NewRating: new1, Delta: new1 - r1},
		p2.PlayerID: {PlayerID: p2.PlayerID, OldRating: r2, NewRating: new2, Delta: new2 - r2},
	}

	for _, update := range updates {
		if err := s.ratingRepo.Upsert(update.PlayerID, room.Category, update.NewRating); err != nil {
			logger.Error("Failed to persist rating",
				"playerId", update.PlayerID,
				"category", room.Category,
				"error", err,
			)
		}
		if err := s.statsRepo.UpdateLeaderboard(ctx, update.PlayerID, room.Category, update.NewRating); err != nil {
			logger.Error("Failed to update leaderboard",
				"playerId", update.PlayerID,
				"category", room.Category,
				"error", err,
			)
		}
	}

	return updates
}

// storedRating reads a participant's canonical rating and games count from
// the store, falling back to the room snapshot when the read fails.
func (s *SessionService) storedRating(category string, p *models.Participant) (rating, gamesPlayed int) {
	rec, err := s.ratingRepo.Find(p.PlayerID, category)
	if err != nil {
		logger.Error("Failed to load rating, using room snapshot",
			"playerId", p.PlayerID,
			"category", category,
			"error", err,
		)
		return p.Rating, 0
	}
	if rec == nil {
		return p.Rating, 0
	}
	return rec.Rating, rec.GamesPlayed
}

func winnerOf(room *models.Room) *string {
	p1, p2 := room.Player1, room.Player2
	if p1 == nil || p2 == nil {
		if p1 != nil {
			return &p1.PlayerID
		}
		return nil
	}
	if p1.Score > p2.Score {
		return &p1.PlayerID
	}
	if p2.Score > p1.Score {
		return &p2.PlayerID
	}
	return nil
}

func resultFor(playerID string, winnerID *string) float64 {
	if winnerID == nil {
		return 0.5
	}
	if *winnerID == playerID {
		return 1.0
	}
	return 0.0
}
