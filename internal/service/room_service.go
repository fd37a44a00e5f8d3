package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/humphreyhhui/LanguageGames/internal/models"
	"github.com/humphreyhhui/LanguageGames/pkg/joincode"
	"github.com/humphreyhhui/LanguageGames/pkg/logger"
)

// Bot opponents scale with the human's rating tier.
const (
	botLowRatingCeiling = 900
	botMidRatingCeiling = 1200
	botLowAccuracy      = 0.50
	botMidAccuracy      = 0.70
	botHighAccuracy     = 0.85
)

// RoomService owns every live room and the join-code index. All state lives
// inside one instance so tests can run isolated services side by side.
type RoomService struct {
	mu    sync.Mutex
	rooms map[string]*models.Room
	codes map[string]string // join code -> room id
}

func NewRoomService() *RoomService {
	return &RoomService{
		rooms: make(map[string]*models.Room),
		codes: make(map[string]string),
	}
}

// CreateFriendRoom opens a room one friend can join by code.
func (s *RoomService) CreateFriendRoom(category string, player *models.Participant) *models.Room {
	return s.create(category, models.RoomModeFriend, player, nil)
}

// CreateBotRoom opens a room with a synthetic opponent filled immediately.
// The bot's accuracy follows the creating player's rating tier.
func (s *RoomService) CreateBotRoom(category string, player *models.Participant) *models.Room {
	accuracy := botHighAccuracy
	if player.Rating < botLowRatingCeiling {
		accuracy = botLowAccuracy
	} else if player.Rating < botMidRatingCeiling {
		accuracy = botMidAccuracy
	}

	bot := &models.Participant{
		PlayerID:    "bot-" + uuid.New().String(),
		DisplayName: "Practice Bot",
		Rating:      player.Rating,
		IsBot:       true,
		BotAccuracy: accuracy,
	}
	return s.create(category, models.RoomModeBotFallback, player, bot)
}

// CreateRankedRoom pairs two matched players.
func (s *RoomService) CreateRankedRoom(category string, p1, p2 *models.Participant) *models.Room {
	return s.create(category, models.RoomModeRanked, p1, p2)
}

func (s *RoomService) create(category string, mode models.RoomMode, p1, p2 *models.Participant) *models.Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := &models.Room{
		ID:        uuid.New().String(),
		JoinCode:  s.nextCodeLocked(),
		Category:  category,
		Mode:      mode,
		Player1:   p1,
		Player2:   p2,
		CreatedAt: time.Now(),
	}

	s.rooms[room.ID] = room
	s.codes[room.JoinCode] = room.ID

	logger.Info("Room created",
		"roomId", room.ID,
		"joinCode", room.JoinCode,
		"category", category,
		"mode", mode,
	)

	return room
}

// nextCodeLocked draws codes until one is free among live rooms.
func (s *RoomService) nextCodeLocked() string {
	for {
		code := joincode.Generate()
		if _, taken := s.codes[code]; !taken {
			return code
		}
	}
}

// JoinByCode seats a player in the room with the given code. The lookup is
// case-insensitive. Bot rooms, active rooms and full rooms are not joinable.
func (s *RoomService) JoinByCode(code string, player *models.Participant) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomID, ok := s.codes[joincode.Normalize(code)]
	if !ok {
		return nil, ErrRoomNotFound
	}
	room := s.rooms[roomID]

	if room.Mode == models.RoomModeBotFallback {
		return nil, ErrRoomNotJoinable
	}
	if room.Player1 != nil && room.Player1.PlayerID == player.PlayerID {
		return nil, ErrRoomNotJoinable
	}
	if room.Player2 != nil {
		return nil, ErrRoomFull
	}
	if room.IsActive {
		return nil, ErrRoomActive
	}

	room.Player2 = player
	return room, nil
}

// Get returns the room with the given id.
func (s *RoomService) Get(roomID string) (*models.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	return room, ok
}

// Seats returns value copies of the room's current participants. Callers
// fanning events out to connections read these snapshots instead of the
// live seat structs, which other connection goroutines mutate under the
// lock.
func (s *RoomService) Seats(roomID string) ([]models.Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, false
	}

	var seats []models.Participant
	for _, p := range room.Participants() {
		seats = append(seats, *p)
	}
	return seats, true
}

// SetSeatRating updates a seat's rating snapshot. Joiners resolve their
// per-category rating only after the code lookup reveals the category.
func (s *RoomService) SetSeatRating(roomID, playerID string, rating int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return
	}
	if p := room.ParticipantByID(playerID); p != nil {
		p.Rating = rating
	}
}

// StartSession attaches content and activates the room. No-op when the room
// is already gone (a content call can outlive an abandoned room).
func (s *RoomService) StartSession(roomID string, content *models.QuestionSet) (*models.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, false
	}

	room.Content = content
	room.IsActive = true
	room.StartedAt = time.Now()
	return room, true
}

// RecordScore overwrites the slot matching playerID with the reported score.
// Unknown players are ignored.
func (s *RoomService) RecordScore(roomID, playerID string, score int) (*models.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, false
	}

	p := room.ParticipantByID(playerID)
	if p == nil {
		return room, false
	}
	p.Score = score
	return room, true
}

// AddPoint increments the authoritative score of a player by delta and
// returns the new value. Scores are frozen once the session ends.
func (s *RoomService) AddPoint(roomID, playerID string, delta int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return 0, false
	}
	if !room.IsActive || !room.EndedAt.IsZero() {
		return 0, false
	}

	p := room.ParticipantByID(playerID)
	if p == nil {
		return 0, false
	}
	p.Score += delta
	return p.Score, true
}

// PlayerScore reads a player's current score under the lock.
func (s *RoomService) PlayerScore(roomID, playerID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return 0, false
	}
	p := room.ParticipantByID(playerID)
	if p == nil {
		return 0, false
	}
	return p.Score, true
}

// AnswerKey validates a server-judged answer submission and returns the
// question holding the expected answer, plus the room's category for the
// lenient-judgment call. All state checks run under the lock so a session
// ending concurrently cannot slip a submission through.
func (s *RoomService) AnswerKey(roomID, playerID string, index int) (models.Question, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return models.Question{}, "", ErrRoomNotFound
	}
	if room.ParticipantByID(playerID) == nil {
		return models.Question{}, "", ErrNotInRoom
	}
	if !room.IsActive || room.Content == nil || !room.EndedAt.IsZero() {
		return models.Question{}, "", ErrSessionNotActive
	}
	if !room.Content.ServerJudged {
		return models.Question{}, "", ErrJudgingMode
	}
	if index < 0 || index >= len(room.Content.Questions) {
		return models.Question{}, "", ErrMalformedPayload
	}
	return room.Content.Questions[index], room.Category, nil
}

// ClampScore applies a client-reported score to the target seat, limiting
// any single update to at most +1 over the last known value. Larger jumps
// are applied as +1 and flagged suspicious for the caller to log. Decreases
// pass through (clients may correct themselves downwards).
//
// The reporter must hold a seat; reporting for another seat is allowed only
// when the target is the bot of the reporter's fallback room. Ended or
// not-yet-started sessions and server-judged content reject the write.
func (s *RoomService) ClampScore(roomID, reporterID, targetID string, reported int) (applied int, suspicious bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, exists := s.rooms[roomID]
	if !exists {
		return 0, false, ErrRoomNotFound
	}
	if room.ParticipantByID(reporterID) == nil {
		return 0, false, ErrNotInRoom
	}
	if !room.IsActive || room.Content == nil || !room.EndedAt.IsZero() {
		return 0, false, ErrSessionNotActive
	}
	if room.Content.ServerJudged {
		return 0, false, ErrJudgingMode
	}

	p := room.ParticipantByID(targetID)
	if p == nil {
		return 0, false, ErrScoreTarget
	}
	if targetID != reporterID && (room.Mode != models.RoomModeBotFallback || !p.IsBot) {
		return 0, false, ErrScoreTarget
	}

	applied = reported
	if reported > p.Score+1 {
		applied = p.Score + 1
		suspicious = true
	}
	p.Score = applied
	return applied, suspicious, nil
}

// EndSession deactivates the room. Only the first call transitions the room
// to ended and reports ok=true; repeated calls and unknown rooms are no-ops.
func (s *RoomService) EndSession(roomID string) (*models.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, exists := s.rooms[roomID]
	if !exists {
		return nil, false
	}
	if !room.EndedAt.IsZero() {
		return room, false
	}

	room.IsActive = false
	room.EndedAt = time.Now()
	return room, true
}

// RemoveConnection marks every room holding the connection inactive and
// returns their ids so the remaining participants can be notified. Rooms are
// not deleted here; Purge runs after the grace period.
func (s *RoomService) RemoveConnection(connectionID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var affected []string
	for id, room := range s.rooms {
		if room.HasConnection(connectionID) {
			room.IsActive = false
			affected = append(affected, id)
		}
	}
	return affected
}

// Purge deletes the room and frees its join code for reuse.
func (s *RoomService) Purge(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return
	}

	delete(s.codes, room.JoinCode)
	delete(s.rooms, roomID)

	logger.Debug("Room purged", "roomId", roomID, "joinCode", room.JoinCode)
}

// Count returns the number of live rooms.
func (s *RoomService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// Reset drops all rooms and codes. Test lifecycle hook.
func (s *RoomService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms = make(map[string]*models.Room)
	s.codes = make(map[string]string)
}
