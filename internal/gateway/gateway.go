package gateway

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/humphreyhhui/LanguageGames/internal/config"
	"github.com/humphreyhhui/LanguageGames/internal/content"
	"github.com/humphreyhhui/LanguageGames/internal/models"
	"github.com/humphreyhhui/LanguageGames/internal/service"
	"github.com/humphreyhhui/LanguageGames/pkg/joincode"
	jwtutil "github.com/humphreyhhui/LanguageGames/pkg/jwt"
	"github.com/humphreyhhui/LanguageGames/pkg/logger"
	"github.com/humphreyhhui/LanguageGames/pkg/ratelimit"
)

const questionsPerSession = 10

const contentCallTimeout = 10 * time.Second

// ProfileStore loads a player's canonical per-category ratings at
// authentication time.
type ProfileStore interface {
	FindAllForPlayer(playerID string) ([]models.RatingRecord, error)
}

// ContentProvider generates question sets and judges free-text answers.
type ContentProvider interface {
	GenerateQuestionSet(ctx context.Context, category string, count int) (*models.QuestionSet, error)
	JudgeAnswer(ctx context.Context, category, expected, submitted string) (bool, error)
}

// connState is the gateway's view of one connection:
// unauthenticated -> authenticated -> (idle | in_room).
type connState struct {
	playerID      string
	displayName   string
	authenticated bool
	ratings       []models.RatingRecord
	authTimer     *time.Timer
}

// Gateway authenticates connections, validates and rate-limits every inbound
// event, and routes it into the scheduler, room manager and session service.
type Gateway struct {
	mu    sync.Mutex
	conns map[string]*connState

	hub       *Hub
	verifier  *jwtutil.Verifier
	profiles  ProfileStore
	content   ContentProvider
	rooms     *service.RoomService
	sessions  *service.SessionService
	ratings   *service.RatingService
	scheduler *service.MatchmakingService
	cfg       *config.Config

	actionLimiter   *ratelimit.WindowLimiter
	gameplayLimiter *ratelimit.WindowLimiter
}

func New(
	hub *Hub,
	verifier *jwtutil.Verifier,
	profiles ProfileStore,
	provider ContentProvider,
	rooms *service.RoomService,
	sessions *service.SessionService,
	ratings *service.RatingService,
	cfg *config.Config,
) *Gateway {
	return &Gateway{
		conns:           make(map[string]*connState),
		hub:             hub,
		verifier:        verifier,
		profiles:        profiles,
		content:         provider,
		rooms:           rooms,
		sessions:        sessions,
		ratings:         ratings,
		cfg:             cfg,
		actionLimiter:   ratelimit.NewWindowLimiter(cfg.ActionRateLimit, cfg.ActionRateWindow),
		gameplayLimiter: ratelimit.NewWindowLimiter(cfg.GameplayRateLimit, cfg.GameplayRateWindow),
	}
}

// SetScheduler wires the matchmaking service after construction; the
// scheduler needs the gateway as its notifier, so the two reference each
// other.
func (g *Gateway) SetScheduler(scheduler *service.MatchmakingService) {
	g.scheduler = scheduler
}

// HandleConnect starts the authentication handshake clock for a new
// connection.
func (g *Gateway) HandleConnect(connectionID string) {
	st := &connState{}
	st.authTimer = time.AfterFunc(g.cfg.AuthHandshakeTimeout, func() {
		g.mu.Lock()
		pending, exists := g.conns[connectionID]
		timedOut := exists && !pending.authenticated
		g.mu.Unlock()

		if timedOut {
			logger.Warn("Authentication handshake timed out", "connectionId", connectionID)
			g.hub.SendError(connectionID, CodeAuthError, "authentication timeout")
			g.hub.Disconnect(connectionID)
		}
	})

	g.mu.Lock()
	g.conns[connectionID] = st
	g.mu.Unlock()
}

// HandleDisconnect tears down everything the connection owned: queue
// entries, rate counters, room seats. Remaining participants are notified
// and affected rooms scheduled for purge.
func (g *Gateway) HandleDisconnect(connectionID string) {
	g.mu.Lock()
	st, exists := g.conns[connectionID]
	if exists {
		if st.authTimer != nil {
			st.authTimer.Stop()
		}
		delete(g.conns, connectionID)
	}
	g.mu.Unlock()

	if !exists {
		return
	}

	if g.scheduler != nil {
		g.scheduler.LeaveQueue(connectionID)
	}
	g.actionLimiter.Remove(connectionID)
	g.gameplayLimiter.Remove(connectionID)

	for _, roomID := range g.rooms.RemoveConnection(connectionID) {
		seats, ok := g.rooms.Seats(roomID)
		if !ok {
			continue
		}
		for _, p := range seats {
			if !p.IsBot && p.ConnectionID != connectionID {
				g.hub.Send(p.ConnectionID, EventOpponentDisconnected, map[string]string{
					"roomId": roomID,
				})
			}
		}
		g.schedulePurge(roomID)
	}

	logger.Info("Connection cleaned up", "connectionId", connectionID, "playerId", st.playerID)
}

// HandleMessage parses, authorizes and dispatches one inbound event.
func (g *Gateway) HandleMessage(connectionID string, data []byte) {
	env, err := parseEnvelope(data)
	if err != nil {
		g.hub.SendError(connectionID, CodeValidationError, err.Error())
		return
	}

	if env.Type == EventAuthenticate {
		g.handleAuthenticate(connectionID, env)
		return
	}

	g.mu.Lock()
	st, exists := g.conns[connectionID]
	authenticated := exists && st.authenticated
	g.mu.Unlock()

	if !authenticated {
		g.hub.SendError(connectionID, CodeAuthError, service.ErrNotAuthenticated.Error())
		return
	}

	if !g.allow(connectionID, env.Type) {
		g.hub.SendError(connectionID, CodeRateLimit, service.ErrRateLimited.Error())
		return
	}

	switch env.Type {
	case EventJoinQueue:
		g.handleJoinQueue(connectionID, st, env)
	case EventLeaveQueue:
		g.scheduler.LeaveQueue(connectionID)
	case EventCreateRoom:
		g.handleCreateRoom(connectionID, st, env)
	case EventJoinRoom:
		g.handleJoinRoom(connectionID, st, env)
	case EventSubmitAnswer:
		g.handleSubmitAnswer(connectionID, st, env)
	case EventUpdateScore:
		g.handleUpdateScore(connectionID, st, env)
	case EventEndSession:
		g.handleEndSession(connectionID, st, env)
	default:
		g.hub.SendError(connectionID, CodeValidationError, "unknown event type: "+env.Type)
	}
}

// allow applies the per-connection budget for the event class. Gameplay
// events get the wide budget; room and queue actions the narrow one.
func (g *Gateway) allow(connectionID, eventType string) bool {
	switch eventType {
	case EventSubmitAnswer, EventUpdateScore:
		return g.gameplayLimiter.Allow(connectionID)
	default:
		return g.actionLimiter.Allow(connectionID)
	}
}

func (g *Gateway) handleAuthenticate(connectionID string, env *envelope) {
	var payload authenticatePayload
	if err := decodePayload(env.Payload, &payload); err != nil {
		g.hub.SendError(connectionID, CodeValidationError, err.Error())
		return
	}
	if payload.Token == "" {
		g.hub.SendError(connectionID, CodeAuthError, service.ErrMissingCredential.Error())
		return
	}

	claims, err := g.verifier.Verify(payload.Token)
	if err != nil {
		g.hub.SendError(connectionID, CodeAuthError, service.ErrInvalidCredential.Error())
		return
	}

	// The client never asserts its own rating; everything comes from the
	// store keyed by the verified player id.
	records, err := g.profiles.FindAllForPlayer(claims.PlayerID)
	if err != nil {
		logger.Error("Failed to load player ratings",
			"playerId", claims.PlayerID,
			"error", err,
		)
		records = nil
	}

	g.mu.Lock()
	st, exists := g.conns[connectionID]
	if !exists {
		g.mu.Unlock()
		return
	}
	st.playerID = claims.PlayerID
	st.displayName = claims.DisplayName
	st.ratings = records
	st.authenticated = true
	if st.authTimer != nil {
		st.authTimer.Stop()
	}
	g.mu.Unlock()

	ratingsByCategory := make(map[string]int, len(records))
	for _, rec := range records {
		ratingsByCategory[rec.Category] = rec.Rating
	}

	logger.Info("Connection authenticated",
		"connectionId", connectionID,
		"playerId", claims.PlayerID,
	)

	g.hub.Send(connectionID, EventAuthenticated, map[string]interface{}{
		"playerId":    claims.PlayerID,
		"displayName": claims.DisplayName,
		"ratings":     ratingsByCategory,
	})
}

// ratingFor resolves the player's rating in a category, seeding from their
// established ratings elsewhere when the category is new to them.
func (g *Gateway) ratingFor(st *connState, category string) int {
	for _, rec := range st.ratings {
		if rec.Category == category {
			return rec.Rating
		}
	}
	return g.ratings.SeedStartingRating(st.ratings)
}

func (g *Gateway) participantFor(connectionID string, st *connState, category string) *models.Participant {
	return &models.Participant{
		ConnectionID: connectionID,
		PlayerID:     st.playerID,
		DisplayName:  st.displayName,
		Rating:       g.ratingFor(st, category),
	}
}

func (g *Gateway) handleJoinQueue(connectionID string, st *connState, env *envelope) {
	var payload joinQueuePayload
	if err := decodePayload(env.Payload, &payload); err != nil {
		g.hub.SendError(connectionID, CodeValidationError, err.Error())
		return
	}
	if !g.cfg.IsKnownCategory(payload.Category) {
		g.hub.SendError(connectionID, CodeValidationError, service.ErrUnknownCategory.Error())
		return
	}

	rating := g.ratingFor(st, payload.Category)
	g.scheduler.JoinQueue(&models.QueueEntry{
		ConnectionID: connectionID,
		PlayerID:     st.playerID,
		DisplayName:  st.displayName,
		Rating:       rating,
		Category:     payload.Category,
		JoinedAt:     time.Now(),
	})

	g.hub.Send(connectionID, EventQueueJoined, map[string]interface{}{
		"category": payload.Category,
		"rating":   rating,
	})
}

func (g *Gateway) handleCreateRoom(connectionID string, st *connState, env *envelope) {
	var payload createRoomPayload
	if err := decodePayload(env.Payload, &payload); err != nil {
		g.hub.SendError(connectionID, CodeValidationError, err.Error())
		return
	}
	if !g.cfg.IsKnownCategory(payload.Category) {
		g.hub.SendError(connectionID, CodeValidationError, service.ErrUnknownCategory.Error())
		return
	}

	room := g.rooms.CreateFriendRoom(payload.Category, g.participantFor(connectionID, st, payload.Category))

	g.hub.Send(connectionID, EventRoomCreated, map[string]interface{}{
		"roomId":   room.ID,
		"joinCode": room.JoinCode,
		"category": room.Category,
		"mode":     room.Mode,
	})
}

func (g *Gateway) handleJoinRoom(connectionID string, st *connState, env *envelope) {
	var payload joinRoomPayload
	if err := decodePayload(env.Payload, &payload); err != nil {
		g.hub.SendError(connectionID, CodeValidationError, err.Error())
		return
	}

	code := joincode.Normalize(payload.Code)
	if !joincode.Valid(code) {
		g.hub.SendError(connectionID, CodeValidationError, "invalid join code")
		return
	}

	room, err := g.rooms.JoinByCode(code, g.participantFor(connectionID, st, "")) // category set below
	if err != nil {
		g.sendRoomError(connectionID, err)
		return
	}

	// The joiner's rating should reflect the room's category, which was not
	// known before the lookup.
	g.rooms.SetSeatRating(room.ID, st.playerID, g.ratingFor(st, room.Category))

	seats, _ := g.rooms.Seats(room.ID)
	summary := roomSummary(room, seats)
	for _, p := range seats {
		if !p.IsBot {
			g.hub.Send(p.ConnectionID, EventPlayerJoined, summary)
		}
	}

	g.startSession(room)
}

// startSession fetches content off the hot path and activates the room once
// it arrives. A content failure degrades to the static fallback set; a room
// purged while the call was in flight discards the result.
func (g *Gateway) startSession(room *models.Room) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), contentCallTimeout)
		defer cancel()

		set, err := g.content.GenerateQuestionSet(ctx, room.Category, questionsPerSession)
		if err != nil {
			logger.Warn("Content generation failed, using fallback set",
				"roomId", room.ID,
				"category", room.Category,
				"error", err,
			)
			set = content.FallbackQuestionSet(room.Category, questionsPerSession)
		}

		_, ok := g.rooms.StartSession(room.ID, set)
		if !ok {
			logger.Debug("Discarding content for purged room", "roomId", room.ID)
			return
		}

		seats, _ := g.rooms.Seats(room.ID)
		payload := map[string]interface{}{
			"roomId":  room.ID,
			"content": set.ClientView(),
			"players": seats,
		}
		for _, p := range seats {
			if !p.IsBot {
				g.hub.Send(p.ConnectionID, EventGameStart, payload)
			}
		}
	}()
}

func (g *Gateway) handleSubmitAnswer(connectionID string, st *connState, env *envelope) {
	var payload submitAnswerPayload
	if err := decodePayload(env.Payload, &payload); err != nil {
		g.hub.SendError(connectionID, CodeValidationError, err.Error())
		return
	}

	// The server looks up the correct answer itself; the client only ever
	// sends its attempt.
	question, category, err := g.rooms.AnswerKey(payload.RoomID, st.playerID, payload.QuestionIndex)
	if err != nil {
		g.sendRoomError(connectionID, err)
		return
	}

	correct := answersMatch(question.Answer, payload.Answer)
	if !correct {
		ctx, cancel := context.WithTimeout(context.Background(), contentCallTimeout)
		verdict, err := g.content.JudgeAnswer(ctx, category, question.Answer, payload.Answer)
		cancel()
		if err != nil {
			// Strict comparison already ruled; the upstream failure only
			// costs lenient matching.
			logger.Warn("Answer judgment failed, keeping strict verdict",
				"roomId", payload.RoomID,
				"error", err,
			)
		} else {
			correct = verdict
		}
	}

	score := 0
	scored := false
	if correct {
		// AddPoint refuses if the session ended while the judgment call
		// was in flight.
		score, scored = g.rooms.AddPoint(payload.RoomID, st.playerID, 1)
	}
	if !scored {
		score, _ = g.rooms.PlayerScore(payload.RoomID, st.playerID)
	}

	g.hub.Send(connectionID, EventAnswerResult, map[string]interface{}{
		"roomId":        payload.RoomID,
		"questionIndex": payload.QuestionIndex,
		"correct":       correct,
	})

	g.broadcastScore(payload.RoomID, st.playerID, score)
}

func (g *Gateway) handleUpdateScore(connectionID string, st *connState, env *envelope) {
	var payload updateScorePayload
	if err := decodePayload(env.Payload, &payload); err != nil {
		g.hub.SendError(connectionID, CodeValidationError, err.Error())
		return
	}

	// The bot seat of the player's own fallback room may be driven by
	// proxy (the client simulates the bot's play); ClampScore enforces
	// that, the state machine, and the +1 cap in one locked step.
	targetID := payload.PlayerID
	if targetID == "" {
		targetID = st.playerID
	}

	applied, suspicious, err := g.rooms.ClampScore(payload.RoomID, st.playerID, targetID, payload.Score)
	if err != nil {
		g.sendRoomError(connectionID, err)
		return
	}
	if suspicious {
		logger.Warn("Suspicious score jump clamped",
			"roomId", payload.RoomID,
			"playerId", targetID,
			"reported", payload.Score,
			"applied", applied,
		)
	}

	g.broadcastScore(payload.RoomID, targetID, applied)
}

func (g *Gateway) handleEndSession(connectionID string, st *connState, env *envelope) {
	var payload endSessionPayload
	if err := decodePayload(env.Payload, &payload); err != nil {
		g.hub.SendError(connectionID, CodeValidationError, err.Error())
		return
	}

	// Only a seated participant may end the session; a roomId alone must
	// not let a third party force the rating update.
	seats, ok := g.rooms.Seats(payload.RoomID)
	if !ok {
		g.hub.SendError(connectionID, CodeNotFound, service.ErrRoomNotFound.Error())
		return
	}
	seated := false
	for _, p := range seats {
		if p.PlayerID == st.playerID {
			seated = true
			break
		}
	}
	if !seated {
		g.hub.SendError(connectionID, CodeStateError, service.ErrNotInRoom.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), contentCallTimeout)
	defer cancel()

	results, room, ok := g.sessions.EndSession(ctx, payload.RoomID)
	if !ok {
		// Already ended or gone; duplicate triggers are expected when both
		// participants race to end.
		return
	}

	for _, p := range seats {
		if p.IsBot {
			continue
		}
		if result, exists := results[p.PlayerID]; exists {
			g.hub.Send(p.ConnectionID, EventSessionResult, result)
		}
	}

	g.schedulePurge(room.ID)
}

// schedulePurge destroys the room after the grace period so late queries and
// reconnect attempts still see it.
func (g *Gateway) schedulePurge(roomID string) {
	time.AfterFunc(g.cfg.RoomPurgeGracePeriod, func() {
		g.rooms.Purge(roomID)
	})
}

func (g *Gateway) broadcastScore(roomID, playerID string, score int) {
	seats, ok := g.rooms.Seats(roomID)
	if !ok {
		return
	}
	payload := map[string]interface{}{
		"roomId":   roomID,
		"playerId": playerID,
		"score":    score,
	}
	for _, p := range seats {
		if !p.IsBot {
			g.hub.Send(p.ConnectionID, EventScoreUpdate, payload)
		}
	}
}

func roomSummary(room *models.Room, seats []models.Participant) map[string]interface{} {
	return map[string]interface{}{
		"roomId":   room.ID,
		"category": room.Category,
		"mode":     room.Mode,
		"players":  seats,
	}
}

func (g *Gateway) sendRoomError(connectionID string, err error) {
	switch err {
	case service.ErrRoomNotFound:
		g.hub.SendError(connectionID, CodeNotFound, err.Error())
	case service.ErrMalformedPayload:
		g.hub.SendError(connectionID, CodeValidationError, err.Error())
	default:
		g.hub.SendError(connectionID, CodeStateError, err.Error())
	}
}

// HumanMatchFound implements service.MatchNotifier: both players learn about
// the pairing, then content generation kicks off.
func (g *Gateway) HumanMatchFound(room *models.Room, e1, e2 *models.QueueEntry) {
	seats, _ := g.rooms.Seats(room.ID)
	for _, entry := range []*models.QueueEntry{e1, e2} {
		g.hub.Send(entry.ConnectionID, EventMatchFound, map[string]interface{}{
			"roomId":   room.ID,
			"category": room.Category,
			"mode":     room.Mode,
			"opponent": opponentSeat(seats, entry.PlayerID),
		})
	}
	g.startSession(room)
}

// BotMatchCreated implements service.MatchNotifier for queue fallbacks.
func (g *Gateway) BotMatchCreated(room *models.Room, entry *models.QueueEntry) {
	seats, _ := g.rooms.Seats(room.ID)
	g.hub.Send(entry.ConnectionID, EventMatchFound, map[string]interface{}{
		"roomId":   room.ID,
		"category": room.Category,
		"mode":     room.Mode,
		"opponent": opponentSeat(seats, entry.PlayerID),
	})
	g.startSession(room)
}

func opponentSeat(seats []models.Participant, playerID string) *models.Participant {
	for i := range seats {
		if seats[i].PlayerID != playerID {
			return &seats[i]
		}
	}
	return nil
}

// QueueStatus implements service.MatchNotifier; pushes are best effort and
// silently dropped for dead connections.
func (g *Gateway) QueueStatus(entry *models.QueueEntry, status models.QueueStatus) {
	g.hub.Send(entry.ConnectionID, EventQueueStatus, status)
}

// answersMatch is the exact short circuit: trimmed, case-insensitive.
func answersMatch(expected, submitted string) bool {
	return strings.EqualFold(strings.TrimSpace(expected), strings.TrimSpace(submitted))
}
