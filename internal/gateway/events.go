package gateway

import (
	"encoding/json"
	"fmt"
)

// Client -> server event types.
const (
	EventAuthenticate = "authenticate"
	EventJoinQueue    = "join_queue"
	EventLeaveQueue   = "leave_queue"
	EventCreateRoom   = "create_room"
	EventJoinRoom     = "join_room"
	EventSubmitAnswer = "submit_answer"
	EventUpdateScore  = "update_score"
	EventEndSession   = "end_session"
)

// Server -> client event types.
const (
	EventAuthenticated        = "authenticated"
	EventQueueJoined          = "queue_joined"
	EventQueueStatus          = "queue_status"
	EventMatchFound           = "match_found"
	EventRoomCreated          = "room_created"
	EventPlayerJoined         = "player_joined"
	EventGameStart            = "game_start"
	EventAnswerResult         = "answer_result"
	EventScoreUpdate          = "score_update"
	EventSessionResult        = "session_result"
	EventOpponentDisconnected = "opponent_disconnected"
	EventError                = "error"
)

// Error codes carried on error events.
const (
	CodeAuthError       = "auth_error"
	CodeValidationError = "validation_error"
	CodeRateLimit       = "rate_limit"
	CodeNotFound        = "not_found"
	CodeStateError      = "state_error"
	CodeUpstreamError   = "upstream_error"
)

// envelope is the outer shape of every inbound message.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type authenticatePayload struct {
	Token string `json:"token"`
}

type joinQueuePayload struct {
	Category string `json:"category"`
}

type createRoomPayload struct {
	Category string `json:"category"`
}

type joinRoomPayload struct {
	Code string `json:"code"`
}

type submitAnswerPayload struct {
	RoomID        string `json:"roomId"`
	QuestionIndex int    `json:"questionIndex"`
	Answer        string `json:"answer"`
}

type updateScorePayload struct {
	RoomID string `json:"roomId"`
	Score  int    `json:"score"`
	// PlayerID may name the bot seat in a bot-fallback room; every other
	// update applies to the sender.
	PlayerID string `json:"playerId,omitempty"`
}

type endSessionPayload struct {
	RoomID string `json:"roomId"`
}

// parseEnvelope validates the outer shape of an inbound message. The typed
// payloads are decoded per event by the dispatcher; nothing loosely typed
// reaches core logic.
func parseEnvelope(data []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("missing event type")
	}
	return &env, nil
}

func decodePayload(raw json.RawMessage, out interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing payload")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

// errorPayload is the body of every error event.
type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
