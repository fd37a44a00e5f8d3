package models

import "time"

type RoomMode string

const (
	RoomModeRanked      RoomMode = "ranked"
	RoomModeUnranked    RoomMode = "unranked"
	RoomModeFriend      RoomMode = "friend"
	RoomModeBotFallback RoomMode = "bot_fallback"
)

// Participant is one seat in a room. Bots occupy a seat like humans but
// carry no connection and an accuracy hint for the client-side simulation.
type Participant struct {
	ConnectionID string  `json:"-"`
	PlayerID     string  `json:"playerId"`
	DisplayName  string  `json:"displayName"`
	Rating       int     `json:"rating"`
	Score        int     `json:"score"`
	IsBot        bool    `json:"isBot"`
	BotAccuracy  float64 `json:"botAccuracy,omitempty"`
}

// Room is the live pairing and shared state for one match.
// Invariant: at most two named participants; Player2 fills at most once.
type Room struct {
	ID        string       `json:"id"`
	JoinCode  string       `json:"joinCode"`
	Category  string       `json:"category"`
	Mode      RoomMode     `json:"mode"`
	Player1   *Participant `json:"player1"`
	Player2   *Participant `json:"player2,omitempty"`
	Content   *QuestionSet `json:"content,omitempty"`
	IsActive  bool         `json:"isActive"`
	CreatedAt time.Time    `json:"createdAt"`
	StartedAt time.Time    `json:"startedAt,omitempty"`
	EndedAt   time.Time    `json:"-"`
}

// Participants returns the filled seats in order.
func (r *Room) Participants() []*Participant {
	out := make([]*Participant, 0, 2)
	if r.Player1 != nil {
		out = append(out, r.Player1)
	}
	if r.Player2 != nil {
		out = append(out, r.Player2)
	}
	return out
}

// ParticipantByID returns the seat held by the given player, if any.
func (r *Room) ParticipantByID(playerID string) *Participant {
	if r.Player1 != nil && r.Player1.PlayerID == playerID {
		return r.Player1
	}
	if r.Player2 != nil && r.Player2.PlayerID == playerID {
		return r.Player2
	}
	return nil
}

// Opponent returns the other seat relative to the given player, if filled.
func (r *Room) Opponent(playerID string) *Participant {
	if r.Player1 != nil && r.Player1.PlayerID == playerID {
		return r.Player2
	}
	if r.Player2 != nil && r.Player2.PlayerID == playerID {
		return r.Player1
	}
	return nil
}

// HasConnection reports whether the given connection holds a seat.
func (r *Room) HasConnection(connectionID string) bool {
	for _, p := range r.Participants() {
		if !p.IsBot && p.ConnectionID == connectionID {
			return true
		}
	}
	return false
}

// IsRanked reports whether this session should move ratings: ranked mode
// with two human participants.
func (r *Room) IsRanked() bool {
	if r.Mode != RoomModeRanked {
		return false
	}
	if r.Player1 == nil || r.Player2 == nil {
		return false
	}
	return !r.Player1.IsBot && !r.Player2.IsBot
}
