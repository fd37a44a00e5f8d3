package models

import "time"

// SessionParticipant is one seat's final line in a completed session.
type SessionParticipant struct {
	PlayerID    string `json:"playerId" db:"player_id"`
	DisplayName string `json:"displayName" db:"display_name"`
	Score       int    `json:"score" db:"score"`
	IsBot       bool   `json:"isBot" db:"is_bot"`
}

// SessionRecord is the append-only row written once per completed session.
type SessionRecord struct {
	ID           string               `json:"id" db:"id"`
	Category     string               `json:"category" db:"category"`
	Mode         RoomMode             `json:"mode" db:"mode"`
	Participants []SessionParticipant `json:"participants"`
	WinnerID     *string              `json:"winnerId,omitempty" db:"winner_id"`
	DurationMs   int64                `json:"durationMs" db:"duration_ms"`
	CreatedAt    time.Time            `json:"createdAt" db:"created_at"`
}

// SessionResult is the personalized result event one participant receives
// when a session ends.
type SessionResult struct {
	RoomID        string  `json:"roomId"`
	Category      string  `json:"category"`
	WinnerID      *string `json:"winnerId,omitempty"`
	YourScore     int     `json:"yourScore"`
	OpponentScore int     `json:"opponentScore"`
	DurationMs    int64   `json:"durationMs"`
	RatingDelta   *int    `json:"ratingDelta,omitempty"`
	NewRating     *int    `json:"newRating,omitempty"`
}
