package models

import "time"

// QueueEntry is one player waiting for a match in one category.
// Owned exclusively by the matchmaking scheduler.
type QueueEntry struct {
	ConnectionID string    `json:"-"`
	PlayerID     string    `json:"playerId"`
	DisplayName  string    `json:"displayName"`
	Rating       int       `json:"rating"`
	Category     string    `json:"category"`
	JoinedAt     time.Time `json:"joinedAt"`
	FallbackAt   time.Time `json:"fallbackAt"`
}

// QueueStatus is the informational snapshot pushed to a queued player on the
// status broadcast tick.
type QueueStatus struct {
	Category      string `json:"category"`
	WaitMs        int64  `json:"waitMs"`
	Range         int    `json:"range"` // -1 means unbounded
	QueueSize     int    `json:"queueSize"`
	FallbackEtaMs int64  `json:"fallbackEtaMs"`
}
