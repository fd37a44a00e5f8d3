package models

import "time"

// RatingRecord is a player's persisted skill estimate in one category.
// Keyed by (playerId, category). Never trusted from the client.
type RatingRecord struct {
	PlayerID    string    `json:"playerId" db:"player_id"`
	Category    string    `json:"category" db:"category"`
	Rating      int       `json:"rating" db:"rating"`
	PeakRating  int       `json:"peakRating" db:"peak_rating"`
	GamesPlayed int       `json:"gamesPlayed" db:"games_played"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// RatingUpdate describes the outcome of one ranked session for one player.
type RatingUpdate struct {
	PlayerID  string `json:"playerId"`
	OldRating int    `json:"oldRating"`
	NewRating int    `json:"newRating"`
	Delta     int    `json:"delta"`
}
