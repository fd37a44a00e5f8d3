package repository

import (
	"database/sql"
	"fmt"

	"github.com/humphreyhhui/LanguageGames/internal/models"
	"github.com/humphreyhhui/LanguageGames/pkg/database"
)

type RatingRepository struct {
	db *database.DB
}

func NewRatingRepository(db *database.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// Find returns the rating record for (playerID, category), or nil when the
// player has never played the category.
func (r *RatingRepository) Find(playerID, category string) (*models.RatingRecord, error) {
	query := `
		SELECT player_id, category, rating, peak_rating, games_played, updated_at
		FROM ratings
		WHERE player_id = $1 AND category = $2
	`

	rec := &models.RatingRecord{}
	err := r.db.QueryRow(query, playerID, category).Scan(
		&rec.PlayerID,
		&rec.Category,
		&rec.Rating,
		&rec.PeakRating,
		&rec.GamesPlayed,
		&rec.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find rating: %w", err)
	}

	return rec, nil
}

// FindAllForPlayer returns every category rating the player holds. Used for
// cross-category seeding and the profile endpoint.
func (r *RatingRepository) FindAllForPlayer(playerID string) ([]models.RatingRecord, error) {
	query := `
		SELECT player_id, category, rating, peak_rating, games_played, updated_at
		FROM ratings
		WHERE player_id = $1
		ORDER BY category
	`

	rows, err := r.db.Query(query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	var records []models.RatingRecord
	for rows.Next() {
		var rec models.RatingRecord
		if err := rows.Scan(
			&rec.PlayerID,
			&rec.Category,
			&rec.Rating,
			&rec.PeakRating,
			&rec.GamesPlayed,
			&rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ratings: %w", err)
	}

	return records, nil
}

// Upsert writes the post-session rating, tracking the peak and incrementing
// the games counter.
func (r *RatingRepository) Upsert(playerID, category string, rating int) error {
	query := `
		INSERT INTO ratings (player_id, category, rating, peak_rating, games_played, updated_at)
		VALUES ($1, $2, $3, $3, 1, NOW())
		ON CONFLICT (player_id, category) DO UPDATE SET
			rating = $3,
			peak_rating = GREATEST(ratings.peak_rating, $3),
			games_played = ratings.games_played + 1,
			updated_at = NOW()
	`

	if _, err := r.db.Exec(query, playerID, category, rating); err != nil {
		return fmt.Errorf("failed to upsert rating: %w", err)
	}

	return nil
}
