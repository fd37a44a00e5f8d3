package repository

import (
	"encoding/json"
	"fmt"

	"github.com/humphreyhhui/LanguageGames/internal/models"
	"github.com/humphreyhhui/LanguageGames/pkg/database"
)

type SessionRepository struct {
	db *database.DB
}

func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Insert appends one completed session. Sessions are write-once; there is no
// update path.
func (r *SessionRepository) Insert(record *models.SessionRecord) error {
	participants, err := json.Marshal(record.Participants)
	if err != nil {
		return fmt.Errorf("failed to marshal participants: %w", err)
	}

	query := `
		INSERT INTO sessions (id, category, mode, participants, winner_id, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.Exec(
		query,
		record.ID,
		record.Category,
		record.Mode,
		participants,
		record.WinnerID,
		record.DurationMs,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// FindRecentByPlayer lists a player's latest sessions, newest first.
func (r *SessionRepository) FindRecentByPlayer(playerID string, limit int) ([]*models.SessionRecord, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT id, category, mode, participants, winner_id, duration_ms, created_at
		FROM sessions
		WHERE participants @> $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	filter, _ := json.Marshal([]map[string]string{{"playerId": playerID}})

	rows, err := r.db.Query(query, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var records []*models.SessionRecord
	for rows.Next() {
		rec := &models.SessionRecord{}
		var participants []byte
		if err := rows.Scan(
			&rec.ID,
			&rec.Category,
			&rec.Mode,
			&participants,
			&rec.WinnerID,
			&rec.DurationMs,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if err := json.Unmarshal(participants, &rec.Participants); err != nil {
			return nil, fmt.Errorf("failed to unmarshal participants: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return records, nil
}
