package service

import (
	"math"

	"github.com/humphreyhhui/LanguageGames/internal/models"
)

// RatingConfig holds every tunable of the rating engine. Tier boundaries and
// magnitudes live here rather than in the calculation functions.
type RatingConfig struct {
	DefaultRating    int     // starting rating for a brand-new category
	MinRating        int     // global floor; no rating ever drops below this
	ProvisionalGames int     // below this games count: provisional tier
	EstablishedGames int     // at or above this: established tier
	ProvisionalK     float64 // high K for fast convergence
	DevelopingK      float64 // medium K between the two boundaries
	EstablishedK     float64 // low K for stability
	UpsetThreshold   int     // rating gap that makes an unexpected outcome an upset
	UpsetMultiplier  float64 // applied to the raw change on an upset (>1)
	MinChange        int     // minimum magnitude of a nonzero applied change
	SeedCoefficient  float64 // damping applied when seeding from another category
	SeedCap          int     // ceiling on a seeded starting rating
}

// DefaultRatingConfig returns the production constants.
func DefaultRatingConfig() RatingConfig {
	return RatingConfig{
		DefaultRating:    1000,
		MinRating:        100,
		ProvisionalGames: 15,
		EstablishedGames: 30,
		ProvisionalK:     40.0,
		DevelopingK:      32.0,
		EstablishedK:     24.0,
		UpsetThreshold:   200,
		UpsetMultiplier:  1.5,
		MinChange:        1,
		SeedCoefficient:  0.5,
		SeedCap:          1500,
	}
}

// RatingService computes rating deltas for ranked sessions. Pure and
// stateless: no I/O, no clock, everything flows through the arguments.
type RatingService struct {
	cfg RatingConfig
}

func NewRatingService(cfg RatingConfig) *RatingService {
	return &RatingService{cfg: cfg}
}

// ExpectedScore returns the probability that a beats b under the Elo model.
func (s *RatingService) ExpectedScore(a, b int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(b-a)/400.0))
}

// KFactor returns the update sensitivity for a player with the given number
// of ranked games in the category:
//   - provisional (< ProvisionalGames): high K for fast convergence
//   - developing (ProvisionalGames..EstablishedGames-1): medium K
//   - established (>= EstablishedGames): low K for stability
func (s *RatingService) KFactor(gamesPlayed int) float64 {
	if gamesPlayed < s.cfg.ProvisionalGames {
		return s.cfg.ProvisionalK
	}
	if gamesPlayed < s.cfg.EstablishedGames {
		return s.cfg.DevelopingK
	}
	return s.cfg.EstablishedK
}

// NewRating computes a player's post-session rating.
// result is 1 for a win, 0.5 for a draw, 0 for a loss.
//
// An upset (the lower-rated side winning, or the higher-rated side losing,
// across a gap of at least UpsetThreshold) multiplies the raw change before
// rounding. The applied change magnitude is then floored at MinChange so a
// match where expected score ~= result still moves the rating, and the final
// rating is floored at MinRating.
func (s *RatingService) NewRating(player, opponent int, result float64, k float64) int {
	raw := k * (result - s.ExpectedScore(player, opponent))

	if s.isUpset(player, opponent, result) {
		raw *= s.cfg.UpsetMultiplier
	}

	change := int(math.Round(raw))
	if change == 0 && raw != 0 {
		// Preserve the sign of a sub-half-point change
		if raw > 0 {
			change = s.cfg.MinChange
		} else {
			change = -s.cfg.MinChange
		}
	} else if change > 0 && change < s.cfg.MinChange {
		change = s.cfg.MinChange
	} else if change < 0 && change > -s.cfg.MinChange {
		change = -s.cfg.MinChange
	}

	rating := player + change
	if rating < s.cfg.MinRating {
		rating = s.cfg.MinRating
	}
	return rating
}

// isUpset reports whether the outcome contradicts the rating gap by at least
// the configured threshold.
func (s *RatingService) isUpset(player, opponent int, result float64) bool {
	switch {
	case result == 1.0:
		return opponent-player >= s.cfg.UpsetThreshold
	case result == 0.0:
		return player-opponent >= s.cfg.UpsetThreshold
	default:
		return false
	}
}

// SeedStartingRating picks a starting rating for a category the player has
// never played, from their ratings in other categories. Only categories with
// an established games count contribute; the carried-over surplus is damped
// by SeedCoefficient and capped at SeedCap so a strong player gets a head
// start but never a free high rating.
func (s *RatingService) SeedStartingRating(otherCategoryRatings []models.RatingRecord) int {
	highest := 0
	for _, rec := range otherCategoryRatings {
		if rec.GamesPlayed < s.cfg.EstablishedGames {
			continue
		}
		if rec.Rating > highest {
			highest = rec.Rating
		}
	}

	if highest <= s.cfg.DefaultRating {
		return s.cfg.DefaultRating
	}

	seeded := s.cfg.DefaultRating + int(math.Round(float64(highest-s.cfg.DefaultRating)*s.cfg.SeedCoefficient))
	if seeded > s.cfg.SeedCap {
		seeded = s.cfg.SeedCap
	}
	if seeded < s.cfg.DefaultRating {
		seeded = s.cfg.DefaultRating
	}
	return seeded
}

// DefaultRating exposes the configured starting rating.
func (s *RatingService) DefaultRating() int {
	return s.cfg.DefaultRating
}

// EstablishedGames exposes the established-tier boundary.
func (s *RatingService) EstablishedGames() int {
	return s.cfg.EstablishedGames
}
