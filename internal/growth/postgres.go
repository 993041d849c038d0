package growth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is the Postgres-backed growth state.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a growth store over the given pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const incrementSQL = `
INSERT INTO growth_profiles (couple_id, user_id, balance_count, xp)
VALUES ($1, $2, 1, 0)
ON CONFLICT (couple_id, user_id)
DO UPDATE SET balance_count = growth_profiles.balance_count + 1, updated_at = now()
RETURNING balance_count`

// IncrementParticipation bumps the member's balance-game counter and
// returns the new count.
func (s *PGStore) IncrementParticipation(ctx context.Context, coupleID, userID uuid.UUID) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, incrementSQL, coupleID, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("increment participation: %w", err)
	}
	return count, nil
}

// AddXP adds experience to the member's profile.
func (s *PGStore) AddXP(ctx context.Context, coupleID, userID uuid.UUID, amount int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE growth_profiles SET xp = xp + $3, updated_at = now() WHERE couple_id = $1 AND user_id = $2`,
		coupleID, userID, amount)
	if err != nil {
		return fmt.Errorf("add xp: %w", err)
	}
	return nil
}

// RecordAchievement inserts the achievement id once; a duplicate reports
// created=false.
func (s *PGStore) RecordAchievement(ctx context.Context, coupleID, userID uuid.UUID, achievementID string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO growth_achievements (couple_id, user_id, achievement_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (couple_id, user_id, achievement_id) DO NOTHING`,
		coupleID, userID, achievementID)
	if err != nil {
		return false, fmt.Errorf("record achievement: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
