package growth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Achievement is a target-based milestone over the balance-game
// participation count.
type Achievement struct {
	ID     string
	Target int
}

// The built-in balance-game milestones.
var balanceAchievements = []Achievement{
	{ID: "balance-first", Target: 1},
	{ID: "balance-5", Target: 5},
	{ID: "balance-10", Target: 10},
	{ID: "balance-30", Target: 30},
	{ID: "balance-50", Target: 50},
	{ID: "balance-100", Target: 100},
}

// Store persists per-member growth state. RecordAchievement reports
// created=false when the achievement id is already recorded, which is
// what makes repeated grant checks idempotent.
type Store interface {
	IncrementParticipation(ctx context.Context, coupleID, userID uuid.UUID) (int, error)
	AddXP(ctx context.Context, coupleID, userID uuid.UUID, amount int) error
	RecordAchievement(ctx context.Context, coupleID, userID uuid.UUID, achievementID string) (created bool, err error)
}

// GrantResult reports what one participation grant awarded.
type GrantResult struct {
	XP              int
	NewAchievements []string
}

// Service grants the fixed participation reward and threshold bonuses.
type Service struct {
	store           Store
	participationXP int
	bonusXP         int
	logger          zerolog.Logger
}

// NewService creates a growth service.
func NewService(store Store, participationXP, bonusXP int, logger zerolog.Logger) *Service {
	if participationXP <= 0 {
		participationXP = 10
	}
	if bonusXP <= 0 {
		bonusXP = 50
	}
	return &Service{
		store:           store,
		participationXP: participationXP,
		bonusXP:         bonusXP,
		logger:          logger.With().Str("component", "growth").Logger(),
	}
}

// GrantParticipation awards the fixed reward for a first (non-edit)
// answer of the day and any newly crossed achievement thresholds. An
// achievement already recorded is never granted again, no matter how
// often the submit flow re-runs past its threshold.
func (s *Service) GrantParticipation(ctx context.Context, coupleID, userID uuid.UUID) (GrantResult, error) {
	count, err := s.store.IncrementParticipation(ctx, coupleID, userID)
	if err != nil {
		return GrantResult{}, fmt.Errorf("increment participation: %w", err)
	}

	result := GrantResult{XP: s.participationXP}
	if err := s.store.AddXP(ctx, coupleID, userID, s.participationXP); err != nil {
		return GrantResult{}, fmt.Errorf("grant participation xp: %w", err)
	}

	for _, a := range balanceAchievements {
		if count < a.Target {
			continue
		}
		created, err := s.store.RecordAchievement(ctx, coupleID, userID, a.ID)
		if err != nil {
			return result, fmt.Errorf("record achievement %s: %w", a.ID, err)
		}
		if !created {
			continue
		}
		if err := s.store.AddXP(ctx, coupleID, userID, s.bonusXP); err != nil {
			return result, fmt.Errorf("grant achievement xp: %w", err)
		}
		result.XP += s.bonusXP
		result.NewAchievements = append(result.NewAchievements, a.ID)
		s.logger.Info().
			Str("user_id", userID.String()).
			Str("achievement", a.ID).
			Int("count", count).
			Msg("achievement granted")
	}

	return result, nil
}
