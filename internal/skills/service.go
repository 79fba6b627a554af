// Package skills tracks per-player skill experience and levels.
package skills

import (
	"context"
	"fmt"

	"github.com/osse101/realmkeeper/internal/broadcast"
	"github.com/osse101/realmkeeper/internal/domain"
	"github.com/osse101/realmkeeper/internal/logger"
	"github.com/osse101/realmkeeper/internal/metrics"
	"github.com/osse101/realmkeeper/internal/repository"
)

// Service defines the skill operations
type Service interface {
	AwardXP(ctx context.Context, playerID, skill string, amount int64) (*domain.XPAwardResult, error)
	GetProgress(ctx context.Context, playerID, skill string) (*domain.XPAwardResult, error)
}

type service struct {
	repo     repository.Skills
	notifier broadcast.Notifier
}

// NewService creates a new skills service
func NewService(repo repository.Skills, notifier broadcast.Notifier) Service {
	return &service{
		repo:     repo,
		notifier: notifier,
	}
}

// AwardXP adds XP to a skill and tells the player about the new total and level
func (s *service) AwardXP(ctx context.Context, playerID, skill string, amount int64) (*domain.XPAwardResult, error) {
	log := logger.FromContext(ctx)

	if playerID == "" || skill == "" {
		return nil, fmt.Errorf("%w: player and skill are required", domain.ErrInvalidInput)
	}
	if amount <= 0 || amount > MaxAward {
		return nil, fmt.Errorf("%w: xp amount %d out of range", domain.ErrInvalidInput, amount)
	}

	total, err := s.repo.AddSkillXP(ctx, playerID, skill, amount)
	if err != nil {
		return nil, fmt.Errorf("%w: add skill xp: %w", domain.ErrPersistenceFailure, err)
	}

	oldLevel := Level(total - amount)
	newLevel := Level(total)
	result := &domain.XPAwardResult{
		PlayerID:  playerID,
		Skill:     skill,
		XPGained:  amount,
		TotalXP:   total,
		Level:     newLevel,
		LeveledUp: newLevel > oldLevel,
	}

	metrics.XPAwarded.WithLabelValues(skill).Add(float64(amount))
	log.Info(LogMsgXPAwarded, "player_id", playerID, "skill", skill, "amount", amount, "total", total)
	if result.LeveledUp {
		log.Info(LogMsgLevelUp, "player_id", playerID, "skill", skill, "level", newLevel)
	}

	s.notifier.SendTo(playerID, domain.MsgXPAwarded, domain.XPAwardedPayload{
		Skill:     skill,
		XP:        total,
		Level:     newLevel,
		LeveledUp: result.LeveledUp,
	})
	return result, nil
}

// GetProgress returns the stored total and level of a skill
func (s *service) GetProgress(ctx context.Context, playerID, skill string) (*domain.XPAwardResult, error) {
	total, err := s.repo.GetSkillXP(ctx, playerID, skill)
	if err != nil {
		return nil, fmt.Errorf("%w: get skill xp: %w", domain.ErrPersistenceFailure, err)
	}
	return &domain.XPAwardResult{
		PlayerID: playerID,
		Skill:    skill,
		TotalXP:  total,
		Level:    Level(total),
	}, nil
}
