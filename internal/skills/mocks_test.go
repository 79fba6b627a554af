package skills

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRepository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) AddSkillXP(ctx context.Context, playerID, skill string, amount int64) (int64, error) {
	args := m.Called(ctx, playerID, skill, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) GetSkillXP(ctx context.Context, playerID, skill string) (int64, error) {
	args := m.Called(ctx, playerID, skill)
	return args.Get(0).(int64), args.Error(1)
}
