package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/osse101/realmkeeper/internal/domain"
)

// MockPinger mocks the store ping
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockPlayerLister mocks the session manager
type MockPlayerLister struct {
	mock.Mock
}

func (m *MockPlayerLister) Players() []domain.PlayerSummary {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.PlayerSummary)
}

func (m *MockPlayerLister) Count() int {
	args := m.Called()
	return args.Int(0)
}

// MockWorldItems mocks the world registry
type MockWorldItems struct {
	mock.Mock
}

func (m *MockWorldItems) ListAll() []domain.WorldItem {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.WorldItem)
}

func (m *MockWorldItems) Spawn(ctx context.Context, itemType string, pos domain.Vec3, quantity int) (domain.WorldItem, error) {
	args := m.Called(ctx, itemType, pos, quantity)
	return args.Get(0).(domain.WorldItem), args.Error(1)
}

func (m *MockWorldItems) Remove(ctx context.Context, instanceID string) bool {
	args := m.Called(ctx, instanceID)
	return args.Bool(0)
}

// MockSkills mocks skills.Service
type MockSkills struct {
	mock.Mock
}

func (m *MockSkills) AwardXP(ctx context.Context, playerID, skill string, amount int64) (*domain.XPAwardResult, error) {
	args := m.Called(ctx, playerID, skill, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.XPAwardResult), args.Error(1)
}

func (m *MockSkills) GetProgress(ctx context.Context, playerID, skill string) (*domain.XPAwardResult, error) {
	args := m.Called(ctx, playerID, skill)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.XPAwardResult), args.Error(1)
}
