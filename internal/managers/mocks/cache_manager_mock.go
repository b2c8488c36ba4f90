package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"contacts-server/internal/schemas"
)

type MockCacheManager struct {
	mock.Mock
}

func (m *MockCacheManager) GetUser(ctx context.Context, email string) (*schemas.CachedUser, error) {
	args := m.Called(ctx, email)
	if user := args.Get(0); user != nil {
		return user.(*schemas.CachedUser), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCacheManager) SetUser(ctx context.Context, email string, user *schemas.CachedUser, ttl time.Duration) error {
	args := m.Called(ctx, email, user, ttl)
	return args.Error(0)
}

func (m *MockCacheManager) InvalidateUser(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}
