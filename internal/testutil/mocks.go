package testutil

import (
	"context"

	"myfitguide/internal/domain"
	"myfitguide/internal/gateway"

	"github.com/stretchr/testify/mock"
)

// MockProfileCacheRepository is a mock for ProfileCacheRepository
type MockProfileCacheRepository struct {
	mock.Mock
}

func (m *MockProfileCacheRepository) Load(chatID int64) ([]byte, error) {
	args := m.Called(chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockProfileCacheRepository) Store(chatID int64, payload []byte) error {
	args := m.Called(chatID, payload)
	return args.Error(0)
}

func (m *MockProfileCacheRepository) Clear(chatID int64) error {
	args := m.Called(chatID)
	return args.Error(0)
}

func (m *MockProfileCacheRepository) CleanStale(days int) (int64, error) {
	args := m.Called(days)
	return args.Get(0).(int64), args.Error(1)
}

// MockGateway is a mock for the remote API
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Register(ctx context.Context, reg domain.Registration) (*gateway.AuthResult, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.AuthResult), args.Error(1)
}

func (m *MockGateway) Login(ctx context.Context, creds domain.Credentials) (*gateway.AuthResult, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.AuthResult), args.Error(1)
}

func (m *MockGateway) SubmitDiet(ctx context.Context, profile domain.DietProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockGateway) SubmitRoutine(ctx context.Context, prefs domain.RoutinePreferences) error {
	args := m.Called(ctx, prefs)
	return args.Error(0)
}

func (m *MockGateway) FetchProfile(ctx context.Context, userID domain.UserID) (*domain.AggregatedProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AggregatedProfile), args.Error(1)
}
