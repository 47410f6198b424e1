package settings

import (
	"context"

	"github.com/stretchr/testify/mock"

	"study-helper/internal/message"
)

// MockSettings is a mock implementation of Settings using testify/mock.
type MockSettings struct {
	mock.Mock
}

func (m *MockSettings) Get(ctx context.Context, p message.Provider) Config {
	args := m.Called(ctx, p)
	return args.Get(0).(Config)
}

func (m *MockSettings) Set(ctx context.Context, p message.Provider, cfg Config) error {
	args := m.Called(ctx, p, cfg)
	return args.Error(0)
}

func (m *MockSettings) SetAutoPanel(ctx context.Context, on bool) error {
	args := m.Called(ctx, on)
	return args.Error(0)
}

// MockBackend is a mock implementation of Backend.
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Load(ctx context.Context, keys []string) (map[string]string, error) {
	args := m.Called(ctx, keys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockBackend) Save(ctx context.Context, values map[string]string) error {
	args := m.Called(ctx, values)
	return args.Error(0)
}

func (m *MockBackend) Close() error {
	args := m.Called()
	return args.Error(0)
}
