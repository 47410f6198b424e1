package bus

import (
	"context"

	"github.com/stretchr/testify/mock"

	"study-helper/internal/message"
)

// MockBus is a mock implementation of Bus using testify/mock.
type MockBus struct {
	mock.Mock
}

func (m *MockBus) SendToTab(ctx context.Context, tabID string, ev message.Event) error {
	args := m.Called(ctx, tabID, ev)
	return args.Error(0)
}

func (m *MockBus) Listen(ctx context.Context, tabID string, handler Handler) error {
	args := m.Called(ctx, tabID, handler)
	return args.Error(0)
}

func (m *MockBus) Close() error {
	args := m.Called()
	return args.Error(0)
}
