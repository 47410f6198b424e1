package ui

import (
	"context"

	"github.com/stretchr/testify/mock"

	"study-helper/internal/coordinator"
	"study-helper/internal/message"
	"study-helper/internal/settings"
)

// MockService is a mock implementation of Service using testify/mock.
type MockService struct {
	mock.Mock
}

func (m *MockService) Ask(ctx context.Context, p message.Provider, req message.Request) message.Result {
	args := m.Called(ctx, p, req)
	return args.Get(0).(message.Result)
}

func (m *MockService) Settings(ctx context.Context, p message.Provider) (settings.Config, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(settings.Config), args.Error(1)
}

func (m *MockService) UpdateSettings(ctx context.Context, p message.Provider, u coordinator.SettingsUpdate) (settings.Config, error) {
	args := m.Called(ctx, p, u)
	return args.Get(0).(settings.Config), args.Error(1)
}

func (m *MockService) SendToTab(ctx context.Context, tabID string, ev message.Event) error {
	args := m.Called(ctx, tabID, ev)
	return args.Error(0)
}
