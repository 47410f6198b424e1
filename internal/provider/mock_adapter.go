package provider

import (
	"context"

	"github.com/stretchr/testify/mock"

	"study-helper/internal/message"
	"study-helper/internal/settings"
)

// MockAdapter is a mock implementation of Adapter using testify/mock.
type MockAdapter struct {
	mock.Mock
}

func (m *MockAdapter) Send(ctx context.Context, req message.Request, cfg settings.Config) message.Result {
	args := m.Called(ctx, req, cfg)
	return args.Get(0).(message.Result)
}
