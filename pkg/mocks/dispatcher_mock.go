package mocks

import (
	"context"

	"github.com/dukex/webmonitor/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockDispatcher is a mock implementation of scheduler.Dispatcher interface.
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, source models.RunSource, urls []string) (string, error) {
	args := m.Called(ctx, source, urls)

	return args.String(0), args.Error(1)
}
