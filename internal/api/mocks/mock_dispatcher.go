package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/uptc/quejas-notifier/internal/event"
)

// MockDispatcher is a mock implementation of api.Dispatcher.
type MockDispatcher struct {
	mock.Mock
}

//nolint:revive
func (m *MockDispatcher) Dispatch(ev *event.ReportViewed) error {
	args := m.Called(ev)
	return args.Error(0)
}

//nolint:revive
func (m *MockDispatcher) Enabled() bool {
	args := m.Called()
	return args.Bool(0)
}
