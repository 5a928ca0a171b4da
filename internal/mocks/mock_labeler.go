package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ironsheep/docparse-mcp/internal/labeling"
)

// MockLabeler is a mock implementation of labeling.Labeler.
type MockLabeler struct {
	mock.Mock
}

func (m *MockLabeler) Label(ctx context.Context, page labeling.Page) (*labeling.Labels, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*labeling.Labels), args.Error(1)
}

func (m *MockLabeler) Info(ctx context.Context) (labeling.ModelInfo, error) {
	args := m.Called(ctx)
	return args.Get(0).(labeling.ModelInfo), args.Error(1)
}
