package mocks

import (
	"context"
	"image"

	"github.com/stretchr/testify/mock"

	"github.com/ironsheep/docparse-mcp/internal/ocr"
)

// MockWordSource is a mock implementation of pipeline.WordSource.
type MockWordSource struct {
	mock.Mock
}

func (m *MockWordSource) ExtractWords(ctx context.Context, img image.Image) ([]ocr.Word, error) {
	args := m.Called(ctx, img)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ocr.Word), args.Error(1)
}
