package outbox

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/romariotrain/eyescan/internal/scan/kafka"
)

type TargetMock struct {
	mock.Mock
}

func (m *TargetMock) PublishBatch(ctx context.Context, messages []kafka.Message) error {
	args := m.Called(ctx, messages)
	return args.Error(0)
}
