package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/romariotrain/eyescan/internal/scan/models"
	"github.com/romariotrain/eyescan/internal/scan/workflow"
)

type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) Create(ctx context.Context, w *workflow.Workflow) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

func (m *StoreMock) GetByID(ctx context.Context, id uuid.UUID) (*workflow.Workflow, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*workflow.Workflow), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *StoreMock) Sweep(ctx context.Context, idleSince time.Time) (int, error) {
	args := m.Called(ctx, idleSince)
	return args.Int(0), args.Error(1)
}

type ClassifierMock struct {
	mock.Mock
}

func (m *ClassifierMock) Classify(ctx context.Context, c models.UploadCandidate) (models.ClassificationResult, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(models.ClassificationResult), args.Error(1)
}

type RecommenderMock struct {
	mock.Mock
}

func (m *RecommenderMock) Recommend(ctx context.Context, key models.RecommendationKey) (models.RecommendationResult, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(models.RecommendationResult), args.Error(1)
}
