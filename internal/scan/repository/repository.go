package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/romariotrain/eyescan/internal/scan/workflow"
)

// SessionRepository keeps scan sessions for the lifetime of the process.
type SessionRepository interface {
	Create(ctx context.Context, w *workflow.Workflow) error
	GetByID(ctx context.Context, id uuid.UUID) (*workflow.Workflow, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Sweep(ctx context.Context, idleSince time.Time) (int, error)
}
