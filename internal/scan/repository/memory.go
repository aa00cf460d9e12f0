package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/romariotrain/eyescan/internal/scan/models"
	"github.com/romariotrain/eyescan/internal/scan/workflow"
)

var _ SessionRepository = (*MemoryRepository)(nil)

type MemoryRepository struct {
	mu   sync.RWMutex
	data map[uuid.UUID]*workflow.Workflow
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		data: make(map[uuid.UUID]*workflow.Workflow),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, w *workflow.Workflow) error {
	if w == nil || w.ID() == uuid.Nil {
		return models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[w.ID()]; exists {
		return models.ErrConflict
	}
	r.data[w.ID()] = w
	return nil
}

// GetByID returns the live session; workflows guard their own state, so no copy is made.
func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*workflow.Workflow, error) {
	if id == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.data[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return w, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// Sweep drops sessions with no activity since idleSince and returns how many went.
func (r *MemoryRepository) Sweep(ctx context.Context, idleSince time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, w := range r.data {
		if w.LastActive().Before(idleSince) {
			delete(r.data, id)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}
