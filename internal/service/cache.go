package service

import (
	"context"

	"task-manager/internal/models"
)

// TaskCache is a best-effort read cache keyed by task id. Implementations
// swallow their own errors; the database stays the source of truth.
//
// Fill only stores into an empty slot. Evict leaves a short-lived marker that
// makes later Fills no-ops, so a read that loaded a row before a concurrent
// update or delete cannot put the old copy back.
type TaskCache interface {
	Get(ctx context.Context, taskID int) (models.Task, bool)
	Fill(ctx context.Context, task models.Task)
	Evict(ctx context.Context, taskID int)
}

type NopCache struct{}

func (NopCache) Get(context.Context, int) (models.Task, bool) { return models.Task{}, false }
func (NopCache) Fill(context.Context, models.Task)            {}
func (NopCache) Evict(context.Context, int)                   {}
