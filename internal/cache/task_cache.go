package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"task-manager/internal/models"
	"task-manager/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// evictedMarker menggantikan entri yang di-evict selama evictWindow. Selama
// marker ada, Fill (SETNX) tidak menulis apa pun, jadi pembacaan yang kalah
// balapan dengan update/delete tidak bisa mengembalikan salinan lama.
const (
	evictedMarker = "evicted"
	evictWindow   = time.Minute
)

// TaskCache menyimpan task dalam bentuk JSON di Redis dengan key task:<id>.
// Semua error Redis hanya di-log; pemanggil selalu bisa fallback ke database.
type TaskCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTaskCache(client *redis.Client, ttl time.Duration) *TaskCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TaskCache{client: client, ttl: ttl}
}

func taskKey(id int) string {
	return fmt.Sprintf("task:%d", id)
}

func (c *TaskCache) Get(ctx context.Context, id int) (models.Task, bool) {
	raw, err := c.client.Get(ctx, taskKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.ErrorLogger.Error("Error reading task cache", zap.Int("task_id", id), zap.Error(err))
		}
		return models.Task{}, false
	}
	if string(raw) == evictedMarker {
		return models.Task{}, false
	}
	var task models.Task
	if err := json.Unmarshal(raw, &task); err != nil {
		logger.ErrorLogger.Error("Corrupt task cache entry", zap.Int("task_id", id), zap.Error(err))
		c.Evict(ctx, id)
		return models.Task{}, false
	}
	return task, true
}

// Fill hanya menulis jika key belum ada (entri maupun marker).
func (c *TaskCache) Fill(ctx context.Context, task models.Task) {
	taskJSON, err := json.Marshal(task)
	if err != nil {
		logger.ErrorLogger.Error("Error encoding task for cache", zap.Int("task_id", task.ID), zap.Error(err))
		return
	}
	if err := c.client.SetNX(ctx, taskKey(task.ID), taskJSON, c.ttl).Err(); err != nil {
		logger.ErrorLogger.Error("Error writing task cache", zap.Int("task_id", task.ID), zap.Error(err))
	}
}

// Evict menimpa entri dengan marker yang berlaku selama evictWindow.
func (c *TaskCache) Evict(ctx context.Context, id int) {
	if err := c.client.Set(ctx, taskKey(id), evictedMarker, evictWindow).Err(); err != nil {
		logger.ErrorLogger.Error("Error evicting task cache", zap.Int("task_id", id), zap.Error(err))
	}
}
