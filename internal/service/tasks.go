package service

import (
	"context"

	"task-manager/internal/models"
	"task-manager/pkg/logger"

	"go.uber.org/zap"
)

type TaskRepository interface {
	Create(ctx context.Context, ownerID int, title string, description *string) (models.Task, error)
	GetOwned(ctx context.Context, ownerID, taskID int) (models.Task, error)
	ListOwned(ctx context.Context, ownerID int, filter models.TaskFilter) ([]models.Task, int, error)
	UpdateOwned(ctx context.Context, ownerID, taskID int, mutate func(*models.Task) error) (models.Task, error)
	DeleteOwned(ctx context.Context, ownerID, taskID int) (bool, error)
	CountOwned(ctx context.Context, ownerID int) (total, completed int, err error)
}

// TaskService menjalankan operasi task yang selalu dibatasi pada pemilik
// (userID hasil resolve token). Tidak ada operasi yang menerima owner dari body.
type TaskService struct {
	repo  TaskRepository
	cache TaskCache
	rules Rules
}

func NewTaskService(repo TaskRepository, cache TaskCache, rules Rules) *TaskService {
	if cache == nil {
		cache = NopCache{}
	}
	return &TaskService{repo: repo, cache: cache, rules: rules}
}

func (s *TaskService) Create(ctx context.Context, userID int, title string, description *string) (models.Task, error) {
	cleanTitle, err := s.rules.cleanTitle(title)
	if err != nil {
		return models.Task{}, err
	}
	var cleanDesc *string
	if description != nil {
		d, err := s.rules.cleanDescription(*description)
		if err != nil {
			return models.Task{}, err
		}
		cleanDesc = &d
	}

	task, err := s.repo.Create(ctx, userID, cleanTitle, cleanDesc)
	if err != nil {
		return models.Task{}, err
	}
	logger.AuditLogger.Info("Task created", zap.Int("task_id", task.ID), zap.Int("user_id", userID))
	return task, nil
}

// Get mengembalikan models.ErrNotFound untuk task yang tidak ada maupun task
// milik user lain; keduanya tidak bisa dibedakan. Entri cache juga dicek
// pemiliknya.
func (s *TaskService) Get(ctx context.Context, userID, taskID int) (models.Task, error) {
	if task, ok := s.cache.Get(ctx, taskID); ok {
		if task.OwnerID != userID {
			return models.Task{}, models.ErrNotFound
		}
		return task, nil
	}
	task, err := s.repo.GetOwned(ctx, userID, taskID)
	if err != nil {
		return models.Task{}, err
	}
	s.cache.Fill(ctx, task)
	return task, nil
}

type ListOptions struct {
	Skip      int
	Limit     int
	Completed *bool
}

func (s *TaskService) List(ctx context.Context, userID int, opts ListOptions) (models.Page[models.Task], error) {
	if opts.Skip < 0 {
		return models.Page[models.Task]{}, invalid("skip", "must be zero or greater")
	}
	if opts.Limit < 1 {
		return models.Page[models.Task]{}, invalid("limit", "must be at least 1")
	}
	items, total, err := s.repo.ListOwned(ctx, userID, models.TaskFilter{
		Completed: opts.Completed,
		Skip:      opts.Skip,
		Limit:     opts.Limit,
	})
	if err != nil {
		return models.Page[models.Task]{}, err
	}
	return models.Page[models.Task]{Items: items, Total: total, Skip: opts.Skip, Limit: opts.Limit}, nil
}

// Update hanya mengubah field yang ada di patch. title null ditolak,
// description null menghapus deskripsi.
func (s *TaskService) Update(ctx context.Context, userID, taskID int, patch models.TaskPatch) (models.Task, error) {
	var (
		title       string
		description *string
	)
	if patch.Title.Set {
		if patch.Title.Null {
			return models.Task{}, invalid("title", "cannot be null")
		}
		t, err := s.rules.cleanTitle(patch.Title.Value)
		if err != nil {
			return models.Task{}, err
		}
		title = t
	}
	if patch.Description.Set && !patch.Description.Null {
		d, err := s.rules.cleanDescription(patch.Description.Value)
		if err != nil {
			return models.Task{}, err
		}
		description = &d
	}
	if patch.Completed.Set && patch.Completed.Null {
		return models.Task{}, invalid("completed", "cannot be null")
	}

	task, err := s.repo.UpdateOwned(ctx, userID, taskID, func(t *models.Task) error {
		if patch.Title.Set {
			t.Title = title
		}
		if patch.Description.Set {
			t.Description = description
		}
		if patch.Completed.Set {
			t.Completed = patch.Completed.Value
		}
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}
	s.cache.Evict(ctx, taskID)
	logger.AuditLogger.Info("Task updated", zap.Int("task_id", taskID), zap.Int("user_id", userID))
	return task, nil
}

// SetCompletion menyetel flag tanpa syarat, jadi pemanggilan ulang tidak
// mengubah apa pun.
func (s *TaskService) SetCompletion(ctx context.Context, userID, taskID int, completed bool) (models.Task, error) {
	task, err := s.repo.UpdateOwned(ctx, userID, taskID, func(t *models.Task) error {
		t.Completed = completed
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}
	s.cache.Evict(ctx, taskID)
	logger.AuditLogger.Info("Task completion set",
		zap.Int("task_id", taskID), zap.Int("user_id", userID), zap.Bool("completed", completed))
	return task, nil
}

func (s *TaskService) Complete(ctx context.Context, userID, taskID int) (models.Task, error) {
	return s.SetCompletion(ctx, userID, taskID, true)
}

func (s *TaskService) Incomplete(ctx context.Context, userID, taskID int) (models.Task, error) {
	return s.SetCompletion(ctx, userID, taskID, false)
}

// Delete melaporkan apakah task milik user benar-benar terhapus.
func (s *TaskService) Delete(ctx context.Context, userID, taskID int) (bool, error) {
	removed, err := s.repo.DeleteOwned(ctx, userID, taskID)
	if err != nil {
		return false, err
	}
	if removed {
		s.cache.Evict(ctx, taskID)
		logger.AuditLogger.Info("Task deleted", zap.Int("task_id", taskID), zap.Int("user_id", userID))
	}
	return removed, nil
}

func (s *TaskService) Statistics(ctx context.Context, userID int) (models.TaskStatistics, error) {
	total, completed, err := s.repo.CountOwned(ctx, userID)
	if err != nil {
		return models.TaskStatistics{}, err
	}
	stats := models.TaskStatistics{
		Total:     total,
		Completed: completed,
		Pending:   total - completed,
	}
	if total > 0 {
		stats.CompletionPercentage = float64(completed) / float64(total) * 100
	}
	return stats, nil
}
