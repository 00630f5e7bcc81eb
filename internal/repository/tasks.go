package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"task-manager/internal/models"
)

const taskColumns = "id, owner_id, title, description, completed, created_at, updated_at"

// TaskRepository menyimpan task. Semua query selalu difilter dengan owner_id.
type TaskRepository struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func NewTaskRepository(db *sql.DB, dialect Dialect) *TaskRepository {
	return &TaskRepository{db: db, dialect: dialect, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var (
		t                    models.Task
		description          sql.NullString
		createdAt, updatedAt int64
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &description, &t.Completed, &createdAt, &updatedAt); err != nil {
		return models.Task{}, err
	}
	if description.Valid {
		d := description.String
		t.Description = &d
	}
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	return t, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func (r *TaskRepository) Create(ctx context.Context, ownerID int, title string, description *string) (models.Task, error) {
	now := toMillis(r.now())
	row := r.db.QueryRowContext(ctx,
		r.dialect.rebind("INSERT INTO tasks (owner_id, title, description, completed, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?) RETURNING "+taskColumns),
		ownerID, title, nullable(description), false, now, now,
	)
	task, err := scanTask(row)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

// GetOwned mengembalikan models.ErrNotFound untuk task yang tidak ada maupun
// task milik user lain.
func (r *TaskRepository) GetOwned(ctx context.Context, ownerID, taskID int) (models.Task, error) {
	row := r.db.QueryRowContext(ctx,
		r.dialect.rebind("SELECT "+taskColumns+" FROM tasks WHERE id = ? AND owner_id = ?"),
		taskID, ownerID,
	)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, models.ErrNotFound
		}
		return models.Task{}, fmt.Errorf("select task: %w", err)
	}
	return task, nil
}

// ListOwned mengembalikan satu halaman task milik owner (urut id) dan jumlah
// seluruh task yang cocok dengan filter.
func (r *TaskRepository) ListOwned(ctx context.Context, ownerID int, filter models.TaskFilter) ([]models.Task, int, error) {
	where := []string{"owner_id = ?"}
	args := []any{ownerID}
	if filter.Completed != nil {
		where = append(where, "completed = ?")
		args = append(args, *filter.Completed)
	}
	clause := " WHERE " + strings.Join(where, " AND ")

	var (
		tasks = []models.Task{}
		total int
	)
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, r.dialect.rebind("SELECT COUNT(*) FROM tasks"+clause), args...).Scan(&total); err != nil {
			return fmt.Errorf("count tasks: %w", err)
		}

		pageArgs := append(append([]any{}, args...), filter.Limit, filter.Skip)
		rows, err := tx.QueryContext(ctx,
			r.dialect.rebind("SELECT "+taskColumns+" FROM tasks"+clause+" ORDER BY id LIMIT ? OFFSET ?"),
			pageArgs...,
		)
		if err != nil {
			return fmt.Errorf("select tasks: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			task, err := scanTask(rows)
			if err != nil {
				return fmt.Errorf("scan task: %w", err)
			}
			tasks = append(tasks, task)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate tasks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// UpdateOwned membaca task milik owner, menjalankan mutate, lalu menyimpannya
// kembali dalam satu transaksi. mutate boleh mengembalikan error untuk batal.
func (r *TaskRepository) UpdateOwned(ctx context.Context, ownerID, taskID int, mutate func(*models.Task) error) (models.Task, error) {
	var updated models.Task
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			r.dialect.rebind("SELECT "+taskColumns+" FROM tasks WHERE id = ? AND owner_id = ?"+r.dialect.forUpdate()),
			taskID, ownerID,
		)
		task, err := scanTask(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return models.ErrNotFound
			}
			return fmt.Errorf("select task for update: %w", err)
		}

		if err := mutate(&task); err != nil {
			return err
		}
		task.UpdatedAt = fromMillis(toMillis(r.now()))

		_, err = tx.ExecContext(ctx,
			r.dialect.rebind("UPDATE tasks SET title = ?, description = ?, completed = ?, updated_at = ? WHERE id = ? AND owner_id = ?"),
			task.Title, nullable(task.Description), task.Completed, toMillis(task.UpdatedAt), taskID, ownerID,
		)
		if err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		updated = task
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}
	return updated, nil
}

// DeleteOwned melaporkan apakah ada task yang benar-benar terhapus.
func (r *TaskRepository) DeleteOwned(ctx context.Context, ownerID, taskID int) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.dialect.rebind("DELETE FROM tasks WHERE id = ? AND owner_id = ?"), taskID, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	return n > 0, nil
}

// CountOwned mengembalikan jumlah total dan jumlah task selesai milik owner.
func (r *TaskRepository) CountOwned(ctx context.Context, ownerID int) (total, completed int, err error) {
	err = r.db.QueryRowContext(ctx,
		r.dialect.rebind("SELECT COUNT(*), COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0) FROM tasks WHERE owner_id = ?"),
		ownerID,
	).Scan(&total, &completed)
	if err != nil {
		return 0, 0, fmt.Errorf("count tasks: %w", err)
	}
	return total, completed, nil
}
