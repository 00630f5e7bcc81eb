package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"task-manager/internal/models"
)

type UserRepository struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func NewUserRepository(db *sql.DB, dialect Dialect) *UserRepository {
	return &UserRepository{db: db, dialect: dialect, now: time.Now}
}

// Create inserts a user. A taken username yields models.ErrDuplicateUsername.
func (r *UserRepository) Create(ctx context.Context, username, passwordHash string) (models.User, error) {
	createdAt := r.now()
	var id int
	err := r.db.QueryRowContext(ctx,
		r.dialect.rebind("INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?) RETURNING id"),
		username, passwordHash, toMillis(createdAt),
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, models.ErrDuplicateUsername
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return models.User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    fromMillis(toMillis(createdAt)),
	}, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (models.User, error) {
	var (
		u         models.User
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		r.dialect.rebind("SELECT id, username, password_hash, created_at FROM users WHERE username = ?"),
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, models.ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}
	u.CreatedAt = fromMillis(createdAt)
	return u, nil
}

// DeleteWithTasks removes the user and every task they own in one
// transaction and returns the ids of the removed tasks.
func (r *UserRepository) DeleteWithTasks(ctx context.Context, id int) ([]int, error) {
	var taskIDs []int
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, r.dialect.rebind("SELECT id FROM tasks WHERE owner_id = ?"), id)
		if err != nil {
			return fmt.Errorf("select owned tasks: %w", err)
		}
		for rows.Next() {
			var taskID int
			if err := rows.Scan(&taskID); err != nil {
				rows.Close()
				return fmt.Errorf("scan task id: %w", err)
			}
			taskIDs = append(taskIDs, taskID)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("iterate task ids: %w", err)
		}
		rows.Close()

		if _, err := tx.ExecContext(ctx, r.dialect.rebind("DELETE FROM tasks WHERE owner_id = ?"), id); err != nil {
			return fmt.Errorf("delete owned tasks: %w", err)
		}
		res, err := tx.ExecContext(ctx, r.dialect.rebind("DELETE FROM users WHERE id = ?"), id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if n == 0 {
			return models.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return taskIDs, nil
}

// withTx runs fn in a transaction, committing on nil and rolling back otherwise.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
