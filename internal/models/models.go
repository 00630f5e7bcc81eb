package models

import (
	"time"
)

type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Task struct {
	ID          int       `json:"id"`
	OwnerID     int       `json:"owner_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskPatch is a partial update. Absent fields are left alone.
type TaskPatch struct {
	Title       Optional[string] `json:"title"`
	Description Optional[string] `json:"description"`
	Completed   Optional[bool]   `json:"completed"`
}

func (p TaskPatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Completed.Set
}

// TaskFilter narrows an owned-task listing.
type TaskFilter struct {
	Completed *bool
	Skip      int
	Limit     int
}

type TaskStatistics struct {
	Total                int     `json:"total"`
	Completed            int     `json:"completed"`
	Pending              int     `json:"pending"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}
