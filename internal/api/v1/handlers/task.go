package handlers

import (
	"context"
	"strconv"

	"task-manager/internal/middleware"
	"task-manager/internal/models"
	"task-manager/internal/service"
	"task-manager/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const taskNotFound = "Task not found"

type createTaskRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
}

// taskID membaca parameter :id; nilai yang bukan angka dijawab 400.
func taskID(c *fiber.Ctx) (int, bool) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return 0, false
	}
	return id, true
}

func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req createTaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in create task", zap.Error(err))
		return badRequest(c, "Bad request")
	}
	if errs := h.invalidFields(req); len(errs) > 0 {
		return validationFailed(c, errs)
	}

	task, err := h.deps.Tasks.Create(c.UserContext(), user.ID, req.Title, req.Description)
	if err != nil {
		return respondError(c, err, taskNotFound)
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

// ListTasks mendukung query skip, limit, dan completed.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	cfg := h.deps.Config

	opts := service.ListOptions{Skip: 0, Limit: cfg.DefaultLimit}
	var errs []fieldError
	if raw := c.Query("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			errs = append(errs, fieldError{Field: "skip", Message: "must be an integer greater than or equal to 0"})
		}
		opts.Skip = skip
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > cfg.MaxLimit {
			errs = append(errs, fieldError{Field: "limit", Message: "must be an integer between 1 and " + strconv.Itoa(cfg.MaxLimit)})
		}
		opts.Limit = limit
	}
	if raw := c.Query("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, fieldError{Field: "completed", Message: "must be a boolean"})
		}
		opts.Completed = &completed
	}
	if len(errs) > 0 {
		return validationFailed(c, errs)
	}

	page, err := h.deps.Tasks.List(c.UserContext(), user.ID, opts)
	if err != nil {
		return respondError(c, err, taskNotFound)
	}
	return c.JSON(page)
}

func (h *Handlers) GetTask(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	id, ok := taskID(c)
	if !ok {
		return badRequest(c, "Invalid task id")
	}

	task, err := h.deps.Tasks.Get(c.UserContext(), user.ID, id)
	if err != nil {
		return respondError(c, err, taskNotFound)
	}
	return c.JSON(task)
}

// UpdateTask melayani PUT dan PATCH. Hanya field yang dikirim yang diubah;
// "description": null menghapus deskripsi. Body harus JSON dan berisi minimal
// satu field, supaya updated_at tidak berubah tanpa ada perubahan.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	id, ok := taskID(c)
	if !ok {
		return badRequest(c, "Invalid task id")
	}

	if !c.Is("json") {
		return badRequest(c, "Content-Type must be application/json")
	}
	var patch models.TaskPatch
	if err := c.BodyParser(&patch); err != nil {
		logger.ErrorLogger.Error("Bad request in update task", zap.Error(err))
		return badRequest(c, "Bad request")
	}
	if patch.Empty() {
		return validationFailed(c, []fieldError{{Field: "body", Message: "at least one of title, description, completed is required"}})
	}

	task, err := h.deps.Tasks.Update(c.UserContext(), user.ID, id, patch)
	if err != nil {
		return respondError(c, err, taskNotFound)
	}
	return c.JSON(task)
}

func (h *Handlers) CompleteTask(c *fiber.Ctx) error {
	return h.changeCompletion(c, h.deps.Tasks.Complete)
}

func (h *Handlers) IncompleteTask(c *fiber.Ctx) error {
	return h.changeCompletion(c, h.deps.Tasks.Incomplete)
}

func (h *Handlers) changeCompletion(c *fiber.Ctx, change func(ctx context.Context, userID, taskID int) (models.Task, error)) error {
	user := middleware.CurrentUser(c)
	id, ok := taskID(c)
	if !ok {
		return badRequest(c, "Invalid task id")
	}

	task, err := change(c.UserContext(), user.ID, id)
	if err != nil {
		return respondError(c, err, taskNotFound)
	}
	return c.JSON(task)
}

func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	id, ok := taskID(c)
	if !ok {
		return badRequest(c, "Invalid task id")
	}

	removed, err := h.deps.Tasks.Delete(c.UserContext(), user.ID, id)
	if err != nil {
		return respondError(c, err, taskNotFound)
	}
	if !removed {
		return c.Status(fiber.StatusNotFound).JSON(errorBody(fiber.StatusNotFound, taskNotFound))
	}
	return c.JSON(fiber.Map{"message": "Task deleted successfully"})
}
