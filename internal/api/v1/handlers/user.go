package handlers

import (
	"task-manager/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func (h *Handlers) Me(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	return c.JSON(fiber.Map{
		"id":       user.ID,
		"username": user.Username,
	})
}

// DeleteMe menghapus akun sendiri beserta semua task miliknya.
func (h *Handlers) DeleteMe(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if err := h.deps.Users.Delete(c.UserContext(), user.ID); err != nil {
		return respondError(c, err, "User not found")
	}
	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}

// Statistics dipakai oleh /auth/statistics dan /tasks/statistics.
func (h *Handlers) Statistics(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	stats, err := h.deps.Tasks.Statistics(c.UserContext(), user.ID)
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(stats)
}
