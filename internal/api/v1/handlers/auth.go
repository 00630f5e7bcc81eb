package handlers

import (
	"errors"

	"task-manager/internal/middleware"
	"task-manager/internal/models"
	"task-manager/internal/service"
	"task-manager/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type credentialsRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// Register membuat user baru dan mengembalikan {id, username}.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in register", zap.Error(err))
		return badRequest(c, "Bad request")
	}
	if errs := h.invalidFields(req); len(errs) > 0 {
		return validationFailed(c, errs)
	}

	user, err := h.deps.Users.Register(c.UserContext(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			logger.AuditLogger.Warn("Validation error during register", zap.Error(err))
		case errors.Is(err, models.ErrDuplicateUsername):
			logger.SecurityLogger.Warn("Duplicate username", zap.String("username", req.Username))
		}
		return respondError(c, err, "User not found")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":       user.ID,
		"username": user.Username,
	})
}

// Login menerima form (OAuth2 password flow) atau JSON dan mengembalikan
// bearer token.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in login", zap.Error(err))
		return badRequest(c, "Bad request")
	}
	if errs := h.invalidFields(req); len(errs) > 0 {
		return validationFailed(c, errs)
	}

	user, err := h.deps.Users.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			logger.SecurityLogger.Warn("Failed login", zap.String("username", req.Username), zap.String("ip", c.IP()))
			return middleware.Unauthorized(c, "Incorrect username or password")
		}
		return respondError(c, err, "User not found")
	}

	token, err := h.deps.Tokens.Issue(user.Username, h.deps.Config.TokenTTL())
	if err != nil {
		return respondError(c, err, "")
	}

	logger.AuditLogger.Info("Login success", zap.Int("user_id", user.ID))
	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
	})
}
