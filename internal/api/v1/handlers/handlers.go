package handlers

import (
	"errors"

	"task-manager/internal/auth"
	"task-manager/internal/config"
	"task-manager/internal/middleware"
	"task-manager/internal/models"
	"task-manager/internal/service"
	"task-manager/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handlers memegang dependency yang dipakai semua endpoint.
type Handlers struct {
	deps *config.Dependencies
}

func New(deps *config.Dependencies) *Handlers {
	return &Handlers{deps: deps}
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func errorBody(status int, message string) fiber.Map {
	return fiber.Map{
		"message": message,
		"success": false,
		"status":  status,
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorBody(fiber.StatusBadRequest, message))
}

func validationFailed(c *fiber.Ctx, errs []fieldError) error {
	body := errorBody(fiber.StatusBadRequest, "Validation error")
	body["errors"] = errs
	return c.Status(fiber.StatusBadRequest).JSON(body)
}

// invalidFields menjalankan tag validate pada DTO request dan mengembalikan
// field yang gagal.
func (h *Handlers) invalidFields(req any) []fieldError {
	err := h.deps.Validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []fieldError{{Field: "body", Message: err.Error()}}
	}
	errs := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, fieldError{Field: fe.Field(), Message: "failed on " + fe.Tag()})
	}
	return errs
}

// respondError memetakan error service ke status HTTP. notFound adalah pesan
// untuk models.ErrNotFound.
func respondError(c *fiber.Ctx, err error, notFound string) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return validationFailed(c, []fieldError{{Field: verr.Field, Message: verr.Message}})
	case errors.Is(err, models.ErrDuplicateUsername):
		return c.Status(fiber.StatusConflict).JSON(errorBody(fiber.StatusConflict, "Username already registered"))
	case errors.Is(err, service.ErrInvalidCredentials):
		return middleware.Unauthorized(c, "Incorrect username or password")
	case errors.Is(err, auth.ErrUnauthenticated):
		return middleware.Unauthorized(c, "Could not validate credentials")
	case errors.Is(err, models.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(errorBody(fiber.StatusNotFound, notFound))
	}
	logger.ErrorLogger.Error("Unhandled error",
		zap.String("method", c.Method()),
		zap.String("url", c.OriginalURL()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(errorBody(fiber.StatusInternalServerError, "Internal server error"))
}

// ErrorHandler dipasang di fiber.Config untuk error yang lolos dari handler
// (route tidak ada, method salah, body terlalu besar).
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		code = ferr.Code
		message = ferr.Message
	} else {
		logger.ErrorLogger.Error("Unhandled error", zap.String("url", c.OriginalURL()), zap.Error(err))
	}
	return c.Status(code).JSON(errorBody(code, message))
}

func (h *Handlers) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Welcome to " + h.deps.Config.AppName,
		"version": h.deps.Config.AppVersion,
	})
}

// Health melakukan ping ke database, dan ke Redis jika cache aktif.
func (h *Handlers) Health(c *fiber.Ctx) error {
	if err := h.deps.DB.PingContext(c.UserContext()); err != nil {
		logger.ErrorLogger.Error("Health check failed", zap.String("component", "database"), zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unhealthy"})
	}
	if h.deps.RedisClient != nil {
		if err := h.deps.RedisClient.Ping(c.UserContext()).Err(); err != nil {
			logger.ErrorLogger.Error("Health check failed", zap.String("component", "redis"), zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unhealthy"})
		}
	}
	return c.JSON(fiber.Map{"status": "healthy"})
}
