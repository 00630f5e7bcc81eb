package middleware

import (
	"fmt"
	"runtime/debug"
	"time"

	"task-manager/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// ErrorHandler menangkap panic dan mencatat setiap request beserta request id,
// status, dan latency.
func ErrorHandler() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		start := time.Now()

		requestID := c.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDHeader, requestID)
		c.Locals("requestID", requestID)

		defer func() {
			if r := recover(); r != nil {
				logger.ErrorLogger.Error(fmt.Sprintf("Recovered from panic: %v", r),
					zap.String("request_id", requestID),
					zap.String("stack", string(debug.Stack())),
				)
				err = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"message": "Internal server error",
					"success": false,
					"status":  fiber.StatusInternalServerError,
				})
			}

			logger.RequestLogger.Info("Request handled",
				zap.String("request_id", requestID),
				zap.String("method", c.Method()),
				zap.String("url", c.OriginalURL()),
				zap.Int("status", c.Response().StatusCode()),
				zap.Duration("latency", time.Since(start)),
			)
		}()

		// error dijawab di sini agar status yang di-log sudah final
		if chainErr := c.Next(); chainErr != nil {
			if herr := c.App().Config().ErrorHandler(c, chainErr); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		return nil
	}
}
