package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/support-portal/internal/observability"
	apperrors "github.com/spec-kit/support-portal/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
}

// ErrorHandler renders errors that escape the middleware chain, such as unknown routes.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		domainErr := toDomainError(err)
		if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
			logger.Error("request failed", zap.Error(domainErr))
		}
		return writeError(c, domainErr)
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				route := c.Path()
				if r := c.Route(); r != nil && r.Path != "" {
					route = r.Path
				}
				metrics.RecordError(route, c.Method(), domainErr.Code)
				if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
					logger.Error("request failed", zap.String("path", c.Path()), zap.Error(domainErr))
				}
				_ = writeError(c, domainErr)
				err = nil
			}
		}()
		return c.Next()
	}
}

func writeError(c *fiber.Ctx, domainErr *apperrors.DomainError) error {
	body := fiber.Map{
		"code":    domainErr.Code,
		"message": domainErr.Message,
	}
	if len(domainErr.Details) > 0 {
		body["details"] = domainErr.Details
	}
	return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": body})
}

// toDomainError also maps framework errors such as 404 and 405 responses.
func toDomainError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		switch fiberErr.Code {
		case fiber.StatusNotFound:
			return apperrors.ToDomainError(apperrors.NewNotFound("route", nil))
		case fiber.StatusUnauthorized:
			return apperrors.ToDomainError(apperrors.NewUnauthorized(fiberErr.Message))
		case fiber.StatusForbidden:
			return apperrors.ToDomainError(apperrors.NewForbidden(fiberErr.Message))
		case fiber.StatusTooManyRequests:
			return apperrors.ToDomainError(apperrors.NewRateLimited(fiberErr.Message))
		}
		if fiberErr.Code < fiber.StatusInternalServerError {
			return apperrors.NewDomainError(apperrors.CodeValidation, fiberErr.Message, fiberErr.Code, nil)
		}
	}
	return apperrors.ToDomainError(err)
}
