package rest

import (
	"context"
	"errors"
	"net/http"

	"GuardianWatchService/pkg/apperrors"
	"GuardianWatchService/pkg/resilience"
	"GuardianWatchService/pkg/server"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// statusFor сопоставляет ошибку с HTTP кодом и сообщением для клиента
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrDuplicateIdentifier):
		return http.StatusBadRequest, "id already exists"
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusBadRequest, "wrong password"
	case errors.Is(err, apperrors.ErrUnauthenticated):
		return http.StatusUnauthorized, "login required"
	case apperrors.IsNotFound(err):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request timed out"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// fail отвечает клиенту сообщением об ошибке; сбои сервера попадают в лог
func (h *Handler) fail(c echo.Context, operation string, err error) error {
	code, message := statusFor(err)
	if code >= http.StatusInternalServerError {
		server.WithRequestID(c.Request().Context(), h.logger).Error("Request failed",
			zap.String("operation", operation),
			zap.Error(err))
	}
	return c.JSON(code, messageResponse{Message: message})
}
