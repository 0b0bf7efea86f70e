package rest

import (
	"errors"
	"net/http"

	"GuardianWatchService/pkg/apperrors"

	"github.com/labstack/echo/v4"
)

const loginIDContextKey = "login_id"

// RequireSession пропускает запрос только при действующей сессии
// и кладет идентификатор пользователя в контекст echo
func (h *Handler) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		loginID, err := h.sessions.CurrentUser(c.Request().Context(), h.sessionToken(c))
		if err != nil {
			if errors.Is(err, apperrors.ErrUnauthenticated) {
				return c.JSON(http.StatusUnauthorized, messageResponse{Message: "login required"})
			}
			return h.fail(c, "session_lookup", err)
		}

		c.Set(loginIDContextKey, loginID)
		return next(c)
	}
}

func currentLoginID(c echo.Context) string {
	loginID, _ := c.Get(loginIDContextKey).(string)
	return loginID
}
