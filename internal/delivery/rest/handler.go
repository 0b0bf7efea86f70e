package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"GuardianWatchService/internal/models"
	"GuardianWatchService/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// DirectoryService описывает операции с учетными записями
type DirectoryService interface {
	CreateUser(ctx context.Context, req *models.SignupRequest) (*models.User, error)
	FindByIdentifier(ctx context.Context, loginID string) (*models.User, error)
	IdentifierAvailable(ctx context.Context, loginID string) (bool, error)
}

// SessionService описывает операции с сессиями
type SessionService interface {
	Authenticate(ctx context.Context, loginID, password string) (*models.Session, error)
	CurrentUser(ctx context.Context, token string) (string, error)
	Terminate(ctx context.Context, token string) error
}

// MonitorService описывает операции с журналами
type MonitorService interface {
	UpdateStatus(ctx context.Context, loginID string) (*models.StatusRecord, error)
	LatestStatuses(ctx context.Context, loginID string, limit int) ([]models.StatusRecord, error)
	UpdatePosture(ctx context.Context, loginID string) (*models.PostureRecord, error)
	LatestPostures(ctx context.Context, loginID string, limit int) ([]models.PostureRecord, error)
}

// CookieConfig описывает cookie сессии
type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// Handler обрабатывает HTTP запросы API
type Handler struct {
	directory DirectoryService
	sessions  SessionService
	monitor   MonitorService
	cookie    CookieConfig
	logger    *zap.Logger
}

// NewHandler создает новый экземпляр Handler
func NewHandler(directory DirectoryService, sessions SessionService, monitor MonitorService, cookie CookieConfig, logger *zap.Logger) *Handler {
	return &Handler{
		directory: directory,
		sessions:  sessions,
		monitor:   monitor,
		cookie:    cookie,
		logger:    logger,
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

type availabilityResponse struct {
	Available bool `json:"available"`
}

type loginStateResponse struct {
	IsLoggedIn bool `json:"is_logged_in"`
}

type csrfTokenResponse struct {
	CSRFToken string `json:"csrfToken"`
}

// Signup регистрирует пользователя
func (h *Handler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid request body"})
	}

	if _, err := h.directory.CreateUser(c.Request().Context(), &req); err != nil {
		return h.fail(c, "signup", err)
	}

	return c.JSON(http.StatusCreated, messageResponse{Message: "signup completed"})
}

// CheckID сообщает, свободен ли идентификатор
func (h *Handler) CheckID(c echo.Context) error {
	var req models.CheckIDRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid request body"})
	}

	available, err := h.directory.IdentifierAvailable(c.Request().Context(), req.ID)
	if err != nil {
		return h.fail(c, "check_id", err)
	}

	return c.JSON(http.StatusOK, availabilityResponse{Available: available})
}

// Login проверяет учетные данные и выдает cookie сессии
func (h *Handler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid request body"})
	}

	session, err := h.sessions.Authenticate(c.Request().Context(), req.ID, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "wrong password"})
		case errors.Is(err, apperrors.ErrNotFound):
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "unknown id"})
		}
		return h.fail(c, "login", err)
	}

	c.SetCookie(h.sessionCookie(session.Token, h.cookie.TTL))
	return c.JSON(http.StatusOK, messageResponse{Message: "login succeeded"})
}

// Logout завершает сессию; без сессии тоже отвечает успехом
func (h *Handler) Logout(c echo.Context) error {
	if token := h.sessionToken(c); token != "" {
		if err := h.sessions.Terminate(c.Request().Context(), token); err != nil {
			h.logger.Warn("Logout could not delete session", zap.Error(err))
		}
	}

	c.SetCookie(h.sessionCookie("", -1))
	return c.JSON(http.StatusOK, messageResponse{Message: "logout completed"})
}

// CheckLogin сообщает, есть ли у запроса действующая сессия
func (h *Handler) CheckLogin(c echo.Context) error {
	_, err := h.sessions.CurrentUser(c.Request().Context(), h.sessionToken(c))
	if err != nil && !errors.Is(err, apperrors.ErrUnauthenticated) {
		h.logger.Warn("Session lookup failed", zap.Error(err))
	}

	return c.JSON(http.StatusOK, loginStateResponse{IsLoggedIn: err == nil})
}

// CSRFToken возвращает токен CSRF; cookie выставляет middleware
func (h *Handler) CSRFToken(c echo.Context) error {
	token, _ := c.Get(csrfContextKey).(string)
	if token == "" {
		token = uuid.NewString()
	}
	return c.JSON(http.StatusOK, csrfTokenResponse{CSRFToken: token})
}

// UserInfo возвращает имя и возраст текущего пользователя
func (h *Handler) UserInfo(c echo.Context) error {
	user, err := h.directory.FindByIdentifier(c.Request().Context(), currentLoginID(c))
	if err != nil {
		return h.fail(c, "user_info", err)
	}

	return c.JSON(http.StatusOK, models.UserInfoResponse{Name: user.Name, Age: user.Age})
}

// UpdateStatus добавляет запись статуса
func (h *Handler) UpdateStatus(c echo.Context) error {
	record, err := h.monitor.UpdateStatus(c.Request().Context(), currentLoginID(c))
	if err != nil {
		return h.fail(c, "update_status", err)
	}
	return c.JSON(http.StatusOK, record)
}

// GetStatus возвращает последние записи статуса
func (h *Handler) GetStatus(c echo.Context) error {
	records, err := h.monitor.LatestStatuses(c.Request().Context(), currentLoginID(c), queryLimit(c))
	if err != nil {
		return h.fail(c, "get_status", err)
	}
	return c.JSON(http.StatusOK, models.StatusHistoryResponse{Statuses: records})
}

// UpdatePosture добавляет запись позы
func (h *Handler) UpdatePosture(c echo.Context) error {
	record, err := h.monitor.UpdatePosture(c.Request().Context(), currentLoginID(c))
	if err != nil {
		return h.fail(c, "update_posture", err)
	}
	return c.JSON(http.StatusOK, record)
}

// GetPosture возвращает последние записи позы
func (h *Handler) GetPosture(c echo.Context) error {
	records, err := h.monitor.LatestPostures(c.Request().Context(), currentLoginID(c), queryLimit(c))
	if err != nil {
		return h.fail(c, "get_posture", err)
	}
	return c.JSON(http.StatusOK, models.PostureHistoryResponse{Postures: records})
}

// queryLimit читает ?limit=; некорректное значение означает значение по умолчанию
func queryLimit(c echo.Context) int {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil {
		return 0
	}
	return models.ClampHistoryLimit(limit)
}

func (h *Handler) sessionToken(c echo.Context) string {
	cookie, err := c.Cookie(h.cookie.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (h *Handler) sessionCookie(value string, ttl time.Duration) *http.Cookie {
	cookie := &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
	} else {
		cookie.MaxAge = int(ttl.Seconds())
	}
	return cookie
}
