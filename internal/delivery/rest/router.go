package rest

import (
	"net/http"
	"time"

	"GuardianWatchService/config"
	"GuardianWatchService/pkg/server"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const csrfContextKey = "csrf"

// NewRouter собирает echo с middleware и маршрутами API
func NewRouter(h *Handler, cfg *config.Config, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(middleware.AddTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(server.EchoTracingMiddleware(logger))
	e.Use(server.EchoMetricsMiddleware())
	if cfg.HTTP.RequestTimeout > 0 {
		e.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
			Timeout: cfg.HTTP.RequestTimeout,
		}))
	}
	if cfg.CSRF.Enabled {
		e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
			TokenLookup:    "header:" + cfg.CSRF.Header,
			CookieName:     cfg.CSRF.CookieName,
			CookiePath:     "/",
			CookieMaxAge:   int((365 * 24 * time.Hour).Seconds()),
			CookieSameSite: http.SameSiteLaxMode,
			CookieSecure:   cfg.Session.Secure,
			ContextKey:     csrfContextKey,
		}))
	}

	api := e.Group("/api")
	api.POST("/signup/", h.Signup)
	api.POST("/check_id/", h.CheckID)
	api.POST("/login/", h.Login)
	api.POST("/logout/", h.Logout)
	api.GET("/check_login/", h.CheckLogin)
	api.GET("/csrf_token/", h.CSRFToken)

	api.GET("/user_info/", h.UserInfo, h.RequireSession)
	api.POST("/update_status/", h.UpdateStatus, h.RequireSession)
	api.GET("/get_status/", h.GetStatus, h.RequireSession)
	api.POST("/update_posture/", h.UpdatePosture, h.RequireSession)
	api.GET("/get_posture/", h.GetPosture, h.RequireSession)

	return e
}
