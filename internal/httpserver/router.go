package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/videohub/internal/metrics"
)

type Deps struct {
	AuthHandler      *AuthHTTP
	RelationsHandler *RelationsHTTP
	AuthMW           *AuthMiddleware
	Metrics          *metrics.Metrics
	// Ready reports whether dependencies such as the database are reachable.
	Ready func(ctx context.Context) error
}

func NewEcho(logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(RequestLogger(logger))
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))

	auth := e.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh-token", d.AuthHandler.Refresh)

	private := auth.Group("", d.AuthMW.RequireAuth)
	private.POST("/logout", d.AuthHandler.LogOut)
	private.POST("/change-password", d.AuthHandler.ChangePassword)
	private.GET("/me", d.AuthHandler.Me)

	e.POST("/videos/:id/like", d.RelationsHandler.LikeVideo(), d.AuthMW.RequireAuth)
	e.POST("/comments/:id/like", d.RelationsHandler.LikeComment(), d.AuthMW.RequireAuth)
	e.POST("/tweets/:id/like", d.RelationsHandler.LikeTweet(), d.AuthMW.RequireAuth)
	e.POST("/channels/:id/subscribe", d.RelationsHandler.Subscribe(), d.AuthMW.RequireAuth)
}
