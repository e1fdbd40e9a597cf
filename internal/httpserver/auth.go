package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/videohub/internal/logging"
	"github.com/Skotchmaster/videohub/internal/service"
	"github.com/Skotchmaster/videohub/internal/transport"
)

type AuthHTTP struct {
	Svc          *service.AuthService
	CookieSecure bool
}

func (h *AuthHTTP) setSessionCookies(c echo.Context, pair service.TokenPair) {
	c.SetCookie(CreateCookie(AccessCookie, pair.AccessToken, cookiePath, pair.AccessExp, h.CookieSecure))
	c.SetCookie(CreateCookie(RefreshCookie, pair.RefreshToken, cookiePath, pair.RefreshExp, h.CookieSecure))
}

func (h *AuthHTTP) clearSessionCookies(c echo.Context) {
	c.SetCookie(DeleteCookie(RefreshCookie, cookiePath, h.CookieSecure))
	c.SetCookie(DeleteCookie(AccessCookie, cookiePath, h.CookieSecure))
}

func tokenResponse(pair service.TokenPair) transport.TokenResponse {
	return transport.TokenResponse{
		AccessToken:      pair.AccessToken,
		AccessExpiresAt:  pair.AccessExp,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExp,
	}
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return badRequest("invalid body")
	}

	acc, err := h.Svc.Register(ctx, service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, transport.ProfileFrom(acc))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return badRequest("invalid body")
	}

	res, err := h.Svc.Login(ctx, service.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return httpError(err)
	}

	h.setSessionCookies(c, res.Tokens)
	l.Info("login_successful", "account_id", res.Account.ID)

	return c.JSON(http.StatusOK, transport.LoginResponse{
		User:          transport.ProfileFrom(res.Account),
		TokenResponse: tokenResponse(res.Tokens),
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	presented := ""
	if ck, err := c.Cookie(RefreshCookie); err == nil {
		presented = ck.Value
	}
	if presented == "" {
		var req transport.RefreshRequest
		if err := c.Bind(&req); err != nil {
			l.Warn("refresh_error", "status", 400, "error", err)
			return badRequest("invalid body")
		}
		presented = req.RefreshToken
	}

	pair, err := h.Svc.Refresh(ctx, presented)
	if err != nil {
		// a store outage must not log the client out
		if errors.Is(err, service.ErrUnauthorized) {
			h.clearSessionCookies(c)
		}
		return httpError(err)
	}

	h.setSessionCookies(c, *pair)
	l.Info("refresh_successful")
	return c.JSON(http.StatusOK, tokenResponse(*pair))
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	id, ok := accountIDFrom(c)
	if !ok {
		return unauthorized("missing account")
	}

	if err := h.Svc.LogOut(ctx, id); err != nil {
		h.clearSessionCookies(c)
		return httpError(err)
	}

	h.clearSessionCookies(c)
	l.Info("successful_logout")
	return c.JSON(http.StatusOK, echo.Map{
		"message": "logged out",
	})
}

func (h *AuthHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_change_password")

	id, ok := accountIDFrom(c)
	if !ok {
		return unauthorized("missing account")
	}

	var req transport.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("change_password_error", "status", 400, "error", err)
		return badRequest("invalid body")
	}

	if err := h.Svc.ChangePassword(ctx, id, req.OldPassword, req.NewPassword); err != nil {
		return httpError(err)
	}

	// the refresh slot was emptied with the hash, so the cookies are dead too
	h.clearSessionCookies(c)
	l.Info("change_password_successful")
	return c.JSON(http.StatusOK, echo.Map{
		"message": "password changed",
	})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()

	id, ok := accountIDFrom(c)
	if !ok {
		return unauthorized("missing account")
	}

	acc, err := h.Svc.CurrentAccount(ctx, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, transport.ProfileFrom(acc))
}
