package httpserver

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/videohub/internal/logging"
	"github.com/Skotchmaster/videohub/internal/tokens"
	"github.com/Skotchmaster/videohub/internal/transport"
)

const accountIDKey = "account_id"

type AuthMiddleware struct {
	Tokens       *tokens.Issuer
	CookieSecure bool
}

func NewAuthMiddleware(issuer *tokens.Issuer, cookieSecure bool) *AuthMiddleware {
	return &AuthMiddleware{Tokens: issuer, CookieSecure: cookieSecure}
}

func accessTokenFrom(c echo.Context) string {
	if ck, err := c.Cookie(AccessCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	if tok, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer "); ok {
		return strings.TrimSpace(tok)
	}
	return ""
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context()).With("middleware", "require_auth")

		raw := accessTokenFrom(c)
		if raw == "" {
			l.Warn("auth_failed", "status", 401, "reason", "missing access token")
			return unauthorized("missing access token")
		}

		id, err := m.Tokens.VerifyAccessToken(raw)
		if err != nil {
			l.Warn("auth_failed", "status", 401, "reason", string(tokens.KindOf(err)))
			c.SetCookie(DeleteCookie(AccessCookie, cookiePath, m.CookieSecure))
			return unauthorized("invalid or expired token")
		}

		c.Set(accountIDKey, id)
		req := c.Request()
		c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l.With("account_id", id))))
		return next(c)
	}
}

func accountIDFrom(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(accountIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// errorCode pulls the machine-readable code out of a handler error.
func errorCode(err error) string {
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		return ""
	}
	if body, ok := he.Message.(transport.ErrorResponse); ok {
		return body.Code
	}
	return ""
}

// RequestLogger scopes a logger to the request and writes one http_request
// record once the handler chain returns. The account is known only after
// RequireAuth ran, so it is read back from the echo context at the end.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = c.Response().Header().Get(echo.HeaderXRequestID)
			}

			l := base.With("method", req.Method, "route", c.Path(), "remote_ip", c.RealIP())
			if rid != "" {
				l = l.With("request_id", rid)
				c.Response().Header().Set(echo.HeaderXRequestID, rid)
			}
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Echo().HTTPErrorHandler(err, c)
			}

			status := c.Response().Status
			attrs := []any{"status", status, "duration_ms", time.Since(start).Milliseconds()}
			if id, ok := accountIDFrom(c); ok {
				attrs = append(attrs, "account_id", id)
			}
			if code := errorCode(err); code != "" {
				attrs = append(attrs, "code", code)
			}

			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
				if err != nil {
					attrs = append(attrs, "error", err)
				}
			case status >= 400:
				level = slog.LevelWarn
			default:
				attrs = append(attrs, "bytes", c.Response().Size)
			}
			l.Log(c.Request().Context(), level, "http_request", attrs...)
			return nil
		}
	}
}
