package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/videohub/internal/service"
	"github.com/Skotchmaster/videohub/internal/transport"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// httpError maps a service error onto the JSON error body. Token and store
// details stay in the logs.
func httpError(err error) *echo.HTTPError {
	status := statusOf(err)
	msg := err.Error()
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		msg = "invalid username or password"
	case errors.Is(err, service.ErrUnauthorized):
		msg = "invalid or expired token"
	case status == http.StatusInternalServerError:
		msg = "internal server error"
	}
	return echo.NewHTTPError(status, transport.ErrorResponse{Code: service.Code(err), Message: msg})
}

func badRequest(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, transport.ErrorResponse{Code: "validation_error", Message: msg})
}

func unauthorized(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnauthorized, transport.ErrorResponse{Code: "unauthorized", Message: msg})
}
