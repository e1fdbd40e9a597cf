package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/videohub/internal/logging"
	"github.com/Skotchmaster/videohub/internal/models"
	"github.com/Skotchmaster/videohub/internal/service"
	"github.com/Skotchmaster/videohub/internal/transport"
)

type RelationsHTTP struct {
	Svc *service.ToggleService
}

func (h *RelationsHTTP) toggle(kind models.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("handler", "toggle."+string(kind))

		actor, ok := accountIDFrom(c)
		if !ok {
			return unauthorized("missing account")
		}

		target, err := uuid.Parse(c.Param("id"))
		if err != nil {
			l.Warn("toggle_error", "status", 400, "reason", "id is not uuid", "error", err)
			return badRequest("id is not uuid")
		}

		res, err := h.Svc.Toggle(ctx, actor, target, kind)
		if err != nil {
			return httpError(err)
		}

		resp := transport.ToggleResponse{State: string(res.State)}
		if res.Counted {
			resp.Count = &res.Count
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func (h *RelationsHTTP) LikeVideo() echo.HandlerFunc   { return h.toggle(models.KindVideoLike) }
func (h *RelationsHTTP) LikeComment() echo.HandlerFunc { return h.toggle(models.KindCommentLike) }
func (h *RelationsHTTP) LikeTweet() echo.HandlerFunc   { return h.toggle(models.KindTweetLike) }
func (h *RelationsHTTP) Subscribe() echo.HandlerFunc   { return h.toggle(models.KindSubscription) }
