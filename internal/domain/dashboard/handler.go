package dashboard

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clearaf/api/internal/platform/auth"
	"github.com/clearaf/api/internal/platform/httperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the dashboard routes on an authenticated group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/stats", h.Stats, auth.RequireDermatologist())
}

func (h *Handler) Stats(c echo.Context) error {
	dermID, err := uuid.Parse(auth.IdentityFrom(c).UserID)
	if err != nil {
		return httperr.Unauthorized(httperr.CodeUserNotFound, "user not found")
	}
	stats, err := h.svc.Stats(c.Request().Context(), dermID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
