package prescription

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clearaf/api/internal/platform/auth"
	"github.com/clearaf/api/internal/platform/httperr"
	"github.com/clearaf/api/internal/platform/request"
	"github.com/clearaf/api/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the prescription routes on an authenticated group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.Create, auth.RequireDermatologist())
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update, auth.RequireDermatologist())
}

func (h *Handler) Create(c echo.Context) error {
	dermID, err := uuid.Parse(auth.IdentityFrom(c).UserID)
	if err != nil {
		return httperr.Unauthorized(httperr.CodeUserNotFound, "user not found")
	}
	var req CreateRequest
	if err := request.Bind(c, &req); err != nil {
		return err
	}
	p, err := h.svc.Create(c.Request().Context(), dermID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), auth.IdentityFrom(c),
		c.QueryParam("status"), pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Prescription{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"prescriptions": items,
		"pagination":    pagination.NewMeta(pg, total),
	})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errNotFound
	}
	p, err := h.svc.Get(c.Request().Context(), auth.IdentityFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Update(c echo.Context) error {
	dermID, err := uuid.Parse(auth.IdentityFrom(c).UserID)
	if err != nil {
		return httperr.Unauthorized(httperr.CodeUserNotFound, "user not found")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errNotFound
	}
	var req UpdateRequest
	if err := request.Bind(c, &req); err != nil {
		return err
	}
	p, err := h.svc.Update(c.Request().Context(), dermID, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
