package routine

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clearaf/api/internal/platform/auth"
	"github.com/clearaf/api/internal/platform/httperr"
	"github.com/clearaf/api/internal/platform/request"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the routine routes on an authenticated group. All of
// them are patient-facing.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.Use(auth.RequirePatient())
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/complete", h.Complete)
}

func (h *Handler) List(c echo.Context) error {
	patientID, err := callerID(c)
	if err != nil {
		return err
	}
	routines, err := h.svc.List(c.Request().Context(), patientID)
	if err != nil {
		return err
	}
	if routines == nil {
		routines = []*Routine{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"routines": routines})
}

func (h *Handler) Create(c echo.Context) error {
	patientID, err := callerID(c)
	if err != nil {
		return err
	}
	var req CreateRequest
	if err := request.Bind(c, &req); err != nil {
		return err
	}
	rt, err := h.svc.Create(c.Request().Context(), patientID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rt)
}

func (h *Handler) Get(c echo.Context) error {
	patientID, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errNotFound
	}
	rt, err := h.svc.Get(c.Request().Context(), patientID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rt)
}

func (h *Handler) Update(c echo.Context) error {
	patientID, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errNotFound
	}
	var req UpdateRequest
	if err := request.Bind(c, &req); err != nil {
		return err
	}
	rt, err := h.svc.Update(c.Request().Context(), patientID, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rt)
}

func (h *Handler) Delete(c echo.Context) error {
	patientID, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errNotFound
	}
	if err := h.svc.Delete(c.Request().Context(), patientID, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "routine deleted"})
}

func (h *Handler) Complete(c echo.Context) error {
	patientID, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errNotFound
	}
	rt, err := h.svc.Complete(c.Request().Context(), patientID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rt)
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.IdentityFrom(c).UserID)
	if err != nil {
		return uuid.Nil, httperr.Unauthorized(httperr.CodeUserNotFound, "user not found")
	}
	return id, nil
}
