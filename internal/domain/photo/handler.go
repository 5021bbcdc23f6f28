package photo

import (
	"net/http"
	"strconv"
	"time"

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

// RegisterRoutes mounts the photo routes on an authenticated group. All of
// them are patient-facing.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.Use(auth.RequirePatient())
	g.POST("/upload", h.Upload)
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/timeline/progress", h.Progress)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

func (h *Handler) Upload(c echo.Context) error {
	patientID, err := callerID(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("photo")
	if err != nil {
		return httperr.BadRequest("NO_FILE", "no photo file provided")
	}
	f, err := fh.Open()
	if err != nil {
		return httperr.BadRequest("NO_FILE", "no photo file provided")
	}
	defer f.Close()

	in := UploadInput{
		Content:     f,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	}
	if v := c.FormValue("skinScore"); v != "" {
		score, err := strconv.Atoi(v)
		if err != nil {
			return httperr.BadRequest("INVALID_SKIN_SCORE", "skin score must be a number")
		}
		in.SkinScore = score
	}
	if v := c.FormValue("notes"); v != "" {
		in.Notes = &v
	}
	if v := c.FormValue("captureDate"); v != "" {
		d, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return httperr.BadRequest(httperr.CodeValidation, "captureDate must be RFC 3339")
		}
		in.CaptureDate = d
	}
	if v := c.FormValue("appointmentId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return httperr.BadRequest(httperr.CodeValidation, "appointmentId must be a UUID")
		}
		in.AppointmentID = &id
	}

	p, err := h.svc.Upload(c.Request().Context(), patientID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
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
	p, err := h.svc.Create(c.Request().Context(), patientID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) List(c echo.Context) error {
	patientID, err := callerID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, progress, err := h.svc.List(c.Request().Context(), patientID,
		c.QueryParam("sortBy"), pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	if items == nil {
		items = []*SkinPhoto{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"photos":       items,
		"progressData": progress,
		"pagination":   pagination.NewMeta(pg, total),
	})
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
	p, err := h.svc.Get(c.Request().Context(), patientID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
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
	p, err := h.svc.Update(c.Request().Context(), patientID, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
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
	return c.JSON(http.StatusOK, map[string]string{"message": "photo deleted"})
}

func (h *Handler) Progress(c echo.Context) error {
	patientID, err := callerID(c)
	if err != nil {
		return err
	}
	days := 30
	if v := c.QueryParam("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}
	t, err := h.svc.Progress(c.Request().Context(), patientID, days)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.IdentityFrom(c).UserID)
	if err != nil {
		return uuid.Nil, httperr.Unauthorized(httperr.CodeUserNotFound, "user not found")
	}
	return id, nil
}
