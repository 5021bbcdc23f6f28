package identity

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
	svc      *Service
	verifier auth.CredentialVerifier
}

func NewHandler(svc *Service, verifier auth.CredentialVerifier) *Handler {
	return &Handler{svc: svc, verifier: verifier}
}

// RegisterAuthRoutes mounts the /api/auth routes. register, login, and
// status are public; me and sync-profile require the authn middleware.
func (h *Handler) RegisterAuthRoutes(g *echo.Group, authn echo.MiddlewareFunc) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.GET("/status", h.Status)
	g.GET("/me", h.Me, authn)
	g.POST("/sync-profile", h.SyncProfile, authn)
}

// RegisterUserRoutes mounts the /api/users routes on an authenticated group.
func (h *Handler) RegisterUserRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PATCH("/profile", h.UpdateProfile)
	g.POST("/skin-score", h.RecordSkinScore, auth.RequirePatient())
	g.GET("/stats", h.Stats)
	g.POST("/assign-dermatologist", h.AssignDermatologist, auth.RequireDermatologist())
	g.GET("", h.ListPatients, auth.RequireDermatologist())
	g.GET("/patients", h.PatientSummaries, auth.RequireDermatologist())
	g.GET("/:id", h.GetPatient, auth.RequireDermatologist())
}

func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := request.Bind(c, &req); err != nil {
		return err
	}
	resp, err := h.svc.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := request.Bind(c, &req); err != nil {
		return err
	}
	resp, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// Status is a soft auth probe: it never returns 401, only whether the
// request's token resolves to a known user.
func (h *Handler) Status(c echo.Context) error {
	token := auth.BearerToken(c)
	if token == "" {
		return c.JSON(http.StatusOK, map[string]interface{}{"authenticated": false})
	}
	id, err := h.verifier.Verify(c.Request().Context(), token)
	if err != nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"authenticated": false})
	}
	if id.Role == "" {
		role, rerr := h.svc.ResolveRole(c.Request().Context(), id.Email)
		if rerr != nil {
			return rerr
		}
		id.Role = role
	}
	user, err := h.svc.CurrentUser(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"authenticated": false})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"authenticated": true,
		"user":          user,
		"userType":      string(id.Role),
	})
}

func (h *Handler) Me(c echo.Context) error {
	id := auth.IdentityFrom(c)
	user, err := h.svc.CurrentUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user":     user,
		"userType": string(id.Role),
	})
}

func (h *Handler) SyncProfile(c echo.Context) error {
	var req SyncProfileRequest
	if err := request.Bind(c, &req); err != nil {
		return err
	}
	p, err := h.svc.SyncProfile(c.Request().Context(), auth.IdentityFrom(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"user": p})
}

func (h *Handler) GetProfile(c echo.Context) error {
	user, err := h.svc.CurrentUser(c.Request().Context(), auth.IdentityFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	id := auth.IdentityFrom(c)
	uid, err := uuid.Parse(id.UserID)
	if err != nil {
		return httperr.Unauthorized(httperr.CodeUserNotFound, "user not found")
	}

	if id.Role == auth.RoleDermatologist {
		var req UpdateDermatologistProfileRequest
		if err := request.Bind(c, &req); err != nil {
			return err
		}
		d, err := h.svc.UpdateDermatologistProfile(c.Request().Context(), uid, req)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, d)
	}

	var req UpdatePatientProfileRequest
	if err := request.Bind(c, &req); err != nil {
		return err
	}
	p, err := h.svc.UpdatePatientProfile(c.Request().Context(), uid, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) RecordSkinScore(c echo.Context) error {
	id := auth.IdentityFrom(c)
	uid, err := uuid.Parse(id.UserID)
	if err != nil {
		return httperr.Unauthorized(httperr.CodeUserNotFound, "user not found")
	}
	var req SkinScoreRequest
	if err := request.Bind(c, &req); err != nil {
		return err
	}
	p, err := h.svc.RecordSkinScore(c.Request().Context(), uid, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Stats(c echo.Context) error {
	id := auth.IdentityFrom(c)
	uid, err := uuid.Parse(id.UserID)
	if err != nil {
		return httperr.Unauthorized(httperr.CodeUserNotFound, "user not found")
	}
	if id.Role == auth.RoleDermatologist {
		stats, err := h.svc.DermatologistStats(c.Request().Context(), uid)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, stats)
	}
	stats, err := h.svc.PatientStats(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) AssignDermatologist(c echo.Context) error {
	var req AssignDermatologistRequest
	if err := request.Bind(c, &req); err != nil {
		return err
	}
	if err := h.svc.AssignDermatologist(c.Request().Context(), req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "assigned"})
}

func (h *Handler) ListPatients(c echo.Context) error {
	dermID, err := uuid.Parse(auth.IdentityFrom(c).UserID)
	if err != nil {
		return httperr.Unauthorized(httperr.CodeUserNotFound, "user not found")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPatients(c.Request().Context(), dermID,
		c.QueryParam("search"), pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Patient{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"patients":   items,
		"pagination": pagination.NewMeta(pg, total),
	})
}

func (h *Handler) PatientSummaries(c echo.Context) error {
	dermID, err := uuid.Parse(auth.IdentityFrom(c).UserID)
	if err != nil {
		return httperr.Unauthorized(httperr.CodeUserNotFound, "user not found")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.PatientSummaries(c.Request().Context(), dermID, pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	if items == nil {
		items = []*PatientSummary{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"patients":   items,
		"pagination": pagination.NewMeta(pg, total),
	})
}

func (h *Handler) GetPatient(c echo.Context) error {
	dermID, err := uuid.Parse(auth.IdentityFrom(c).UserID)
	if err != nil {
		return httperr.Unauthorized(httperr.CodeUserNotFound, "user not found")
	}
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.NotFound("PATIENT_NOT_FOUND", "patient not found")
	}
	p, err := h.svc.PatientByID(c.Request().Context(), dermID, patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
