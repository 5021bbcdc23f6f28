package message

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

// RegisterRoutes mounts the message routes on an authenticated group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/send", h.Send, auth.RequirePatient())
	g.POST("/reply", h.Reply, auth.RequireDermatologist())
	g.GET("/conversation/:id", h.Conversation)
	g.GET("/conversations", h.Inbox, auth.RequireDermatologist())
}

func (h *Handler) Send(c echo.Context) error {
	patientID, err := uuid.Parse(auth.IdentityFrom(c).UserID)
	if err != nil {
		return httperr.Unauthorized(httperr.CodeUserNotFound, "user not found")
	}
	var req SendRequest
	if err := request.Bind(c, &req); err != nil {
		return err
	}
	m, err := h.svc.Send(c.Request().Context(), patientID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) Reply(c echo.Context) error {
	dermID, err := uuid.Parse(auth.IdentityFrom(c).UserID)
	if err != nil {
		return httperr.Unauthorized(httperr.CodeUserNotFound, "user not found")
	}
	var req ReplyRequest
	if err := request.Bind(c, &req); err != nil {
		return err
	}
	m, err := h.svc.Reply(c.Request().Context(), dermID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, m)
}

// Conversation returns the caller's thread with the counterpart named in the
// path: patients pass a dermatologist id, dermatologists a patient id.
func (h *Handler) Conversation(c echo.Context) error {
	id := auth.IdentityFrom(c)
	uid, err := uuid.Parse(id.UserID)
	if err != nil {
		return httperr.Unauthorized(httperr.CodeUserNotFound, "user not found")
	}
	other, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.NotFound(httperr.CodeNotFound, "conversation not found")
	}

	var items []*Message
	if id.Role == auth.RoleDermatologist {
		items, err = h.svc.DermatologistConversation(c.Request().Context(), uid, other)
	} else {
		items, err = h.svc.PatientConversation(c.Request().Context(), uid, other)
	}
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Message{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"messages": items})
}

func (h *Handler) Inbox(c echo.Context) error {
	dermID, err := uuid.Parse(auth.IdentityFrom(c).UserID)
	if err != nil {
		return httperr.Unauthorized(httperr.CodeUserNotFound, "user not found")
	}
	items, err := h.svc.Inbox(c.Request().Context(), dermID)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*ConversationSummary{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"conversations": items})
}
