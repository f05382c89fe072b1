package appointment

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medmeet/medmeet/internal/platform/auth"
	"github.com/medmeet/medmeet/pkg/envelope"
)

const (
	msgRequestSent  = "Request sent successfully"
	msgScheduled    = "Appointment scheduled successfully"
	msgInvalidBody  = "invalid request body"
	msgNotPermitted = "You can only act on your own behalf"
)

type Handler struct {
	svc *Service
	log zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: logger}
}

// RegisterRoutes mounts the appointment endpoints on g, which is expected
// to carry the authentication middleware.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	patient := auth.RequireRole(auth.RolePatient)
	g.POST("/request", h.OpenRequest, patient)
	g.POST("/patient-messages", h.PatientMessages, patient)

	doctor := auth.RequireRole(auth.RoleDoctor)
	g.POST("/schedule", h.Schedule, doctor)
	g.POST("/doctor-messages", h.DoctorMessages, doctor)
}

type listBody struct {
	ID string `json:"id"`
}

func (h *Handler) OpenRequest(c echo.Context) error {
	var cmd OpenRequestCommand
	if err := c.Bind(&cmd); err != nil {
		return envelope.Error(c, http.StatusBadRequest, msgInvalidBody)
	}
	if cmd.SenderID != "" && !auth.CanActAs(c.Request().Context(), cmd.SenderID) {
		return envelope.Error(c, http.StatusForbidden, msgNotPermitted)
	}

	req, err := h.svc.OpenRequest(c.Request().Context(), cmd)
	if err != nil {
		return h.fail(c, err)
	}
	return envelope.Success(c, http.StatusCreated, msgRequestSent, map[string]any{"request": req})
}

func (h *Handler) Schedule(c echo.Context) error {
	var cmd ScheduleCommand
	if err := c.Bind(&cmd); err != nil {
		return envelope.Error(c, http.StatusBadRequest, msgInvalidBody)
	}
	if cmd.DoctorID != "" && !auth.CanActAs(c.Request().Context(), cmd.DoctorID) {
		return envelope.Error(c, http.StatusForbidden, msgNotPermitted)
	}

	resp, err := h.svc.AcceptAndSchedule(c.Request().Context(), cmd)
	if err != nil {
		return h.fail(c, err)
	}
	return envelope.Success(c, http.StatusCreated, msgScheduled, map[string]any{"response": resp})
}

func (h *Handler) PatientMessages(c echo.Context) error {
	var body listBody
	if err := c.Bind(&body); err != nil {
		return envelope.Error(c, http.StatusBadRequest, msgInvalidBody)
	}
	if body.ID != "" && !auth.CanActAs(c.Request().Context(), body.ID) {
		return envelope.Error(c, http.StatusForbidden, msgNotPermitted)
	}

	items, err := h.svc.ListForPatient(c.Request().Context(), body.ID)
	if err != nil {
		return h.fail(c, err)
	}
	return envelope.Success(c, http.StatusOK, "", map[string]any{"messages": items})
}

func (h *Handler) DoctorMessages(c echo.Context) error {
	var body listBody
	if err := c.Bind(&body); err != nil {
		return envelope.Error(c, http.StatusBadRequest, msgInvalidBody)
	}
	if body.ID != "" && !auth.CanActAs(c.Request().Context(), body.ID) {
		return envelope.Error(c, http.StatusForbidden, msgNotPermitted)
	}

	items, err := h.svc.ListForDoctor(c.Request().Context(), body.ID)
	if err != nil {
		return h.fail(c, err)
	}
	return envelope.Success(c, http.StatusOK, "", map[string]any{"messages": items})
}

func (h *Handler) fail(c echo.Context, err error) error {
	kind := KindOf(err)
	if kind != KindUnavailable {
		rid, _ := c.Get("request_id").(string)
		h.log.Debug().
			Str("kind", string(kind)).
			Str("path", c.Path()).
			Str("request_id", rid).
			Msg("appointment operation rejected")
	}
	return envelope.Error(c, HTTPStatus(kind), MessageOf(err))
}
