package directory

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medmeet/medmeet/pkg/envelope"
	"github.com/medmeet/medmeet/pkg/pagination"
)

type Handler struct {
	svc *Service
	log zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: logger}
}

// RegisterRoutes mounts the directory on g. "/all" is kept for clients of
// the original doctors listing.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListDoctors)
	g.GET("/all", h.ListDoctors)
	g.GET("/:id", h.GetDoctor)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	page := pagination.FromContext(c)
	doctors, total, err := h.svc.ListDoctors(c.Request().Context(),
		Filter{Specialty: c.QueryParam("specialty")}, page)
	if err != nil {
		h.log.Error().Err(err).Msg("list doctors")
		return envelope.Error(c, http.StatusInternalServerError, "Failed to fetch doctors")
	}
	return envelope.Success(c, http.StatusOK, "", map[string]any{
		"count":   len(doctors),
		"total":   total,
		"hasMore": page.HasNext(total),
		"doctors": doctors,
	})
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return envelope.Error(c, http.StatusNotFound, "Doctor not found")
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if errors.Is(err, ErrDoctorNotFound) {
		return envelope.Error(c, http.StatusNotFound, "Doctor not found")
	}
	if err != nil {
		h.log.Error().Err(err).Msg("get doctor")
		return envelope.Error(c, http.StatusInternalServerError, "Failed to fetch doctor")
	}
	return envelope.Success(c, http.StatusOK, "", map[string]any{"doctor": d})
}
