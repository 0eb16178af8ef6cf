package identity

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/apierr"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/metrics"
)

type Handler struct {
	svc     *Service
	metrics *metrics.Collector
}

func NewHandler(svc *Service, m *metrics.Collector) *Handler {
	return &Handler{svc: svc, metrics: m}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleReceptionist))
	g.POST("/patients", h.RegisterPatient)
	g.GET("/patients/registrations/today", h.NewRegistrations)
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RegisterPatient(c.Request().Context(), &p); err != nil {
		return apierr.HTTP(err)
	}
	h.metrics.PatientRegistered()
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) NewRegistrations(c echo.Context) error {
	items, err := h.svc.NewRegistrations(c.Request().Context())
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":    len(items),
		"patients": items,
	})
}
