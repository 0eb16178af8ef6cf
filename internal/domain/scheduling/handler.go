package scheduling

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/apierr"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/metrics"
	"github.com/clinicdesk/clinicdesk/pkg/pagination"
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
	g.GET("/appointments", h.ListAppointments)
	g.GET("/appointments/today", h.TodayAppointments)
	g.GET("/appointments/upcoming", h.UpcomingAppointments)
	g.POST("/appointments", h.ScheduleAppointment)
	g.PATCH("/appointments/:id/status", h.UpdateStatus)
}

func (h *Handler) ScheduleAppointment(c echo.Context) error {
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.ScheduleAppointment(c.Request().Context(), &a); err != nil {
		return apierr.HTTP(err)
	}
	h.metrics.AppointmentScheduled()
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, err := h.svc.ListAppointments(c.Request().Context())
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.Page(items, pg))
}

func (h *Handler) TodayAppointments(c echo.Context) error {
	items, err := h.svc.TodayAppointments(c.Request().Context())
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":        len(items),
		"appointments": items,
	})
}

func (h *Handler) UpcomingAppointments(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	items, err := h.svc.UpcomingAppointments(c.Request().Context(), limit)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":        len(items),
		"appointments": items,
	})
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.UpdateStatus(c.Request().Context(), c.Param("id"), body.Status)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}
