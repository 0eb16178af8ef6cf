package medication

import (
	"net/http"

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
	g.GET("/prescriptions", h.ListPrescriptions)
	g.POST("/prescriptions", h.IssuePrescription)
}

func (h *Handler) IssuePrescription(c echo.Context) error {
	var p Prescription
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.IssuePrescription(c.Request().Context(), &p); err != nil {
		return apierr.HTTP(err)
	}
	h.metrics.PrescriptionIssued()
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListPrescriptions(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, err := h.svc.ListPrescriptions(c.Request().Context(), c.QueryParam("patient"))
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.Page(items, pg))
}
