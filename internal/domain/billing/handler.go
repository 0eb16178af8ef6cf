package billing

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/apierr"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/bills", auth.RequireRole(auth.RoleReceptionist))
	g.GET("/medicine", h.ListMedicineBills)
	g.POST("/medicine", h.CreateMedicineBill)
	g.GET("/hospital", h.ListHospitalBills)
	g.POST("/hospital", h.CreateHospitalBill)
}

func (h *Handler) CreateMedicineBill(c echo.Context) error {
	var b MedicineBill
	if err := c.Bind(&b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateMedicineBill(c.Request().Context(), &b); err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) CreateHospitalBill(c echo.Context) error {
	var b HospitalBill
	if err := c.Bind(&b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateHospitalBill(c.Request().Context(), &b); err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) ListMedicineBills(c echo.Context) error {
	items, err := h.svc.ListMedicineBills(c.Request().Context())
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.Page(items, pagination.FromContext(c)))
}

func (h *Handler) ListHospitalBills(c echo.Context) error {
	items, err := h.svc.ListHospitalBills(c.Request().Context())
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.Page(items, pagination.FromContext(c)))
}
