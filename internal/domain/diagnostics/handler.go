package diagnostics

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
	g := api.Group("", auth.RequireRole(auth.RoleReceptionist))
	g.GET("/reports", h.ListReports)
	g.GET("/reports/pending", h.PendingReports)
	g.POST("/reports", h.UploadReport)
	g.PATCH("/reports/:id/status", h.UpdateStatus)
}

// UploadReport stores report metadata. When uploaded_by is omitted the
// authenticated user is recorded.
func (h *Handler) UploadReport(c echo.Context) error {
	var r Report
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if r.UploadedBy == "" {
		r.UploadedBy = auth.UserIDFromContext(c.Request().Context())
	}
	if err := h.svc.UploadReport(c.Request().Context(), &r); err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) ListReports(c echo.Context) error {
	items, err := h.svc.ListReports(c.Request().Context())
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.Page(items, pagination.FromContext(c)))
}

func (h *Handler) PendingReports(c echo.Context) error {
	q, err := h.svc.PendingReports(c.Request().Context())
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r, err := h.svc.UpdateStatus(c.Request().Context(), c.Param("id"), body.Status)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, r)
}
