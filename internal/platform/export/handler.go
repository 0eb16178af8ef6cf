package export

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/apierr"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/metrics"
	"github.com/clinicdesk/clinicdesk/internal/platform/reportgen"
	"github.com/clinicdesk/clinicdesk/internal/platform/webhook"
)

type Handler struct {
	svc     *Service
	metrics *metrics.Collector
}

func NewHandler(svc *Service, m *metrics.Collector) *Handler {
	return &Handler{svc: svc, metrics: m}
}

// RegisterRoutes registers document endpoints on the provided route group.
//
//	GET  /api/v1/patients/:id/document?kind=  - rendered HTML
//	POST /api/v1/patients/:id/exports?kind=   - store and share
//	GET  /api/v1/exports/:id                  - download a stored export
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleReceptionist))
	g.GET("/patients/:id/document", h.RenderDocument)
	g.POST("/patients/:id/exports", h.CreateExport)
	g.GET("/exports/:id", h.Download)
}

func (h *Handler) RenderDocument(c echo.Context) error {
	kind, err := reportgen.ParseKind(c.QueryParam("kind"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	doc, err := h.svc.Render(c.Request().Context(), c.Param("id"), kind)
	if err != nil {
		return httpError(err)
	}
	h.metrics.DocumentRendered(string(kind))
	c.Response().Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, doc.FileName))
	return c.HTML(http.StatusOK, doc.HTML)
}

func (h *Handler) CreateExport(c echo.Context) error {
	kind, err := reportgen.ParseKind(c.QueryParam("kind"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.Export(c.Request().Context(), c.Param("id"), kind, auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		h.metrics.ExportFinished(string(kind), "error")
		if errors.Is(err, ErrShareFailed) {
			h.metrics.ShareFinished(string(webhook.OutcomeFailed))
		}
		return httpError(err)
	}
	h.metrics.DocumentRendered(string(kind))
	h.metrics.ExportFinished(string(kind), "ok")
	h.metrics.ShareFinished(res.ShareOutcome)
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) Download(c echo.Context) error {
	rc, meta, err := h.svc.Open(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	defer rc.Close()

	c.Response().Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, meta.FileName))
	return c.Stream(http.StatusOK, meta.ContentType, rc)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrShareFailed):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error()).SetInternal(err)
	case errors.Is(err, reportgen.ErrUnknownKind):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return apierr.HTTP(err)
	}
}
