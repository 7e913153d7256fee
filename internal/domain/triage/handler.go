package triage

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/medroute/medroute/internal/platform/metrics"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the public triage endpoints.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/predict", h.Predict)
	api.GET("/departments", h.ListDepartments)
	api.GET("/symptoms", h.ListSymptoms)
}

type predictRequest struct {
	Symptoms string `json:"symptoms"`
}

func (h *Handler) Predict(c echo.Context) error {
	var req predictRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Symptoms) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "symptoms is required")
	}

	out := h.svc.Triage(c.Request().Context(), req.Symptoms)
	metrics.RecordTriage(string(out.Path), out.Department, len(out.MatchedSymptoms))
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) ListDepartments(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"departments": h.svc.Departments(),
	})
}

func (h *Handler) ListSymptoms(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"symptoms": h.svc.Vocabulary(),
	})
}
