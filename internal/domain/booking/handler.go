package booking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medroute/medroute/internal/platform/auth"
	"github.com/medroute/medroute/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the booking endpoints. public takes no credentials;
// api must already carry authentication middleware.
func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.GET("/booked-slots", h.BookedSlots)

	userGroup := api.Group("", auth.RequireRole(auth.RoleUser))
	userGroup.POST("/appointments", h.Book)
	userGroup.GET("/appointments", h.ListMine)
	userGroup.DELETE("/appointments/:id", h.Cancel)

	adminGroup := api.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	adminGroup.GET("/appointments", h.ListAll)
}

func (h *Handler) Book(c echo.Context) error {
	var req BookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	username := auth.UserIDFromContext(c.Request().Context())

	a, err := h.svc.Book(c.Request().Context(), username, req)
	if err != nil {
		var ve *ValidationError
		switch {
		case errors.As(err, &ve):
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"message": "Missing required fields",
				"fields":  ve.Fields,
			})
		case errors.Is(err, ErrConflict):
			return echo.NewHTTPError(http.StatusConflict, "Time slot already booked. Please choose another slot.")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to book appointment")
		}
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":     "Appointment booked successfully",
		"appointment": a,
	})
}

func (h *Handler) ListMine(c echo.Context) error {
	username := auth.UserIDFromContext(c.Request().Context())
	list, err := h.svc.ListForRequester(c.Request().Context(), username)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list appointments")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"appointments": list})
}

// Cancel answers 200 whether or not anything was removed.
func (h *Handler) Cancel(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	username := auth.UserIDFromContext(c.Request().Context())
	if err := h.svc.Cancel(c.Request().Context(), username, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to cancel appointment")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Appointment cancelled"})
}

func (h *Handler) ListAll(c echo.Context) error {
	pg := pagination.FromContext(c)
	list, total, err := h.svc.ListAll(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list appointments")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, pg.Limit, pg.Offset))
}

func (h *Handler) BookedSlots(c echo.Context) error {
	slots, err := h.svc.SlotsBookedFor(c.Request().Context(), c.QueryParam("doctor"), c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load booked slots")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"booked_slots": slots})
}
