package identity

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(public *echo.Group) {
	g := public.Group("/auth")
	g.POST("/signup", h.Signup)
	g.POST("/login", h.Login)
	g.POST("/admin/login", h.AdminLogin)
}

func (h *Handler) Signup(c echo.Context) error {
	var cred Credentials
	if err := c.Bind(&cred); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	u, err := h.svc.Signup(c.Request().Context(), cred)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Signup successful",
		"user":    u,
	})
}

func (h *Handler) Login(c echo.Context) error {
	var cred Credentials
	if err := c.Bind(&cred); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	tok, err := h.svc.Login(c.Request().Context(), cred)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, tok)
}

func (h *Handler) AdminLogin(c echo.Context) error {
	var cred Credentials
	if err := c.Bind(&cred); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	tok, err := h.svc.AdminLogin(c.Request().Context(), cred)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, tok)
}

func mapError(err error) error {
	var fe *FieldError
	switch {
	case errors.As(err, &fe):
		return echo.NewHTTPError(http.StatusBadRequest, fe.Error())
	case errors.Is(err, ErrUserExists):
		return echo.NewHTTPError(http.StatusBadRequest, "User already exists")
	case errors.Is(err, ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, ErrNotAdmin):
		return echo.NewHTTPError(http.StatusForbidden, "Admin access only")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
