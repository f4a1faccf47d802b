package account

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/healthsync/hms-client/internal/platform/apiclient"
	"github.com/healthsync/hms-client/internal/platform/session"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/auth")
	g.POST("/login", h.Login)
	g.POST("/register", h.Register)
	g.POST("/logout", h.Logout)
	g.GET("/me", h.Me)
}

// profileResponse never exposes the token to the browser.
type profileResponse struct {
	session.User
	DisplayName string     `json:"displayName"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

func profileOf(s *session.Session) profileResponse {
	resp := profileResponse{User: s.User, DisplayName: s.User.DisplayName()}
	if exp, ok := s.ExpiresAt(); ok {
		resp.ExpiresAt = &exp
	}
	return resp
}

// authError maps login and registration failures. Input rejected before any
// request is 400, a store failure 500, and every upstream failure 401 or 502.
func authError(err error, fallback string) error {
	switch {
	case errors.Is(err, apiclient.ErrInvalidRequest):
		msg := strings.TrimPrefix(err.Error(), apiclient.ErrInvalidRequest.Error()+": ")
		return echo.NewHTTPError(http.StatusBadRequest, msg)
	case errors.Is(err, ErrSaveSession):
		return echo.NewHTTPError(http.StatusInternalServerError, "Could not store the session")
	case apiclient.IsUnauthorized(err):
		msg := apiclient.ServerMessage(err)
		if msg == "" {
			msg = "Invalid email or password"
		}
		return echo.NewHTTPError(http.StatusUnauthorized, msg)
	}
	if msg := apiclient.ServerMessage(err); msg != "" {
		return echo.NewHTTPError(http.StatusBadGateway, msg)
	}
	return echo.NewHTTPError(http.StatusBadGateway, fallback)
}

func (h *Handler) Login(c echo.Context) error {
	var creds apiclient.Credentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s, err := h.svc.Login(c.Request().Context(), creds)
	if err != nil {
		return authError(err, "Login failed")
	}
	return c.JSON(http.StatusOK, profileOf(s))
}

func (h *Handler) Register(c echo.Context) error {
	var reg apiclient.Registration
	if err := c.Bind(&reg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s, err := h.svc.Register(c.Request().Context(), reg)
	if err != nil {
		return authError(err, "Registration failed")
	}
	return c.JSON(http.StatusCreated, profileOf(s))
}

func (h *Handler) Logout(c echo.Context) error {
	if err := h.svc.Logout(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Me(c echo.Context) error {
	s, err := h.svc.Current()
	if errors.Is(err, session.ErrNoSession) {
		return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, profileOf(s))
}
