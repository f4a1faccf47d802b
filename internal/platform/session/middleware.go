package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const contextKey = "session"

// RequireSession loads the stored session for every request and rejects the
// request with 401 when nobody is signed in or the token has expired.
func RequireSession(store Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, err := store.Load()
			if errors.Is(err, ErrNoSession) {
				return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
			}
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
			if !s.Valid(time.Now()) {
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
			}
			c.Set(contextKey, s)
			return next(c)
		}
	}
}

// RequireUserType rejects signed-in users whose type is not listed.
func RequireUserType(types ...UserType) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if FromContext(c).Is(types...) {
				return next(c)
			}
			names := make([]string, len(types))
			for i, t := range types {
				names[i] = string(t)
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required user type: %s", strings.Join(names, " or ")))
		}
	}
}

// FromContext returns the session set by RequireSession, or nil.
func FromContext(c echo.Context) *Session {
	s, _ := c.Get(contextKey).(*Session)
	return s
}

// WithSession stores s on c. Handlers under test use it in place of
// RequireSession.
func WithSession(c echo.Context, s *Session) {
	c.Set(contextKey, s)
}
