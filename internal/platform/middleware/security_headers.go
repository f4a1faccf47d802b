package middleware

import (
	"github.com/labstack/echo/v4"
)

// consoleHeaders are set on every console response. Bill data is patient
// financial information and must not be cached.
var consoleHeaders = map[string]string{
	"X-Content-Type-Options":  "nosniff",
	"X-Frame-Options":         "DENY",
	"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
	"Referrer-Policy":         "no-referrer",
	"Cache-Control":           "no-store",
}

func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			for k, v := range consoleHeaders {
				h.Set(k, v)
			}
			return next(c)
		}
	}
}
