package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// DemoReadOnly blocks state-changing requests from the configured demo
// accounts so a shared demo login cannot trash the data set.  GET,
// HEAD and OPTIONS pass through; everything else gets a 403.  Must run
// after JWTAuth.
func DemoReadOnly(demoIDs []string) echo.MiddlewareFunc {
	demo := make(map[string]bool, len(demoIDs))
	for _, id := range demoIDs {
		demo[id] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(demo) == 0 {
				return next(c)
			}
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}
			if id, _ := c.Get("user_id").(string); demo[id] {
				return c.JSON(http.StatusForbidden, echo.Map{
					"error":   "forbidden",
					"message": "demo accounts are read-only",
				})
			}
			return next(c)
		}
	}
}
