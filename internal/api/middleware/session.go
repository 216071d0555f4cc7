package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/smartwaste/civic-core/internal/core/ports"
)

// Session opens the session named by the token and loads its identity. It
// must run after Auth. A session that was logged out, expired or held a
// corrupt record is rejected with 401.
func Session(opener ports.SessionOpener) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid, _ := c.Get(KeySessionID).(string)
			if sid == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			sess := opener.Open(sid)
			id, ok := sess.CurrentIdentity(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
			}

			c.Set(KeySession, sess)
			c.Set(KeyIdentity, id)
			c.Set(KeyRole, id.Role)
			return next(c)
		}
	}
}
