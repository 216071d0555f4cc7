package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/smartwaste/civic-core/internal/api/middleware"
	"github.com/smartwaste/civic-core/internal/core/domain"
	"github.com/smartwaste/civic-core/internal/core/ports"
)

// ctxSessionID returns the session id the Auth middleware extracted.
func ctxSessionID(c echo.Context) (string, error) {
	sid, _ := c.Get(middleware.KeySessionID).(string)
	if sid == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return sid, nil
}

// ctxSession returns the session and identity the Session middleware loaded.
// Presence of both proves the middleware chain ran.
func ctxSession(c echo.Context) (ports.SessionService, domain.Identity, error) {
	sess, ok := c.Get(middleware.KeySession).(ports.SessionService)
	if !ok {
		return nil, domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}
	id, ok := c.Get(middleware.KeyIdentity).(domain.Identity)
	if !ok {
		return nil, domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}
	return sess, id, nil
}
