package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// DashboardHandler tells a client which dashboard the current role renders.
// The dashboards themselves live in the front end.
type DashboardHandler struct{}

func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// Current returns the dashboard for the session's role.
//
// @Summary      Dashboard for the current role
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dashboardResponse
// @Failure      401  {object}  map[string]string
// @Router       /v1/dashboard [get]
func (h *DashboardHandler) Current(c echo.Context) error {
	_, id, err := ctxSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dashboardResponse{Dashboard: id.Role, Label: id.Role.Label(), User: id})
}

// ForRole serves a role-gated dashboard. Access is enforced by RBAC on the
// route, so reaching here means the role matched.
//
// @Summary      Role-gated dashboard
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Param        role  path      string  true  "citizen, worker or admin"
// @Success      200   {object}  dashboardResponse
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /v1/dashboards/{role} [get]
func (h *DashboardHandler) ForRole(c echo.Context) error {
	return h.Current(c)
}
