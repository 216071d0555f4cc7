package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/smartwaste/civic-core/internal/core/domain"
	"github.com/smartwaste/civic-core/internal/core/ports"
)

// Roster lists the demo identities, one per role.
type Roster interface {
	Entries() []domain.RoleEntry
}

// OwnerEnder tears down every assistant conversation of a session.
type OwnerEnder interface {
	EndOwner(owner string) int
}

type AuthHandler struct {
	sessions      ports.SessionOpener
	roster        Roster
	tokens        ports.TokenIssuer
	conversations OwnerEnder
	newSessionID  func() string
}

func NewAuthHandler(sessions ports.SessionOpener, roster Roster, tokens ports.TokenIssuer, conversations OwnerEnder) *AuthHandler {
	return &AuthHandler{
		sessions:      sessions,
		roster:        roster,
		tokens:        tokens,
		conversations: conversations,
		newSessionID:  uuid.NewString,
	}
}

// Login authenticates with email and password and opens a new session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	sid := h.newSessionID()
	id, err := h.sessions.Open(sid).Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.respondWithToken(c, sid, id)
}

// QuickLogin opens a new session as the demo identity of a role.
//
// @Summary      Demo login by role
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      quickLoginRequest  true  "Role to log in as"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Router       /auth/quick-login [post]
func (h *AuthHandler) QuickLogin(c echo.Context) error {
	var req quickLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sid := h.newSessionID()
	id, err := h.sessions.Open(sid).SwitchRole(c.Request().Context(), domain.Role(req.Role))
	if err != nil {
		return err
	}
	return h.respondWithToken(c, sid, id)
}

// Roles lists the roles a session can switch to.
//
// @Summary      Available roles
// @Tags         auth
// @Produce      json
// @Success      200  {object}  rolesResponse
// @Router       /auth/roles [get]
func (h *AuthHandler) Roles(c echo.Context) error {
	entries := h.roster.Entries()
	resp := rolesResponse{Roles: make([]roleEntryResponse, len(entries))}
	for i, e := range entries {
		resp.Roles[i] = roleEntryResponse{Role: e.Role, Label: e.Role.Label(), User: e.Identity}
	}
	return c.JSON(http.StatusOK, resp)
}

// Me returns the current identity of the session.
//
// @Summary      Current identity
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	_, id, err := ctxSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: id})
}

// SwitchRole replaces the session's identity with the demo identity of a role.
//
// @Summary      Switch role
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      switchRoleRequest  true  "Target role"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/switch-role [post]
func (h *AuthHandler) SwitchRole(c echo.Context) error {
	sess, _, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req switchRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	id, err := sess.SwitchRole(c.Request().Context(), domain.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: id})
}

// Logout clears the session and ends its assistant conversations. Logging out
// twice is not an error.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	sid, err := ctxSessionID(c)
	if err != nil {
		return err
	}

	if err := h.sessions.Open(sid).Logout(c.Request().Context()); err != nil {
		return err
	}
	h.conversations.EndOwner(sid)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) respondWithToken(c echo.Context, sid string, id domain.Identity) error {
	token, exp, err := h.tokens.Issue(sid, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{Token: token, SessionID: sid, ExpiresAt: exp, User: id})
}
