package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bug-tracker/internal/model"
	"github.com/iliyamo/bug-tracker/internal/service"
)

// ProjectUserHandler serves membership management inside a project:
// invitations, role changes, kicks and leaving.
type ProjectUserHandler struct {
	Membership *service.Membership
}

func NewProjectUserHandler(membership *service.Membership) *ProjectUserHandler {
	return &ProjectUserHandler{Membership: membership}
}

type inviteReq struct {
	UserIDs []string   `json:"userIds"`
	Role	model.Role `json:"role"`
}

// Invite sends project invitations to the listed users.  Users who
// already hold an identical pending invite are skipped silently.
func (h *ProjectUserHandler) Invite(c echo.Context) error {
	var req inviteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.UserIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userIds required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	invited, err := h.Membership.InviteUsers(ctx, getActor(c), c.Param("id"), req.UserIDs, req.Role)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "invitations sent", "invited": invited})
}

type rolesReq struct {
	Users map[string]model.Member `json:"users"`
}

// UpdateRoles merges the submitted role assignments into the project's
// membership map.
func (h *ProjectUserHandler) UpdateRoles(c echo.Context) error {
	var req rolesReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.Users) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "users required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Membership.UpdateRoles(ctx, getActor(c), c.Param("id"), req.Users); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "roles updated"})
}

type removeReq struct {
	UserIDs []string `json:"userIds"`
}

// Remove kicks the listed users from the project.
func (h *ProjectUserHandler) Remove(c echo.Context) error {
	var req removeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.UserIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userIds required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Membership.RemoveUsers(ctx, getActor(c), c.Param("id"), req.UserIDs); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "users removed"})
}

// Leave removes the caller's own membership entry.
func (h *ProjectUserHandler) Leave(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Membership.Leave(ctx, getActor(c), c.Param("id")); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "left the project"})
}
