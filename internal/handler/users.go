package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bug-tracker/internal/model"
	"github.com/iliyamo/bug-tracker/internal/repository"
	"github.com/iliyamo/bug-tracker/internal/service"
)

// UserHandler serves user search, the notification mailbox, invite
// acceptance and the dashboard summary.
type UserHandler struct {
	Users	   *repository.UserRepo
	Projects   *repository.ProjectRepo
	Tickets	   *repository.TicketRepo
	Notify	   *service.Notifier
	Membership *service.Membership
}

func NewUserHandler(users *repository.UserRepo, projects *repository.ProjectRepo, tickets *repository.TicketRepo, notify *service.Notifier, membership *service.Membership) *UserHandler {
	return &UserHandler{Users: users, Projects: projects, Tickets: tickets, Notify: notify, Membership: membership}
}

// Search finds verified users by name or email fragment, for the
// invite picker.
func (h *UserHandler) Search(c echo.Context) error {
	page, query, limit, offset := searchPage(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, total, err := h.Users.Search(ctx, query, limit, offset)
	if err != nil {
		return httpError(c, err)
	}
	out := make([]userPart, 0, len(users))
	for _, u := range users {
		out = append(out, toUserPart(u))
	}
	return searchJSON(c, out, page, total)
}

// Notifications returns the actor's full mailbox, newest last.
func (h *UserHandler) Notifications(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Users.Notifications(ctx, getActor(c).ID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications": list})
}

// matchNotifications filters a mailbox by title/description fragment
// and reverses it so the newest entry comes first.
func matchNotifications(list []model.Notification, query string) []model.Notification {
	q := strings.ToLower(query)
	out := make([]model.Notification, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		n := list[i]
		if q == "" || strings.Contains(strings.ToLower(n.Title), q) ||
			strings.Contains(strings.ToLower(n.Description), q) {
			out = append(out, n)
		}
	}
	return out
}

// SearchNotifications pages through the actor's mailbox, newest
// first, matching the query against title and description.  The list
// lives on the user document, so the filter runs in memory.
func (h *UserHandler) SearchNotifications(c echo.Context) error {
	page, query, limit, offset := searchPage(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Users.Notifications(ctx, getActor(c).ID)
	if err != nil {
		return httpError(c, err)
	}

	matched := matchNotifications(list, query)
	total := len(matched)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return searchJSON(c, matched[offset:end], page, total)
}

// UnreadCount returns the unread counter for the navbar badge.  This
// endpoint is polled, so the dispatcher serves it through Redis.
func (h *UserHandler) UnreadCount(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	count, err := h.Notify.Unread(ctx, getActor(c).ID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"unreadNotifications": count})
}

// MarkRead flips one notification to read.
func (h *UserHandler) MarkRead(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Notify.MarkRead(ctx, getActor(c).ID, c.Param("id")); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "notification marked as read"})
}

// MarkAllRead flips the whole mailbox to read.
func (h *UserHandler) MarkAllRead(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Notify.MarkAllRead(ctx, getActor(c).ID); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "all notifications marked as read"})
}

// DeleteNotification removes one notification from the mailbox.
func (h *UserHandler) DeleteNotification(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Notify.Delete(ctx, getActor(c).ID, c.Param("id")); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "notification deleted"})
}

// Dashboard returns the counts shown on the landing page: active
// projects and tickets the actor is involved in, plus unread
// notifications.
func (h *UserHandler) Dashboard(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	actor := getActor(c)
	projectCount, err := h.Projects.CountActiveForUser(ctx, actor.ID)
	if err != nil {
		return httpError(c, err)
	}
	ticketCount, err := h.Tickets.CountActiveForUser(ctx, actor.ID)
	if err != nil {
		return httpError(c, err)
	}
	unread, err := h.Notify.Unread(ctx, actor.ID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"activeProjects":	   projectCount,
		"activeTickets":	   ticketCount,
		"unreadNotifications": unread,
	})
}

type acceptInviteReq struct {
	InviterID string	 `json:"inviterId"`
	ProjectID string	 `json:"projectId"`
	Role	  model.Role `json:"role"`
}

// AcceptInvite enrolls the actor into the project named by a pending
// invitation in their mailbox.
func (h *UserHandler) AcceptInvite(c echo.Context) error {
	var req acceptInviteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.InviterID == "" || req.ProjectID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "inviterId/projectId required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	invite := &model.Invite{InviterID: req.InviterID, ProjectID: req.ProjectID, Role: req.Role}
	if err := h.Membership.AcceptInvite(ctx, getActor(c), invite); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "invitation accepted"})
}
