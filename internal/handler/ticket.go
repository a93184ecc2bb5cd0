package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bug-tracker/internal/model"
	"github.com/iliyamo/bug-tracker/internal/repository"
	"github.com/iliyamo/bug-tracker/internal/service"
)

// TicketHandler serves the active-ticket lifecycle: creation, claim,
// update, comments, search and the per-user statistics endpoint.
type TicketHandler struct {
	Service *service.Tickets
	Tickets *repository.TicketRepo
}

func NewTicketHandler(svc *service.Tickets, tickets *repository.TicketRepo) *TicketHandler {
	return &TicketHandler{Service: svc, Tickets: tickets}
}

type createTicketReq struct {
	Title		string			 `json:"title"`
	Description string			 `json:"description"`
	Priority	string			 `json:"priority"`
	Type		model.TicketType `json:"type"`
	ProjectID	string			 `json:"projectId"`
}

// Create registers a new ticket in an active project.
func (h *TicketHandler) Create(c echo.Context) error {
	var req createTicketReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Service.Create(ctx, getActor(c), service.CreateTicketInput{
		Title:		 req.Title,
		Description: req.Description,
		Priority:	 req.Priority,
		Type:		 req.Type,
		ProjectID:	 req.ProjectID,
	})
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// Get returns one active ticket.
func (h *TicketHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Tickets.Get(ctx, c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

type updateTicketReq struct {
	Title		string			   `json:"title"`
	Description string			   `json:"description"`
	Priority	string			   `json:"priority"`
	Type		model.TicketType   `json:"type"`
	Status		model.TicketStatus `json:"status"`
}

// Update patches a ticket, snapshotting the previous state into its
// history.
func (h *TicketHandler) Update(c echo.Context) error {
	var req updateTicketReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Service.Update(ctx, getActor(c), c.Param("id"), service.UpdateTicketInput{
		Title:		 req.Title,
		Description: req.Description,
		Priority:	 req.Priority,
		Type:		 req.Type,
		Status:		 req.Status,
	})
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

type claimReq struct {
	UserID string `json:"userId"` // empty means self-claim
}

// Claim assigns the ticket to the caller or, with a userId, to another
// member of the project.
func (h *TicketHandler) Claim(c echo.Context) error {
	var req claimReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Service.Claim(ctx, getActor(c), c.Param("id"), req.UserID); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ticket claimed"})
}

type commentReq struct {
	Comment string `json:"comment"`
}

// AddComment appends a comment with a server-assigned timestamp.
func (h *TicketHandler) AddComment(c echo.Context) error {
	var req commentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Service.AddComment(ctx, getActor(c), c.Param("id"), req.Comment); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "comment added"})
}

type deleteCommentReq struct {
	CreatedAt time.Time `json:"createdAt"`
}

// DeleteComment removes the comment matching the given timestamp.
func (h *TicketHandler) DeleteComment(c echo.Context) error {
	var req deleteCommentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Service.DeleteComment(ctx, getActor(c), c.Param("id"), req.CreatedAt); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "comment deleted"})
}

// SearchActive finds active tickets by title fragment.  Public search,
// served through the response cache.
func (h *TicketHandler) SearchActive(c echo.Context) error {
	page, query, limit, offset := searchPage(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	tickets, total, err := h.Tickets.SearchActive(ctx, query, limit, offset)
	if err != nil {
		return httpError(c, err)
	}
	return searchJSON(c, tickets, page, total)
}

// SearchMine finds active tickets the actor created or develops.
func (h *TicketHandler) SearchMine(c echo.Context) error {
	page, query, limit, offset := searchPage(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	tickets, total, err := h.Tickets.SearchMine(ctx, getActor(c).ID, query, limit, offset)
	if err != nil {
		return httpError(c, err)
	}
	return searchJSON(c, tickets, page, total)
}

// Unassigned lists unclaimed tickets inside the actor's projects.
func (h *TicketHandler) Unassigned(c echo.Context) error {
	page, _, limit, offset := searchPage(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	tickets, total, err := h.Tickets.SearchUnassigned(ctx, getActor(c).ID, limit, offset)
	if err != nil {
		return httpError(c, err)
	}
	return searchJSON(c, tickets, page, total)
}

// Active lists the tickets the actor is currently developing.
func (h *TicketHandler) Active(c echo.Context) error {
	page, _, limit, offset := searchPage(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	tickets, total, err := h.Tickets.SearchInDevelopment(ctx, getActor(c).ID, limit, offset)
	if err != nil {
		return httpError(c, err)
	}
	return searchJSON(c, tickets, page, total)
}

// Stats aggregates the caller's active tickets by type and priority
// for the dashboard charts.
func (h *TicketHandler) Stats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	tickets, err := h.Tickets.ListForUser(ctx, getActor(c).ID)
	if err != nil {
		return httpError(c, err)
	}
	var stats model.TicketStats
	for _, t := range tickets {
		switch t.Type {
		case model.TypeBug:
			stats.NumberOfBugTickets++
		case model.TypeFeature:
			stats.NumberOfFeatureTickets++
		}
		switch t.Priority {
		case model.PriorityLow:
			stats.LowPriority++
		case model.PriorityMedium:
			stats.MediumPriority++
		case model.PriorityHigh:
			stats.HighPriority++
		}
	}
	return c.JSON(http.StatusOK, stats)
}
