package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bug-tracker/internal/repository"
	"github.com/iliyamo/bug-tracker/internal/service"
)

// SupportTicketHandler serves the support lane: feedback tickets about
// the tracker itself, outside any project membership.
type SupportTicketHandler struct {
	Service *service.Tickets
	Support *repository.SupportTicketRepo
}

func NewSupportTicketHandler(svc *service.Tickets, support *repository.SupportTicketRepo) *SupportTicketHandler {
	return &SupportTicketHandler{Service: svc, Support: support}
}

type supportReq struct {
	Title		string `json:"title"`
	Description string `json:"description"`
	Priority	string `json:"priority"`
}

// Create opens a support ticket.
func (h *SupportTicketHandler) Create(c echo.Context) error {
	var req supportReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Service.CreateSupport(ctx, getActor(c), req.Title, req.Description, req.Priority)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// Get returns one support ticket.
func (h *SupportTicketHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Support.Get(ctx, c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Delete removes a support ticket; creator only.
func (h *SupportTicketHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Service.DeleteSupport(ctx, getActor(c), c.Param("id")); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "support ticket deleted"})
}

// Search finds support tickets by title fragment.
func (h *SupportTicketHandler) Search(c echo.Context) error {
	page, query, limit, offset := searchPage(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	tickets, total, err := h.Support.Search(ctx, query, limit, offset)
	if err != nil {
		return httpError(c, err)
	}
	return searchJSON(c, tickets, page, total)
}
