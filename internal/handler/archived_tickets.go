package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bug-tracker/internal/repository"
	"github.com/iliyamo/bug-tracker/internal/service"
)

// ArchivedTicketHandler serves the ticket archive lane: moving tickets
// in and out of the archive and deleting them for good.
type ArchivedTicketHandler struct {
	Service *service.Tickets
	Tickets *repository.TicketRepo
}

func NewArchivedTicketHandler(svc *service.Tickets, tickets *repository.TicketRepo) *ArchivedTicketHandler {
	return &ArchivedTicketHandler{Service: svc, Tickets: tickets}
}

// Get returns one archived ticket.
func (h *ArchivedTicketHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Tickets.GetArchived(ctx, c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Archive moves an active ticket into the archive.
func (h *ArchivedTicketHandler) Archive(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Service.Archive(ctx, getActor(c), c.Param("id")); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ticket archived"})
}

// Restore moves an archived ticket back to the active collection with
// status reset to Unassigned.
func (h *ArchivedTicketHandler) Restore(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Service.Restore(ctx, getActor(c), c.Param("id")); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ticket restored"})
}

// Delete permanently removes an archived ticket.
func (h *ArchivedTicketHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Service.DeleteArchived(ctx, getActor(c), c.Param("id")); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ticket deleted"})
}

// SearchMine finds archived tickets the actor created or developed.
func (h *ArchivedTicketHandler) SearchMine(c echo.Context) error {
	page, query, limit, offset := searchPage(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	tickets, total, err := h.Tickets.SearchArchivedMine(ctx, getActor(c).ID, query, limit, offset)
	if err != nil {
		return httpError(c, err)
	}
	return searchJSON(c, tickets, page, total)
}
