package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bug-tracker/internal/repository"
	"github.com/iliyamo/bug-tracker/internal/service"
)

// ProjectHandler serves the project lifecycle and search endpoints.
// Reads go straight to the repositories; every mutation goes through
// the service layer where the role policy lives.
type ProjectHandler struct {
	Service	 *service.Projects
	Projects *repository.ProjectRepo
	Tickets	 *repository.TicketRepo
}

func NewProjectHandler(svc *service.Projects, projects *repository.ProjectRepo, tickets *repository.TicketRepo) *ProjectHandler {
	return &ProjectHandler{Service: svc, Projects: projects, Tickets: tickets}
}

type projectReq struct {
	Title		string `json:"title"`
	Description string `json:"description"`
}

// Create registers a new project with the caller as creator and Admin.
func (h *ProjectHandler) Create(c echo.Context) error {
	var req projectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Service.Create(ctx, getActor(c), req.Title, req.Description)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// Get returns one active project together with its tickets.
func (h *ProjectHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Projects.Get(ctx, c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	tickets, err := h.Tickets.ListByIDs(ctx, p.Tickets)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"project": p, "tickets": tickets})
}

// GetArchived returns one archived project with its archived tickets.
func (h *ProjectHandler) GetArchived(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Projects.GetArchived(ctx, c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	tickets, err := h.Tickets.ListArchivedByIDs(ctx, p.Tickets)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"project": p, "tickets": tickets})
}

// Update rewrites the title and description.
func (h *ProjectHandler) Update(c echo.Context) error {
	var req projectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Service.Update(ctx, getActor(c), c.Param("id"), req.Title, req.Description)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Archive moves the project and all its tickets to the archive.
func (h *ProjectHandler) Archive(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Service.Archive(ctx, getActor(c), c.Param("id")); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "project archived"})
}

// Restore moves an archived project back to the active collection.
func (h *ProjectHandler) Restore(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Service.Restore(ctx, getActor(c), c.Param("id")); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "project restored"})
}

// DeleteArchived permanently removes an archived project.
func (h *ProjectHandler) DeleteArchived(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Service.DeleteArchived(ctx, getActor(c), c.Param("id")); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "project deleted"})
}

// SearchActive finds active projects by title fragment.  This public
// search sits behind the Redis response cache.
func (h *ProjectHandler) SearchActive(c echo.Context) error {
	page, query, limit, offset := searchPage(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	projects, total, err := h.Projects.SearchActive(ctx, query, limit, offset)
	if err != nil {
		return httpError(c, err)
	}
	return searchJSON(c, projects, page, total)
}

// SearchMine finds active projects the actor belongs to.
func (h *ProjectHandler) SearchMine(c echo.Context) error {
	page, query, limit, offset := searchPage(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	projects, total, err := h.Projects.SearchMine(ctx, getActor(c).ID, query, limit, offset)
	if err != nil {
		return httpError(c, err)
	}
	return searchJSON(c, projects, page, total)
}

// SearchArchivedMine finds archived projects the actor belongs to.
func (h *ProjectHandler) SearchArchivedMine(c echo.Context) error {
	page, query, limit, offset := searchPage(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	projects, total, err := h.Projects.SearchArchivedMine(ctx, getActor(c).ID, query, limit, offset)
	if err != nil {
		return httpError(c, err)
	}
	return searchJSON(c, projects, page, total)
}
