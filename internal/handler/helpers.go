package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bug-tracker/internal/authz"
	"github.com/iliyamo/bug-tracker/internal/repository"
	"github.com/iliyamo/bug-tracker/internal/service"
)

// dbTimeout bounds every handler-initiated database call.
const dbTimeout = 5 * time.Second

// reqCtx derives a deadline-bound context from the request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// getActor reads the identity claims stored by the JWT middleware.
func getActor(c echo.Context) service.Actor {
	id, _ := c.Get("user_id").(string)
	name, _ := c.Get("user_name").(string)
	email, _ := c.Get("user_email").(string)
	return service.Actor{ID: id, Name: name, Email: email}
}

// httpError maps engine errors onto HTTP responses.  One quirk is kept
// on purpose: restoring a ticket whose project is still archived
// answers 200 with a warning instead of an error status, since the
// client is expected to surface "restore the project first" as a hint
// rather than a failure.
func httpError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrProjectArchived):
		return c.JSON(http.StatusOK, echo.Map{"warning": "project archived", "message": err.Error()})
	case errors.Is(err, authz.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found", "message": err.Error()})
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": err.Error()})
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrQuotaExceeded):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad request", "message": err.Error()})
	case errors.Is(err, service.ErrArchived):
		return c.JSON(http.StatusConflict, echo.Map{"error": "archived", "message": err.Error()})
	default:
		c.Logger().Errorf("internal error: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "something went wrong"})
	}
}

// searchPageSize is the fixed page size of every search endpoint.
const searchPageSize = 8

// searchPage reads the page/searchQuery parameters shared by all
// search endpoints and translates the page number into the
// limit/offset pair the repositories take.
func searchPage(c echo.Context) (page int, query string, limit, offset int) {
	page = 1
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 1 {
		page = v
	}
	return page, c.QueryParam("searchQuery"), searchPageSize, (page - 1) * searchPageSize
}

// searchJSON writes the paged search envelope.
func searchJSON(c echo.Context, data any, page, total int) error {
	pages := (total + searchPageSize - 1) / searchPageSize
	return c.JSON(http.StatusOK, echo.Map{
		"data":			 data,
		"currentPage":	 page,
		"numberOfPages": pages,
	})
}
