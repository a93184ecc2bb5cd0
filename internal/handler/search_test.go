package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bug-tracker/internal/model"
)

func getCtx(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestSearchPageParams(t *testing.T) {
	c, _ := getCtx("/?page=3&searchQuery=login")
	page, query, limit, offset := searchPage(c)
	require.Equal(t, 3, page)
	require.Equal(t, "login", query)
	require.Equal(t, searchPageSize, limit)
	require.Equal(t, 2*searchPageSize, offset)

	// Absent or out-of-range pages clamp to the first one.
	c, _ = getCtx("/?page=0")
	page, _, _, offset = searchPage(c)
	require.Equal(t, 1, page)
	require.Zero(t, offset)
}

func TestSearchJSONEnvelope(t *testing.T) {
	c, rec := getCtx("/")
	require.NoError(t, searchJSON(c, []string{"a", "b"}, 2, 17))

	var resp struct {
		Data		  []string `json:"data"`
		CurrentPage	  int	   `json:"currentPage"`
		NumberOfPages int	   `json:"numberOfPages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, []string{"a", "b"}, resp.Data)
	require.Equal(t, 2, resp.CurrentPage)
	require.Equal(t, 3, resp.NumberOfPages)
}

func TestMatchNotifications(t *testing.T) {
	list := []model.Notification{
		{ID: "1", Title: "Ticket assigned", Description: "Fix the login form"},
		{ID: "2", Title: "Role changed", Description: "You are now an Admin"},
		{ID: "3", Title: "Project invite", Description: "Join the LOGIN rework"},
	}

	out := matchNotifications(list, "login")
	require.Len(t, out, 2)
	require.Equal(t, "3", out[0].ID)
	require.Equal(t, "1", out[1].ID)

	require.Len(t, matchNotifications(list, ""), 3)
	require.Empty(t, matchNotifications(list, "nothing matches this"))
}
