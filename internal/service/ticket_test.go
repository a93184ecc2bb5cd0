package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bug-tracker/internal/authz"
	"github.com/iliyamo/bug-tracker/internal/model"
	"github.com/iliyamo/bug-tracker/internal/repository"
)

func newTestTickets(f *fakeStore) *Tickets {
	return NewTickets(fakeTickets{f}, f, fakeSupport{f})
}

func TestCreateTicketRegistersInProject(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	f.addProject("p1", "creator", model.Membership{"creator": member("creator", model.RoleAdmin)})
	s := newTestTickets(f)

	ticket, err := s.Create(ctx, Actor{ID: "creator"}, CreateTicketInput{
		Title:	   "login fails",
		Priority:  model.PriorityHigh,
		Type:	   model.TypeBug,
		ProjectID: "p1",
	})
	require.NoError(t, err)
	require.Equal(t, model.TicketUnassigned, ticket.Status)
	require.Nil(t, ticket.Developer)
	require.Empty(t, ticket.History)
	require.Equal(t, "p1", ticket.Project.ID)
	require.Contains(t, f.projects["p1"].Tickets, ticket.ID)
}

func TestCreateTicketValidation(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	f.addProject("p1", "creator", model.Membership{"creator": member("creator", model.RoleAdmin)})
	s := newTestTickets(f)

	_, err := s.Create(ctx, Actor{ID: "creator"}, CreateTicketInput{Title: "  ", ProjectID: "p1"})
	require.ErrorIs(t, err, ErrValidation)

	// The target project must be active.
	_, err = s.Create(ctx, Actor{ID: "creator"}, CreateTicketInput{Title: "x", ProjectID: "gone"})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreateTicketQuota(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	f.addProject("p1", "creator", model.Membership{"creator": member("creator", model.RoleAdmin)})
	for i := 0; i < model.MaxTicketsPerCreator-1; i++ {
		f.addTicket(fmt.Sprintf("t%d", i), "creator", "p1")
	}
	// Archived tickets count against the quota too.
	f.archivedTickets["old"] = &model.Ticket{ID: "old", Creator: "creator", Status: model.TicketArchived}
	s := newTestTickets(f)

	_, err := s.Create(ctx, Actor{ID: "creator"}, CreateTicketInput{Title: "one too many", ProjectID: "p1"})
	require.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestClaimSelf(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	f.addProject("p1", "creator", model.Membership{
		"creator": member("creator", model.RoleAdmin),
		"dev":	   member("dev", model.RoleDeveloper),
	})
	f.addTicket("t1", "creator", "p1")
	s := newTestTickets(f)

	require.NoError(t, s.Claim(ctx, Actor{ID: "dev", Name: "dev"}, "t1", ""))

	got := f.tickets["t1"]
	require.Equal(t, model.TicketDevelopment, got.Status)
	require.NotNil(t, got.Developer)
	require.Equal(t, "dev", got.Developer.ID)
	require.Len(t, got.History, 1)
	require.Equal(t, model.TicketUnassigned, got.History[0].Status)
}

func TestClaimAssignmentGuards(t *testing.T) {
	ctx := context.Background()

	base := func() (*fakeStore, *Tickets) {
		f := newFakeStore()
		f.addProject("p1", "creator", model.Membership{
			"creator": member("creator", model.RoleAdmin),
			"admin":   member("admin", model.RoleAdmin),
			"pm":	   member("pm", model.RoleProjectManager),
			"dev":	   member("dev", model.RoleDeveloper),
			"dev2":	   member("dev2", model.RoleDeveloper),
		})
		f.addTicket("t1", "creator", "p1")
		return f, newTestTickets(f)
	}

	t.Run("developer cannot assign to another user", func(t *testing.T) {
		f, s := base()
		err := s.Claim(ctx, Actor{ID: "dev"}, "t1", "dev2")
		require.ErrorIs(t, err, authz.ErrForbidden)
		require.Equal(t, model.TicketUnassigned, f.tickets["t1"].Status)
		require.Empty(t, f.tickets["t1"].History)
	})

	t.Run("admin cannot be assigned", func(t *testing.T) {
		_, s := base()
		err := s.Claim(ctx, Actor{ID: "pm"}, "t1", "admin")
		require.ErrorIs(t, err, authz.ErrForbidden)
	})

	t.Run("assigning a project manager requires admin", func(t *testing.T) {
		_, s := base()
		err := s.Claim(ctx, Actor{ID: "pm"}, "t1", "pm")
		require.ErrorIs(t, err, authz.ErrForbidden)
		require.NoError(t, s.Claim(ctx, Actor{ID: "admin"}, "t1", "pm"))
	})

	t.Run("explicit self target goes through the assignment rules", func(t *testing.T) {
		f, s := base()
		err := s.Claim(ctx, Actor{ID: "dev"}, "t1", "dev")
		require.ErrorIs(t, err, authz.ErrForbidden)
		require.Equal(t, model.TicketUnassigned, f.tickets["t1"].Status)
	})

	t.Run("project manager assigns a developer", func(t *testing.T) {
		f, s := base()
		require.NoError(t, s.Claim(ctx, Actor{ID: "pm"}, "t1", "dev2"))
		require.Equal(t, "dev2", f.tickets["t1"].Developer.ID)
	})

	t.Run("non member cannot claim", func(t *testing.T) {
		_, s := base()
		err := s.Claim(ctx, Actor{ID: "stranger"}, "t1", "")
		require.ErrorIs(t, err, authz.ErrForbidden)
	})

	t.Run("assignee outside the project", func(t *testing.T) {
		_, s := base()
		err := s.Claim(ctx, Actor{ID: "pm"}, "t1", "stranger")
		require.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestClaimArchivedTicket(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	f.addProject("p1", "creator", model.Membership{"creator": member("creator", model.RoleAdmin)})
	f.addTicket("t1", "creator", "p1")
	require.NoError(t, fakeTickets{f}.Archive(ctx, "t1"))
	s := newTestTickets(f)

	err := s.Claim(ctx, Actor{ID: "creator"}, "t1", "")
	require.ErrorIs(t, err, ErrArchived)
}

func TestClaimTicketInArchivedProject(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	f.addProject("p1", "creator", model.Membership{"creator": member("creator", model.RoleAdmin)})
	f.addTicket("t1", "creator", "p1")
	require.NoError(t, f.Archive(ctx, "p1"))
	s := newTestTickets(f)

	err := s.Claim(ctx, Actor{ID: "creator"}, "t1", "")
	require.ErrorIs(t, err, ErrArchived)
}

// Every update appends exactly one snapshot of the pre-update state.
func TestUpdateAppendsHistorySnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	f.addProject("p1", "creator", model.Membership{"creator": member("creator", model.RoleAdmin)})
	f.addTicket("t1", "creator", "p1")
	f.tickets["t1"].Priority = model.PriorityLow
	s := newTestTickets(f)

	updated, err := s.Update(ctx, Actor{ID: "creator"}, "t1", UpdateTicketInput{
		Title:	  "new title",
		Priority: model.PriorityHigh,
	})
	require.NoError(t, err)
	require.Len(t, updated.History, 1)
	require.Equal(t, "Ticket t1", updated.History[0].Title)
	require.Equal(t, model.PriorityLow, updated.History[0].Priority)
	require.Equal(t, "new title", updated.Title)
	// Fields absent from the patch keep their values.
	require.Equal(t, model.TypeBug, updated.Type)

	updated, err = s.Update(ctx, Actor{ID: "creator"}, "t1", UpdateTicketInput{Description: "details"})
	require.NoError(t, err)
	require.Len(t, updated.History, 2)
}

func TestUpdateGuards(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	f.addProject("p1", "creator", model.Membership{
		"creator": member("creator", model.RoleAdmin),
		"dev":	   member("dev", model.RoleDeveloper),
	})
	f.addTicket("t1", "creator", "p1")
	s := newTestTickets(f)

	// Project membership alone is not enough.
	_, err := s.Update(ctx, Actor{ID: "dev"}, "t1", UpdateTicketInput{Title: "x"})
	require.ErrorIs(t, err, authz.ErrForbidden)

	// Once assigned, the developer can update.
	require.NoError(t, s.Claim(ctx, Actor{ID: "dev", Name: "dev"}, "t1", ""))
	_, err = s.Update(ctx, Actor{ID: "dev"}, "t1", UpdateTicketInput{Title: "x"})
	require.NoError(t, err)

	// Archived is not a client-settable status.
	_, err = s.Update(ctx, Actor{ID: "creator"}, "t1", UpdateTicketInput{Status: model.TicketArchived})
	require.ErrorIs(t, err, ErrValidation)
}

func TestTicketArchiveRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	f.addProject("p1", "creator", model.Membership{
		"creator": member("creator", model.RoleAdmin),
		"dev":	   member("dev", model.RoleDeveloper),
	})
	f.addTicket("t1", "creator", "p1")
	s := newTestTickets(f)

	require.NoError(t, s.Claim(ctx, Actor{ID: "dev", Name: "dev"}, "t1", ""))
	require.NoError(t, s.Archive(ctx, Actor{ID: "creator"}, "t1"))

	archived, ok := f.archivedTickets["t1"]
	require.True(t, ok)
	require.Equal(t, model.TicketArchived, archived.Status)
	_, active := f.tickets["t1"]
	require.False(t, active)

	require.NoError(t, s.Restore(ctx, Actor{ID: "creator"}, "t1"))
	restored := f.tickets["t1"]
	require.Equal(t, model.TicketUnassigned, restored.Status)
	require.Equal(t, "t1", restored.ID)
	require.Len(t, restored.History, 1, "history survives the round trip")
}

func TestTicketArchiveAuthority(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	f.addProject("p1", "creator", model.Membership{
		"creator": member("creator", model.RoleAdmin),
		"pm":	   member("pm", model.RoleProjectManager),
		"dev":	   member("dev", model.RoleDeveloper),
	})
	f.addTicket("t1", "someone-else", "p1")
	s := newTestTickets(f)

	err := s.Archive(ctx, Actor{ID: "dev"}, "t1")
	require.ErrorIs(t, err, authz.ErrForbidden)

	// Project Manager in the owning project is enough.
	require.NoError(t, s.Archive(ctx, Actor{ID: "pm"}, "t1"))
}

func TestTicketRestoreBlockedByArchivedProject(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	f.addProject("p1", "creator", model.Membership{"creator": member("creator", model.RoleAdmin)})
	f.addTicket("t1", "creator", "p1")
	require.NoError(t, fakeTickets{f}.Archive(ctx, "t1"))
	require.NoError(t, f.Archive(ctx, "p1"))
	s := newTestTickets(f)

	err := s.Restore(ctx, Actor{ID: "creator"}, "t1")
	require.ErrorIs(t, err, ErrProjectArchived)
	_, stillArchived := f.archivedTickets["t1"]
	require.True(t, stillArchived)
}

func TestTicketDeleteOnlyFromArchive(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	f.addProject("p1", "creator", model.Membership{"creator": member("creator", model.RoleAdmin)})
	f.addTicket("t1", "creator", "p1")
	s := newTestTickets(f)

	err := s.DeleteArchived(ctx, Actor{ID: "creator"}, "t1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, s.Archive(ctx, Actor{ID: "creator"}, "t1"))
	require.NoError(t, s.DeleteArchived(ctx, Actor{ID: "creator"}, "t1"))
	_, ok := f.archivedTickets["t1"]
	require.False(t, ok)
}

func TestComments(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	f.addProject("p1", "creator", model.Membership{
		"creator": member("creator", model.RoleAdmin),
		"dev":	   member("dev", model.RoleDeveloper),
	})
	f.addTicket("t1", "creator", "p1")
	s := newTestTickets(f)

	require.NoError(t, s.AddComment(ctx, Actor{ID: "dev", Name: "dev"}, "t1", "looking into it"))
	require.Len(t, f.tickets["t1"].Comments, 1)

	err := s.AddComment(ctx, Actor{ID: "stranger", Name: "x"}, "t1", "hi")
	require.ErrorIs(t, err, authz.ErrForbidden)

	err = s.AddComment(ctx, Actor{ID: "dev"}, "t1", " \t ")
	require.ErrorIs(t, err, ErrValidation)

	stamp := f.tickets["t1"].Comments[0].CreatedAt
	err = s.DeleteComment(ctx, Actor{ID: "dev"}, "t1", stamp.Add(time.Second))
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, s.DeleteComment(ctx, Actor{ID: "dev"}, "t1", stamp))
	require.Empty(t, f.tickets["t1"].Comments)
}

func TestSupportTickets(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	s := newTestTickets(f)

	ticket, err := s.CreateSupport(ctx, Actor{ID: "anyone", Name: "Ana"}, "feature idea", "dark mode", model.PriorityLow)
	require.NoError(t, err)
	require.Equal(t, model.SupportOpen, ticket.Status)
	require.Equal(t, model.TypeSupport, ticket.Type)
	require.Equal(t, supportProjectTitle, ticket.Project.Title)

	// Support tickets take comments without any membership check.
	require.NoError(t, s.AddComment(ctx, Actor{ID: "visitor", Name: "V"}, ticket.ID, "agreed"))
	require.Len(t, f.support[ticket.ID].Comments, 1)

	err = s.DeleteSupport(ctx, Actor{ID: "visitor"}, ticket.ID)
	require.ErrorIs(t, err, authz.ErrForbidden)
	require.NoError(t, s.DeleteSupport(ctx, Actor{ID: "anyone"}, ticket.ID))
}
