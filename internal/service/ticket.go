package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/bug-tracker/internal/authz"
	"github.com/iliyamo/bug-tracker/internal/model"
	"github.com/iliyamo/bug-tracker/internal/repository"
)

// supportProjectTitle is the fixed back-reference support tickets
// carry instead of a real project.
const supportProjectTitle = "Bug Tracker"

// Tickets owns the ticket state machine: Unassigned → Development →
// Archived → Unassigned, plus the one-way Support lane.  Every
// mutating transition appends exactly one snapshot of the pre-update
// state to the ticket history before applying the new state.
type Tickets struct {
	Tickets	 TicketStore
	Projects ProjectStore
	Support	 SupportStore
}

func NewTickets(tickets TicketStore, projects ProjectStore, support SupportStore) *Tickets {
	return &Tickets{Tickets: tickets, Projects: projects, Support: support}
}

// CreateTicketInput carries the client-supplied fields of a new ticket.
type CreateTicketInput struct {
	Title		string
	Description string
	Priority	string
	Type		model.TicketType
	ProjectID	string
}

// Create registers a new Unassigned ticket in an active project,
// subject to the creator's 100-ticket quota across active and archived
// collections.
func (s *Tickets) Create(ctx context.Context, actor Actor, in CreateTicketInput) (*model.Ticket, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	p, err := s.Projects.Get(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}

	count, err := s.Tickets.CountByCreator(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if count >= model.MaxTicketsPerCreator {
		return nil, fmt.Errorf("%w: you have exceeded the %d ticket limit", ErrQuotaExceeded, model.MaxTicketsPerCreator)
	}

	now := time.Now().UTC()
	t := &model.Ticket{
		ID:			 uuid.NewString(),
		Title:		 in.Title,
		Description: in.Description,
		Creator:	 actor.ID,
		Priority:	 in.Priority,
		Status:		 model.TicketUnassigned,
		Type:		 in.Type,
		Project:	 model.ProjectRef{ID: p.ID, Title: p.Title},
		CreatedAt:	 now,
		UpdatedAt:	 now,
	}
	if err := s.Tickets.Create(ctx, t); err != nil {
		return nil, err
	}

	p.Tickets = append(p.Tickets, t.ID)
	p.UpdatedAt = now
	if err := s.Projects.Update(ctx, p); err != nil {
		return nil, err
	}
	return t, nil
}

// Claim moves a ticket to Development.  Without a target the actor
// self-claims, which only requires project membership.  Any explicit
// target, the actor's own id included, goes through the assignment
// rules: developers cannot assign, Admins cannot be assigned, and
// assigning to a Project Manager requires an Admin.  Archived tickets
// and tickets in archived projects cannot be claimed.
func (s *Tickets) Claim(ctx context.Context, actor Actor, ticketID, targetID string) error {
	archived, err := s.Tickets.ExistsArchived(ctx, ticketID)
	if err != nil {
		return err
	}
	if archived {
		return fmt.Errorf("%w: cannot assign an archived ticket", ErrArchived)
	}
	t, err := s.Tickets.Get(ctx, ticketID)
	if err != nil {
		return err
	}
	p, err := s.Projects.Get(ctx, t.Project.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: cannot assign a ticket in an archived project", ErrArchived)
		}
		return err
	}

	actorRole, isMember := p.Users.RoleOf(actor.ID)
	if !isMember {
		return fmt.Errorf("%w: user is not part of the project", authz.ErrForbidden)
	}

	developer := &model.Developer{ID: actor.ID, Name: actor.Name}
	if targetID != "" {
		targetRole, ok := p.Users.RoleOf(targetID)
		if !ok {
			return fmt.Errorf("%w: assignee is not part of the project", repository.ErrNotFound)
		}
		if err := authz.CanAssignTicket(actorRole, targetRole); err != nil {
			return err
		}
		developer = &model.Developer{ID: targetID, Name: p.Users[targetID].Name}
	}

	t.History = append(t.History, t.Snapshot())
	t.Developer = developer
	t.Status = model.TicketDevelopment
	t.UpdatedAt = time.Now().UTC()
	return s.Tickets.Update(ctx, t)
}

// UpdateTicketInput carries the replacement fields for a ticket
// update.  Empty strings leave the corresponding field unchanged.
type UpdateTicketInput struct {
	Title		string
	Description string
	Priority	string
	Type		model.TicketType
	Status		model.TicketStatus
}

// Update applies a patch to a ticket.  Only the ticket's creator or
// its currently assigned developer may update it.  The pre-update
// state is snapshotted into the history before the patch lands.
func (s *Tickets) Update(ctx context.Context, actor Actor, ticketID string, in UpdateTicketInput) (*model.Ticket, error) {
	t, err := s.Tickets.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if t.Creator != actor.ID && (t.Developer == nil || t.Developer.ID != actor.ID) {
		return nil, fmt.Errorf("%w: user is not the creator or the developer of the ticket", authz.ErrForbidden)
	}
	if in.Status != "" {
		switch in.Status {
		case model.TicketUnassigned, model.TicketDevelopment:
		default:
			return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, in.Status)
		}
	}

	t.History = append(t.History, t.Snapshot())
	if in.Title != "" {
		t.Title = in.Title
	}
	if in.Description != "" {
		t.Description = in.Description
	}
	if in.Priority != "" {
		t.Priority = in.Priority
	}
	if in.Type != "" {
		t.Type = in.Type
	}
	if in.Status != "" {
		t.Status = in.Status
	}
	t.UpdatedAt = time.Now().UTC()
	if err := s.Tickets.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// requireTicketAuthority checks the shared guard of the archive lane:
// the actor must be the ticket's creator or hold Admin/Project Manager
// in the owning project.  The project may itself be archived.
func (s *Tickets) requireTicketAuthority(ctx context.Context, actor Actor, t *model.Ticket) error {
	if t.Creator == actor.ID {
		return nil
	}
	p, err := s.Projects.Get(ctx, t.Project.ID)
	if errors.Is(err, repository.ErrNotFound) {
		p, err = s.Projects.GetArchived(ctx, t.Project.ID)
	}
	if err != nil {
		return err
	}
	return authz.Authorize(actor.ID, p.Creator, p.Users,
		authz.Requirement{Floor: model.RoleProjectManager})
}

// Archive moves an active ticket into the archive with status forced
// to Archived.  Support tickets never come through here; they are
// deleted directly.
func (s *Tickets) Archive(ctx context.Context, actor Actor, ticketID string) error {
	t, err := s.Tickets.Get(ctx, ticketID)
	if err != nil {
		return err
	}
	if err := s.requireTicketAuthority(ctx, actor, t); err != nil {
		return err
	}
	return s.Tickets.Archive(ctx, ticketID)
}

// Restore moves an archived ticket back to the active collection with
// status forced to Unassigned.  When the owning project is itself
// archived the restore is refused with a warning: the project must be
// restored first.
func (s *Tickets) Restore(ctx context.Context, actor Actor, ticketID string) error {
	t, err := s.Tickets.GetArchived(ctx, ticketID)
	if err != nil {
		return err
	}
	if err := s.requireTicketAuthority(ctx, actor, t); err != nil {
		return err
	}
	projectArchived, err := s.Projects.ExistsArchived(ctx, t.Project.ID)
	if err != nil {
		return err
	}
	if projectArchived {
		return fmt.Errorf("%w: please restore the project before restoring the ticket", ErrProjectArchived)
	}
	return s.Tickets.Restore(ctx, ticketID)
}

// DeleteArchived permanently removes a ticket; only archived tickets
// can be deleted.
func (s *Tickets) DeleteArchived(ctx context.Context, actor Actor, ticketID string) error {
	t, err := s.Tickets.GetArchived(ctx, ticketID)
	if err != nil {
		return err
	}
	if err := s.requireTicketAuthority(ctx, actor, t); err != nil {
		return err
	}
	return s.Tickets.DeleteArchived(ctx, ticketID)
}

// AddComment appends a comment with a server-assigned timestamp.  The
// actor must be a member of the owning project; support tickets accept
// comments from any authenticated user.
func (s *Tickets) AddComment(ctx context.Context, actor Actor, ticketID, body string) error {
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("%w: comment body is required", ErrValidation)
	}
	comment := model.Comment{Author: actor.Name, Body: body, CreatedAt: time.Now().UTC()}

	isSupport, err := s.Support.Exists(ctx, ticketID)
	if err != nil {
		return err
	}
	if isSupport {
		return s.Support.AddComment(ctx, ticketID, comment)
	}

	t, err := s.Tickets.Get(ctx, ticketID)
	if err != nil {
		return err
	}
	p, err := s.Projects.Get(ctx, t.Project.ID)
	if err != nil {
		return err
	}
	if _, ok := p.Users.RoleOf(actor.ID); !ok && actor.ID != p.Creator {
		return fmt.Errorf("%w: user is not part of the project", authz.ErrForbidden)
	}
	t.Comments = append(t.Comments, comment)
	return s.Tickets.Update(ctx, t)
}

// DeleteComment removes the comment matching the given creation
// timestamp from an active ticket.
func (s *Tickets) DeleteComment(ctx context.Context, actor Actor, ticketID string, createdAt time.Time) error {
	t, err := s.Tickets.Get(ctx, ticketID)
	if err != nil {
		return err
	}
	kept := t.Comments[:0]
	for _, comment := range t.Comments {
		if !comment.CreatedAt.Equal(createdAt) {
			kept = append(kept, comment)
		}
	}
	if len(kept) == len(t.Comments) {
		return fmt.Errorf("%w: no comment with that timestamp", repository.ErrNotFound)
	}
	t.Comments = kept
	return s.Tickets.Update(ctx, t)
}

// CreateSupport opens a support ticket outside the project-membership
// and archive rules.
func (s *Tickets) CreateSupport(ctx context.Context, actor Actor, title, description, priority string) (*model.Ticket, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	now := time.Now().UTC()
	t := &model.Ticket{
		ID:			 uuid.NewString(),
		Title:		 title,
		Description: description,
		Creator:	 actor.ID,
		Priority:	 priority,
		Status:		 model.SupportOpen,
		Type:		 model.TypeSupport,
		Project:	 model.ProjectRef{Title: supportProjectTitle},
		CreatedAt:	 now,
		UpdatedAt:	 now,
	}
	if err := s.Support.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteSupport removes a support ticket; only its creator may do so.
func (s *Tickets) DeleteSupport(ctx context.Context, actor Actor, ticketID string) error {
	t, err := s.Support.Get(ctx, ticketID)
	if err != nil {
		return err
	}
	if t.Creator != actor.ID {
		return fmt.Errorf("%w: you are not the creator of this ticket", authz.ErrForbidden)
	}
	return s.Support.Delete(ctx, ticketID)
}
