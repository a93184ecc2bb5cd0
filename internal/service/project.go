package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/bug-tracker/internal/authz"
	"github.com/iliyamo/bug-tracker/internal/model"
	"github.com/iliyamo/bug-tracker/internal/repository"
)

// Projects owns the project state machine (Active ↔ Archived, with
// permanent deletion only from the archive) and the archive-move
// cascade over the project's tickets.
type Projects struct {
	Projects ProjectStore
	Tickets	 TicketStore
	Users	 UserStore
	Log		 *slog.Logger
}

func NewProjects(projects ProjectStore, tickets TicketStore, users UserStore, log *slog.Logger) *Projects {
	if log == nil {
		log = slog.Default()
	}
	return &Projects{Projects: projects, Tickets: tickets, Users: users, Log: log}
}

// Create registers a new Active project with the creator auto-enrolled
// as Admin, subject to the 5-project creator quota across active and
// archived collections.
func (s *Projects) Create(ctx context.Context, actor Actor, title, description string) (*model.Project, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	count, err := s.Projects.CountByCreator(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if count >= model.MaxProjectsPerCreator {
		return nil, fmt.Errorf("%w: you have exceeded the %d project limit", ErrQuotaExceeded, model.MaxProjectsPerCreator)
	}

	// The creator's entry is denormalized from the user record, not
	// the token, so a stale token cannot plant an outdated name.
	creator, err := s.Users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &model.Project{
		ID:			 uuid.NewString(),
		Title:		 title,
		Description: description,
		Creator:	 actor.ID,
		Status:		 model.ProjectActive,
		Users: model.Membership{
			actor.ID: {Name: creator.Name, Email: creator.Email, Role: model.RoleAdmin},
		},
		Tickets:   []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Projects.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update rewrites the project's title and description.  The actor must
// hold Admin in the project.
func (s *Projects) Update(ctx context.Context, actor Actor, projectID, title, description string) (*model.Project, error) {
	p, err := s.Projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor.ID, p.Creator, p.Users,
		authz.Requirement{Floor: model.RoleAdmin}); err != nil {
		return nil, err
	}
	if title != "" {
		p.Title = title
	}
	if description != "" {
		p.Description = description
	}
	p.UpdatedAt = time.Now().UTC()
	if err := s.Projects.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Archive moves the project and every ticket it owns into the archive
// collections.  The cascade runs ticket by ticket before the project
// document itself moves; each per-ticket move is transactional and
// idempotent, so a failed cascade can be retried.  Tickets that have
// already been moved (or deleted) are skipped.
func (s *Projects) Archive(ctx context.Context, actor Actor, projectID string) error {
	p, err := s.Projects.Get(ctx, projectID)
	if err != nil {
		return err
	}
	if err := authz.Authorize(actor.ID, p.Creator, p.Users,
		authz.Requirement{Floor: model.RoleAdmin, AllowCreator: true}); err != nil {
		return err
	}

	for _, ticketID := range p.Tickets {
		if err := s.Tickets.Archive(ctx, ticketID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				s.Log.Warn("archive cascade: ticket already gone", "project", projectID, "ticket", ticketID)
				continue
			}
			return fmt.Errorf("archive cascade: ticket %s: %w", ticketID, err)
		}
	}
	return s.Projects.Archive(ctx, projectID)
}

// Restore moves an archived project back to the active collection.
// Tickets stay archived; restoring them is a separate per-ticket
// operation.
func (s *Projects) Restore(ctx context.Context, actor Actor, projectID string) error {
	p, err := s.Projects.GetArchived(ctx, projectID)
	if err != nil {
		return err
	}
	if err := authz.Authorize(actor.ID, p.Creator, p.Users,
		authz.Requirement{Floor: model.RoleAdmin, AllowCreator: true}); err != nil {
		return err
	}
	return s.Projects.Restore(ctx, projectID)
}

// DeleteArchived permanently removes a project from the archive.  The
// actor must be the creator or hold Admin in the archived membership
// map.
func (s *Projects) DeleteArchived(ctx context.Context, actor Actor, projectID string) error {
	p, err := s.Projects.GetArchived(ctx, projectID)
	if err != nil {
		return err
	}
	if err := authz.Authorize(actor.ID, p.Creator, p.Users,
		authz.Requirement{Floor: model.RoleAdmin, AllowCreator: true}); err != nil {
		return err
	}
	return s.Projects.DeleteArchived(ctx, projectID)
}
