package service

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/bug-tracker/internal/authz"
	"github.com/iliyamo/bug-tracker/internal/model"
	"github.com/iliyamo/bug-tracker/internal/queue"
	"github.com/iliyamo/bug-tracker/internal/repository"
)

// MailFunc publishes an outbound mail message.  A nil MailFunc
// disables mail without disabling the flow it decorates.
type MailFunc func(ctx context.Context, msg queue.MailMessage) error

// Membership owns the project's user-role map: invitations, role
// assignment and removal all go through here so the escalation guards
// and the invite dedup rule live in one place.
type Membership struct {
	Projects ProjectStore
	Users	 UserStore
	Notify	 *Notifier
	Mail	 MailFunc
}

func NewMembership(projects ProjectStore, users UserStore, notify *Notifier, mail MailFunc) *Membership {
	return &Membership{Projects: projects, Users: users, Notify: notify, Mail: mail}
}

// InviteUsers sends a project invitation to each target.  Targets that
// already hold a pending invite with the same (inviter, project, role)
// tuple are dropped before dispatch, making the invitation idempotent
// per tuple.  The returned slice holds the ids that actually received
// a new invite; an empty slice is a no-op success.
func (m *Membership) InviteUsers(ctx context.Context, actor Actor, projectID string, targetIDs []string, role model.Role) ([]string, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	p, err := m.Projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor.ID, p.Creator, p.Users,
		authz.Requirement{Floor: model.RoleProjectManager, AllowCreator: true}); err != nil {
		return nil, err
	}

	invite := &model.Invite{InviterID: actor.ID, ProjectID: projectID, Role: role}

	var recipients []string
	seen := make(map[string]bool, len(targetIDs))
	for _, target := range targetIDs {
		if seen[target] {
			continue
		}
		seen[target] = true
		pending, err := m.hasPendingInvite(ctx, target, invite)
		if err != nil {
			return nil, err
		}
		if !pending {
			recipients = append(recipients, target)
		}
	}
	if len(recipients) == 0 {
		return []string{}, nil
	}

	err = m.Notify.Push(ctx, recipients, model.Notification{
		Title:		 fmt.Sprintf("%s has invited you to their project", actor.Name),
		Description: fmt.Sprintf("%s has invited you to project: %s, as a %s", actor.Name, p.Title, role),
		CreatedBy:	 actor.ID,
		Type:		 model.NotificationInvite,
		Invite:		 invite,
	})
	if err != nil {
		return nil, err
	}

	m.mailInvites(ctx, actor, p, role, recipients)
	return recipients, nil
}

// mailInvites queues an invite-notice email per recipient.  Mail is
// best effort: a broker or lookup failure must not fail the invite
// that already landed in the mailbox.
func (m *Membership) mailInvites(ctx context.Context, actor Actor, p *model.Project, role model.Role, recipients []string) {
	if m.Mail == nil {
		return
	}
	for _, target := range recipients {
		u, err := m.Users.GetByID(ctx, target)
		if err != nil {
			m.Notify.Log.Warn("invite mail lookup failed", "user", target, "err", err)
			continue
		}
		msg := queue.MailMessage{
			To:		   u.Email,
			Subject:   fmt.Sprintf("Invitation to project %s", p.Title),
			Body:	   fmt.Sprintf("Hi %s, %s has invited you to project %s as a %s.", u.Name, actor.Name, p.Title, role),
			Kind:	   "invite",
			UserID:	   target,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := m.Mail(ctx, msg); err != nil {
			m.Notify.Log.Warn("queue invite mail failed", "user", target, "err", err)
		}
	}
}

func (m *Membership) hasPendingInvite(ctx context.Context, userID string, invite *model.Invite) (bool, error) {
	list, err := m.Users.Notifications(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, n := range list {
		if n.Invite.Matches(invite) {
			return true, nil
		}
	}
	return false, nil
}

// AcceptInvite enrolls the actor into the invited project.  The actor
// must hold a notification whose invite matches the supplied one on
// (inviter, project, role); otherwise the accept fails with not found.
// On success the actor joins the membership map with the invited role
// and the invite notification is removed from their mailbox.
func (m *Membership) AcceptInvite(ctx context.Context, actor Actor, invite *model.Invite) error {
	list, err := m.Users.Notifications(ctx, actor.ID)
	if err != nil {
		return err
	}
	matched := -1
	for i := range list {
		if list[i].Invite.Matches(invite) {
			matched = i
			break
		}
	}
	if matched < 0 {
		return fmt.Errorf("%w: user does not have an invitation", repository.ErrNotFound)
	}
	accepted := list[matched].Invite

	p, err := m.Projects.Get(ctx, accepted.ProjectID)
	if err != nil {
		return err
	}
	// Merge, never replace: existing members keep their entries.
	if p.Users == nil {
		p.Users = model.Membership{}
	}
	p.Users[actor.ID] = model.Member{Name: actor.Name, Email: actor.Email, Role: accepted.Role}
	p.UpdatedAt = time.Now().UTC()
	if err := m.Projects.Update(ctx, p); err != nil {
		return err
	}

	// Drop the invite so access does not linger after a later kick.
	list = append(list[:matched], list[matched+1:]...)
	return m.Users.SaveNotifications(ctx, actor.ID, list)
}

// UpdateRoles merges role assignments into the membership map.  Each
// assignment passes the escalation guards; the creator's own entry is
// forced back to Admin regardless of the requested value.  Every
// reassigned user gets a notification describing their new role.
func (m *Membership) UpdateRoles(ctx context.Context, actor Actor, projectID string, assignments map[string]model.Member) error {
	p, err := m.Projects.Get(ctx, projectID)
	if err != nil {
		return err
	}
	actorRole, ok := p.Users.RoleOf(actor.ID)
	if !ok {
		return fmt.Errorf("%w: user is not in the project", authz.ErrForbidden)
	}

	for targetID, entry := range assignments {
		if !entry.Role.Valid() {
			return fmt.Errorf("%w: unknown role %q", ErrValidation, entry.Role)
		}
		currentRole, _ := p.Users.RoleOf(targetID)
		if err := authz.CanAssignRole(actorRole, actor.ID == p.Creator, entry.Role, currentRole == model.RoleAdmin); err != nil {
			return err
		}
	}

	// The creator always stays Admin, even when included in the batch.
	if entry, ok := assignments[p.Creator]; ok {
		entry.Role = model.RoleAdmin
		assignments[p.Creator] = entry
	}

	var notified []string
	for targetID, entry := range assignments {
		existing, isMember := p.Users[targetID]
		if !isMember {
			return fmt.Errorf("%w: user %s is not in the project", repository.ErrNotFound, targetID)
		}
		existing.Role = entry.Role
		p.Users[targetID] = existing
		notified = append(notified, targetID)
	}
	p.UpdatedAt = time.Now().UTC()
	if err := m.Projects.Update(ctx, p); err != nil {
		return err
	}

	for _, targetID := range notified {
		err := m.Notify.Push(ctx, []string{targetID}, model.Notification{
			Title:		 fmt.Sprintf("%s has changed your role in a project", actor.Name),
			Description: fmt.Sprintf("%s has changed your role to %s in project: %s.", actor.Name, p.Users[targetID].Role, p.Title),
			CreatedBy:	 actor.ID,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// RemoveUsers kicks the targets out of the project.  The actor must be
// an Admin; Admin targets can only be removed by the creator; the
// creator can never be removed (they must archive or delete the
// project instead), and self-removal goes through Leave, not here.
func (m *Membership) RemoveUsers(ctx context.Context, actor Actor, projectID string, targetIDs []string) error {
	p, err := m.Projects.Get(ctx, projectID)
	if err != nil {
		return err
	}
	if err := authz.Authorize(actor.ID, p.Creator, p.Users,
		authz.Requirement{Floor: model.RoleAdmin}); err != nil {
		return err
	}

	for _, target := range targetIDs {
		if target == p.Creator {
			return fmt.Errorf("%w: the project creator cannot be removed", authz.ErrForbidden)
		}
		if target == actor.ID {
			return fmt.Errorf("%w: use leave to remove yourself from a project", authz.ErrForbidden)
		}
		role, isMember := p.Users.RoleOf(target)
		if !isMember {
			return fmt.Errorf("%w: user %s is not in the project", repository.ErrNotFound, target)
		}
		if role == model.RoleAdmin && actor.ID != p.Creator {
			return fmt.Errorf("%w: only the project creator can remove an Admin", authz.ErrForbidden)
		}
	}

	for _, target := range targetIDs {
		delete(p.Users, target)
	}
	p.UpdatedAt = time.Now().UTC()
	if err := m.Projects.Update(ctx, p); err != nil {
		return err
	}

	return m.Notify.Push(ctx, targetIDs, model.Notification{
		Title:		 fmt.Sprintf("%s has removed you from a project", actor.Name),
		Description: fmt.Sprintf("%s has removed you from project: %s.", actor.Name, p.Title),
		CreatedBy:	 actor.ID,
	})
}

// Leave removes the actor's own membership entry.  The creator cannot
// leave; they must archive or delete the project.
func (m *Membership) Leave(ctx context.Context, actor Actor, projectID string) error {
	p, err := m.Projects.Get(ctx, projectID)
	if err != nil {
		return err
	}
	if actor.ID == p.Creator {
		return fmt.Errorf("%w: the creator cannot leave their own project", authz.ErrForbidden)
	}
	if _, ok := p.Users.RoleOf(actor.ID); !ok {
		return fmt.Errorf("%w: user is not in the project", authz.ErrForbidden)
	}
	delete(p.Users, actor.ID)
	p.UpdatedAt = time.Now().UTC()
	return m.Projects.Update(ctx, p)
}
