package service

import (
	"context"
	"time"

	"github.com/iliyamo/bug-tracker/internal/model"
	"github.com/iliyamo/bug-tracker/internal/repository"
)

// fakeStore is an in-memory stand-in for the MySQL repositories.  It
// implements ProjectStore, TicketStore, SupportStore and UserStore and
// mimics the repositories' copy semantics: callers always get their
// own copy of a document, and writes replace the stored copy.
type fakeStore struct {
	projects		 map[string]*model.Project
	archivedProjects map[string]*model.Project
	tickets			 map[string]*model.Ticket
	archivedTickets	 map[string]*model.Ticket
	support			 map[string]*model.Ticket
	users			 map[string]*model.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects:		  map[string]*model.Project{},
		archivedProjects: map[string]*model.Project{},
		tickets:		  map[string]*model.Ticket{},
		archivedTickets:  map[string]*model.Ticket{},
		support:		  map[string]*model.Ticket{},
		users:			  map[string]*model.User{},
	}
}

func copyProject(p *model.Project) *model.Project {
	out := *p
	out.Users = model.Membership{}
	for id, member := range p.Users {
		out.Users[id] = member
	}
	out.Tickets = append([]string{}, p.Tickets...)
	return &out
}

func copyTicket(t *model.Ticket) *model.Ticket {
	out := *t
	if t.Developer != nil {
		dev := *t.Developer
		out.Developer = &dev
	}
	out.History = append([]model.HistoryEntry{}, t.History...)
	out.Comments = append([]model.Comment{}, t.Comments...)
	return &out
}

func copyUser(u *model.User) *model.User {
	out := *u
	out.Notifications = append([]model.Notification{}, u.Notifications...)
	return &out
}

// --- ProjectStore ---

func (f *fakeStore) Get(_ context.Context, id string) (*model.Project, error) {
	if p, ok := f.projects[id]; ok {
		return copyProject(p), nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) GetArchived(_ context.Context, id string) (*model.Project, error) {
	if p, ok := f.archivedProjects[id]; ok {
		return copyProject(p), nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) ExistsArchived(_ context.Context, id string) (bool, error) {
	_, ok := f.archivedProjects[id]
	return ok, nil
}

func (f *fakeStore) Create(_ context.Context, p *model.Project) error {
	f.projects[p.ID] = copyProject(p)
	return nil
}

func (f *fakeStore) Update(_ context.Context, p *model.Project) error {
	if _, ok := f.projects[p.ID]; !ok {
		return repository.ErrNotFound
	}
	f.projects[p.ID] = copyProject(p)
	return nil
}

func (f *fakeStore) CountByCreator(_ context.Context, creator string) (int, error) {
	n := 0
	for _, p := range f.projects {
		if p.Creator == creator {
			n++
		}
	}
	for _, p := range f.archivedProjects {
		if p.Creator == creator {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) Archive(_ context.Context, id string) error {
	p, ok := f.projects[id]
	if !ok {
		if _, already := f.archivedProjects[id]; already {
			return nil
		}
		return repository.ErrNotFound
	}
	moved := copyProject(p)
	moved.Status = model.ProjectArchived
	moved.UpdatedAt = time.Now().UTC()
	f.archivedProjects[id] = moved
	delete(f.projects, id)
	return nil
}

func (f *fakeStore) Restore(_ context.Context, id string) error {
	p, ok := f.archivedProjects[id]
	if !ok {
		if _, already := f.projects[id]; already {
			return nil
		}
		return repository.ErrNotFound
	}
	moved := copyProject(p)
	moved.Status = model.ProjectActive
	moved.UpdatedAt = time.Now().UTC()
	f.projects[id] = moved
	delete(f.archivedProjects, id)
	return nil
}

func (f *fakeStore) DeleteArchived(_ context.Context, id string) error {
	if _, ok := f.archivedProjects[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.archivedProjects, id)
	return nil
}

// --- TicketStore (methods named to satisfy the interface via a view type) ---

type fakeTickets struct{ *fakeStore }

func (f fakeTickets) Get(_ context.Context, id string) (*model.Ticket, error) {
	if t, ok := f.tickets[id]; ok {
		return copyTicket(t), nil
	}
	return nil, repository.ErrNotFound
}

func (f fakeTickets) GetArchived(_ context.Context, id string) (*model.Ticket, error) {
	if t, ok := f.archivedTickets[id]; ok {
		return copyTicket(t), nil
	}
	return nil, repository.ErrNotFound
}

func (f fakeTickets) ExistsArchived(_ context.Context, id string) (bool, error) {
	_, ok := f.archivedTickets[id]
	return ok, nil
}

func (f fakeTickets) Create(_ context.Context, t *model.Ticket) error {
	f.tickets[t.ID] = copyTicket(t)
	return nil
}

func (f fakeTickets) Update(_ context.Context, t *model.Ticket) error {
	if _, ok := f.tickets[t.ID]; !ok {
		return repository.ErrNotFound
	}
	f.tickets[t.ID] = copyTicket(t)
	return nil
}

func (f fakeTickets) CountByCreator(_ context.Context, creator string) (int, error) {
	n := 0
	for _, t := range f.tickets {
		if t.Creator == creator {
			n++
		}
	}
	for _, t := range f.archivedTickets {
		if t.Creator == creator {
			n++
		}
	}
	return n, nil
}

func (f fakeTickets) Archive(_ context.Context, id string) error {
	t, ok := f.tickets[id]
	if !ok {
		if _, already := f.archivedTickets[id]; already {
			return nil
		}
		return repository.ErrNotFound
	}
	moved := copyTicket(t)
	moved.Status = model.TicketArchived
	moved.UpdatedAt = time.Now().UTC()
	f.archivedTickets[id] = moved
	delete(f.tickets, id)
	return nil
}

func (f fakeTickets) Restore(_ context.Context, id string) error {
	t, ok := f.archivedTickets[id]
	if !ok {
		if _, already := f.tickets[id]; already {
			return nil
		}
		return repository.ErrNotFound
	}
	moved := copyTicket(t)
	moved.Status = model.TicketUnassigned
	moved.UpdatedAt = time.Now().UTC()
	f.tickets[id] = moved
	delete(f.archivedTickets, id)
	return nil
}

func (f fakeTickets) DeleteArchived(_ context.Context, id string) error {
	if _, ok := f.archivedTickets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.archivedTickets, id)
	return nil
}

// --- SupportStore ---

type fakeSupport struct{ *fakeStore }

func (f fakeSupport) Get(_ context.Context, id string) (*model.Ticket, error) {
	if t, ok := f.support[id]; ok {
		return copyTicket(t), nil
	}
	return nil, repository.ErrNotFound
}

func (f fakeSupport) Exists(_ context.Context, id string) (bool, error) {
	_, ok := f.support[id]
	return ok, nil
}

func (f fakeSupport) Create(_ context.Context, t *model.Ticket) error {
	f.support[t.ID] = copyTicket(t)
	return nil
}

func (f fakeSupport) Delete(_ context.Context, id string) error {
	if _, ok := f.support[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.support, id)
	return nil
}

func (f fakeSupport) AddComment(_ context.Context, id string, comment model.Comment) error {
	t, ok := f.support[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.Comments = append(t.Comments, comment)
	return nil
}

// --- UserStore ---

type fakeUsers struct{ *fakeStore }

func (f fakeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, repository.ErrNotFound
}

func (f fakeUsers) Notifications(_ context.Context, userID string) ([]model.Notification, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return append([]model.Notification{}, u.Notifications...), nil
}

func (f fakeUsers) SaveNotifications(_ context.Context, userID string, list []model.Notification) error {
	u, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Notifications = append([]model.Notification{}, list...)
	u.UnreadNotifications = model.CountUnread(list)
	return nil
}

func (f fakeUsers) PushNotification(_ context.Context, userID string, n model.Notification) error {
	u, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Notifications = append(u.Notifications, n)
	u.UnreadNotifications++
	return nil
}

func (f fakeUsers) UnreadCount(_ context.Context, userID string) (int, error) {
	u, ok := f.users[userID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return u.UnreadNotifications, nil
}

// --- fixture helpers ---

func (f *fakeStore) addUser(id, name string) {
	f.users[id] = &model.User{ID: id, Name: name, Email: id + "@example.com", Verified: true}
}

func (f *fakeStore) addProject(id, creator string, members model.Membership) *model.Project {
	p := &model.Project{
		ID:		 id,
		Title:	 "Project " + id,
		Creator: creator,
		Status:	 model.ProjectActive,
		Users:	 members,
		Tickets: []string{},
	}
	f.projects[id] = p
	return p
}

func (f *fakeStore) addTicket(id, creator, projectID string) *model.Ticket {
	t := &model.Ticket{
		ID:		 id,
		Title:	 "Ticket " + id,
		Creator: creator,
		Status:	 model.TicketUnassigned,
		Type:	 model.TypeBug,
		Project: model.ProjectRef{ID: projectID, Title: "Project " + projectID},
	}
	f.tickets[id] = t
	if p, ok := f.projects[projectID]; ok {
		p.Tickets = append(p.Tickets, id)
	}
	return t
}
