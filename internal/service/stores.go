package service

import (
	"context"

	"github.com/iliyamo/bug-tracker/internal/model"
)

// Actor is the authenticated identity attached to every request by the
// JWT middleware.
type Actor struct {
	ID	  string
	Name  string
	Email string
}

// ProjectStore is the slice of ProjectRepo the engine needs.
type ProjectStore interface {
	Get(ctx context.Context, id string) (*model.Project, error)
	GetArchived(ctx context.Context, id string) (*model.Project, error)
	ExistsArchived(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, p *model.Project) error
	Update(ctx context.Context, p *model.Project) error
	CountByCreator(ctx context.Context, creator string) (int, error)
	Archive(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	DeleteArchived(ctx context.Context, id string) error
}

// TicketStore is the slice of TicketRepo the engine needs.
type TicketStore interface {
	Get(ctx context.Context, id string) (*model.Ticket, error)
	GetArchived(ctx context.Context, id string) (*model.Ticket, error)
	ExistsArchived(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, t *model.Ticket) error
	Update(ctx context.Context, t *model.Ticket) error
	CountByCreator(ctx context.Context, creator string) (int, error)
	Archive(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	DeleteArchived(ctx context.Context, id string) error
}

// SupportStore is the slice of SupportTicketRepo the engine needs.
type SupportStore interface {
	Get(ctx context.Context, id string) (*model.Ticket, error)
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, t *model.Ticket) error
	Delete(ctx context.Context, id string) error
	AddComment(ctx context.Context, id string, comment model.Comment) error
}

// UserStore is the slice of UserRepo the notification dispatcher and
// membership manager need.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	Notifications(ctx context.Context, userID string) ([]model.Notification, error)
	SaveNotifications(ctx context.Context, userID string, list []model.Notification) error
	PushNotification(ctx context.Context, userID string, n model.Notification) error
	UnreadCount(ctx context.Context, userID string) (int, error)
}
