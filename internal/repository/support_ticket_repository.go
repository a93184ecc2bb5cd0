package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/bug-tracker/internal/model"
)

// SupportTicketRepo encapsulates queries against the standalone
// `support_tickets` table.  Support tickets never move through the
// archive lane; they are created and deleted in place.
type SupportTicketRepo struct{ DB *sql.DB }

func NewSupportTicketRepo(db *sql.DB) *SupportTicketRepo { return &SupportTicketRepo{DB: db} }

// Create inserts a new support ticket.
func (r *SupportTicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	args, err := ticketArgs(t)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO support_tickets ("+ticketCols+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)", args...)
	return err
}

// Get fetches a support ticket by id.
func (r *SupportTicketRepo) Get(ctx context.Context, id string) (*model.Ticket, error) {
	return scanTicket(r.DB.QueryRowContext(ctx,
		"SELECT "+ticketCols+" FROM support_tickets WHERE id=? LIMIT 1", id))
}

// Exists reports whether the id names a support ticket.
func (r *SupportTicketRepo) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM support_tickets WHERE id=? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Delete removes a support ticket.
func (r *SupportTicketRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM support_tickets WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddComment appends a comment to a support ticket through a single
// JSON_ARRAY_APPEND statement.
func (r *SupportTicketRepo) AddComment(ctx context.Context, id string, comment model.Comment) error {
	doc, err := jsonDoc(comment)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE support_tickets
		 SET comments = JSON_ARRAY_APPEND(COALESCE(comments, JSON_ARRAY()), '$', CAST(? AS JSON)),
			 updated_at = ?
		 WHERE id = ?`,
		doc, comment.CreatedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Search returns support tickets matching the title query, newest
// first, with the total count for pagination.
func (r *SupportTicketRepo) Search(ctx context.Context, query string, limit, offset int) ([]*model.Ticket, int, error) {
	pattern := "%" + query + "%"
	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM support_tickets WHERE title LIKE ?", pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+ticketCols+" FROM support_tickets WHERE title LIKE ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectTickets(rows, total)
}
