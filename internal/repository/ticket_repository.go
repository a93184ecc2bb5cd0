package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/bug-tracker/internal/model"
)

const ticketCols = "id,title,description,creator,priority,status,type,project_id,project_title,developer_id,developer_name,ticket_history,comments,created_at,updated_at"

// TicketRepo encapsulates queries against the active `tickets` table
// and its archived twin `ticket_archive`.  Like ProjectRepo, archive
// moves are transactional copy-then-delete with an idempotent copy.
type TicketRepo struct{ DB *sql.DB }

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{DB: db} }

func scanTicket(row interface{ Scan(...any) error }) (*model.Ticket, error) {
	var t model.Ticket
	var history, comments []byte
	var devID, devName sql.NullString
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Creator, &t.Priority, &t.Status,
		&t.Type, &t.Project.ID, &t.Project.Title, &devID, &devName,
		&history, &comments, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if devID.Valid {
		t.Developer = &model.Developer{ID: devID.String, Name: devName.String}
	}
	t.History = []model.HistoryEntry{}
	if err := scanDoc(history, &t.History); err != nil {
		return nil, err
	}
	t.Comments = []model.Comment{}
	if err := scanDoc(comments, &t.Comments); err != nil {
		return nil, err
	}
	return &t, nil
}

func ticketArgs(t *model.Ticket) ([]any, error) {
	if t.History == nil {
		t.History = []model.HistoryEntry{}
	}
	if t.Comments == nil {
		t.Comments = []model.Comment{}
	}
	history, err := jsonDoc(t.History)
	if err != nil {
		return nil, err
	}
	comments, err := jsonDoc(t.Comments)
	if err != nil {
		return nil, err
	}
	var devID, devName any
	if t.Developer != nil {
		devID, devName = t.Developer.ID, t.Developer.Name
	}
	return []any{t.ID, t.Title, t.Description, t.Creator, t.Priority, t.Status, t.Type,
		t.Project.ID, t.Project.Title, devID, devName, history, comments,
		t.CreatedAt, t.UpdatedAt}, nil
}

// Create inserts a new active ticket.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	args, err := ticketArgs(t)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO tickets ("+ticketCols+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)", args...)
	return err
}

// Get fetches an active ticket by id.
func (r *TicketRepo) Get(ctx context.Context, id string) (*model.Ticket, error) {
	return scanTicket(r.DB.QueryRowContext(ctx,
		"SELECT "+ticketCols+" FROM tickets WHERE id=? LIMIT 1", id))
}

// GetArchived fetches an archived ticket by id.
func (r *TicketRepo) GetArchived(ctx context.Context, id string) (*model.Ticket, error) {
	return scanTicket(r.DB.QueryRowContext(ctx,
		"SELECT "+ticketCols+" FROM ticket_archive WHERE id=? LIMIT 1", id))
}

// ExistsArchived reports whether the ticket lives in the archive.
func (r *TicketRepo) ExistsArchived(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM ticket_archive WHERE id=? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Update rewrites the mutable fields of an active ticket, including
// the appended history snapshot the service recorded.
func (r *TicketRepo) Update(ctx context.Context, t *model.Ticket) error {
	args, err := ticketArgs(t)
	if err != nil {
		return err
	}
	// ticketArgs puts the id first; the UPDATE wants it last.
	update := append(args[1:], t.ID)
	res, err := r.DB.ExecContext(ctx,
		`UPDATE tickets SET title=?, description=?, creator=?, priority=?, status=?, type=?,
		 project_id=?, project_title=?, developer_id=?, developer_name=?,
		 ticket_history=?, comments=?, created_at=?, updated_at=? WHERE id=?`, update...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.Get(ctx, t.ID); err != nil {
			return err
		}
	}
	return nil
}

// CountByCreator counts the creator's tickets across the active and
// archived collections.  The 100-ticket quota is enforced on this sum.
func (r *TicketRepo) CountByCreator(ctx context.Context, creator string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM tickets WHERE creator=?) +
				(SELECT COUNT(*) FROM ticket_archive WHERE creator=?)`,
		creator, creator).Scan(&n)
	return n, err
}

// Archive moves an active ticket into the archive with status forced
// to Archived and a refreshed updated_at.
func (r *TicketRepo) Archive(ctx context.Context, id string) error {
	return r.move(ctx, "tickets", "ticket_archive", id, model.TicketArchived)
}

// Restore moves an archived ticket back to the active collection with
// status forced to Unassigned.
func (r *TicketRepo) Restore(ctx context.Context, id string) error {
	return r.move(ctx, "ticket_archive", "tickets", id, model.TicketUnassigned)
}

// The named return lets the deferred commit report its failure.
func (r *TicketRepo) move(ctx context.Context, from, to, id string, status model.TicketStatus) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`INSERT IGNORE INTO `+to+` (`+ticketCols+`)
		 SELECT id,title,description,creator,priority,?,type,project_id,project_title,
				developer_id,developer_name,ticket_history,comments,created_at,?
		 FROM `+from+` WHERE id=?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if scanErr := tx.QueryRowContext(ctx,
			"SELECT 1 FROM "+to+" WHERE id=? LIMIT 1", id).Scan(&one); scanErr != nil {
			err = ErrNotFound
			return err
		}
	}
	_, err = tx.ExecContext(ctx, "DELETE FROM "+from+" WHERE id=?", id)
	return err
}

// DeleteArchived permanently removes a ticket from the archive.
func (r *TicketRepo) DeleteArchived(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM ticket_archive WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchActive returns active tickets matching the title query.
func (r *TicketRepo) SearchActive(ctx context.Context, query string, limit, offset int) ([]*model.Ticket, int, error) {
	return r.search(ctx, "tickets", "title LIKE ?", []any{"%" + query + "%"}, limit, offset)
}

// SearchMine returns active tickets the user created or develops.
func (r *TicketRepo) SearchMine(ctx context.Context, userID, query string, limit, offset int) ([]*model.Ticket, int, error) {
	return r.search(ctx, "tickets",
		"(creator=? OR developer_id=?) AND title LIKE ?",
		[]any{userID, userID, "%" + query + "%"}, limit, offset)
}

// SearchArchivedMine is SearchMine against the archive collection.
func (r *TicketRepo) SearchArchivedMine(ctx context.Context, userID, query string, limit, offset int) ([]*model.Ticket, int, error) {
	return r.search(ctx, "ticket_archive",
		"(creator=? OR developer_id=?) AND title LIKE ?",
		[]any{userID, userID, "%" + query + "%"}, limit, offset)
}

// SearchUnassigned returns unclaimed tickets inside projects the user
// belongs to, so developers can find work to pick up.
func (r *TicketRepo) SearchUnassigned(ctx context.Context, userID string, limit, offset int) ([]*model.Ticket, int, error) {
	return r.search(ctx, "tickets",
		"status=? AND project_id IN (SELECT id FROM projects WHERE creator=? OR "+memberPathExpr+")",
		[]any{model.TicketUnassigned, userID, userID}, limit, offset)
}

// SearchInDevelopment returns tickets the user is actively developing.
func (r *TicketRepo) SearchInDevelopment(ctx context.Context, userID string, limit, offset int) ([]*model.Ticket, int, error) {
	return r.search(ctx, "tickets",
		"developer_id=? AND status=?",
		[]any{userID, model.TicketDevelopment}, limit, offset)
}

func (r *TicketRepo) search(ctx context.Context, table, where string, args []any, limit, offset int) ([]*model.Ticket, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+table+" WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	queryArgs := append(append([]any{}, args...), limit, offset)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+ticketCols+" FROM "+table+" WHERE "+where+
			" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?", queryArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectTickets(rows, total)
}

func collectTickets(rows *sql.Rows, total int) ([]*model.Ticket, int, error) {
	var out []*model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

// ListByIDs returns the active tickets among the given ids, newest
// first.  An empty id set returns an empty slice without querying.
func (r *TicketRepo) ListByIDs(ctx context.Context, ids []string) ([]*model.Ticket, error) {
	return r.listByIDs(ctx, "tickets", ids)
}

// ListArchivedByIDs is ListByIDs against the archive collection.
func (r *TicketRepo) ListArchivedByIDs(ctx context.Context, ids []string) ([]*model.Ticket, error) {
	return r.listByIDs(ctx, "ticket_archive", ids)
}

func (r *TicketRepo) listByIDs(ctx context.Context, table string, ids []string) ([]*model.Ticket, error) {
	if len(ids) == 0 {
		return []*model.Ticket{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+ticketCols+" FROM "+table+" WHERE id IN ("+placeholders+") ORDER BY created_at DESC, id DESC",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out, _, err := collectTickets(rows, 0)
	if out == nil {
		out = []*model.Ticket{}
	}
	return out, err
}

// CountActiveForUser counts active tickets the user created or develops.
func (r *TicketRepo) CountActiveForUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tickets WHERE creator=? OR developer_id=?",
		userID, userID).Scan(&n)
	return n, err
}

// ListForUser returns all active tickets the user created or develops,
// used by the statistics aggregate.
func (r *TicketRepo) ListForUser(ctx context.Context, userID string) ([]*model.Ticket, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+ticketCols+" FROM tickets WHERE creator=? OR developer_id=?",
		userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out, _, err := collectTickets(rows, 0)
	return out, err
}
