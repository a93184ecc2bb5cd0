package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/bug-tracker/internal/model"
)

const projectCols = "id,title,description,creator,status,users,tickets,created_at,updated_at"

// ProjectRepo encapsulates queries against the active `projects` table
// and its archived twin `project_archive`.  Moving a project between
// the two is a copy-then-delete performed inside a transaction; the
// copy uses INSERT IGNORE so a retried move that already completed
// phase one is a no-op rather than an error.
type ProjectRepo struct{ DB *sql.DB }

func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{DB: db} }

func scanProject(row interface{ Scan(...any) error }) (*model.Project, error) {
	var p model.Project
	var users, tickets []byte
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Creator, &p.Status,
		&users, &tickets, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Users = model.Membership{}
	if err := scanDoc(users, &p.Users); err != nil {
		return nil, err
	}
	p.Tickets = []string{}
	if err := scanDoc(tickets, &p.Tickets); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new active project.  The caller assigns id, status
// and the creator's Admin membership entry.
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
	users, err := jsonDoc(p.Users)
	if err != nil {
		return err
	}
	if p.Tickets == nil {
		p.Tickets = []string{}
	}
	tickets, err := jsonDoc(p.Tickets)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO projects ("+projectCols+") VALUES (?,?,?,?,?,?,?,?,?)",
		p.ID, p.Title, p.Description, p.Creator, p.Status, users, tickets, p.CreatedAt, p.UpdatedAt)
	return err
}

// Get fetches an active project by id.
func (r *ProjectRepo) Get(ctx context.Context, id string) (*model.Project, error) {
	return scanProject(r.DB.QueryRowContext(ctx,
		"SELECT "+projectCols+" FROM projects WHERE id=? LIMIT 1", id))
}

// GetArchived fetches an archived project by id.
func (r *ProjectRepo) GetArchived(ctx context.Context, id string) (*model.Project, error) {
	return scanProject(r.DB.QueryRowContext(ctx,
		"SELECT "+projectCols+" FROM project_archive WHERE id=? LIMIT 1", id))
}

// ExistsArchived reports whether the project lives in the archive.
func (r *ProjectRepo) ExistsArchived(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM project_archive WHERE id=? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Update rewrites the mutable fields of an active project.
func (r *ProjectRepo) Update(ctx context.Context, p *model.Project) error {
	users, err := jsonDoc(p.Users)
	if err != nil {
		return err
	}
	tickets, err := jsonDoc(p.Tickets)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE projects SET title=?, description=?, status=?, users=?, tickets=?, updated_at=? WHERE id=?",
		p.Title, p.Description, p.Status, users, tickets, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.Get(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

// CountByCreator counts the creator's projects across the active and
// archived collections.  The creation quota is enforced on this sum.
func (r *ProjectRepo) CountByCreator(ctx context.Context, creator string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM projects WHERE creator=?) +
				(SELECT COUNT(*) FROM project_archive WHERE creator=?)`,
		creator, creator).Scan(&n)
	return n, err
}

// Archive moves an active project into the archive with status forced
// to Archived.  The copy and delete run in one transaction; the named
// return lets the deferred commit report its failure.
func (r *ProjectRepo) Archive(ctx context.Context, id string) (err error) {
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
		`INSERT IGNORE INTO project_archive (`+projectCols+`)
		 SELECT id,title,description,creator,?,users,tickets,created_at,?
		 FROM projects WHERE id=?`,
		model.ProjectArchived, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Nothing copied: either the source row is gone or the archive
		// copy already exists from an earlier attempt.
		var one int
		if scanErr := tx.QueryRowContext(ctx,
			"SELECT 1 FROM project_archive WHERE id=? LIMIT 1", id).Scan(&one); scanErr != nil {
			err = ErrNotFound
			return err
		}
	}
	_, err = tx.ExecContext(ctx, "DELETE FROM projects WHERE id=?", id)
	return err
}

// Restore moves an archived project back to the active collection with
// status forced to Active and a refreshed updated_at.  Named return
// for the deferred commit.
func (r *ProjectRepo) Restore(ctx context.Context, id string) (err error) {
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
		`INSERT IGNORE INTO projects (`+projectCols+`)
		 SELECT id,title,description,creator,?,users,tickets,created_at,?
		 FROM project_archive WHERE id=?`,
		model.ProjectActive, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if scanErr := tx.QueryRowContext(ctx,
			"SELECT 1 FROM projects WHERE id=? LIMIT 1", id).Scan(&one); scanErr != nil {
			err = ErrNotFound
			return err
		}
	}
	_, err = tx.ExecContext(ctx, "DELETE FROM project_archive WHERE id=?", id)
	return err
}

// DeleteArchived permanently removes a project from the archive.
func (r *ProjectRepo) DeleteArchived(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM project_archive WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// memberPath builds the JSON path expression for a user's entry in the
// membership column, e.g. $."42".
const memberPathExpr = `JSON_CONTAINS_PATH(users, 'one', CONCAT('$."', ?, '"'))`

// SearchActive returns active projects matching the title query,
// newest first, with the total count for pagination.
func (r *ProjectRepo) SearchActive(ctx context.Context, query string, limit, offset int) ([]*model.Project, int, error) {
	return r.search(ctx, "projects",
		"title LIKE ?", []any{"%" + query + "%"}, limit, offset)
}

// SearchMine returns active projects the user belongs to (creator or
// member) matching the title query.
func (r *ProjectRepo) SearchMine(ctx context.Context, userID, query string, limit, offset int) ([]*model.Project, int, error) {
	return r.search(ctx, "projects",
		"(creator=? OR "+memberPathExpr+") AND title LIKE ?",
		[]any{userID, userID, "%" + query + "%"}, limit, offset)
}

// SearchArchivedMine is SearchMine against the archive collection.
func (r *ProjectRepo) SearchArchivedMine(ctx context.Context, userID, query string, limit, offset int) ([]*model.Project, int, error) {
	return r.search(ctx, "project_archive",
		"(creator=? OR "+memberPathExpr+") AND title LIKE ?",
		[]any{userID, userID, "%" + query + "%"}, limit, offset)
}

func (r *ProjectRepo) search(ctx context.Context, table, where string, args []any, limit, offset int) ([]*model.Project, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+table+" WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	queryArgs := append(append([]any{}, args...), limit, offset)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+projectCols+" FROM "+table+" WHERE "+where+
			" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?", queryArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// CountActiveForUser counts the active projects the user is a member of.
func (r *ProjectRepo) CountActiveForUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM projects WHERE "+memberPathExpr, userID).Scan(&n)
	return n, err
}
